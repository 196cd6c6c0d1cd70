package allocator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/models"
)

// Default seeds for the two shuffles. Changing them changes every assignment.
const (
	DefaultExistingSeed int64 = 42
	DefaultNewSeed      int64 = 24
)

const (
	DefaultJoinDateColumn = "join_date"
	DefaultTeamColumn     = "new_team"
	DefaultTeamPrefix     = "Team"
)

// Warning kinds
const (
	WarnMissingJoinDate     = "missing_join_date"
	WarnUnparseableJoinDate = "unparseable_join_date"
)

var (
	// ErrInvalidTeamCount is returned when fewer than one team is requested
	ErrInvalidTeamCount = errors.New("team count must be at least 1")
	// ErrMissingJoinDateField is returned when the roster has no join-date column
	ErrMissingJoinDateField = errors.New("join date column missing from roster")
)

// Allocator assigns roster members to teams
type Allocator struct {
	JoinDateColumn string
	TeamColumn     string
	TeamPrefix     string
	ExistingSeed   int64
	NewSeed        int64
}

// Option configures an Allocator
type Option func(*Allocator)

// WithJoinDateColumn sets the column holding each member's join date
func WithJoinDateColumn(name string) Option {
	return func(a *Allocator) {
		if name != "" {
			a.JoinDateColumn = name
		}
	}
}

// WithTeamColumn sets the column the assigned team is written to
func WithTeamColumn(name string) Option {
	return func(a *Allocator) {
		if name != "" {
			a.TeamColumn = name
		}
	}
}

// WithTeamPrefix sets the prefix of generated team names
func WithTeamPrefix(prefix string) Option {
	return func(a *Allocator) {
		if prefix != "" {
			a.TeamPrefix = prefix
		}
	}
}

// WithSeeds overrides the shuffle seeds. The two seeds must differ.
func WithSeeds(existing, newcomers int64) Option {
	return func(a *Allocator) {
		a.ExistingSeed = existing
		a.NewSeed = newcomers
	}
}

// NewAllocator creates a new allocator instance
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		JoinDateColumn: DefaultJoinDateColumn,
		TeamColumn:     DefaultTeamColumn,
		TeamPrefix:     DefaultTeamPrefix,
		ExistingSeed:   DefaultExistingSeed,
		NewSeed:        DefaultNewSeed,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocation is the result of one allocation run
type Allocation struct {
	// Roster is a copy of the input with the team column added
	Roster *models.Roster
	// Assignments maps row position to team name
	Assignments []string
	Teams       []models.TeamResult
	// Existing and New hold row positions in shuffled placement order
	Existing   []int
	New        []int
	IsNew      []bool
	Warnings   []models.RowWarning
	TeamColumn string
}

// Allocate runs the allocation with default settings
func Allocate(roster *models.Roster, cutoff time.Time, teamCount int) (*Allocation, error) {
	return NewAllocator().Allocate(roster, cutoff, teamCount)
}

// TeamName returns the name of the team at the given zero-based index
func (a *Allocator) TeamName(idx int) string {
	return fmt.Sprintf("%s %d", a.TeamPrefix, idx+1)
}

// Allocate partitions the roster at the cutoff and distributes members over
// teamCount teams. Existing members are dealt round-robin, new members go to
// the currently smallest team. The input roster is not modified.
func (a *Allocator) Allocate(roster *models.Roster, cutoff time.Time, teamCount int) (*Allocation, error) {
	if teamCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTeamCount, teamCount)
	}
	if !roster.HasColumn(a.JoinDateColumn) {
		return nil, fmt.Errorf("%w: %q", ErrMissingJoinDateField, a.JoinDateColumn)
	}

	n := roster.Len()
	existing, newcomers, warnings := a.Classify(roster, cutoff)

	isNew := make([]bool, n)
	for _, idx := range newcomers {
		isNew[idx] = true
	}

	Shuffle(existing, a.ExistingSeed)
	Shuffle(newcomers, a.NewSeed)

	teams := make([]models.TeamResult, teamCount)
	for i := range teams {
		teams[i] = models.TeamResult{Name: a.TeamName(i), Members: []int{}}
	}
	assignments := make([]string, n)

	// Existing members: round-robin
	for i, idx := range existing {
		t := i % teamCount
		teams[t].Members = append(teams[t].Members, idx)
		assignments[idx] = teams[t].Name
	}

	// New members: smallest team first
	fallback := 0
	for _, idx := range newcomers {
		var t int
		if len(existing) == 0 && allEmpty(teams) {
			t = fallback % teamCount
			fallback++
		} else {
			t = SmallestTeam(teams)
		}
		teams[t].Members = append(teams[t].Members, idx)
		assignments[idx] = teams[t].Name
	}

	annotated := roster.Clone()
	if !annotated.HasColumn(a.TeamColumn) {
		annotated.Columns = append(annotated.Columns, a.TeamColumn)
	}
	for i, row := range annotated.Rows {
		row[a.TeamColumn] = assignments[i]
	}

	return &Allocation{
		Roster:      annotated,
		Assignments: assignments,
		Teams:       teams,
		Existing:    existing,
		New:         newcomers,
		IsNew:       isNew,
		Warnings:    warnings,
		TeamColumn:  a.TeamColumn,
	}, nil
}

// Classify splits row positions into existing and new members, preserving
// roster order. Members without a usable join date count as existing.
func (a *Allocator) Classify(roster *models.Roster, cutoff time.Time) (existing, newcomers []int, warnings []models.RowWarning) {
	existing = []int{}
	newcomers = []int{}
	for idx, row := range roster.Rows {
		raw := row[a.JoinDateColumn]
		joined, ok := ParseDate(raw)
		if !ok {
			kind := WarnUnparseableJoinDate
			if isBlank(raw) {
				kind = WarnMissingJoinDate
			}
			warnings = append(warnings, models.RowWarning{
				Row:    idx,
				Column: a.JoinDateColumn,
				Value:  raw,
				Kind:   kind,
			})
			existing = append(existing, idx)
			continue
		}
		if joined.After(cutoff) {
			newcomers = append(newcomers, idx)
		} else {
			existing = append(existing, idx)
		}
	}
	return existing, newcomers, warnings
}

// Shuffle permutes ids in place with a generator seeded only for this call
func Shuffle(ids []int, seed int64) {
	if len(ids) < 2 {
		return
	}
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// SmallestTeam returns the index of the team with the fewest members.
// Ties go to the lowest index.
func SmallestTeam(teams []models.TeamResult) int {
	best := 0
	for i := 1; i < len(teams); i++ {
		if len(teams[i].Members) < len(teams[best].Members) {
			best = i
		}
	}
	return best
}

func allEmpty(teams []models.TeamResult) bool {
	for _, t := range teams {
		if len(t.Members) > 0 {
			return false
		}
	}
	return true
}
