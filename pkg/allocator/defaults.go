package allocator

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/models"
)

// FallbackTeamCount is used when the roster carries no prior teams
const FallbackTeamCount = 3

// DefaultCutoff suggests a cutoff at the 75th percentile of the parseable join
// dates, so roughly the most recent quarter of members counts as new.
func DefaultCutoff(roster *models.Roster, column string, now time.Time) time.Time {
	var dates []time.Time
	for _, row := range roster.Rows {
		if t, ok := ParseDate(row[column]); ok {
			dates = append(dates, t)
		}
	}
	if len(dates) == 0 {
		return truncateToDate(now)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	pos := 0.75 * float64(len(dates)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	span := dates[hi].Sub(dates[lo])
	q := dates[lo].Add(time.Duration(frac * float64(span)))
	return truncateToDate(q)
}

// DefaultTeamCount returns the number of distinct prior teams, or
// FallbackTeamCount when the column is absent or empty
func DefaultTeamCount(roster *models.Roster, priorColumn string) int {
	if priorColumn == "" || !roster.HasColumn(priorColumn) {
		return FallbackTeamCount
	}
	seen := make(map[string]bool)
	for _, row := range roster.Rows {
		v := strings.TrimSpace(row[priorColumn])
		if v != "" {
			seen[v] = true
		}
	}
	if len(seen) == 0 {
		return FallbackTeamCount
	}
	return len(seen)
}
