package models

import (
	"sort"
	"strconv"
)

// Roster is an ordered table of member records. A record's position in Rows
// is its identity for the duration of an allocation run.
type Roster struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Len returns the number of members in the roster
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// HasColumn reports whether the roster schema contains the named column
func (r *Roster) HasColumn(name string) bool {
	if r == nil {
		return false
	}
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the roster
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	out := &Roster{
		Columns: append([]string(nil), r.Columns...),
		Rows:    make([]map[string]string, len(r.Rows)),
	}
	for i, row := range r.Rows {
		cp := make(map[string]string, len(row)+1)
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// RosterInput is the JSON form of a roster. Row values may be any JSON scalar.
type RosterInput struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ToRoster normalises the JSON input to string-valued records. When no
// columns are given the sorted union of row keys is used.
func (in RosterInput) ToRoster() *Roster {
	cols := append([]string(nil), in.Columns...)
	if len(cols) == 0 {
		seen := make(map[string]bool)
		for _, row := range in.Rows {
			for k := range row {
				if !seen[k] {
					seen[k] = true
					cols = append(cols, k)
				}
			}
		}
		sort.Strings(cols)
	}

	rows := make([]map[string]string, len(in.Rows))
	for i, row := range in.Rows {
		rec := make(map[string]string, len(cols))
		for _, c := range cols {
			rec[c] = scalarString(row[c])
		}
		rows[i] = rec
	}
	return &Roster{Columns: cols, Rows: rows}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// AllocateInput is the data structure for the allocation endpoint
type AllocateInput struct {
	Roster             RosterInput `json:"roster"`
	Cutoff             string      `json:"cutoff"`
	TeamCount          *int        `json:"team_count"`
	JoinDateColumn     string      `json:"join_date_column,omitempty"`
	PriorTeamColumn    string      `json:"prior_team_column,omitempty"`
	TeamColumn         string      `json:"team_column,omitempty"`
	NumericColumns     []string    `json:"numeric_columns,omitempty"`
	CategoricalColumns []string    `json:"categorical_columns,omitempty"`
}

// TeamResult lists the row positions placed into one team, in placement order
type TeamResult struct {
	Name    string `json:"name"`
	Members []int  `json:"members"`
}

// RowWarning flags a join date that could not be used for classification
type RowWarning struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Kind   string `json:"kind"`
}

// TeamSummary is the per-team composition report
type TeamSummary struct {
	Team          string                  `json:"team"`
	MemberCount   int                     `json:"member_count"`
	ExistingCount int                     `json:"existing_count"`
	NewCount      int                     `json:"new_count"`
	PriorTeams    []ValueCount            `json:"prior_teams,omitempty"`
	Averages      map[string]*float64     `json:"averages,omitempty"`
	Distributions map[string][]ValueCount `json:"distributions,omitempty"`
}

// ValueCount is one entry of a categorical distribution
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// AllocateResponse is the data structure for the allocation result
type AllocateResponse struct {
	RunID         string        `json:"run_id"`
	Cutoff        string        `json:"cutoff"`
	TeamCount     int           `json:"team_count"`
	TotalMembers  int           `json:"total_members"`
	ExistingCount int           `json:"existing_count"`
	NewCount      int           `json:"new_count"`
	Roster        *Roster       `json:"roster"`
	Teams         []TeamResult  `json:"teams"`
	Summary       []TeamSummary `json:"summary"`
	Moved         []int         `json:"moved"`
	Warnings      []RowWarning  `json:"warnings"`
}
