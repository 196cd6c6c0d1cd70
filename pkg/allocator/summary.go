package allocator

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/arnavshah/team-allocator-go/pkg/models"
)

// SummaryOptions selects the columns reported per team
type SummaryOptions struct {
	PriorTeamColumn    string
	NumericColumns     []string
	CategoricalColumns []string
}

// Values treated as "no data" in categorical distributions
var emptyMarkers = map[string]bool{
	"":      true,
	"nan":   true,
	"none":  true,
	"nat":   true,
	"null":  true,
	"n/a":   true,
	"정보 없음": true,
}

// Summarize reports the composition of every team in team order
func Summarize(alloc *Allocation, opts SummaryOptions) []models.TeamSummary {
	ros := alloc.Roster
	out := make([]models.TeamSummary, 0, len(alloc.Teams))

	for _, team := range alloc.Teams {
		sum := models.TeamSummary{
			Team:        team.Name,
			MemberCount: len(team.Members),
		}
		for _, idx := range team.Members {
			if alloc.IsNew[idx] {
				sum.NewCount++
			} else {
				sum.ExistingCount++
			}
		}

		if opts.PriorTeamColumn != "" && ros.HasColumn(opts.PriorTeamColumn) {
			sum.PriorTeams = distribution(ros, team.Members, opts.PriorTeamColumn)
		}

		for _, col := range opts.NumericColumns {
			if !ros.HasColumn(col) {
				continue
			}
			if sum.Averages == nil {
				sum.Averages = make(map[string]*float64)
			}
			sum.Averages[col] = mean(ros, team.Members, col)
		}

		for _, col := range opts.CategoricalColumns {
			if !ros.HasColumn(col) {
				continue
			}
			if sum.Distributions == nil {
				sum.Distributions = make(map[string][]models.ValueCount)
			}
			sum.Distributions[col] = distribution(ros, team.Members, col)
		}

		out = append(out, sum)
	}
	return out
}

// Moved returns the row positions whose prior team is set and differs from
// the newly assigned team
func Moved(alloc *Allocation, priorColumn string) []int {
	moved := []int{}
	if priorColumn == "" || !alloc.Roster.HasColumn(priorColumn) {
		return moved
	}
	for idx, row := range alloc.Roster.Rows {
		prior := strings.TrimSpace(row[priorColumn])
		if prior == "" {
			continue
		}
		if prior != alloc.Assignments[idx] {
			moved = append(moved, idx)
		}
	}
	return moved
}

func mean(ros *models.Roster, members []int, col string) *float64 {
	var total float64
	count := 0
	for _, idx := range members {
		v, err := strconv.ParseFloat(strings.TrimSpace(ros.Rows[idx][col]), 64)
		if err != nil || math.IsNaN(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return nil
	}
	avg := math.Round(total/float64(count)*100) / 100
	return &avg
}

func distribution(ros *models.Roster, members []int, col string) []models.ValueCount {
	counts := make(map[string]int)
	for _, idx := range members {
		v := strings.TrimSpace(ros.Rows[idx][col])
		if emptyMarkers[strings.ToLower(v)] {
			continue
		}
		counts[v]++
	}

	out := make([]models.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, models.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
