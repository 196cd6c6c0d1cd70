package allocator

import (
	"reflect"
	"testing"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/models"
)

func summaryRoster() *models.Roster {
	return &models.Roster{
		Columns: []string{"name", "join_date", "current_team", "age", "gender"},
		Rows: []map[string]string{
			{"name": "a", "join_date": "2020-01-01", "current_team": "Team 1", "age": "30", "gender": "F"},
			{"name": "b", "join_date": "2020-02-01", "current_team": "Team 2", "age": "41", "gender": "M"},
			{"name": "c", "join_date": "2020-03-01", "current_team": "Team 1", "age": "", "gender": "F"},
			{"name": "d", "join_date": "2024-01-01", "current_team": "", "age": "25", "gender": "nan"},
			{"name": "e", "join_date": "2024-02-01", "current_team": "", "age": "x", "gender": "M"},
		},
	}
}

func TestSummarize(t *testing.T) {
	alloc, err := Allocate(summaryRoster(), date("2023-01-01"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := Summarize(alloc, SummaryOptions{
		PriorTeamColumn:    "current_team",
		NumericColumns:     []string{"age", "participation"},
		CategoricalColumns: []string{"gender", "region"},
	})

	if len(summary) != 2 {
		t.Fatalf("Expected 2 team summaries, got %d", len(summary))
	}

	total, existing, newcomers := 0, 0, 0
	for i, s := range summary {
		if s.Team != alloc.Teams[i].Name {
			t.Errorf("Summary %d: team %q, want %q", i, s.Team, alloc.Teams[i].Name)
		}
		if s.ExistingCount+s.NewCount != s.MemberCount {
			t.Errorf("%s: existing %d + new %d != %d", s.Team, s.ExistingCount, s.NewCount, s.MemberCount)
		}
		if _, ok := s.Averages["participation"]; ok {
			t.Errorf("%s: absent column should not be averaged", s.Team)
		}
		if _, ok := s.Distributions["region"]; ok {
			t.Errorf("%s: absent column should not be distributed", s.Team)
		}
		for _, vc := range s.Distributions["gender"] {
			if vc.Value == "nan" {
				t.Errorf("%s: empty marker leaked into distribution", s.Team)
			}
		}
		total += s.MemberCount
		existing += s.ExistingCount
		newcomers += s.NewCount
	}
	if total != 5 || existing != 3 || newcomers != 2 {
		t.Errorf("Expected totals 5/3/2, got %d/%d/%d", total, existing, newcomers)
	}
}

func TestMean(t *testing.T) {
	ros := summaryRoster()

	got := mean(ros, []int{0, 1, 2, 4}, "age")
	if got == nil || *got != 35.5 {
		t.Errorf("Expected mean 35.5, got %v", got)
	}
	if got := mean(ros, []int{2, 4}, "age"); got != nil {
		t.Errorf("Expected nil mean without numeric values, got %v", *got)
	}
}

func TestDistribution(t *testing.T) {
	ros := summaryRoster()
	got := distribution(ros, []int{0, 1, 2, 3, 4}, "gender")
	want := []models.ValueCount{{Value: "F", Count: 2}, {Value: "M", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMoved(t *testing.T) {
	alloc, err := Allocate(summaryRoster(), date("2023-01-01"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{}
	for idx, row := range alloc.Roster.Rows {
		if row["current_team"] != "" && row["current_team"] != alloc.Assignments[idx] {
			want = append(want, idx)
		}
	}
	if got := Moved(alloc, "current_team"); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected moved %v, got %v", want, got)
	}
	if got := Moved(alloc, "missing"); len(got) != 0 {
		t.Errorf("Expected nothing moved for absent column, got %v", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2023-10-25", "2023-10-25", true},
		{" 2023/10/25 ", "2023-10-25", true},
		{"10/25/2023", "2023-10-25", true},
		{"2023.10.25", "2023-10-25", true},
		{"2023. 10. 25.", "2023-10-25", true},
		{"20231025", "2023-10-25", true},
		{"2023-10-25 08:30:00", "2023-10-25", true},
		{"2023-10-25T08:30:00Z", "2023-10-25", true},
		{"", "", false},
		{"yesterday", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseCutoff(t *testing.T) {
	if _, err := ParseCutoff("2023-12-31"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseCutoff("soon"); err == nil {
		t.Error("Expected error for invalid cutoff")
	}
}

func TestDefaultCutoff(t *testing.T) {
	ros := buildRoster("2024-01-05", "2024-01-01", "nope", "2024-01-03", "2024-01-02")
	got := DefaultCutoff(ros, "join_date", time.Now())
	if got.Format("2006-01-02") != "2024-01-03" {
		t.Errorf("Expected 2024-01-03, got %s", got.Format("2006-01-02"))
	}

	now := time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)
	empty := buildRoster("", "n/a")
	if got := DefaultCutoff(empty, "join_date", now); !got.Equal(date("2025-03-04")) {
		t.Errorf("Expected today's date, got %s", got)
	}
}

func TestDefaultTeamCount(t *testing.T) {
	if got := DefaultTeamCount(summaryRoster(), "current_team"); got != 2 {
		t.Errorf("Expected 2 prior teams, got %d", got)
	}
	if got := DefaultTeamCount(summaryRoster(), "missing"); got != FallbackTeamCount {
		t.Errorf("Expected fallback %d, got %d", FallbackTeamCount, got)
	}
}
