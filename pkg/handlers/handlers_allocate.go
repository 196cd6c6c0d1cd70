package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/allocator"
	"github.com/arnavshah/team-allocator-go/pkg/config"
	"github.com/arnavshah/team-allocator-go/pkg/logger"
	"github.com/arnavshah/team-allocator-go/pkg/models"
	"github.com/arnavshah/team-allocator-go/pkg/roster"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Error codes returned to clients
const (
	codeInvalidTeamCount     = "invalid_team_count"
	codeMissingJoinDateField = "missing_join_date_field"
	codeInvalidCutoff        = "invalid_cutoff"
	codeInvalidRoster        = "invalid_roster"
	codeRosterTooLarge       = "roster_too_large"
)

var (
	errRosterTooLarge = errors.New("roster exceeds the maximum number of rows")
	errBodyTooLarge   = errors.New("request body exceeds the maximum upload size")
	errBadTeamCount   = errors.New("team count is not an integer")
)

// bodyTooLarge reports whether err came from reading past MaxUploadBytes
func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, errBodyTooLarge)
}

// allocationRequest is the transport-neutral form of an allocation request
type allocationRequest struct {
	Roster    *models.Roster
	Cutoff    string
	TeamCount *int
	Columns   config.Columns
}

// columnsFor applies per-request column names over the configured ones
func (h *Handler) columnsFor(joinDate, priorTeam, team string, numeric, categorical []string) config.Columns {
	cols := h.Config.Columns
	if joinDate != "" {
		cols.JoinDate = joinDate
	}
	if priorTeam != "" {
		cols.PriorTeam = priorTeam
	}
	if team != "" {
		cols.Team = team
	}
	if len(numeric) > 0 {
		cols.Numeric = numeric
	}
	if len(categorical) > 0 {
		cols.Categorical = categorical
	}
	return cols
}

// runAllocation resolves defaults, allocates and builds the response
func (h *Handler) runAllocation(c *gin.Context, req allocationRequest) (*models.AllocateResponse, error) {
	log := logger.FromContext(c, h.Log)
	ros := req.Roster
	cols := req.Columns

	if h.Config.MaxRosterRows > 0 && ros.Len() > h.Config.MaxRosterRows {
		return nil, fmt.Errorf("%w: %d > %d", errRosterTooLarge, ros.Len(), h.Config.MaxRosterRows)
	}

	teamCount := allocator.DefaultTeamCount(ros, cols.PriorTeam)
	if req.TeamCount != nil {
		teamCount = *req.TeamCount
	}

	var cutoff time.Time
	if strings.TrimSpace(req.Cutoff) == "" {
		cutoff = allocator.DefaultCutoff(ros, cols.JoinDate, time.Now())
	} else {
		var err error
		if cutoff, err = allocator.ParseCutoff(req.Cutoff); err != nil {
			return nil, err
		}
	}

	a := allocator.NewAllocator(
		allocator.WithJoinDateColumn(cols.JoinDate),
		allocator.WithTeamColumn(cols.Team),
	)
	alloc, err := a.Allocate(ros, cutoff, teamCount)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	resp := &models.AllocateResponse{
		RunID:         runID,
		Cutoff:        cutoff.Format(dateLayout),
		TeamCount:     teamCount,
		TotalMembers:  ros.Len(),
		ExistingCount: len(alloc.Existing),
		NewCount:      len(alloc.New),
		Roster:        alloc.Roster,
		Teams:         alloc.Teams,
		Summary: allocator.Summarize(alloc, allocator.SummaryOptions{
			PriorTeamColumn:    cols.PriorTeam,
			NumericColumns:     cols.Numeric,
			CategoricalColumns: cols.Categorical,
		}),
		Moved:    allocator.Moved(alloc, cols.PriorTeam),
		Warnings: alloc.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []models.RowWarning{}
	}

	log.Info("allocation finished",
		"run_id", runID,
		"members", resp.TotalMembers,
		"existing", resp.ExistingCount,
		"new", resp.NewCount,
		"teams", teamCount,
		"warnings", len(resp.Warnings),
	)
	if len(resp.Warnings) > 0 {
		log.Warn("join dates treated as existing", "run_id", runID, "count", len(resp.Warnings))
	}

	h.RecordUsage(c, resp.TotalMembers, teamCount)
	return resp, nil
}

// writeError maps allocation errors to HTTP responses
func (h *Handler) writeError(c *gin.Context, err error) {
	status, code := http.StatusBadRequest, ""
	switch {
	case errors.Is(err, allocator.ErrInvalidTeamCount), errors.Is(err, errBadTeamCount):
		code = codeInvalidTeamCount
	case errors.Is(err, allocator.ErrMissingJoinDateField):
		code = codeMissingJoinDateField
	case errors.Is(err, allocator.ErrInvalidCutoff):
		code = codeInvalidCutoff
	case errors.Is(err, errRosterTooLarge), bodyTooLarge(err):
		status, code = http.StatusRequestEntityTooLarge, codeRosterTooLarge
	case errors.Is(err, roster.ErrEmptyRoster), errors.Is(err, roster.ErrInvalidHeader),
		errors.Is(err, roster.ErrInvalidRow), errors.Is(err, roster.ErrUnsupportedCharset):
		code = codeInvalidRoster
	default:
		logger.FromContext(c, h.Log).Error("allocation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Allocation failed"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// AllocateJSON handles the JSON-based allocation request
func (h *Handler) AllocateJSON(c *gin.Context) {
	var input models.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		if bodyTooLarge(err) {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": codeInvalidRoster})
		return
	}

	resp, err := h.runAllocation(c, allocationRequest{
		Roster:    input.Roster.ToRoster(),
		Cutoff:    input.Cutoff,
		TeamCount: input.TeamCount,
		Columns: h.columnsFor(input.JoinDateColumn, input.PriorTeamColumn, input.TeamColumn,
			input.NumericColumns, input.CategoricalColumns),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// csvAllocateResponse adds the exported CSV to the allocation result
type csvAllocateResponse struct {
	*models.AllocateResponse
	CSV string `json:"csv"`
}

// AllocateCSV handles roster uploads. The result is returned as JSON with
// the CSV inline, or as a CSV download when format=file.
func (h *Handler) AllocateCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("roster_file")
	if err != nil && bodyTooLarge(err) {
		h.writeError(c, err)
		return
	}
	if err != nil || fileHeader == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster_file is required", "code": codeInvalidRoster})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open roster file"})
		return
	}
	defer f.Close()

	ros, err := roster.ReadCSV(f, c.PostForm("charset"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	var teamCount *int
	if raw := strings.TrimSpace(c.PostForm("team_count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(c, fmt.Errorf("%w: %q", errBadTeamCount, raw))
			return
		}
		teamCount = &n
	}

	cols := h.columnsFor(c.PostForm("join_date_column"), c.PostForm("prior_team_column"),
		c.PostForm("team_column"), splitList(c.PostForm("numeric_columns")), splitList(c.PostForm("categorical_columns")))

	resp, err := h.runAllocation(c, allocationRequest{
		Roster:    ros,
		Cutoff:    c.PostForm("cutoff"),
		TeamCount: teamCount,
		Columns:   cols,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := roster.WriteCSV(&buf, resp.Roster, cols.Name, cols.PriorTeam, cols.Team, cols.JoinDate); err != nil {
		h.writeError(c, err)
		return
	}

	if c.PostForm("format") == "file" {
		filename := fmt.Sprintf("team_assignment_%s.csv", time.Now().Format("20060102_150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("X-Run-ID", resp.RunID)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, csvAllocateResponse{AllocateResponse: resp, CSV: buf.String()})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
