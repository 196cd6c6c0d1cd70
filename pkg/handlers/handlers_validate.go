package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/allocator"
	"github.com/arnavshah/team-allocator-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks an allocation request without allocating
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"valid": false, "code": codeRosterTooLarge, "error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	ros := input.Roster.ToRoster()
	cols := h.columnsFor(input.JoinDateColumn, input.PriorTeamColumn, input.TeamColumn, nil, nil)

	if ros.Len() == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one member is required"})
		return
	}
	if h.Config.MaxRosterRows > 0 && ros.Len() > h.Config.MaxRosterRows {
		c.JSON(http.StatusOK, gin.H{"valid": false, "code": codeRosterTooLarge, "error": errRosterTooLarge.Error()})
		return
	}
	if input.TeamCount != nil && *input.TeamCount < 1 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "code": codeInvalidTeamCount, "error": allocator.ErrInvalidTeamCount.Error()})
		return
	}
	if !ros.HasColumn(cols.JoinDate) {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"code":  codeMissingJoinDateField,
			"error": "Required column missing: " + cols.JoinDate,
		})
		return
	}

	var cutoff time.Time
	if strings.TrimSpace(input.Cutoff) == "" {
		cutoff = allocator.DefaultCutoff(ros, cols.JoinDate, time.Now())
	} else {
		var err error
		if cutoff, err = allocator.ParseCutoff(input.Cutoff); err != nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "code": codeInvalidCutoff, "error": err.Error()})
			return
		}
	}

	teamCount := allocator.DefaultTeamCount(ros, cols.PriorTeam)
	if input.TeamCount != nil {
		teamCount = *input.TeamCount
	}

	a := allocator.NewAllocator(allocator.WithJoinDateColumn(cols.JoinDate))
	existing, newcomers, warnings := a.Classify(ros, cutoff)
	if warnings == nil {
		warnings = []models.RowWarning{}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"warnings": warnings,
		"stats": gin.H{
			"member_count":   ros.Len(),
			"existing_count": len(existing),
			"new_count":      len(newcomers),
			"team_count":     teamCount,
			"cutoff":         cutoff.Format(dateLayout),
		},
	})
}
