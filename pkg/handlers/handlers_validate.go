package handlers

import (
	"net/http"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks a schedule request without generating anything
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.ScheduleRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if err := h.Service.Validate(&input); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	if len(input.Staff) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": apperrors.ErrEmptyStaffList.Error()})
		return
	}

	start, _ := time.Parse("2006-01-02", input.StartDate)
	end, _ := time.Parse("2006-01-02", input.EndDate)
	if end.Before(start) {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": apperrors.ErrInvalidDateRange.Error()})
		return
	}

	// duplicates are dropped by the scheduler but reported here
	seen := make(map[string]bool)
	var duplicates []string
	for _, id := range input.Staff {
		if seen[id] {
			duplicates = append(duplicates, id)
		}
		seen[id] = true
	}

	opts := h.Service.Options(&input)
	days := int(end.Sub(start).Hours()/24) + 1
	resp := gin.H{
		"valid": len(duplicates) == 0,
		"stats": gin.H{
			"staff_count": len(seen),
			"days":        days,
			"off_days":    max(0, days-min(opts.MaxWorkPerStaff, days)),
		},
	}
	if len(duplicates) > 0 {
		resp["error"] = "Duplicate staff ID: " + duplicates[0]
		resp["duplicates"] = duplicates
	}
	c.JSON(http.StatusOK, resp)
}
