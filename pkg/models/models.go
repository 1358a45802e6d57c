package models

import (
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
)

// ScheduleRequest is the input of the preview and validate endpoints.
// Optional tuning fields fall back to the server defaults when omitted.
type ScheduleRequest struct {
	Staff            []string `json:"staff" validate:"omitempty,dive,required,max=64"`
	StartDate        string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	MaxWorkPerStaff  *int     `json:"max_work_per_staff,omitempty" validate:"omitempty,min=0,max=366"`
	WeekendOffRatio  *float64 `json:"weekend_off_ratio,omitempty" validate:"omitempty,min=0,max=1"`
	MinWorkingPerDay *int     `json:"min_working_per_day,omitempty" validate:"omitempty,min=0"`
}

// ApplyRequest generates a schedule and persists it for a department
type ApplyRequest struct {
	ScheduleRequest
	Department      string `json:"department" validate:"required,max=64"`
	ReplaceExisting bool   `json:"replace_existing"`
}

// ScheduleResponse is the data structure for the scheduling result
type ScheduleResponse struct {
	Dates         []string                     `json:"dates"`
	Staff         []string                     `json:"staff"`
	Schedule      map[string][]scheduler.Label `json:"schedule"`
	Quotas        []int                        `json:"quotas"`
	FairnessScore float64                      `json:"fairness_score"`
	Options       scheduler.Options            `json:"options"`
	Diagnostics   scheduler.Diagnostics        `json:"diagnostics"`
	Message       string                       `json:"message,omitempty"`
}

// ApplyResponse reports what an apply wrote
type ApplyResponse struct {
	BatchID        string           `json:"batch_id,omitempty"`
	Department     string           `json:"department"`
	RecordsWritten int              `json:"records_written"`
	RecordsDeleted int64            `json:"records_deleted"`
	Schedule       ScheduleResponse `json:"schedule"`
}

// ShiftCodeRequest updates the default times of a shift code
type ShiftCodeRequest struct {
	StartTime    string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime      string `json:"end_time" validate:"omitempty,datetime=15:04"`
	BreakMinutes int    `json:"break_minutes" validate:"min=0,max=720"`
}

// NewScheduleResponse flattens a scheduler result for JSON output
func NewScheduleResponse(result *scheduler.Result, opts scheduler.Options) ScheduleResponse {
	resp := ScheduleResponse{
		Dates:         result.Dates.Keys(),
		Staff:         result.Staff,
		Schedule:      result.Schedule,
		Quotas:        result.Quotas,
		FairnessScore: result.FairnessScore,
		Options:       opts,
		Diagnostics:   result.Diagnostics,
	}
	if resp.Staff == nil {
		resp.Staff = []string{}
	}
	if result.IsEmpty() {
		resp.Message = "nothing to schedule"
	}
	return resp
}
