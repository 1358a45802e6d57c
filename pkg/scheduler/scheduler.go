package scheduler

import (
	"math"
	"time"
)

// Options tunes the scheduling heuristic
type Options struct {
	MaxWorkPerStaff  int     `json:"max_work_per_staff"`
	WeekendOffRatio  float64 `json:"weekend_off_ratio"`
	MinWorkingPerDay int     `json:"min_working_per_day"`
}

// DefaultOptions returns the standard rostering targets: 13 shifts per staff
// member, half the staff off on weekends and at least one person on duty.
func DefaultOptions() Options {
	return Options{
		MaxWorkPerStaff:  13,
		WeekendOffRatio:  0.5,
		MinWorkingPerDay: 1,
	}
}

// normalize clamps options into the ranges the heuristic understands
func (o Options) normalize(totalStaff int) Options {
	o.MaxWorkPerStaff = max(0, o.MaxWorkPerStaff)
	o.MinWorkingPerDay = min(max(0, o.MinWorkingPerDay), totalStaff)
	if math.IsNaN(o.WeekendOffRatio) || o.WeekendOffRatio < 0 {
		o.WeekendOffRatio = 0
	}
	if o.WeekendOffRatio > 1 {
		o.WeekendOffRatio = 1
	}
	return o
}

// StaffDeviation reports how far a staff member's realized schedule drifted
// from the rest and work targets computed for it
type StaffDeviation struct {
	StaffID   string `json:"staff_id"`
	OffNeed   int    `json:"off_need"`
	OffCount  int    `json:"off_count"`
	WorkCount int    `json:"work_count"`
	Cap       int    `json:"cap"`
}

// Diagnostics exposes where the heuristic had to loosen its rules
type Diagnostics struct {
	Deviations      []StaffDeviation `json:"deviations,omitempty"`
	RelaxedFlips    int              `json:"relaxed_flips"`
	CoverageRepairs int              `json:"coverage_repairs"`
	ForcedRest      int              `json:"forced_rest"`
}

// Result is a generated schedule. Schedule[id][i] is the label of staff id on Dates[i].
type Result struct {
	Dates         Horizon
	Staff         []string
	Schedule      map[string][]Label
	Quotas        []int
	FairnessScore float64
	Diagnostics   Diagnostics
}

// IsEmpty reports whether there was nothing to schedule
func (r *Result) IsEmpty() bool {
	return len(r.Dates) == 0 || len(r.Staff) == 0
}

// Scheduler handles the assignment of DAY, NIGHT and OFF labels over a horizon
type Scheduler struct {
	Staff   []*StaffState
	Horizon Horizon
	Options Options
	Quotas  []int

	diagnostics Diagnostics
	result      *Result
}

// NewScheduler creates a new scheduler instance. Staff order is significant:
// it breaks ties between equally ranked staff. Duplicate ids are dropped.
func NewScheduler(staff []string, start, end time.Time, opts Options) *Scheduler {
	horizon := NewHorizon(start, end)

	seen := make(map[string]bool, len(staff))
	var ids []string
	for _, id := range staff {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	opts = opts.normalize(len(ids))
	states := make([]*StaffState, len(ids))
	offNeeds := make([]int, len(ids))
	for i, id := range ids {
		states[i] = newStaffState(id, horizon.Len(), opts.MaxWorkPerStaff)
		offNeeds[i] = states[i].OffNeed
	}

	s := &Scheduler{
		Staff:   states,
		Horizon: horizon,
		Options: opts,
	}
	if len(ids) > 0 {
		s.Quotas = PlanQuotas(horizon, offNeeds, opts)
	} else {
		s.Quotas = make([]int, horizon.Len())
	}
	return s
}

// Run assigns every day in chronological order and returns the schedule.
// It never fails: infeasible targets are absorbed into looser assignments
// and reported through the result's Diagnostics.
func (s *Scheduler) Run() *Result {
	if s.result != nil {
		return s.result
	}
	result := &Result{
		Dates:    s.Horizon,
		Staff:    make([]string, len(s.Staff)),
		Schedule: make(map[string][]Label, len(s.Staff)),
		Quotas:   s.Quotas,
	}
	for i, st := range s.Staff {
		result.Staff[i] = st.ID
	}
	s.result = result
	if result.IsEmpty() {
		result.FairnessScore = 100.0
		return result
	}

	for i := range s.Horizon {
		s.assignDay(i)
	}

	for _, st := range s.Staff {
		result.Schedule[st.ID] = st.Labels
		if st.OffCount != st.OffNeed || st.WorkCount > st.Cap {
			s.diagnostics.Deviations = append(s.diagnostics.Deviations, StaffDeviation{
				StaffID:   st.ID,
				OffNeed:   st.OffNeed,
				OffCount:  st.OffCount,
				WorkCount: st.WorkCount,
				Cap:       st.Cap,
			})
		}
	}
	result.Diagnostics = s.diagnostics
	result.FairnessScore = s.CalculateFairnessScore()
	return result
}

// Generate builds a schedule for staff between start and end inclusive
func Generate(staff []string, start, end time.Time, opts Options) *Result {
	return NewScheduler(staff, start, end, opts).Run()
}

// CalculateFairnessScore returns a percentage (0-100) representing how evenly
// shifts are distributed. 100% is perfectly fair (Standard Deviation = 0).
func (s *Scheduler) CalculateFairnessScore() float64 {
	if len(s.Staff) == 0 {
		return 100.0
	}

	var sum float64
	for _, st := range s.Staff {
		sum += float64(st.WorkCount)
	}

	if sum == 0 {
		return 100.0 // Everyone resting is perfectly fair
	}

	mean := sum / float64(len(s.Staff))

	var varianceSum float64
	for _, st := range s.Staff {
		diff := float64(st.WorkCount) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(s.Staff)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
