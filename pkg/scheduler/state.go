package scheduler

// Label is the assignment a staff member receives for one day
type Label string

const (
	LabelNone  Label = ""
	LabelDay   Label = "DAY"
	LabelNight Label = "NIGHT"
	LabelOff   Label = "OFF"
)

// maxRun is the longest allowed run of identical consecutive labels
const maxRun = 3

// IsWork reports whether the label is a work shift
func (l Label) IsWork() bool {
	return l == LabelDay || l == LabelNight
}

// opposite returns the other work label
func (l Label) opposite() Label {
	if l == LabelDay {
		return LabelNight
	}
	return LabelDay
}

// StaffState tracks per-staff counters while a schedule is being built
type StaffState struct {
	ID        string
	WorkCount int
	OffCount  int
	OffNeed   int
	Cap       int
	LastLabel Label
	RunLength int
	Labels    []Label
}

func newStaffState(id string, days, maxWork int) *StaffState {
	workCap := min(maxWork, days)
	return &StaffState{
		ID:      id,
		OffNeed: max(0, days-workCap),
		Cap:     workCap,
		Labels:  make([]Label, 0, days),
	}
}

// assign records the label for the next day
func (s *StaffState) assign(label Label) {
	if label == LabelOff {
		s.OffCount++
	} else {
		s.WorkCount++
	}
	if label == s.LastLabel {
		s.RunLength++
	} else {
		s.LastLabel = label
		s.RunLength = 1
	}
	s.Labels = append(s.Labels, label)
}

// extendsRun reports whether assigning label would push its run past maxRun
func (s *StaffState) extendsRun(label Label) bool {
	return s.LastLabel == label && s.RunLength >= maxRun
}

func (s *StaffState) hasCapacity() bool {
	return s.WorkCount < s.Cap
}

// canTakeOff reports whether the staff member still needs rest and may rest today
func (s *StaffState) canTakeOff() bool {
	return s.OffCount < s.OffNeed && !s.extendsRun(LabelOff)
}

// canWork is the strict work guard: under cap, no run overflow and no direct DAY/NIGHT flip
func (s *StaffState) canWork(label Label) bool {
	if !s.hasCapacity() || s.extendsRun(label) {
		return false
	}
	return s.LastLabel != label.opposite()
}

// relaxedWork returns the work label allowed once the flip guard is dropped.
// The run cap still applies; LabelNone means the cap on shifts is exhausted.
func (s *StaffState) relaxedWork() Label {
	if !s.hasCapacity() {
		return LabelNone
	}
	if s.extendsRun(LabelDay) {
		return LabelNight
	}
	return LabelDay
}

// offDebt is how far the staff member trails a pro-rata pace of rest days
func (s *StaffState) offDebt(dayIndex, days int) float64 {
	expected := float64(s.OffNeed) * float64(dayIndex+1) / float64(days)
	return expected - float64(s.OffCount)
}

// workDebt is how far the staff member trails a pro-rata pace of shifts
func (s *StaffState) workDebt(dayIndex, days int) float64 {
	expected := float64(s.Cap) * float64(dayIndex+1) / float64(days)
	return expected - float64(s.WorkCount)
}
