package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStaffState(t *testing.T) {
	st := newStaffState("A", 14, 13)
	assert.Equal(t, 13, st.Cap)
	assert.Equal(t, 1, st.OffNeed)

	st = newStaffState("A", 7, 13)
	assert.Equal(t, 7, st.Cap)
	assert.Zero(t, st.OffNeed)
}

func TestStaffStateRunTracking(t *testing.T) {
	st := newStaffState("A", 10, 10)
	st.assign(LabelDay)
	st.assign(LabelDay)
	assert.Equal(t, LabelDay, st.LastLabel)
	assert.Equal(t, 2, st.RunLength)

	st.assign(LabelOff)
	assert.Equal(t, LabelOff, st.LastLabel)
	assert.Equal(t, 1, st.RunLength)
	assert.Equal(t, 2, st.WorkCount)
	assert.Equal(t, 1, st.OffCount)
	assert.Equal(t, []Label{LabelDay, LabelDay, LabelOff}, st.Labels)
}

func TestStaffStateGuards(t *testing.T) {
	st := newStaffState("A", 10, 10)
	assert.True(t, st.canWork(LabelDay))
	assert.True(t, st.canWork(LabelNight))

	st.assign(LabelDay)
	assert.True(t, st.canWork(LabelDay))
	assert.False(t, st.canWork(LabelNight), "direct flip is not strictly eligible")

	st.assign(LabelDay)
	st.assign(LabelDay)
	assert.False(t, st.canWork(LabelDay), "a fourth DAY would exceed the run cap")
	assert.Equal(t, LabelNight, st.relaxedWork())

	capped := newStaffState("B", 2, 1)
	capped.assign(LabelNight)
	assert.False(t, capped.canWork(LabelDay))
	assert.Equal(t, LabelNone, capped.relaxedWork())
}

func TestStaffStateCanTakeOff(t *testing.T) {
	st := newStaffState("A", 10, 5)
	assert.True(t, st.canTakeOff())

	st.assign(LabelOff)
	st.assign(LabelOff)
	st.assign(LabelOff)
	assert.False(t, st.canTakeOff(), "a fourth consecutive OFF is never selected")

	st.assign(LabelDay)
	st.assign(LabelOff)
	st.assign(LabelOff)
	assert.False(t, st.canTakeOff(), "rest target already met")
}

func TestStaffStateDebts(t *testing.T) {
	st := newStaffState("A", 10, 5)
	assert.InDelta(t, 0.5, st.offDebt(0, 10), 1e-9)
	assert.InDelta(t, 0.5, st.workDebt(0, 10), 1e-9)

	st.assign(LabelOff)
	assert.InDelta(t, 0.0, st.offDebt(1, 10), 1e-9)
	assert.InDelta(t, 1.0, st.workDebt(1, 10), 1e-9)
}
