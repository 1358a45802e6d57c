package roster

import (
	"testing"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultCodes() ShiftCodes {
	codes := ShiftCodes{}
	for _, c := range database.DefaultShiftCodes {
		codes[c.Code] = c
	}
	return codes
}

func gridResult(t *testing.T) *scheduler.Result {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &scheduler.Result{
		Dates: scheduler.NewHorizon(start, start.AddDate(0, 0, 2)),
		Staff: []string{"A", "B"},
		Schedule: map[string][]scheduler.Label{
			"A": {scheduler.LabelDay, scheduler.LabelNight, scheduler.LabelOff},
			"B": {scheduler.LabelNight, scheduler.LabelOff, scheduler.LabelDay},
		},
	}
}

func TestMaterialize(t *testing.T) {
	batch := uuid.New()
	records, err := Materialize(gridResult(t), defaultCodes(), "ICU", batch)
	require.NoError(t, err)
	require.Len(t, records, 6)

	day := records[0]
	assert.Equal(t, "A", day.StaffID)
	assert.Equal(t, "2024-01-01", day.Date)
	assert.Equal(t, "DAY", day.Code)
	assert.Equal(t, "ICU", day.Department)
	assert.Equal(t, batch, day.BatchID)
	assert.Equal(t, 60, day.BreakMinutes)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), *day.StartsAt)
	assert.Equal(t, time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC), *day.EndsAt)

	night := records[1]
	assert.Equal(t, "NIGHT", night.Code)
	assert.Equal(t, time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC), *night.StartsAt)
	assert.Equal(t, time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC), *night.EndsAt, "night shift ends the next morning")

	rest := records[2]
	assert.Equal(t, "OFF", rest.Code)
	assert.Nil(t, rest.StartsAt)
	assert.Nil(t, rest.EndsAt)
}

func TestMaterialize_SkipsRestWithoutOffCode(t *testing.T) {
	codes := defaultCodes()
	delete(codes, "OFF")

	records, err := Materialize(gridResult(t), codes, "ICU", uuid.New())
	require.NoError(t, err)
	assert.Len(t, records, 4)
	for _, r := range records {
		assert.NotEqual(t, "OFF", r.Code)
	}
}

func TestMaterialize_MissingWorkCode(t *testing.T) {
	codes := defaultCodes()
	delete(codes, "NIGHT")

	_, err := Materialize(gridResult(t), codes, "ICU", uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrShiftCodeNotFound)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMaterialize_InvalidTime(t *testing.T) {
	codes := defaultCodes()
	codes["DAY"] = database.ShiftCode{Code: "DAY", StartTime: "8am", EndTime: "20:00"}

	_, err := Materialize(gridResult(t), codes, "ICU", uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrInvalidShiftTime)
}

func TestMaterialize_EmptyResult(t *testing.T) {
	records, err := Materialize(&scheduler.Result{}, defaultCodes(), "ICU", uuid.New())
	require.NoError(t, err)
	assert.Empty(t, records)
}
