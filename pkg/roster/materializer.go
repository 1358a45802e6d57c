package roster

import (
	"fmt"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/google/uuid"
)

// Materialize turns a label grid into shift records with concrete times.
// OFF cells produce a rest record only when an OFF code is configured.
func Materialize(result *scheduler.Result, codes ShiftCodes, department string, batchID uuid.UUID) ([]database.ShiftRecord, error) {
	if result.IsEmpty() {
		return nil, nil
	}

	dates := result.Dates.Keys()
	records := make([]database.ShiftRecord, 0, len(result.Staff)*len(dates))

	for _, staffID := range result.Staff {
		for i, label := range result.Schedule[staffID] {
			code, ok := codes[string(label)]
			if !ok {
				if label == scheduler.LabelOff {
					continue
				}
				return nil, fmt.Errorf("%s: %w", label, apperrors.ErrShiftCodeNotFound)
			}

			rec := database.ShiftRecord{
				Department:   department,
				StaffID:      staffID,
				Date:         dates[i],
				Code:         code.Code,
				BreakMinutes: code.BreakMinutes,
				BatchID:      batchID,
			}
			if label.IsWork() {
				start, end, err := shiftWindow(result.Dates[i], code)
				if err != nil {
					return nil, err
				}
				rec.StartsAt, rec.EndsAt = &start, &end
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// shiftWindow places a code's wall-clock times on day; an end at or before
// the start belongs to the following day
func shiftWindow(day time.Time, code database.ShiftCode) (time.Time, time.Time, error) {
	start, err := clockOn(day, code.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s start %q: %w", code.Code, code.StartTime, apperrors.ErrInvalidShiftTime)
	}
	end, err := clockOn(day, code.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%s end %q: %w", code.Code, code.EndTime, apperrors.ErrInvalidShiftTime)
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func clockOn(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
