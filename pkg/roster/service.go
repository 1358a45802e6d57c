package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/arnavshah/roster-api-go/internal/logger"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// AppliedEvent is the payload published on TopicScheduleApplied
type AppliedEvent struct {
	BatchID    uuid.UUID
	Department string
	StartDate  string
	EndDate    string
	Records    int
}

// Service previews generated schedules and applies them to storage
type Service struct {
	db        *gorm.DB
	codes     *ShiftCodeCache
	locks     RangeLock
	events    *EventRegistry
	validator *validator.Validate
	defaults  scheduler.Options
	loc       *time.Location
}

// NewService wires the roster service. The shift-code cache is invalidated
// whenever a TopicShiftCodesUpdated event is published on events. Schedule
// dates are days in loc, so shift times are local wall-clock times; a nil loc
// means UTC.
func NewService(db *gorm.DB, codes *ShiftCodeCache, locks RangeLock, events *EventRegistry, defaults scheduler.Options, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	events.Subscribe(TopicShiftCodesUpdated, func(context.Context, Event) {
		codes.Invalidate()
	})
	return &Service{
		db:        db,
		codes:     codes,
		locks:     locks,
		events:    events,
		validator: validator.New(),
		defaults:  defaults,
		loc:       loc,
	}
}

// Validate checks the request shape without treating empty input as an error
func (s *Service) Validate(req *models.ScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return &apperrors.ValidationError{Message: err.Error()}
	}
	return nil
}

// Options merges the request's tuning fields over the server defaults
func (s *Service) Options(req *models.ScheduleRequest) scheduler.Options {
	opts := s.defaults
	if req.MaxWorkPerStaff != nil {
		opts.MaxWorkPerStaff = *req.MaxWorkPerStaff
	}
	if req.WeekendOffRatio != nil {
		opts.WeekendOffRatio = *req.WeekendOffRatio
	}
	if req.MinWorkingPerDay != nil {
		opts.MinWorkingPerDay = *req.MinWorkingPerDay
	}
	return opts
}

// Preview runs the scheduler. An empty staff list or a reversed range is not
// an error: the result is simply empty.
func (s *Service) Preview(req *models.ScheduleRequest) (*scheduler.Scheduler, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	start, end, err := parseRange(req.StartDate, req.EndDate, s.loc)
	if err != nil {
		return nil, err
	}

	sched := scheduler.NewScheduler(req.Staff, start, end, s.Options(req))
	sched.Run()
	return sched, nil
}

// ApplyOutcome is what Apply wrote
type ApplyOutcome struct {
	BatchID   uuid.UUID
	Scheduler *scheduler.Scheduler
	Written   int
	Deleted   int64
}

// Apply generates the schedule and writes it in one transaction. In replace
// mode existing records of the department and of the listed staff inside the
// range are removed first. Only one apply per department and range may run.
func (s *Service) Apply(ctx context.Context, req *models.ApplyRequest) (*ApplyOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, &apperrors.ValidationError{Message: err.Error()}
	}

	sched, err := s.Preview(&req.ScheduleRequest)
	if err != nil {
		return nil, err
	}
	result := sched.Run()
	outcome := &ApplyOutcome{Scheduler: sched}
	if result.IsEmpty() {
		return outcome, nil
	}

	codes, err := s.codes.Get(ctx)
	if err != nil {
		return nil, err
	}

	outcome.BatchID = uuid.New()
	records, err := Materialize(result, codes, req.Department, outcome.BatchID)
	if err != nil {
		return nil, err
	}

	keys := result.Dates.Keys()
	first, last := keys[0], keys[len(keys)-1]

	release, err := s.locks.Acquire(ctx, LockKey(req.Department, first, last))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.WithContext(ctx).WithError(err).Warn("failed to release apply lock")
		}
	}()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.ReplaceExisting {
			res := tx.Where("(department = ? OR staff_id IN ?) AND date BETWEEN ? AND ?",
				req.Department, result.Staff, first, last).
				Delete(&database.ShiftRecord{})
			if res.Error != nil {
				return fmt.Errorf("delete existing shifts: %w", res.Error)
			}
			outcome.Deleted = res.RowsAffected
		}

		if len(records) == 0 {
			return nil
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "staff_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"department", "code", "starts_at", "ends_at", "break_minutes", "batch_id", "updated_at",
			}),
		}).CreateInBatches(&records, 200).Error
		if err != nil {
			return fmt.Errorf("write shifts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	outcome.Written = len(records)

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"batch_id":   outcome.BatchID.String(),
		"department": req.Department,
		"range":      first + ".." + last,
		"records":    outcome.Written,
		"deleted":    outcome.Deleted,
	}).Info("schedule applied")

	s.events.Publish(ctx, TopicScheduleApplied, AppliedEvent{
		BatchID:    outcome.BatchID,
		Department: req.Department,
		StartDate:  first,
		EndDate:    last,
		Records:    outcome.Written,
	})
	return outcome, nil
}

// ShiftFilter narrows ListShifts; empty fields match everything
type ShiftFilter struct {
	Department string
	StaffID    string
	From       string
	To         string
}

// ListShifts returns persisted records ordered by date then staff
func (s *Service) ListShifts(ctx context.Context, filter ShiftFilter) ([]database.ShiftRecord, error) {
	q := s.db.WithContext(ctx).Model(&database.ShiftRecord{})
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	if filter.StaffID != "" {
		q = q.Where("staff_id = ?", filter.StaffID)
	}
	if filter.From != "" {
		if _, err := time.Parse(dateLayout, filter.From); err != nil {
			return nil, &apperrors.ValidationError{Field: "from", Message: "must use YYYY-MM-DD"}
		}
		q = q.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		if _, err := time.Parse(dateLayout, filter.To); err != nil {
			return nil, &apperrors.ValidationError{Field: "to", Message: "must use YYYY-MM-DD"}
		}
		q = q.Where("date <= ?", filter.To)
	}

	var records []database.ShiftRecord
	if err := q.Order("date, staff_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return records, nil
}

// ShiftCodes returns the current shift-code table
func (s *Service) ShiftCodes(ctx context.Context) ([]database.ShiftCode, error) {
	var codes []database.ShiftCode
	if err := s.db.WithContext(ctx).Order("code").Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("list shift codes: %w", err)
	}
	return codes, nil
}

// UpdateShiftCode changes a code's default times and notifies subscribers
func (s *Service) UpdateShiftCode(ctx context.Context, code string, req *models.ShiftCodeRequest) (*database.ShiftCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, &apperrors.ValidationError{Message: err.Error()}
	}

	var row database.ShiftCode
	if err := s.db.WithContext(ctx).First(&row, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrShiftCodeNotFound
		}
		return nil, fmt.Errorf("get shift code: %w", err)
	}

	if code != string(scheduler.LabelOff) && (req.StartTime == "" || req.EndTime == "") {
		return nil, apperrors.ErrInvalidShiftTime
	}

	row.StartTime = req.StartTime
	row.EndTime = req.EndTime
	row.BreakMinutes = req.BreakMinutes
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, fmt.Errorf("update shift code: %w", err)
	}

	s.events.Publish(ctx, TopicShiftCodesUpdated, row)
	return &row, nil
}

func parseRange(startDate, endDate string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &apperrors.ValidationError{Field: "start_date", Message: "must use YYYY-MM-DD"}
	}
	end, err := time.ParseInLocation(dateLayout, endDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, &apperrors.ValidationError{Field: "end_date", Message: "must use YYYY-MM-DD"}
	}
	return start, end, nil
}
