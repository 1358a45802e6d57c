package roster

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// openTestDB opens a private in-memory sqlite database with the schema applied
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.InitDB("", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type RosterServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	locks   *MemoryRangeLock
	events  *EventRegistry
	service *Service
	applied []AppliedEvent
}

func (suite *RosterServiceTestSuite) SetupTest() {
	suite.db = openTestDB(suite.T())
	suite.locks = NewMemoryRangeLock()
	suite.events = NewEventRegistry()
	suite.applied = nil
	suite.events.Subscribe(TopicScheduleApplied, func(_ context.Context, e Event) {
		suite.applied = append(suite.applied, e.Payload.(AppliedEvent))
	})
	codes := NewShiftCodeCache(suite.db, time.Hour)
	suite.service = NewService(suite.db, codes, suite.locks, suite.events, scheduler.DefaultOptions(), nil)
}

func twoWeeks() models.ScheduleRequest {
	return models.ScheduleRequest{
		Staff:     []string{"A", "B", "C", "D"},
		StartDate: "2024-01-01",
		EndDate:   "2024-01-14",
	}
}

func (suite *RosterServiceTestSuite) countRecords() int64 {
	var n int64
	require.NoError(suite.T(), suite.db.Model(&database.ShiftRecord{}).Count(&n).Error)
	return n
}

func (suite *RosterServiceTestSuite) TestPreview() {
	req := twoWeeks()
	sched, err := suite.service.Preview(&req)
	suite.Require().NoError(err)

	result := sched.Run()
	suite.Len(result.Dates, 14)
	suite.Len(result.Schedule, 4)
	suite.Equal(scheduler.DefaultOptions(), sched.Options)
}

func (suite *RosterServiceTestSuite) TestPreview_OverridesDefaults() {
	req := twoWeeks()
	maxWork, ratio, floor := 10, 0.25, 2
	req.MaxWorkPerStaff, req.WeekendOffRatio, req.MinWorkingPerDay = &maxWork, &ratio, &floor

	sched, err := suite.service.Preview(&req)
	suite.Require().NoError(err)
	suite.Equal(scheduler.Options{MaxWorkPerStaff: 10, WeekendOffRatio: 0.25, MinWorkingPerDay: 2}, sched.Options)
}

func (suite *RosterServiceTestSuite) TestPreview_EmptyInputsAreNotErrors() {
	req := models.ScheduleRequest{StartDate: "2024-01-01", EndDate: "2024-01-07"}
	sched, err := suite.service.Preview(&req)
	suite.Require().NoError(err)
	suite.True(sched.Run().IsEmpty())

	req = twoWeeks()
	req.StartDate, req.EndDate = req.EndDate, req.StartDate
	sched, err = suite.service.Preview(&req)
	suite.Require().NoError(err)
	suite.True(sched.Run().IsEmpty())
}

func (suite *RosterServiceTestSuite) TestPreview_InvalidDate() {
	req := twoWeeks()
	req.StartDate = "01/01/2024"

	_, err := suite.service.Preview(&req)
	suite.True(apperrors.IsValidation(err))
}

func (suite *RosterServiceTestSuite) TestApply_WritesEveryCell() {
	req := &models.ApplyRequest{ScheduleRequest: twoWeeks(), Department: "ICU"}

	outcome, err := suite.service.Apply(context.Background(), req)
	suite.Require().NoError(err)
	suite.Equal(56, outcome.Written)
	suite.EqualValues(56, suite.countRecords())
	suite.Require().Len(suite.applied, 1)
	suite.Equal("ICU", suite.applied[0].Department)
	suite.Equal(outcome.BatchID, suite.applied[0].BatchID)

	var night database.ShiftRecord
	suite.Require().NoError(suite.db.Where("code = ?", "NIGHT").Order("date").First(&night).Error)
	suite.Require().NotNil(night.EndsAt)
	suite.Equal(8, night.EndsAt.Hour())
	suite.True(night.EndsAt.After(*night.StartsAt))

	// the lock is free again
	release, err := suite.locks.Acquire(context.Background(), LockKey("ICU", "2024-01-01", "2024-01-14"))
	suite.Require().NoError(err)
	suite.NoError(release(context.Background()))
}

func (suite *RosterServiceTestSuite) TestApply_ShiftTimesUseServiceLocation() {
	est := time.FixedZone("EST", -5*60*60)
	codes := NewShiftCodeCache(suite.db, time.Hour)
	service := NewService(suite.db, codes, suite.locks, NewEventRegistry(), scheduler.DefaultOptions(), est)

	req := &models.ApplyRequest{ScheduleRequest: twoWeeks(), Department: "ICU"}
	_, err := service.Apply(context.Background(), req)
	suite.Require().NoError(err)

	var day database.ShiftRecord
	suite.Require().NoError(suite.db.Where("code = ?", "DAY").Order("date, staff_id").First(&day).Error)
	y, m, d := suite.parseDate(day.Date)
	suite.True(day.StartsAt.Equal(time.Date(y, m, d, 8, 0, 0, 0, est)), "starts_at %s", day.StartsAt)
	suite.Equal(13, day.StartsAt.UTC().Hour())
}

func (suite *RosterServiceTestSuite) parseDate(s string) (int, time.Month, int) {
	t, err := time.Parse(dateLayout, s)
	suite.Require().NoError(err)
	return t.Date()
}

func (suite *RosterServiceTestSuite) TestApply_UpsertsOnRerun() {
	req := &models.ApplyRequest{ScheduleRequest: twoWeeks(), Department: "ICU"}

	first, err := suite.service.Apply(context.Background(), req)
	suite.Require().NoError(err)
	second, err := suite.service.Apply(context.Background(), req)
	suite.Require().NoError(err)

	suite.EqualValues(56, suite.countRecords())
	var stale int64
	suite.Require().NoError(suite.db.Model(&database.ShiftRecord{}).Where("batch_id = ?", first.BatchID).Count(&stale).Error)
	suite.Zero(stale)
	suite.NotEqual(first.BatchID, second.BatchID)
}

func (suite *RosterServiceTestSuite) TestApply_ReplaceExisting() {
	leftover := database.ShiftRecord{Department: "ICU", StaffID: "Z", Date: "2024-01-03", Code: "DAY"}
	outside := database.ShiftRecord{Department: "ICU", StaffID: "Z", Date: "2024-02-01", Code: "DAY"}
	suite.Require().NoError(suite.db.Create(&leftover).Error)
	suite.Require().NoError(suite.db.Create(&outside).Error)

	req := &models.ApplyRequest{ScheduleRequest: twoWeeks(), Department: "ICU", ReplaceExisting: true}
	outcome, err := suite.service.Apply(context.Background(), req)
	suite.Require().NoError(err)

	suite.EqualValues(1, outcome.Deleted)
	suite.EqualValues(57, suite.countRecords())
}

func (suite *RosterServiceTestSuite) TestApply_RejectsConcurrentApply() {
	release, err := suite.locks.Acquire(context.Background(), LockKey("ICU", "2024-01-01", "2024-01-14"))
	suite.Require().NoError(err)
	defer release(context.Background())

	req := &models.ApplyRequest{ScheduleRequest: twoWeeks(), Department: "ICU"}
	_, err = suite.service.Apply(context.Background(), req)
	suite.True(apperrors.IsConflict(err))
	suite.Zero(suite.countRecords())
	suite.Empty(suite.applied)
}

func (suite *RosterServiceTestSuite) TestApply_RequiresDepartment() {
	req := &models.ApplyRequest{ScheduleRequest: twoWeeks()}
	_, err := suite.service.Apply(context.Background(), req)
	suite.True(apperrors.IsValidation(err))
}

func (suite *RosterServiceTestSuite) TestApply_EmptyScheduleWritesNothing() {
	req := &models.ApplyRequest{
		ScheduleRequest: models.ScheduleRequest{StartDate: "2024-01-01", EndDate: "2024-01-07"},
		Department:      "ICU",
	}
	outcome, err := suite.service.Apply(context.Background(), req)
	suite.Require().NoError(err)
	suite.Zero(outcome.Written)
	suite.Zero(suite.countRecords())
	suite.Empty(suite.applied)
}

func (suite *RosterServiceTestSuite) TestUpdateShiftCode_InvalidatesCache() {
	ctx := context.Background()
	req := &models.ApplyRequest{ScheduleRequest: twoWeeks(), Department: "ICU"}
	_, err := suite.service.Apply(ctx, req)
	suite.Require().NoError(err)

	code, err := suite.service.UpdateShiftCode(ctx, "DAY", &models.ShiftCodeRequest{StartTime: "07:00", EndTime: "19:00", BreakMinutes: 30})
	suite.Require().NoError(err)
	suite.Equal("07:00", code.StartTime)

	_, err = suite.service.Apply(ctx, req)
	suite.Require().NoError(err)

	var day database.ShiftRecord
	suite.Require().NoError(suite.db.Where("code = ?", "DAY").First(&day).Error)
	suite.Equal(7, day.StartsAt.Hour())
	suite.Equal(30, day.BreakMinutes)
}

func (suite *RosterServiceTestSuite) TestUpdateShiftCode_Errors() {
	ctx := context.Background()

	_, err := suite.service.UpdateShiftCode(ctx, "EVENING", &models.ShiftCodeRequest{StartTime: "14:00", EndTime: "22:00"})
	suite.True(apperrors.IsNotFound(err))

	_, err = suite.service.UpdateShiftCode(ctx, "DAY", &models.ShiftCodeRequest{StartTime: "25:00", EndTime: "19:00"})
	suite.True(apperrors.IsValidation(err))

	_, err = suite.service.UpdateShiftCode(ctx, "NIGHT", &models.ShiftCodeRequest{})
	suite.ErrorIs(err, apperrors.ErrInvalidShiftTime)

	_, err = suite.service.UpdateShiftCode(ctx, "OFF", &models.ShiftCodeRequest{})
	suite.NoError(err)
}

func (suite *RosterServiceTestSuite) TestListShifts() {
	ctx := context.Background()
	req := &models.ApplyRequest{ScheduleRequest: twoWeeks(), Department: "ICU"}
	_, err := suite.service.Apply(ctx, req)
	suite.Require().NoError(err)

	records, err := suite.service.ListShifts(ctx, ShiftFilter{StaffID: "A", From: "2024-01-05", To: "2024-01-07"})
	suite.Require().NoError(err)
	suite.Require().Len(records, 3)
	suite.Equal("2024-01-05", records[0].Date)
	suite.Equal("2024-01-07", records[2].Date)

	records, err = suite.service.ListShifts(ctx, ShiftFilter{Department: "ER"})
	suite.Require().NoError(err)
	suite.Empty(records)

	_, err = suite.service.ListShifts(ctx, ShiftFilter{From: "yesterday"})
	suite.True(apperrors.IsValidation(err))
}

func TestRosterServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RosterServiceTestSuite))
}

func TestServiceOptions(t *testing.T) {
	s := &Service{defaults: scheduler.DefaultOptions()}
	floor := 3
	opts := s.Options(&models.ScheduleRequest{MinWorkingPerDay: &floor})
	assert.Equal(t, 13, opts.MaxWorkPerStaff)
	assert.Equal(t, 0.5, opts.WeekendOffRatio)
	assert.Equal(t, 3, opts.MinWorkingPerDay)
}
