package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func memoryDSN(t *testing.T) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
}

func TestInitDB_SQLiteSeedsShiftCodes(t *testing.T) {
	db, err := InitDB("", memoryDSN(t))
	require.NoError(t, err)

	var codes []ShiftCode
	require.NoError(t, db.Order("code").Find(&codes).Error)
	require.Len(t, codes, 3)
	assert.Equal(t, "DAY", codes[0].Code)
	assert.Equal(t, "08:00", codes[0].StartTime)
	assert.Equal(t, "NIGHT", codes[1].Code)
	assert.Equal(t, "OFF", codes[2].Code)
}

func TestSeedShiftCodes_KeepsExisting(t *testing.T) {
	db, err := InitDB("", memoryDSN(t))
	require.NoError(t, err)

	require.NoError(t, db.Model(&ShiftCode{}).Where("code = ?", "DAY").Update("start_time", "07:00").Error)
	require.NoError(t, SeedShiftCodes(db))

	var day ShiftCode
	require.NoError(t, db.First(&day, "code = ?", "DAY").Error)
	assert.Equal(t, "07:00", day.StartTime)
}

func TestShiftRecord_AssignsID(t *testing.T) {
	db, err := InitDB("", memoryDSN(t))
	require.NoError(t, err)

	rec := ShiftRecord{StaffID: "A", Date: "2024-01-01", Code: "DAY"}
	require.NoError(t, db.Create(&rec).Error)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", rec.ID.String())

	var missing ShiftRecord
	err = db.First(&missing, "staff_id = ?", "nobody").Error
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
