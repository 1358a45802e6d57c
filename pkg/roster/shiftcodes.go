package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arnavshah/roster-api-go/pkg/database"
	"gorm.io/gorm"
)

// ShiftCodes maps a schedule label to its default times
type ShiftCodes map[string]database.ShiftCode

type loadFunc func(ctx context.Context) (ShiftCodes, error)

// ShiftCodeCache holds the shift-code table for a bounded time. Callers share
// one instance and call Invalidate when the table changes.
type ShiftCodeCache struct {
	mu     sync.Mutex
	load   loadFunc
	ttl    time.Duration
	now    func() time.Time
	value  ShiftCodes
	expiry time.Time
}

// NewShiftCodeCache creates a cache backed by the shift_codes table
func NewShiftCodeCache(db *gorm.DB, ttl time.Duration) *ShiftCodeCache {
	return newShiftCodeCache(func(ctx context.Context) (ShiftCodes, error) {
		var rows []database.ShiftCode
		if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load shift codes: %w", err)
		}
		codes := make(ShiftCodes, len(rows))
		for _, row := range rows {
			codes[row.Code] = row
		}
		return codes, nil
	}, ttl)
}

func newShiftCodeCache(load loadFunc, ttl time.Duration) *ShiftCodeCache {
	return &ShiftCodeCache{
		load: load,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the cached codes, reloading them once expired
func (c *ShiftCodeCache) Get(ctx context.Context) (ShiftCodes, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != nil && c.now().Before(c.expiry) {
		return c.value, nil
	}

	codes, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.value = codes
	c.expiry = c.now().Add(c.ttl)
	return codes, nil
}

// Invalidate drops the cached value so the next Get reloads
func (c *ShiftCodeCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.expiry = time.Time{}
}
