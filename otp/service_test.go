package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sonuk-07/NeuroAI/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Passcode{}))

	return NewService(db), db
}

func backdate(t *testing.T, db *gorm.DB, userID uint, code string, age time.Duration) {
	t.Helper()
	err := db.Model(&models.Passcode{}).
		Where("user_id = ? AND code = ?", userID, code).
		Update("created_at", time.Now().Add(-age)).Error
	require.NoError(t, err)
}

func TestIssueProducesSixDigits(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.Issue(1)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
	}
}

func TestMultipleOutstandingCodesAllValid(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Issue(7)
	require.NoError(t, err)
	second, err := svc.Issue(7)
	require.NoError(t, err)

	assert.NoError(t, svc.Validate(7, first))
	assert.NoError(t, svc.Validate(7, second))
}

func TestValidateRejectsUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Issue(3)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Validate(3, "000000x"), ErrInvalidCode)
	assert.ErrorIs(t, svc.Validate(99, "123456"), ErrInvalidCode)
}

func TestValidateDistinguishesExpiry(t *testing.T) {
	svc, db := newTestService(t)

	code, err := svc.Issue(5)
	require.NoError(t, err)
	backdate(t, db, 5, code, Window+time.Minute)

	assert.ErrorIs(t, svc.Validate(5, code), ErrExpired)
}

func TestStaleDuplicateDoesNotMaskFreshCode(t *testing.T) {
	svc, db := newTestService(t)

	code, err := svc.Issue(4)
	require.NoError(t, err)
	backdate(t, db, 4, code, Window+time.Minute)

	// The same six digits issued again after the first copy expired.
	dup := models.Passcode{UserID: 4, Code: code}
	require.NoError(t, db.Create(&dup).Error)

	assert.NoError(t, svc.Validate(4, code))

	// Consuming removes only the fresh copy; the stale row stays until
	// the sweep collects it.
	require.NoError(t, svc.Consume(4, code))
	var remaining int64
	require.NoError(t, db.Model(&models.Passcode{}).
		Where("user_id = ? AND code = ?", 4, code).
		Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
	assert.ErrorIs(t, svc.Validate(4, code), ErrExpired)
}

func TestConsumeIsSingleUse(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.Issue(9)
	require.NoError(t, err)

	require.NoError(t, svc.Validate(9, code))
	require.NoError(t, svc.Consume(9, code))

	assert.ErrorIs(t, svc.Validate(9, code), ErrInvalidCode)
	assert.ErrorIs(t, svc.Consume(9, code), ErrInvalidCode)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	svc, db := newTestService(t)

	stale, err := svc.Issue(2)
	require.NoError(t, err)
	fresh, err := svc.Issue(2)
	require.NoError(t, err)
	backdate(t, db, 2, stale, Window+time.Hour)

	removed, err := svc.SweepExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	assert.ErrorIs(t, svc.Validate(2, stale), ErrInvalidCode)
	assert.NoError(t, svc.Validate(2, fresh))
}
