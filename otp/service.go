package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sonuk-07/NeuroAI/models"
)

// Validity window for an issued passcode.
const Window = 10 * time.Minute

const codeDigits = 6

var (
	// ErrInvalidCode means no outstanding passcode matches the submitted
	// (user, code) pair.
	ErrInvalidCode = errors.New("invalid passcode")
	// ErrExpired means the pair matched but the code is past its window.
	// Kept distinct so callers can suggest requesting a new code.
	ErrExpired = errors.New("passcode expired")
)

// Service issues and validates one-time passcodes.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Issue generates a fresh 6-digit code for the user and persists it.
// Previously issued codes stay valid until they expire or are consumed.
func (s *Service) Issue(userID uint) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", fmt.Errorf("generate passcode: %w", err)
	}

	record := models.Passcode{UserID: userID, Code: code}
	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("store passcode: %w", err)
	}

	return code, nil
}

// Validate checks the submitted code against every outstanding passcode
// for the user. Any matching pair within the window passes, not just the
// most recently issued one; a stale row holding the same digits never
// masks a fresh copy.
func (s *Service) Validate(userID uint, code string) error {
	cutoff := time.Now().Add(-Window)

	var fresh int64
	err := s.db.Model(&models.Passcode{}).
		Where("user_id = ? AND code = ? AND created_at > ?", userID, code, cutoff).
		Count(&fresh).Error
	if err != nil {
		return fmt.Errorf("lookup passcode: %w", err)
	}
	if fresh > 0 {
		return nil
	}

	var stale int64
	err = s.db.Model(&models.Passcode{}).
		Where("user_id = ? AND code = ?", userID, code).
		Count(&stale).Error
	if err != nil {
		return fmt.Errorf("lookup passcode: %w", err)
	}
	if stale > 0 {
		return ErrExpired
	}
	return ErrInvalidCode
}

// Consume removes one matched passcode, the freshest, so it cannot be
// replayed. Other outstanding copies of the same digits are left alone.
func (s *Service) Consume(userID uint, code string) error {
	cutoff := time.Now().Add(-Window)

	var record models.Passcode
	err := s.db.Where("user_id = ? AND code = ? AND created_at > ?", userID, code, cutoff).
		Order("created_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("lookup passcode: %w", err)
	}

	if err := s.db.Unscoped().Delete(&record).Error; err != nil {
		return fmt.Errorf("consume passcode: %w", err)
	}
	return nil
}

// SweepExpired deletes passcodes past their validity window and reports
// how many rows were removed.
func (s *Service) SweepExpired() (int64, error) {
	cutoff := time.Now().Add(-Window)
	result := s.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.Passcode{})
	if result.Error != nil {
		return 0, fmt.Errorf("sweep passcodes: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// StartSweeper schedules a periodic expiry sweep on the given cron
// runner. The schedule uses standard cron syntax.
func (s *Service) StartSweeper(c *cron.Cron, schedule string) error {
	_, err := c.AddFunc(schedule, func() {
		removed, err := s.SweepExpired()
		if err != nil {
			log.WithError(err).Warn("passcode sweep failed")
			return
		}
		if removed > 0 {
			log.WithField("removed", removed).Info("swept expired passcodes")
		}
	})
	return err
}

func randomCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
