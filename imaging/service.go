// Package imaging owns the upload -> persist -> classify -> write-back
// lifecycle of MRI records.
package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sonuk-07/NeuroAI/classifier"
	"github.com/sonuk-07/NeuroAI/models"
	"github.com/sonuk-07/NeuroAI/storage"
)

// ErrNotFound covers both a missing record and a record owned by someone
// else; ownership failures must not be distinguishable from absence.
var ErrNotFound = errors.New("image record not found")

type Service struct {
	db        *gorm.DB
	store     *storage.Store
	predictor classifier.Predictor
	// timeout bounds a single classifier call so a wedged interpreter
	// cannot hold a request handler forever.
	timeout time.Duration
}

func NewService(db *gorm.DB, store *storage.Store, predictor classifier.Predictor, timeout time.Duration) *Service {
	return &Service{db: db, store: store, predictor: predictor, timeout: timeout}
}

// Upload stores the image, creates the record, and classifies it
// synchronously: the caller gets the record back only once the label or
// the prediction error is known. A classifier failure never fails the
// upload; the record carries the error outcome instead of a label.
func (s *Service) Upload(ctx context.Context, userID uint, r io.Reader, originalName string) (*models.ImageRecord, error) {
	blob, err := s.store.Save(ctx, r, originalName)
	if err != nil {
		if blob.Path == "" {
			return nil, fmt.Errorf("store upload: %w", err)
		}
		// The local copy exists, only the bucket mirror failed.
		log.WithError(err).Warn("upload mirror failed, keeping local copy")
	}

	record := models.ImageRecord{
		UserID:        userID,
		Filename:      blob.Filename,
		Path:          blob.Path,
		MirrorURL:     blob.MirrorURL,
		RequestStatus: models.StatusNone,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("create image record: %w", err)
	}

	s.classify(ctx, &record)

	// The record is visible to request-review while classification runs,
	// so only the classification columns belong to this write; a full-row
	// save could drag the review status back to the creation-time snapshot.
	outcome := map[string]interface{}{
		"predicted_label":  record.PredictedLabel,
		"prediction_error": record.PredictionError,
	}
	if err := s.db.Model(&record).Updates(outcome).Error; err != nil {
		return nil, fmt.Errorf("save classification outcome: %w", err)
	}

	return &record, nil
}

// classify runs a single bounded prediction attempt and tags the record
// with either the label or the failure reason.
func (s *Service) classify(ctx context.Context, record *models.ImageRecord) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pred, err := s.predictor.Predict(ctx, record.Path)
	if err != nil {
		log.WithError(err).WithField("image_id", record.ID).Error("classification failed")
		reason := err.Error()
		record.PredictionError = &reason
		return
	}

	record.PredictedLabel = &pred.Label
}

// Get returns a record owned by the given user.
func (s *Service) Get(userID, imageID uint) (*models.ImageRecord, error) {
	var record models.ImageRecord
	err := s.db.Where("id = ? AND user_id = ?", imageID, userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup image record: %w", err)
	}
	return &record, nil
}

// History lists the user's records, most recent first. The list is
// re-queried on every call.
func (s *Service) History(userID uint) ([]models.ImageRecord, error) {
	var records []models.ImageRecord
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list image records: %w", err)
	}
	return records, nil
}

// Delete removes one record owned by the user, along with its blob.
func (s *Service) Delete(userID, imageID uint) error {
	record, err := s.Get(userID, imageID)
	if err != nil {
		return err
	}

	if err := s.db.Unscoped().Delete(record).Error; err != nil {
		return fmt.Errorf("delete image record: %w", err)
	}

	if err := s.store.Remove(record.Filename); err != nil {
		log.WithError(err).WithField("filename", record.Filename).Warn("failed to remove stored blob")
	}
	return nil
}

// DeleteAll removes every record owned by the acting user and nothing
// else.
func (s *Service) DeleteAll(userID uint) (int64, error) {
	records, err := s.History(userID)
	if err != nil {
		return 0, err
	}

	result := s.db.Unscoped().Where("user_id = ?", userID).Delete(&models.ImageRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete image records: %w", result.Error)
	}

	for i := range records {
		if err := s.store.Remove(records[i].Filename); err != nil {
			log.WithError(err).WithField("filename", records[i].Filename).Warn("failed to remove stored blob")
		}
	}

	return result.RowsAffected, nil
}
