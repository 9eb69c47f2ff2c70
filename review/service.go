// Package review orchestrates the doctor-review workflow over image
// records. Each record moves through none -> requested -> reviewed and
// never backwards; deleting a request leaves the record where it is.
package review

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sonuk-07/NeuroAI/mailer"
	"github.com/sonuk-07/NeuroAI/models"
)

var (
	// ErrNotFound covers missing records and ownership failures alike.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyRequested is informational: the request was already sent.
	ErrAlreadyRequested = errors.New("recommendation request already sent")
	// ErrAlreadyReviewed is informational: a doctor already responded, so
	// re-requesting would move the status backwards.
	ErrAlreadyReviewed = errors.New("image already reviewed")
	// ErrNoDoctor means no doctor profile exists to take the request.
	ErrNoDoctor = errors.New("no doctor available")
)

const defaultRequestMessage = "Please review this image."

type Service struct {
	db       *gorm.DB
	mail     mailer.Mailer
	assigner Assigner
}

func NewService(db *gorm.DB, mail mailer.Mailer, assigner Assigner) *Service {
	return &Service{db: db, mail: mail, assigner: assigner}
}

// Request creates a recommendation request for the patient's image and
// moves the record to "requested". The request row and the status change
// commit together; the doctor notification is sent afterwards and its
// failure never rolls anything back.
func (s *Service) Request(ctx context.Context, patientID, imageID uint) (*models.RecommendationRequest, error) {
	var image models.ImageRecord
	err := s.db.Where("id = ? AND user_id = ?", imageID, patientID).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup image record: %w", err)
	}

	switch image.RequestStatus {
	case models.StatusRequested:
		return nil, ErrAlreadyRequested
	case models.StatusReviewed:
		return nil, ErrAlreadyReviewed
	}

	doctor, err := s.assigner.Assign(s.db, patientID)
	if err != nil {
		return nil, err
	}

	request := models.RecommendationRequest{
		ImageRecordID:   image.ID,
		PatientID:       patientID,
		DoctorProfileID: doctor.ID,
		Message:         defaultRequestMessage,
		PredictedLabel:  image.PredictedLabel,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return fmt.Errorf("create recommendation request: %w", err)
		}
		if err := tx.Model(&image).Update("request_status", models.StatusRequested).Error; err != nil {
			return fmt.Errorf("update request status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyDoctor(ctx, doctor, &image)

	return &request, nil
}

func (s *Service) notifyDoctor(ctx context.Context, doctor *models.DoctorProfile, image *models.ImageRecord) {
	label := "unclassified"
	if image.PredictedLabel != nil {
		label = *image.PredictedLabel
	}

	subject := "New recommendation request"
	body := fmt.Sprintf("A patient has requested a review.\nPrediction: %s", label)
	if err := s.mail.Send(ctx, subject, body, doctor.User.Email); err != nil {
		log.WithError(err).WithField("doctor_id", doctor.ID).Warn("doctor notification failed")
	}
}

// Respond records the doctor's comment. The image status, its comment,
// and the request's reviewed flag change in one transaction so no caller
// can observe one without the others.
func (s *Service) Respond(doctorUserID, requestID uint, comment string) error {
	request, err := s.ownedRequest(doctorUserID, requestID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"doctor_comment": comment,
			"request_status": models.StatusReviewed,
		}
		if err := tx.Model(&models.ImageRecord{}).Where("id = ?", request.ImageRecordID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update image record: %w", err)
		}
		if err := tx.Model(request).Update("reviewed", true).Error; err != nil {
			return fmt.Errorf("mark request reviewed: %w", err)
		}
		return nil
	})
}

// Edit overwrites the comment on an already-responded request. The image
// status is left alone; the reviewed flag is re-asserted.
func (s *Service) Edit(doctorUserID, requestID uint, comment string) error {
	request, err := s.ownedRequest(doctorUserID, requestID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ImageRecord{}).Where("id = ?", request.ImageRecordID).
			Update("doctor_comment", comment).Error; err != nil {
			return fmt.Errorf("update image comment: %w", err)
		}
		if err := tx.Model(request).Update("reviewed", true).Error; err != nil {
			return fmt.Errorf("mark request reviewed: %w", err)
		}
		return nil
	})
}

// Delete removes the request only. The image keeps its status and
// comment, so a reviewed record may legitimately outlive its request.
func (s *Service) Delete(doctorUserID, requestID uint) error {
	request, err := s.ownedRequest(doctorUserID, requestID)
	if err != nil {
		return err
	}

	if err := s.db.Unscoped().Delete(request).Error; err != nil {
		return fmt.Errorf("delete recommendation request: %w", err)
	}
	return nil
}

// Pending lists the doctor's unreviewed requests, newest first.
func (s *Service) Pending(doctorUserID uint) ([]models.RecommendationRequest, error) {
	return s.listRequests(doctorUserID, s.db.Where("reviewed = ?", false))
}

// History lists every request assigned to the doctor, newest first.
func (s *Service) History(doctorUserID uint) ([]models.RecommendationRequest, error) {
	return s.listRequests(doctorUserID, s.db)
}

func (s *Service) listRequests(doctorUserID uint, scope *gorm.DB) ([]models.RecommendationRequest, error) {
	doctor, err := s.doctorProfile(doctorUserID)
	if err != nil {
		return nil, err
	}

	var requests []models.RecommendationRequest
	err = scope.Where("doctor_profile_id = ?", doctor.ID).
		Preload("ImageRecord").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list recommendation requests: %w", err)
	}
	return requests, nil
}

func (s *Service) doctorProfile(doctorUserID uint) (*models.DoctorProfile, error) {
	var doctor models.DoctorProfile
	err := s.db.Where("user_id = ?", doctorUserID).First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup doctor profile: %w", err)
	}
	return &doctor, nil
}

// ownedRequest fetches a request and verifies it belongs to the
// authenticated doctor. A foreign request looks exactly like a missing
// one.
func (s *Service) ownedRequest(doctorUserID, requestID uint) (*models.RecommendationRequest, error) {
	doctor, err := s.doctorProfile(doctorUserID)
	if err != nil {
		return nil, err
	}

	var request models.RecommendationRequest
	err = s.db.Where("id = ? AND doctor_profile_id = ?", requestID, doctor.ID).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup recommendation request: %w", err)
	}
	return &request, nil
}
