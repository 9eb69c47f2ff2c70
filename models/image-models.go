package models

import (
	"gorm.io/gorm"
)

// Review status values for an uploaded image. Transitions are monotonic:
// none -> requested -> reviewed, never backwards.
const (
	StatusNone      = "none"
	StatusRequested = "requested"
	StatusReviewed  = "reviewed"
)

// Disease classes the model can predict.
var DiseaseClasses = []string{"glioma", "meningioma", "notumor", "pituitary"}

type ImageRecord struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"not null;index"`
	Filename string `json:"filename" gorm:"not null"`
	Path     string `json:"path" gorm:"not null"`
	// MirrorURL is the public bucket URL when cloud mirroring is enabled.
	MirrorURL string `json:"mirror_url,omitempty"`
	// PredictedLabel holds one of DiseaseClasses once classification
	// succeeds. PredictionError is set instead when inference fails, so a
	// failed run can never be confused with a "notumor" result.
	PredictedLabel  *string `json:"predicted_label"`
	PredictionError *string `json:"prediction_error,omitempty"`
	DoctorComment   *string `json:"doctor_comment"`
	RequestStatus   string  `json:"request_status" gorm:"not null;default:'none'"`

	// Relationship
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type RecommendationRequest struct {
	gorm.Model
	ImageRecordID   uint   `json:"image_record_id" gorm:"not null;index"`
	PatientID       uint   `json:"patient_id" gorm:"not null;index"`
	DoctorProfileID uint   `json:"doctor_profile_id" gorm:"not null;index"`
	Message         string `json:"message"`
	// PredictedLabel is a copy of the image's label at request time.
	PredictedLabel *string `json:"predicted_label"`
	Reviewed       bool    `json:"reviewed" gorm:"not null;default:false"`

	// Relationships
	ImageRecord ImageRecord   `gorm:"foreignKey:ImageRecordID;constraint:OnDelete:CASCADE" json:"image_record"`
	Patient     User          `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Doctor      DoctorProfile `gorm:"foreignKey:DoctorProfileID;constraint:OnDelete:CASCADE" json:"-"`
}
