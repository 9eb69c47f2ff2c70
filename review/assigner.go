package review

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sonuk-07/NeuroAI/models"
)

// Assigner picks the doctor who receives a new recommendation request.
// The strategy is injected so deployments can choose how review load is
// spread instead of hard-coding a "first row wins" lookup.
type Assigner interface {
	Assign(db *gorm.DB, patientID uint) (*models.DoctorProfile, error)
}

// NewAssigner maps a config value to a strategy. Unknown values fall
// back to first-available.
func NewAssigner(strategy string) Assigner {
	switch strategy {
	case "least-loaded":
		return LeastLoaded{}
	case "preferred":
		return Preferred{Fallback: FirstAvailable{}}
	default:
		return FirstAvailable{}
	}
}

// FirstAvailable picks the oldest doctor profile.
type FirstAvailable struct{}

func (FirstAvailable) Assign(db *gorm.DB, _ uint) (*models.DoctorProfile, error) {
	var doctor models.DoctorProfile
	err := db.Preload("User").Order("id").First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoDoctor
	}
	if err != nil {
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return &doctor, nil
}

// LeastLoaded picks the doctor with the fewest unreviewed requests.
type LeastLoaded struct{}

func (LeastLoaded) Assign(db *gorm.DB, _ uint) (*models.DoctorProfile, error) {
	var doctor models.DoctorProfile
	err := db.Preload("User").
		Joins("LEFT JOIN recommendation_requests r ON r.doctor_profile_id = doctor_profiles.id AND r.reviewed = ? AND r.deleted_at IS NULL", false).
		Group("doctor_profiles.id").
		Order("COUNT(r.id) ASC, doctor_profiles.id ASC").
		First(&doctor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoDoctor
	}
	if err != nil {
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return &doctor, nil
}

// Preferred uses the doctor bound to the patient's profile when one is
// set, otherwise defers to the fallback strategy.
type Preferred struct {
	Fallback Assigner
}

func (p Preferred) Assign(db *gorm.DB, patientID uint) (*models.DoctorProfile, error) {
	var profile models.PatientProfile
	err := db.Where("user_id = ?", patientID).First(&profile).Error
	if err == nil && profile.DoctorID != nil {
		var doctor models.DoctorProfile
		if err := db.Preload("User").First(&doctor, *profile.DoctorID).Error; err == nil {
			return &doctor, nil
		}
	}
	return p.Fallback.Assign(db, patientID)
}
