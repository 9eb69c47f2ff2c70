package models

import (
	"time"

	"gorm.io/gorm"
)

// Account roles. The role is fixed at signup rather than inferred from
// which profile row happens to exist.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

type User struct {
	gorm.Model
	Username  string `json:"username" gorm:"uniqueIndex;not null"`
	Email     string `json:"email" gorm:"uniqueIndex;not null"`
	Password  string `json:"-" gorm:"not null"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" gorm:"not null"`
}

type DoctorProfile struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	LicenseNumber string `json:"license_number"`
	PhoneNumber   string `json:"phone_number"`

	// Relationship
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

type PatientProfile struct {
	gorm.Model
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	DoctorID    *uint     `json:"doctor_id"`
	PhoneNumber string    `json:"phone_number"`
	DateOfBirth time.Time `json:"date_of_birth"`

	// Relationships
	User   User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Doctor *DoctorProfile `gorm:"foreignKey:DoctorID;constraint:OnDelete:SET NULL" json:"doctor,omitempty"`
}
