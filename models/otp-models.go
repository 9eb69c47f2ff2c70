package models

import (
	"gorm.io/gorm"
)

// Passcode is a one-time 6-digit code used for password-reset identity
// verification. Codes are valid for a fixed window from CreatedAt,
// deleted on successful verification, and swept periodically once
// expired. A user may hold several outstanding codes at once; each is
// individually valid until it expires or is consumed.
type Passcode struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"not null;index"`
	Code   string `json:"-" gorm:"not null;size:6"`

	// Relationship
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
