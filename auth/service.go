package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/provider"
	"github.com/go-pkgz/auth/v2/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sonuk-07/NeuroAI/config"
	"github.com/sonuk-07/NeuroAI/database"
	"github.com/sonuk-07/NeuroAI/models"
)

// TokenDuration is how long an issued JWT stays valid.
const TokenDuration = time.Hour * 24

// CookieDuration is how long the JWT cookie is kept by web clients.
const CookieDuration = time.Hour * 24 * 7

const minPasswordLength = 8

// Global auth service instance
var authService *auth.Service

// SetupAuthService initializes the go-pkgz auth service backed by the
// user table.
func SetupAuthService() *auth.Service {
	options := auth.Opts{
		SecretReader: token.SecretFunc(func(id string) (string, error) {
			return config.Config("JWT_SECRET"), nil
		}),
		TokenDuration:  TokenDuration,
		CookieDuration: CookieDuration,
		Issuer:         "neuroai",
		URL:            config.ConfigOr("APP_URL", "http://localhost:3000"),
		AvatarStore:    avatar.NewLocalFS(config.ConfigOr("AVATAR_DIR", "/tmp/avatars")),
	}

	service := auth.NewService(options)

	service.AddDirectProvider("local", provider.CredCheckerFunc(func(identity, password string) (bool, error) {
		return ValidateUserCredentials(identity, password)
	}))

	authService = service
	return service
}

// GetAuthService returns the auth service instance.
func GetAuthService() *auth.Service {
	return authService
}

// ValidateUserCredentials checks an identity (username or email) and
// password against the user table.
func ValidateUserCredentials(identity, password string) (bool, error) {
	user, err := FindByIdentity(identity)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil // User not found
	}

	if !CheckPasswordHash(password, user.Password) {
		return false, nil // Invalid password
	}

	return true, nil
}

// FindByIdentity resolves a username or email to a user. A missing user
// is (nil, nil), not an error.
func FindByIdentity(identity string) (*models.User, error) {
	if isEmail(identity) {
		return findUser("email = ?", identity)
	}
	return findUser("username = ?", identity)
}

func findUser(query string, arg interface{}) (*models.User, error) {
	db := database.GetDB()
	var user models.User
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(hashed), err
}

// CheckPasswordHash verifies a password against its stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword applies the account password policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func isEmail(identity string) bool {
	_, err := mail.ParseAddress(identity)
	return err == nil
}
