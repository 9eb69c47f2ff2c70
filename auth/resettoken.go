package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResetTokenTTL bounds how long a verified-OTP session stays usable for
// the final password reset step.
const ResetTokenTTL = 15 * time.Minute

var (
	ErrResetTokenInvalid = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token expired")
)

// ResetSigner issues and verifies short-lived HMAC tokens that carry the
// email whose OTP was just verified. It replaces the server-side session
// the password-reset flow would otherwise need.
type ResetSigner struct {
	secret []byte
	now    func() time.Time
}

func NewResetSigner(secret []byte) *ResetSigner {
	return &ResetSigner{secret: secret, now: time.Now}
}

// Issue returns a token of the form base64(email).expiresUnix.signature.
func (s *ResetSigner) Issue(email string) string {
	expires := s.now().Add(ResetTokenTTL).Unix()
	encoded := base64.RawURLEncoding.EncodeToString([]byte(email))
	return fmt.Sprintf("%s.%d.%s", encoded, expires, s.sign(encoded, expires))
}

// Verify checks the signature and expiry and returns the embedded email.
func (s *ResetSigner) Verify(tokenStr string) (string, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return "", ErrResetTokenInvalid
	}

	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", ErrResetTokenInvalid
	}

	expected := s.sign(parts[0], expires)
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return "", ErrResetTokenInvalid
	}

	if s.now().Unix() > expires {
		return "", ErrResetTokenExpired
	}

	email, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrResetTokenInvalid
	}
	return string(email), nil
}

func (s *ResetSigner) sign(encodedEmail string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	payload := fmt.Sprintf("%s:%d", encodedEmail, expiresUnix)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
