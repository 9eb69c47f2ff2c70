package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/sonuk-07/NeuroAI/auth"
	"github.com/sonuk-07/NeuroAI/database"
	"github.com/sonuk-07/NeuroAI/models"
	"github.com/sonuk-07/NeuroAI/otp"
)

// ForgotPassword issues a one-time passcode and mails it to the account
// owner. The identity may be a username or an email address.
func ForgotPassword(c *fiber.Ctx) error {
	type ForgotData struct {
		Identity string `json:"identity"`
	}

	input := new(ForgotData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if input.Identity == "" {
		return badRequest(c, "Email or username is required")
	}

	user, err := auth.FindByIdentity(input.Identity)
	if err != nil {
		return serverError(c, "Database error")
	}
	if user == nil {
		return notFound(c, "No account found with that email or username.")
	}

	code, err := svc.OTP.Issue(user.ID)
	if err != nil {
		return serverError(c, "Failed to issue passcode")
	}

	if err := svc.Mail.Send(c.Context(), "Password Reset OTP",
		fmt.Sprintf("Your OTP is: %s", code), user.Email); err != nil {
		log.WithError(err).Warn("OTP mail failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "An OTP has been sent to your registered email.",
		"data": fiber.Map{
			"email": user.Email,
		},
	})
}

// VerifyOTP validates and consumes a passcode. Success returns a
// short-lived reset token for the final password-reset step.
func VerifyOTP(c *fiber.Ctx) error {
	type VerifyData struct {
		Email string `json:"email"`
		Code  string `json:"otp_code"`
	}

	input := new(VerifyData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if input.Code == "" {
		return badRequest(c, "Please provide the OTP code.")
	}
	if input.Email == "" {
		return badRequest(c, "No email address found. Please request OTP again.")
	}

	user, err := auth.FindByIdentity(input.Email)
	if err != nil {
		return serverError(c, "Database error")
	}
	if user == nil {
		return notFound(c, "No user found with this email address.")
	}

	switch err := svc.OTP.Validate(user.ID, input.Code); {
	case errors.Is(err, otp.ErrInvalidCode):
		return badRequest(c, "Invalid OTP code.")
	case errors.Is(err, otp.ErrExpired):
		// Distinct message so the client can offer to resend.
		return badRequest(c, "OTP has expired.")
	case err != nil:
		return serverError(c, "Failed to validate passcode")
	}

	if err := svc.OTP.Consume(user.ID, input.Code); err != nil {
		return serverError(c, "Failed to consume passcode")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "OTP verified successfully. You can now reset your password.",
		"data": fiber.Map{
			"reset_token": svc.ResetSigner.Issue(user.Email),
		},
	})
}

// ResetPassword sets a new password for the account named by a valid
// reset token.
func ResetPassword(c *fiber.Ctx) error {
	type ResetData struct {
		ResetToken      string `json:"reset_token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}

	input := new(ResetData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if input.Password != input.ConfirmPassword {
		return badRequest(c, "Passwords do not match")
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return badRequest(c, err.Error())
	}

	email, err := svc.ResetSigner.Verify(input.ResetToken)
	switch {
	case errors.Is(err, auth.ErrResetTokenExpired):
		return badRequest(c, "Reset session expired. Please request OTP again.")
	case err != nil:
		return badRequest(c, "No email address found. Please request OTP again.")
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return notFound(c, "User not found.")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return serverError(c, "Failed to hash password")
	}
	if err := db.Model(&user).Update("password", hash).Error; err != nil {
		return serverError(c, "Failed to update password")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Password reset successfully. Please log in.",
		"data":    nil,
	})
}
