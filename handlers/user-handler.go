package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sonuk-07/NeuroAI/auth"
	"github.com/sonuk-07/NeuroAI/database"
	"github.com/sonuk-07/NeuroAI/middleware"
	"github.com/sonuk-07/NeuroAI/models"
)

func currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return nil, err
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the authenticated account.
func Me(c *fiber.Ctx) error {
	type UserResponse struct {
		ID        uint   `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}

	user, err := currentUser(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "User found",
		"data": UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
		},
	})
}

// GetProfile returns the role-specific profile. Patients also get their
// age computed from the stored date of birth.
func GetProfile(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	db := database.GetDB()

	switch user.Role {
	case models.RoleDoctor:
		var profile models.DoctorProfile
		if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
			return notFound(c, "Doctor profile not found")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "Doctor profile",
			"data":    profile,
		})
	default:
		var profile models.PatientProfile
		if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
			return notFound(c, "Patient profile not found")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "Patient profile",
			"data": fiber.Map{
				"profile": profile,
				"age":     ageFrom(profile.DateOfBirth, time.Now()),
			},
		})
	}
}

// ageFrom computes whole years between dob and now.
func ageFrom(dob, now time.Time) int {
	if dob.IsZero() {
		return 0
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}

// UpdateUsername changes the username and notifies the account email.
func UpdateUsername(c *fiber.Ctx) error {
	type UpdateData struct {
		NewUsername     string `json:"new_username"`
		ConfirmUsername string `json:"confirm_username"`
	}

	user, err := currentUser(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	input := new(UpdateData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if input.NewUsername == "" || input.NewUsername != input.ConfirmUsername {
		return badRequest(c, "Usernames do not match")
	}

	db := database.GetDB()

	var existing models.User
	if err := db.Where("username = ? AND id != ?", input.NewUsername, user.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":  "error",
			"message": "Username already taken",
			"data":    nil,
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return serverError(c, "Database error")
	}

	oldUsername := user.Username
	if err := db.Model(user).Update("username", input.NewUsername).Error; err != nil {
		return serverError(c, "Failed to update username")
	}

	if err := svc.Mail.Send(c.Context(), "Username Changed",
		fmt.Sprintf("Your username has been changed from %s to %s.", oldUsername, input.NewUsername),
		user.Email); err != nil {
		log.WithError(err).Warn("username change mail failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Username updated successfully",
		"data":    nil,
	})
}

// UpdatePassword verifies the current password before setting a new one.
func UpdatePassword(c *fiber.Ctx) error {
	type UpdateData struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}

	user, err := currentUser(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	input := new(UpdateData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if !auth.CheckPasswordHash(input.CurrentPassword, user.Password) {
		return badRequest(c, "Current password is incorrect")
	}
	if input.NewPassword == "" || input.NewPassword != input.ConfirmPassword {
		return badRequest(c, "New passwords do not match")
	}
	if err := auth.ValidatePassword(input.NewPassword); err != nil {
		return badRequest(c, err.Error())
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return serverError(c, "Failed to hash password")
	}

	db := database.GetDB()
	if err := db.Model(user).Update("password", hash).Error; err != nil {
		return serverError(c, "Failed to update password")
	}

	if err := svc.Mail.Send(c.Context(), "Password Changed",
		"Your password has been changed successfully.", user.Email); err != nil {
		log.WithError(err).Warn("password change mail failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Password updated successfully",
		"data":    nil,
	})
}

// UpdateEmail requires the current email to match before changing it.
func UpdateEmail(c *fiber.Ctx) error {
	type UpdateData struct {
		CurrentEmail string `json:"current_email"`
		NewEmail     string `json:"new_email"`
		ConfirmEmail string `json:"confirm_email"`
	}

	user, err := currentUser(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	input := new(UpdateData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if input.CurrentEmail != user.Email {
		return badRequest(c, "Current email is incorrect")
	}
	if input.NewEmail == "" || input.NewEmail != input.ConfirmEmail {
		return badRequest(c, "New emails do not match")
	}

	db := database.GetDB()

	var existing models.User
	if err := db.Where("email = ? AND id != ?", input.NewEmail, user.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":  "error",
			"message": "Email already taken",
			"data":    nil,
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return serverError(c, "Database error")
	}

	if err := db.Model(user).Update("email", input.NewEmail).Error; err != nil {
		return serverError(c, "Failed to update email")
	}

	if err := svc.Mail.Send(c.Context(), "Email Changed",
		"Your email has been changed successfully.", input.NewEmail); err != nil {
		log.WithError(err).Warn("email change mail failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Email updated successfully",
		"data":    nil,
	})
}

// UpdateName sets the first and last name.
func UpdateName(c *fiber.Ctx) error {
	type UpdateData struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	user, err := currentUser(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	input := new(UpdateData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	db := database.GetDB()
	updates := map[string]interface{}{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
	}
	if err := db.Model(user).Updates(updates).Error; err != nil {
		return serverError(c, "Failed to update name")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Name updated successfully.",
		"data":    nil,
	})
}

// Contact relays the public contact form to the site inbox.
func Contact(c *fiber.Ctx) error {
	type ContactData struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}

	input := new(ContactData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if input.Name == "" || input.Email == "" || input.Message == "" {
		return badRequest(c, "Name, email and message are required")
	}

	subject := fmt.Sprintf("Contact Form Submission from %s", input.Name)
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", input.Name, input.Email, input.Message)
	if err := svc.Mail.Send(c.Context(), subject, body, svc.ContactEmail); err != nil {
		log.WithError(err).Warn("contact mail failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Your message has been sent successfully!",
		"data":    nil,
	})
}
