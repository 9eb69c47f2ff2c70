package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-pkgz/auth/v2/token"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sonuk-07/NeuroAI/auth"
	"github.com/sonuk-07/NeuroAI/database"
	"github.com/sonuk-07/NeuroAI/models"
)

// Signup creates a user plus the profile matching the chosen role.
func Signup(c *fiber.Ctx) error {
	type SignupData struct {
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		Role            string `json:"role"`
		// Doctor fields
		LicenseNumber string `json:"license_number"`
		// Shared / patient fields
		PhoneNumber string `json:"phone_number"`
		DateOfBirth string `json:"dob"`
	}

	input := new(SignupData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if input.Username == "" || input.Email == "" {
		return badRequest(c, "Username and email are required")
	}
	if input.Password != input.ConfirmPassword {
		return badRequest(c, "Passwords do not match")
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return badRequest(c, err.Error())
	}
	if input.Role != models.RolePatient && input.Role != models.RoleDoctor {
		return badRequest(c, "Role must be patient or doctor")
	}

	db := database.GetDB()

	var count int64
	db.Model(&models.User{}).Where("username = ?", input.Username).Count(&count)
	if count > 0 {
		return badRequest(c, "Username already exists")
	}
	db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count)
	if count > 0 {
		return badRequest(c, "Email is already taken")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return serverError(c, "Failed to hash password")
	}

	user := models.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  hash,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      input.Role,
	}
	if err := db.Create(&user).Error; err != nil {
		// Concurrent signups can slip past the pre-checks and trip the
		// unique index instead; that is still a duplicate, not a fault.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return badRequest(c, "Username or email already exists")
		}
		return serverError(c, "Failed to create user")
	}

	switch input.Role {
	case models.RoleDoctor:
		profile := models.DoctorProfile{
			UserID:        user.ID,
			LicenseNumber: input.LicenseNumber,
			PhoneNumber:   input.PhoneNumber,
		}
		if err := db.Create(&profile).Error; err != nil {
			return serverError(c, "Failed to create doctor profile")
		}
	case models.RolePatient:
		profile := models.PatientProfile{
			UserID:      user.ID,
			PhoneNumber: input.PhoneNumber,
		}
		if dob, err := time.Parse("2006-01-02", input.DateOfBirth); err == nil {
			profile.DateOfBirth = dob
		}
		if err := db.Create(&profile).Error; err != nil {
			return serverError(c, "Failed to create patient profile")
		}
	}

	if err := svc.Mail.Send(c.Context(), "Welcome to NeuroAI!",
		"Thank you for signing up. We are excited to have you on board!",
		user.Email); err != nil {
		log.WithError(err).Warn("signup confirmation mail failed")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "User created successfully. Please log in.",
		"data": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Login validates credentials and issues a JWT via go-pkgz/auth.
func Login(c *fiber.Ctx) error {
	type LoginData struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}

	type UserResponse struct {
		ID        uint   `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
		Token     string `json:"token"`
	}

	input := new(LoginData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userModel, err := auth.FindByIdentity(input.Identity)
	if err != nil {
		return serverError(c, "Database error")
	}
	if userModel == nil || !auth.CheckPasswordHash(input.Password, userModel.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid identity or password",
			"data":    nil,
		})
	}

	authService := auth.GetAuthService()

	user := token.User{
		ID:    strconv.FormatUint(uint64(userModel.ID), 10),
		Name:  userModel.FirstName + " " + userModel.LastName,
		Email: userModel.Email,
		Attributes: map[string]interface{}{
			"username": userModel.Username,
			"role":     userModel.Role,
		},
	}

	claims := token.Claims{
		User: &user,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    authService.TokenService().Issuer,
			Audience:  []string{"neuroai"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(auth.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	tokenStr, err := authService.TokenService().Token(claims)
	if err != nil {
		return serverError(c, "Failed to generate token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "JWT",
		Value:    tokenStr,
		Expires:  time.Now().Add(auth.CookieDuration),
		HTTPOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: "Lax",
	})

	response := UserResponse{
		ID:        userModel.ID,
		Email:     userModel.Email,
		Username:  userModel.Username,
		FirstName: userModel.FirstName,
		LastName:  userModel.LastName,
		Role:      userModel.Role,
		Token:     tokenStr,
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Login successful",
		"data":    response,
	})
}

// Logout clears the JWT cookie.
func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "JWT",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Logout successful",
		"data":    nil,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func serverError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}
