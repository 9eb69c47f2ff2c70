package router

import (
	"github.com/gofiber/fiber/v2"

	handler "github.com/sonuk-07/NeuroAI/handlers"
	"github.com/sonuk-07/NeuroAI/middleware"
	"github.com/sonuk-07/NeuroAI/models"
)

func SetupRoutes(app *fiber.App) {
	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "v0.1.0"})
	})

	api := app.Group("/api")

	// Public
	auth := api.Group("/auth")
	auth.Post("/signup", handler.Signup)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.Logout)
	auth.Post("/forgot-password", handler.ForgotPassword)
	auth.Post("/verify-otp", handler.VerifyOTP)
	auth.Post("/reset-password", handler.ResetPassword)

	api.Post("/contact", handler.Contact)

	// Any authenticated account
	me := api.Group("/me", middleware.AuthMiddleware())
	me.Get("/", handler.Me)
	me.Get("/profile", handler.GetProfile)
	me.Patch("/username", handler.UpdateUsername)
	me.Patch("/password", handler.UpdatePassword)
	me.Patch("/email", handler.UpdateEmail)
	me.Patch("/name", handler.UpdateName)

	// Patient surface
	images := api.Group("/images", middleware.AuthMiddleware(), middleware.RequireRole(models.RolePatient))
	images.Post("/", handler.UploadImage)
	images.Get("/", handler.ImageHistory)
	images.Delete("/", handler.DeleteAllImages)
	images.Get("/:id", handler.GetImage)
	images.Get("/:id/insight", handler.GetInsight)
	images.Delete("/:id", handler.DeleteImage)
	images.Post("/:id/request-review", handler.RequestRecommendation)

	// Doctor surface
	requests := api.Group("/requests", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleDoctor))
	requests.Get("/", handler.PendingRequests)
	requests.Get("/history", handler.RecommendationHistory)
	requests.Post("/:id/respond", handler.RespondRequest)
	requests.Patch("/:id", handler.EditRecommendation)
	requests.Delete("/:id", handler.DeleteRecommendation)
}
