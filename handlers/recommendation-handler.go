package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sonuk-07/NeuroAI/middleware"
	"github.com/sonuk-07/NeuroAI/review"
)

func requestIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err
}

// PendingRequests lists the doctor's unreviewed requests (dashboard).
func PendingRequests(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	requests, err := svc.Review.Pending(userID)
	if errors.Is(err, review.ErrNotFound) {
		return notFound(c, "Doctor profile not found")
	}
	if err != nil {
		return serverError(c, "Failed to list requests")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Pending requests",
		"data":    requests,
	})
}

// RecommendationHistory lists all requests assigned to the doctor.
func RecommendationHistory(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	requests, err := svc.Review.History(userID)
	if errors.Is(err, review.ErrNotFound) {
		return notFound(c, "Doctor profile not found")
	}
	if err != nil {
		return serverError(c, "Failed to list requests")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Recommendation history",
		"data":    requests,
	})
}

// RespondRequest records the doctor's comment and closes the request.
func RespondRequest(c *fiber.Ctx) error {
	type RespondData struct {
		DoctorComment string `json:"doctor_comment"`
	}

	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	requestID, err := requestIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid request id")
	}

	input := new(RespondData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if input.DoctorComment == "" {
		return badRequest(c, "A comment is required")
	}

	err = svc.Review.Respond(userID, requestID, input.DoctorComment)
	if errors.Is(err, review.ErrNotFound) {
		return notFound(c, "Request not found")
	}
	if err != nil {
		return serverError(c, "Failed to send recommendation")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Recommendation sent.",
		"data":    nil,
	})
}

// EditRecommendation overwrites the comment on a handled request.
func EditRecommendation(c *fiber.Ctx) error {
	type EditData struct {
		Comments string `json:"comments"`
	}

	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	requestID, err := requestIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid request id")
	}

	input := new(EditData)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err = svc.Review.Edit(userID, requestID, input.Comments)
	if errors.Is(err, review.ErrNotFound) {
		return notFound(c, "Request not found")
	}
	if err != nil {
		return serverError(c, "Failed to update recommendation")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Recommendation updated.",
		"data":    nil,
	})
}

// DeleteRecommendation removes the request; the reviewed image record is
// left untouched.
func DeleteRecommendation(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	requestID, err := requestIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid request id")
	}

	err = svc.Review.Delete(userID, requestID)
	if errors.Is(err, review.ErrNotFound) {
		return notFound(c, "Request not found")
	}
	if err != nil {
		return serverError(c, "Failed to delete recommendation")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Recommendation deleted.",
		"data":    nil,
	})
}
