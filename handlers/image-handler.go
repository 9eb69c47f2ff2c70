package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sonuk-07/NeuroAI/imaging"
	"github.com/sonuk-07/NeuroAI/middleware"
	"github.com/sonuk-07/NeuroAI/review"
)

func imageIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	return uint(id), err
}

// UploadImage stores an MRI scan and classifies it before responding, so
// the client always sees the outcome (label or error) in the response.
func UploadImage(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized Request",
			"data":    nil,
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "No file provided")
	}

	blobFile, err := file.Open()
	if err != nil {
		return serverError(c, "Error opening the file")
	}
	defer blobFile.Close()

	record, err := svc.Imaging.Upload(c.Context(), userID, blobFile, file.Filename)
	if err != nil {
		return serverError(c, "Error saving the upload")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Image uploaded and prediction completed.",
		"data":    record,
	})
}

// ImageHistory lists the patient's uploads, most recent first.
func ImageHistory(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	records, err := svc.Imaging.History(userID)
	if err != nil {
		return serverError(c, "Failed to list images")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Image history",
		"data":    records,
	})
}

// GetImage returns one of the patient's records.
func GetImage(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	imageID, err := imageIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid image id")
	}

	record, err := svc.Imaging.Get(userID, imageID)
	if errors.Is(err, imaging.ErrNotFound) {
		return notFound(c, "Record not found!")
	}
	if err != nil {
		return serverError(c, "Failed to load image")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Detection result",
		"data":    record,
	})
}

// GetInsight generates a plain-language note for a classified record.
func GetInsight(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if svc.Insight == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "error",
			"message": "Insight is not configured",
			"data":    nil,
		})
	}

	imageID, err := imageIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid image id")
	}

	record, err := svc.Imaging.Get(userID, imageID)
	if errors.Is(err, imaging.ErrNotFound) {
		return notFound(c, "Record not found!")
	}
	if err != nil {
		return serverError(c, "Failed to load image")
	}
	if record.PredictedLabel == nil {
		return badRequest(c, "Image has no prediction to explain")
	}

	explanation, err := svc.Insight.Explain(c.Context(), *record.PredictedLabel)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to generate explanation",
			"data":    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Explanation generated",
		"data": fiber.Map{
			"label":       *record.PredictedLabel,
			"explanation": explanation,
		},
	})
}

// DeleteImage removes one of the patient's records.
func DeleteImage(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	imageID, err := imageIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid image id")
	}

	err = svc.Imaging.Delete(userID, imageID)
	if errors.Is(err, imaging.ErrNotFound) {
		return notFound(c, "Record not found!")
	}
	if err != nil {
		return serverError(c, "Failed to delete image")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Image deleted.",
		"data":    nil,
	})
}

// DeleteAllImages removes every record belonging to the requesting user.
func DeleteAllImages(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	removed, err := svc.Imaging.DeleteAll(userID)
	if err != nil {
		return serverError(c, "Failed to delete images")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "All images deleted.",
		"data": fiber.Map{
			"removed": removed,
		},
	})
}

// RequestRecommendation asks a doctor to review a classified image.
func RequestRecommendation(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	imageID, err := imageIDParam(c)
	if err != nil {
		return badRequest(c, "Invalid image id")
	}

	request, err := svc.Review.Request(c.Context(), userID, imageID)
	switch {
	case errors.Is(err, review.ErrAlreadyRequested):
		// Informational, not an error: the request already exists.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "Recommendation request already sent.",
			"data":    nil,
		})
	case errors.Is(err, review.ErrAlreadyReviewed):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "success",
			"message": "Image has already been reviewed.",
			"data":    nil,
		})
	case errors.Is(err, review.ErrNoDoctor):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":  "error",
			"message": "No doctor available.",
			"data":    nil,
		})
	case errors.Is(err, review.ErrNotFound):
		return notFound(c, "Record not found!")
	case err != nil:
		return serverError(c, "Failed to send request")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Request sent to doctor.",
		"data":    request,
	})
}
