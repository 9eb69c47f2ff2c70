package handler

import (
	"github.com/sonuk-07/NeuroAI/auth"
	"github.com/sonuk-07/NeuroAI/imaging"
	"github.com/sonuk-07/NeuroAI/insight"
	"github.com/sonuk-07/NeuroAI/mailer"
	"github.com/sonuk-07/NeuroAI/otp"
	"github.com/sonuk-07/NeuroAI/review"
)

// Services carries the collaborators the handlers translate requests
// into. Insight may be nil when the Gemini key is not configured.
type Services struct {
	Imaging     *imaging.Service
	Review      *review.Service
	OTP         *otp.Service
	Mail        mailer.Mailer
	ResetSigner *auth.ResetSigner
	Insight     *insight.Service
	// ContactEmail receives contact-form submissions.
	ContactEmail string
}

var svc Services

// Setup wires the handler package to its collaborators. Must be called
// before any route is served.
func Setup(s Services) {
	svc = s
}
