// Package insight turns a raw disease-class prediction into a short
// plain-language note a patient can read. It is an optional collaborator;
// classification results never depend on it.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// ErrNoContent is returned when the model responds without usable text.
var ErrNoContent = errors.New("no explanation content in response")

func injectSysPrompt(label string) string {
	return fmt.Sprintf(`You are a medical communication assistant. A brain MRI
classification model produced the result %q (one of: glioma, meningioma,
notumor, pituitary). Write a short, calm, plain-language explanation of
what this class means for a patient. Do not give a diagnosis, do not give
treatment advice, and clearly state that only their doctor can interpret
the scan. Keep it under 120 words.`, label)
}

type Service struct {
	client *genai.Client
}

func New(ctx context.Context) (*Service, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Service{client: client}, nil
}

// Explain generates the patient-facing note for a predicted label.
func (s *Service) Explain(ctx context.Context, label string) (string, error) {
	result, err := s.client.Models.GenerateContent(
		ctx,
		model,
		genai.Text(injectSysPrompt(label)),
		&genai.GenerateContentConfig{},
	)
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", ErrNoContent
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoContent
	}

	return sb.String(), nil
}
