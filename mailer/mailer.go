// Package mailer is the single notification collaborator. Every outgoing
// message (signup confirmation, OTP delivery, review notifications,
// account-change notices, contact form) goes through one Mailer with one
// failure policy: a small bounded retry, then log and continue. Mail is
// never on the critical path of record persistence.
package mailer

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	log "github.com/sirupsen/logrus"
)

const (
	maxAttempts = 3
	retryDelay  = 500 * time.Millisecond
)

// Mailer delivers a message to one or more recipients.
type Mailer interface {
	Send(ctx context.Context, subject, body string, to ...string) error
}

// Shoutrrr sends through any shoutrrr-supported service. The configured
// URL may contain a "{to}" placeholder which is replaced per send with
// the comma-joined recipient list (the usual shape for smtp:// URLs).
type Shoutrrr struct {
	urlTemplate string

	// deliver is swapped out in tests.
	deliver func(url, subject, body string) error
}

func NewShoutrrr(urlTemplate string) *Shoutrrr {
	return &Shoutrrr{
		urlTemplate: urlTemplate,
		deliver:     deliverShoutrrr,
	}
}

// Send delivers the message, retrying transient failures a bounded
// number of times. The returned error is informational; callers are
// expected to log and move on rather than fail their own operation.
func (s *Shoutrrr) Send(ctx context.Context, subject, body string, to ...string) error {
	url := s.urlTemplate
	if strings.Contains(url, "{to}") {
		url = strings.ReplaceAll(url, "{to}", strings.Join(to, ","))
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = s.deliver(url, subject, body)
		if lastErr == nil {
			return nil
		}

		log.WithError(lastErr).WithFields(log.Fields{
			"subject": subject,
			"attempt": attempt,
		}).Warn("mail delivery failed")

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return fmt.Errorf("mail delivery failed after %d attempts: %w", maxAttempts, lastErr)
}

func deliverShoutrrr(url, subject, body string) error {
	sender, err := shoutrrr.CreateSender(url)
	if err != nil {
		return fmt.Errorf("create sender: %w", err)
	}
	sender.SetLogger(stdlog.New(io.Discard, "", 0))

	params := stypes.Params{}
	params.SetTitle(subject)

	for _, e := range sender.Send(body, &params) {
		if e != nil {
			return e
		}
	}
	return nil
}

// Noop drops every message. Used when no mail URL is configured so the
// rest of the service does not need nil checks.
type Noop struct{}

func (Noop) Send(_ context.Context, subject, _ string, to ...string) error {
	log.WithFields(log.Fields{"subject": subject, "to": to}).Debug("mail disabled, dropping message")
	return nil
}
