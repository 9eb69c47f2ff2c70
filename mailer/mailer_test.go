package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSubstitutesRecipients(t *testing.T) {
	var gotURL, gotSubject string
	m := NewShoutrrr("smtp://mail.example.com:587/?from=noreply@neuroai.dev&to={to}")
	m.deliver = func(url, subject, body string) error {
		gotURL = url
		gotSubject = subject
		return nil
	}

	err := m.Send(context.Background(), "Password Reset OTP", "Your OTP is: 123456", "a@x.com", "b@y.com")
	require.NoError(t, err)
	assert.Contains(t, gotURL, "to=a@x.com,b@y.com")
	assert.Equal(t, "Password Reset OTP", gotSubject)
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	m := NewShoutrrr("smtp://mail.example.com/?to={to}")
	m.deliver = func(url, subject, body string) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary failure")
		}
		return nil
	}

	err := m.Send(context.Background(), "s", "b", "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestSendGivesUpAfterBoundedRetries(t *testing.T) {
	attempts := 0
	m := NewShoutrrr("smtp://mail.example.com/?to={to}")
	m.deliver = func(url, subject, body string) error {
		attempts++
		return errors.New("down")
	}

	err := m.Send(context.Background(), "s", "b", "a@x.com")
	assert.Error(t, err)
	assert.Equal(t, maxAttempts, attempts)
}

func TestSendHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewShoutrrr("smtp://mail.example.com/?to={to}")
	m.deliver = func(url, subject, body string) error {
		t.Fatal("deliver should not be called after cancellation")
		return nil
	}

	err := m.Send(ctx, "s", "b", "a@x.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoopSwallowsEverything(t *testing.T) {
	assert.NoError(t, Noop{}.Send(context.Background(), "s", "b", "a@x.com"))
}
