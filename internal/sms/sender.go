package sms

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/offerslab/offers-api/internal/phone"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// LogSender writes messages to the log instead of sending them. Used in
// development and tests.
type LogSender struct{}

// NewLogSender creates a log-only sender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the delivery. The message body is not logged since it contains
// the OTP.
func (s *LogSender) Send(_ context.Context, to, _ string) error {
	log.Info().Str("phone", phone.Mask(to)).Msg("sms delivery skipped (log sender)")
	return nil
}
