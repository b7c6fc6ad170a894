package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/gauravsharmaer/Authentication-Advanced/internal/core/port"
	"github.com/gauravsharmaer/Authentication-Advanced/internal/infra/logger"
)

// LogSender writes verification links and one-time codes to the application
// log instead of delivering them. Useful for development environments where
// no mail transport is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a log-backed notification sender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (s *LogSender) SendVerificationLink(_ context.Context, email, token string) error {
	s.logger.Info("verification link issued",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("token", token),
	)
	return nil
}

func (s *LogSender) SendOTP(_ context.Context, email, code string) error {
	s.logger.Info("otp issued",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("code", code),
	)
	return nil
}

var _ port.NotificationSender = (*LogSender)(nil)
