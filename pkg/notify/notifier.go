// Package notify delivers one-time passcodes. The only implementation logs the dispatch; an SMS
// gateway can be added behind the same interface.
package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/foodhaul-backend/pkg/logger"
)

// OTPMessage is what a notifier needs to reach the account holder.
type OTPMessage struct {
	Phone   string
	Code    string
	Subject string
}

// Notifier sends OTPs.
type Notifier interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

// LogNotifier writes the dispatch to the structured log. The code is included only in dev.
type LogNotifier struct {
	logg        *logger.Logger
	includeCode bool
}

func NewLogNotifier(logg *logger.Logger, includeCode bool) *LogNotifier {
	return &LogNotifier{logg: logg, includeCode: includeCode}
}

func (n *LogNotifier) SendOTP(ctx context.Context, msg OTPMessage) error {
	if strings.TrimSpace(msg.Phone) == "" {
		return errors.New("phone is required")
	}
	if msg.Code == "" {
		return errors.New("otp code is required")
	}
	if n.logg == nil {
		return nil
	}
	fields := map[string]any{"phone": maskPhone(msg.Phone), "subject": msg.Subject}
	if n.includeCode {
		fields["otp"] = msg.Code
	}
	n.logg.Info(n.logg.WithFields(ctx, fields), "otp dispatched")
	return nil
}

func maskPhone(phone string) string {
	p := strings.TrimSpace(phone)
	if len(p) <= 4 {
		return strings.Repeat("*", len(p))
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
