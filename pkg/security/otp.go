package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// OTP is a numeric one-time passcode and the instant it stops being accepted.
type OTP struct {
	Code      string
	ExpiresAt time.Time
}

// GenerateOTP returns a zero-padded numeric code of the given length.
func GenerateOTP(length int, ttl time.Duration, now time.Time) (OTP, error) {
	if length <= 0 || length > 12 {
		return OTP{}, fmt.Errorf("otp length must be between 1 and 12, got %d", length)
	}
	if ttl <= 0 {
		return OTP{}, fmt.Errorf("otp ttl must be positive")
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return OTP{}, fmt.Errorf("generate otp: %w", err)
	}
	return OTP{
		Code:      fmt.Sprintf("%0*d", length, n.Int64()),
		ExpiresAt: now.Add(ttl),
	}, nil
}

// CheckOTP accepts code when it matches stored and now has not passed expiresAt.
func CheckOTP(code, stored string, expiresAt *time.Time, now time.Time) bool {
	if code == "" || stored == "" || expiresAt == nil {
		return false
	}
	if now.After(*expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(stored)) == 1
}
