package entity

import (
	"time"
)

type OTPType string

const (
	OTPTypeEmailVerification OTPType = "email_verification"
)

type OTP struct {
	BaseSimple
	UserID    int64     `db:"user_id"`
	Email     string    `db:"email"`
	OTPCode   string    `db:"otp_code"`
	OTPType   OTPType   `db:"otp_type"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
}
