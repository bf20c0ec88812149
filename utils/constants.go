package utils

import "time"

// Redis key prefixes used by the sandbox server.
const (
	OTPKeyPrefix     = "otp:"
	RevokedKeyPrefix = "revoked:"
)

// OTPTTL is how long a sent OTP stays valid.
const OTPTTL = 5 * time.Minute

// OTPLength is the number of digits in a generated OTP.
const OTPLength = 6
