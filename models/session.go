package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Structured codes sent with a rejected OTP verification.
const (
	CodeOTPInvalid = "otp_invalid"
	CodeOTPExpired = "otp_expired"
)

// UserProfile is the authenticated user's snapshot taken at verification time.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// Session is the process-wide authenticated session.
type Session struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user,omitempty"`
}

// OTPChallenge exists only for the duration of a send/verify round trip.
type OTPChallenge struct {
	Phone string
	Code  string
}

// OTPResult is the envelope returned to callers of SendOTP.
type OTPResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// DevOTP is echoed by non-production backends only.
	DevOTP string `json:"otp,omitempty"`
}

// AuthResult is returned by verify, signup and refresh. A false Success with
// a nil error is a usable negative outcome, such as a wrong or expired code.
type AuthResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Token   string       `json:"token,omitempty"`
	User    *UserProfile `json:"user,omitempty"`
}

// AuthStatus is the outcome of validating the stored session.
type AuthStatus struct {
	Authenticated bool         `json:"isAuthenticated"`
	User          *UserProfile `json:"user,omitempty"`
}

// SignupProfile is the caller-facing signup input.
type SignupProfile struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Phone     string  `json:"phone"`
	DOB       string  `json:"dob,omitempty"`
	Gender    string  `json:"gender,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// SignupRequest is the wire payload of POST /signup.
type SignupRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	DOB       string  `json:"dob,omitempty"`
	Gender    string  `json:"gender,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// FlexibleID decodes identifiers sent either as JSON strings or numbers.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// ServerUser is the nested user object returned by the auth endpoints.
type ServerUser struct {
	UserID    FlexibleID `json:"user_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
}

// Profile flattens the server user into a UserProfile.
func (u *ServerUser) Profile() *UserProfile {
	if u == nil {
		return nil
	}
	return &UserProfile{
		ID:          string(u.UserID),
		DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
		Email:       u.Email,
		Phone:       u.Phone,
	}
}

// VerifyOTPReply is the wire response of POST /otp/verify.
type VerifyOTPReply struct {
	Msg     string      `json:"msg"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Token   string      `json:"token,omitempty"`
	User    *ServerUser `json:"user,omitempty"`
}

// AuthEnvelope is the wire response of signup, refresh and profile calls.
type AuthEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Msg     string `json:"msg,omitempty"`
	Data    struct {
		Token string      `json:"token,omitempty"`
		User  *ServerUser `json:"user,omitempty"`
	} `json:"data"`
}

// SendOTPReply is the wire response of POST /otp/send.
type SendOTPReply struct {
	Msg     string `json:"msg"`
	Message string `json:"message,omitempty"`
	Data    struct {
		OTP string `json:"otp,omitempty"`
	} `json:"data"`
}
