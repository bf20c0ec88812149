package apperror

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := &Error{Kind: Remote, Code: "otp_invalid", Status: 400, Message: "Invalid OTP"}
	err := fmt.Errorf("auth.VerifyOTP: %w", base)

	if got := KindOf(err); got != Remote {
		t.Errorf("KindOf() = %q, want %q", got, Remote)
	}
	if !Is(err, Remote) {
		t.Error("Is(err, Remote) = false, want true")
	}
	if Is(err, Network) {
		t.Error("Is(err, Network) = true, want false")
	}
	if got := CodeOf(err); got != "otp_invalid" {
		t.Errorf("CodeOf() = %q, want otp_invalid", got)
	}
	if got := MessageOf(err); got != "Invalid OTP" {
		t.Errorf("MessageOf() = %q, want %q", got, "Invalid OTP")
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(io.EOF); got != "" {
		t.Errorf("KindOf(io.EOF) = %q, want empty", got)
	}
	if Is(nil, Validation) {
		t.Error("Is(nil, Validation) = true")
	}
	if got := MessageOf(io.EOF); got != "EOF" {
		t.Errorf("MessageOf(io.EOF) = %q", got)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Wrap(Network, "Network error", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Error() != "Network error" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRewrapKeepsClassification(t *testing.T) {
	orig := &Error{Kind: Timeout, Status: 0, Message: "request timed out"}
	got := Rewrap(orig, "Failed to send OTP: request timed out")
	if got.Kind != Timeout {
		t.Errorf("Kind = %q, want %q", got.Kind, Timeout)
	}
	if !errors.Is(got, orig) {
		t.Error("rewrapped error should wrap the original")
	}

	foreign := Rewrap(io.ErrUnexpectedEOF, "boom")
	if foreign.Kind != Remote {
		t.Errorf("foreign Kind = %q, want %q", foreign.Kind, Remote)
	}
}
