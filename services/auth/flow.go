// Package auth implements phone/OTP authentication and the session token
// lifecycle on top of a pluggable SessionBackend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"samayog/models"
	"samayog/services/apperror"
	"samayog/services/session"
	"samayog/utils"
)

// State is the authentication state of a Flow.
type State string

const (
	Anonymous     State = "anonymous"
	Challenged    State = "challenged"
	Authenticated State = "authenticated"
)

// MsgNetwork replaces transport failures in user-facing errors.
const MsgNetwork = "Network error. Please check your internet connection and try again."

// Diagnosis statuses.
const (
	DiagnosisReady  = "ready"
	DiagnosisIssues = "issues_found"
)

// Pinger checks API reachability.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// Diagnosis summarizes whether an OTP login can be attempted for a phone.
type Diagnosis struct {
	Status      string   `json:"status"`
	Suggestions []string `json:"suggestions"`
}

// Flow is the only writer of the session. All operations are safe for
// concurrent use.
type Flow struct {
	backend SessionBackend
	session *session.Holder
	pinger  Pinger
	logger  *zap.Logger

	mu    sync.Mutex
	state State
}

// NewFlow wires a Flow. backend and holder are required; pinger may be nil,
// in which case Diagnose skips the connectivity check.
func NewFlow(backend SessionBackend, holder *session.Holder, pinger Pinger, logger *zap.Logger) (*Flow, error) {
	if backend == nil {
		return nil, errors.New("auth.NewFlow: session backend is required")
	}
	if holder == nil {
		return nil, errors.New("auth.NewFlow: session holder is required")
	}
	return &Flow{
		backend: backend,
		session: holder,
		pinger:  pinger,
		logger:  utils.OrNop(logger),
		state:   Anonymous,
	}, nil
}

// State returns the current authentication state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// SendOTP requests a one-time code for phone. A successful send moves an
// anonymous flow to Challenged.
func (f *Flow) SendOTP(ctx context.Context, phone string) (*models.OTPResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	f.logger.Info("auth: sending otp", zap.String("phone", maskPhone(normalized)))
	res, err := f.backend.SendOTP(ctx, normalized)
	if err != nil {
		f.logger.Warn("auth: send otp failed", zap.Error(err))
		return nil, userError(err, "Failed to send OTP")
	}

	f.mu.Lock()
	if f.state == Anonymous {
		f.state = Challenged
	}
	f.mu.Unlock()
	return res, nil
}

// VerifyOTP exchanges phone and code for a session. A wrong or expired code
// is reported as Success=false with a nil error.
func (f *Flow) VerifyOTP(ctx context.Context, phone, code string) (*models.AuthResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if !validOTP(code) {
		return nil, apperror.New(apperror.Validation, "OTP must be a 6-digit code")
	}

	res, err := f.backend.VerifyOTP(ctx, normalized, code)
	if err != nil {
		if apperror.Is(err, apperror.Remote) && isRejection(apperror.CodeOf(err), apperror.MessageOf(err)) {
			f.logger.Info("auth: otp rejected", zap.String("code", apperror.CodeOf(err)))
			return &models.AuthResult{
				Success: false,
				Message: apperror.MessageOf(err),
				Code:    apperror.CodeOf(err),
			}, nil
		}
		f.logger.Warn("auth: verify otp failed", zap.Error(err))
		return nil, userError(err, "OTP verification failed")
	}

	if !res.Success || res.Token == "" {
		res.Success = false
		res.Token = ""
		f.logger.Info("auth: otp verification returned no token", zap.String("message", res.Message))
		return res, nil
	}

	if err := f.session.Establish(ctx, res.Token, res.User); err != nil {
		return nil, fmt.Errorf("auth.VerifyOTP: persist session: %w", err)
	}
	f.setState(Authenticated)
	f.logger.Info("auth: session established", zap.String("user_id", userID(res.User)))
	return res, nil
}

// Signup registers a new user and establishes a session when the server
// issues a token.
func (f *Flow) Signup(ctx context.Context, profile models.SignupProfile) (*models.AuthResult, error) {
	normalized, err := NormalizePhone(profile.Phone)
	if err != nil {
		return nil, err
	}
	first, last := SplitName(profile.Name)
	if first == "" {
		return nil, apperror.New(apperror.Validation, "Name is required")
	}

	req := models.SignupRequest{
		FirstName: first,
		LastName:  last,
		Phone:     normalized,
		Email:     strings.TrimSpace(profile.Email),
		Password:  profile.Password,
		DOB:       profile.DOB,
		Gender:    profile.Gender,
		City:      profile.City,
		Latitude:  profile.Latitude,
		Longitude: profile.Longitude,
	}
	res, err := f.backend.Signup(ctx, req)
	if err != nil {
		f.logger.Warn("auth: signup failed", zap.Error(err))
		return nil, userError(err, "Failed to signup")
	}
	if res.Success && res.Token != "" {
		if err := f.session.Establish(ctx, res.Token, res.User); err != nil {
			return nil, fmt.Errorf("auth.Signup: persist session: %w", err)
		}
		f.setState(Authenticated)
	}
	return res, nil
}

// Logout ends the session. The local session is cleared even when the
// remote call fails; the remote error is still returned.
func (f *Flow) Logout(ctx context.Context) error {
	remoteErr := f.backend.Logout(ctx)
	clearErr := f.session.Clear(ctx)
	f.setState(Anonymous)

	if remoteErr != nil {
		f.logger.Warn("auth: remote logout failed, local session cleared", zap.Error(remoteErr))
		remoteErr = userError(remoteErr, "Failed to logout")
	}
	if clearErr != nil {
		f.logger.Error("auth: clear session", zap.Error(clearErr))
		clearErr = fmt.Errorf("auth.Logout: clear session: %w", clearErr)
	}
	return errors.Join(remoteErr, clearErr)
}

// CheckAuthStatus validates the stored token against the profile endpoint.
// Any failure clears the token and reports an anonymous status.
func (f *Flow) CheckAuthStatus(ctx context.Context) models.AuthStatus {
	token, err := f.session.Token(ctx)
	if err != nil {
		f.logger.Warn("auth: read token", zap.Error(err))
		f.dropSession(ctx)
		return models.AuthStatus{}
	}
	if token == "" {
		f.setState(Anonymous)
		return models.AuthStatus{}
	}

	user, err := f.CurrentUser(ctx)
	if err != nil {
		f.logger.Info("auth: stored session rejected, clearing",
			zap.String("kind", string(apperror.KindOf(err))), zap.Error(err))
		f.dropSession(ctx)
		return models.AuthStatus{}
	}

	f.session.SetUser(user)
	f.setState(Authenticated)
	return models.AuthStatus{Authenticated: true, User: user}
}

// RefreshToken asks for a new token. The stored token changes only when the
// server issues one.
func (f *Flow) RefreshToken(ctx context.Context) (*models.AuthResult, error) {
	res, err := f.backend.RefreshToken(ctx)
	if err != nil {
		f.logger.Warn("auth: refresh token failed", zap.Error(err))
		return nil, userError(err, "Failed to refresh token")
	}
	if !res.Success || res.Token == "" {
		return res, nil
	}
	if err := f.session.Rotate(ctx, res.Token); err != nil {
		return nil, fmt.Errorf("auth.RefreshToken: persist token: %w", err)
	}
	if res.User != nil {
		f.session.SetUser(res.User)
	}
	return res, nil
}

// CurrentUser fetches the profile of the session owner. A token the server
// refuses is reported as StaleSession.
func (f *Flow) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	user, err := f.backend.CurrentUser(ctx)
	if err == nil {
		return user, nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Kind == apperror.Remote &&
		(appErr.Status == http.StatusUnauthorized || appErr.Status == http.StatusForbidden) {
		return nil, &apperror.Error{
			Kind:    apperror.StaleSession,
			Code:    appErr.Code,
			Status:  appErr.Status,
			Message: "Failed to get user info: " + appErr.Message,
			Err:     err,
		}
	}
	return nil, userError(err, "Failed to get user info")
}

// IsAuthenticated reports whether a token is stored. It does not validate
// the token; use CheckAuthStatus for that.
func (f *Flow) IsAuthenticated(ctx context.Context) bool {
	token, err := f.session.Token(ctx)
	return err == nil && token != ""
}

// Diagnose checks the phone format and API reachability before a login.
func (f *Flow) Diagnose(ctx context.Context, phone string) Diagnosis {
	suggestions := phoneIssues(trimPhone(phone))
	if f.pinger != nil && !f.pinger.Ping(ctx) {
		suggestions = append(suggestions, "Cannot connect to server. Check your internet connection.")
	}
	d := Diagnosis{Status: DiagnosisReady, Suggestions: suggestions}
	if len(suggestions) > 0 {
		d.Status = DiagnosisIssues
	}
	if d.Suggestions == nil {
		d.Suggestions = []string{}
	}
	return d
}

func (f *Flow) dropSession(ctx context.Context) {
	if err := f.session.Clear(ctx); err != nil {
		f.logger.Error("auth: clear session", zap.Error(err))
	}
	f.setState(Anonymous)
}

// isRejection decides whether a failed verify is a usable negative outcome.
// The structured code wins; the message match covers servers that send none.
func isRejection(code, message string) bool {
	switch code {
	case models.CodeOTPInvalid, models.CodeOTPExpired:
		return true
	case "":
		return strings.Contains(message, "Invalid") || strings.Contains(message, "expired")
	}
	return false
}

// userError rewrites err into a message fit for display while keeping its
// kind. Validation errors already carry one.
func userError(err error, op string) error {
	switch apperror.KindOf(err) {
	case apperror.Validation:
		return err
	case apperror.Network:
		return apperror.Rewrap(err, MsgNetwork)
	}
	return apperror.Rewrap(err, op+": "+apperror.MessageOf(err))
}

func maskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func userID(u *models.UserProfile) string {
	if u == nil {
		return ""
	}
	return u.ID
}
