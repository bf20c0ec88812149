package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"samayog/config"
	"samayog/models"
	"samayog/services/apperror"
	"samayog/utils"
)

// MockOTP is the sentinel code the mock backend accepts.
const MockOTP = "123456"

// SessionBackend performs the remote half of each authentication operation.
// It never touches the session; Flow owns that.
type SessionBackend interface {
	SendOTP(ctx context.Context, phone string) (*models.OTPResult, error)
	// VerifyOTP returns Success=false with a nil error when the server
	// answered without issuing a token.
	VerifyOTP(ctx context.Context, phone, code string) (*models.AuthResult, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context) (*models.AuthResult, error)
	CurrentUser(ctx context.Context) (*models.UserProfile, error)
}

// Requester issues one API call. *gateway.Gateway satisfies it.
type Requester interface {
	Execute(ctx context.Context, endpoint, method string, body any, headers map[string]string, out any) error
}

// TokenSource yields the current session token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// NewBackend selects the backend for cfg.AuthMode. It is called once at
// startup.
func NewBackend(cfg *config.Config, requester Requester, tokens TokenSource, logger *zap.Logger) SessionBackend {
	if cfg != nil && cfg.AuthMode == config.AuthModeMock {
		utils.OrNop(logger).Info("auth: using mock session backend")
		return NewMockBackend(tokens)
	}
	return NewHTTPBackend(requester)
}

// HTTPBackend talks to the live API through the request gateway.
type HTTPBackend struct {
	api Requester
}

func NewHTTPBackend(api Requester) *HTTPBackend {
	return &HTTPBackend{api: api}
}

func (b *HTTPBackend) SendOTP(ctx context.Context, phone string) (*models.OTPResult, error) {
	var reply models.SendOTPReply
	body := map[string]string{"phone": phone}
	if err := b.api.Execute(ctx, config.PathSendOTP, http.MethodPost, body, nil, &reply); err != nil {
		return nil, err
	}
	return &models.OTPResult{
		Success: true,
		Message: firstNonEmpty(reply.Msg, reply.Message, "OTP sent successfully"),
		DevOTP:  reply.Data.OTP,
	}, nil
}

func (b *HTTPBackend) VerifyOTP(ctx context.Context, phone, code string) (*models.AuthResult, error) {
	var reply models.VerifyOTPReply
	body := map[string]string{"phone": phone, "code": code}
	if err := b.api.Execute(ctx, config.PathVerifyOTP, http.MethodPost, body, nil, &reply); err != nil {
		return nil, err
	}
	if reply.Token == "" {
		return &models.AuthResult{
			Success: false,
			Message: firstNonEmpty(reply.Msg, reply.Message, "OTP verification failed"),
			Code:    reply.Code,
		}, nil
	}
	return &models.AuthResult{
		Success: true,
		Message: firstNonEmpty(reply.Msg, reply.Message, "OTP verified successfully"),
		Token:   reply.Token,
		User:    reply.User.Profile(),
	}, nil
}

func (b *HTTPBackend) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	var env models.AuthEnvelope
	if err := b.api.Execute(ctx, config.PathSignup, http.MethodPost, req, nil, &env); err != nil {
		return nil, err
	}
	return envelopeResult(&env, "Signup successful"), nil
}

func (b *HTTPBackend) Logout(ctx context.Context) error {
	return b.api.Execute(ctx, config.PathLogout, http.MethodPost, nil, nil, nil)
}

func (b *HTTPBackend) RefreshToken(ctx context.Context) (*models.AuthResult, error) {
	var env models.AuthEnvelope
	if err := b.api.Execute(ctx, config.PathRefreshToken, http.MethodPost, nil, nil, &env); err != nil {
		return nil, err
	}
	return envelopeResult(&env, "Token refreshed"), nil
}

func (b *HTTPBackend) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	var env models.AuthEnvelope
	if err := b.api.Execute(ctx, config.PathUserProfile, http.MethodGet, nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Data.User == nil {
		return nil, apperror.New(apperror.Remote, firstNonEmpty(env.Message, env.Msg, "Profile missing from response"))
	}
	return env.Data.User.Profile(), nil
}

func envelopeResult(env *models.AuthEnvelope, fallback string) *models.AuthResult {
	return &models.AuthResult{
		Success: env.Success && env.Data.Token != "",
		Message: firstNonEmpty(env.Message, env.Msg, fallback),
		Token:   env.Data.Token,
		User:    env.Data.User.Profile(),
	}
}

// MockTokenPrefix starts every token the mock backend issues.
const MockTokenPrefix = "mock_token_"

// MockBackend is a deterministic in-memory backend. It accepts only MockOTP
// and issues a fresh token on every successful verify, signup or refresh.
// A mock token it did not issue itself, such as one persisted by an earlier
// CLI run, is accepted as MockUser unless this backend revoked it.
type MockBackend struct {
	tokens TokenSource

	mu      sync.Mutex
	issued  map[string]*models.UserProfile
	revoked map[string]struct{}
}

func NewMockBackend(tokens TokenSource) *MockBackend {
	return &MockBackend{
		tokens:  tokens,
		issued:  make(map[string]*models.UserProfile),
		revoked: make(map[string]struct{}),
	}
}

// MockUser is the synthetic user the mock backend signs in.
func MockUser(phone string) *models.UserProfile {
	return &models.UserProfile{
		ID:          "user_123",
		DisplayName: "Test User",
		Email:       "test@example.com",
		Phone:       phone,
	}
}

func (m *MockBackend) SendOTP(_ context.Context, _ string) (*models.OTPResult, error) {
	return &models.OTPResult{Success: true, Message: "OTP sent successfully", DevOTP: MockOTP}, nil
}

func (m *MockBackend) VerifyOTP(_ context.Context, phone, code string) (*models.AuthResult, error) {
	if code != MockOTP {
		return &models.AuthResult{Success: false, Message: "Invalid OTP", Code: models.CodeOTPInvalid}, nil
	}
	user := MockUser(phone)
	return &models.AuthResult{
		Success: true,
		Message: "OTP verified successfully",
		Token:   m.issue(user),
		User:    user,
	}, nil
}

func (m *MockBackend) Signup(_ context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	user := &models.UserProfile{
		ID:          "user_" + uuid.NewString()[:8],
		DisplayName: joinName(req.FirstName, req.LastName),
		Email:       req.Email,
		Phone:       req.Phone,
	}
	return &models.AuthResult{
		Success: true,
		Message: "Signup successful",
		Token:   m.issue(user),
		User:    user,
	}, nil
}

func (m *MockBackend) Logout(ctx context.Context) error {
	token, err := m.current(ctx)
	if err != nil {
		return err
	}
	m.revoke(token)
	return nil
}

func (m *MockBackend) RefreshToken(ctx context.Context) (*models.AuthResult, error) {
	user, token, err := m.lookup(ctx)
	if err != nil {
		return nil, err
	}
	next := m.issue(user)
	m.revoke(token)
	return &models.AuthResult{Success: true, Message: "Token refreshed", Token: next, User: user}, nil
}

func (m *MockBackend) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	user, _, err := m.lookup(ctx)
	return user, err
}

func (m *MockBackend) issue(user *models.UserProfile) string {
	token := MockTokenPrefix + uuid.NewString()
	c := *user
	m.mu.Lock()
	m.issued[token] = &c
	m.mu.Unlock()
	return token
}

func (m *MockBackend) current(ctx context.Context) (string, error) {
	if m.tokens == nil {
		return "", apperror.New(apperror.StaleSession, "No session token")
	}
	token, err := m.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", apperror.New(apperror.StaleSession, "No session token")
	}
	return token, nil
}

func (m *MockBackend) lookup(ctx context.Context) (*models.UserProfile, string, error) {
	token, err := m.current(ctx)
	if err != nil {
		return nil, "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.issued[token]
	if !ok {
		_, gone := m.revoked[token]
		if gone || !strings.HasPrefix(token, MockTokenPrefix) {
			return nil, "", apperror.New(apperror.StaleSession, "Invalid or expired token")
		}
		user = MockUser("")
		m.issued[token] = user
	}
	c := *user
	return &c, token, nil
}

func (m *MockBackend) revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.issued, token)
	m.revoked[token] = struct{}{}
}

func joinName(first, last string) string {
	if last == "" {
		return first
	}
	return first + " " + last
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
