package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"samayog/config"
	"samayog/models"
	"samayog/services/apperror"
	"samayog/services/gateway"
	"samayog/services/session"
)

func newMockFlow(t *testing.T) (*Flow, *session.Holder) {
	t.Helper()
	holder, err := session.NewHolder(session.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewHolder() error: %v", err)
	}
	flow, err := NewFlow(NewMockBackend(holder), holder, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewFlow() error: %v", err)
	}
	return flow, holder
}

// stubBackend counts calls and injects failures on top of the mock backend.
type stubBackend struct {
	*MockBackend
	calls      atomic.Int32
	logoutErr  error
	refreshErr error
}

func (s *stubBackend) SendOTP(ctx context.Context, phone string) (*models.OTPResult, error) {
	s.calls.Add(1)
	return s.MockBackend.SendOTP(ctx, phone)
}

func (s *stubBackend) VerifyOTP(ctx context.Context, phone, code string) (*models.AuthResult, error) {
	s.calls.Add(1)
	return s.MockBackend.VerifyOTP(ctx, phone, code)
}

func (s *stubBackend) Logout(ctx context.Context) error {
	s.calls.Add(1)
	if s.logoutErr != nil {
		return s.logoutErr
	}
	return s.MockBackend.Logout(ctx)
}

func (s *stubBackend) RefreshToken(ctx context.Context) (*models.AuthResult, error) {
	s.calls.Add(1)
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.MockBackend.RefreshToken(ctx)
}

func newStubFlow(t *testing.T) (*Flow, *stubBackend, *session.Holder) {
	t.Helper()
	holder, _ := session.NewHolder(session.NewMemoryStore())
	stub := &stubBackend{MockBackend: NewMockBackend(holder)}
	flow, err := NewFlow(stub, holder, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewFlow() error: %v", err)
	}
	return flow, stub, holder
}

func TestNewFlowRequiresCollaborators(t *testing.T) {
	holder, _ := session.NewHolder(session.NewMemoryStore())
	if _, err := NewFlow(nil, holder, nil, nil); err == nil {
		t.Error("expected error for nil backend")
	}
	if _, err := NewFlow(NewMockBackend(holder), nil, nil, nil); err == nil {
		t.Error("expected error for nil holder")
	}
}

func TestNewBackendSelectsByMode(t *testing.T) {
	holder, _ := session.NewHolder(session.NewMemoryStore())
	if _, ok := NewBackend(&config.Config{AuthMode: config.AuthModeMock}, nil, holder, nil).(*MockBackend); !ok {
		t.Error("mock mode should select MockBackend")
	}
	if _, ok := NewBackend(&config.Config{AuthMode: config.AuthModeLive}, nil, holder, nil).(*HTTPBackend); !ok {
		t.Error("live mode should select HTTPBackend")
	}
}

func TestMockVerifyIssuesDistinctTokens(t *testing.T) {
	ctx := context.Background()
	flow, holder := newMockFlow(t)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		res, err := flow.VerifyOTP(ctx, "+919876543210", MockOTP)
		if err != nil {
			t.Fatalf("VerifyOTP() error: %v", err)
		}
		if !res.Success || res.Token == "" {
			t.Fatalf("VerifyOTP() = %+v, want success with token", res)
		}
		if seen[res.Token] {
			t.Fatalf("token %q issued twice", res.Token)
		}
		seen[res.Token] = true

		if tok, _ := holder.Token(ctx); tok != res.Token {
			t.Errorf("stored token = %q, want %q", tok, res.Token)
		}
	}
	if flow.State() != Authenticated {
		t.Errorf("State() = %q, want authenticated", flow.State())
	}
	if u := holder.User(); u == nil || u.Phone != "9876543210" {
		t.Errorf("session user = %+v, want normalized phone", u)
	}
}

func TestMockVerifyWrongCodeIsRejectedOutcome(t *testing.T) {
	ctx := context.Background()
	flow, holder := newMockFlow(t)

	if _, err := flow.SendOTP(ctx, "9876543210"); err != nil {
		t.Fatalf("SendOTP() error: %v", err)
	}
	if flow.State() != Challenged {
		t.Fatalf("State() after SendOTP = %q, want challenged", flow.State())
	}

	res, err := flow.VerifyOTP(ctx, "9876543210", "654321")
	if err != nil {
		t.Fatalf("VerifyOTP() error: %v", err)
	}
	if res.Success {
		t.Error("VerifyOTP() with wrong code reported success")
	}
	if flow.State() != Challenged {
		t.Errorf("State() = %q, want challenged", flow.State())
	}
	if tok, _ := holder.Token(ctx); tok != "" {
		t.Errorf("token stored after rejection: %q", tok)
	}
}

func TestValidationHappensBeforeBackend(t *testing.T) {
	ctx := context.Background()
	flow, stub, _ := newStubFlow(t)

	if _, err := flow.SendOTP(ctx, "12345"); !apperror.Is(err, apperror.Validation) {
		t.Errorf("SendOTP() error = %v, want Validation", err)
	}
	if _, err := flow.VerifyOTP(ctx, "123", MockOTP); !apperror.Is(err, apperror.Validation) {
		t.Errorf("VerifyOTP() bad phone error = %v, want Validation", err)
	}
	if _, err := flow.VerifyOTP(ctx, "9876543210", "12ab"); !apperror.Is(err, apperror.Validation) {
		t.Errorf("VerifyOTP() bad code error = %v, want Validation", err)
	}
	if _, err := flow.Signup(ctx, models.SignupProfile{Name: "Asha", Phone: "1"}); !apperror.Is(err, apperror.Validation) {
		t.Errorf("Signup() error = %v, want Validation", err)
	}
	if n := stub.calls.Load(); n != 0 {
		t.Errorf("backend called %d times, want 0", n)
	}
}

func TestLogoutClearsEvenWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	flow, stub, holder := newStubFlow(t)

	if _, err := flow.VerifyOTP(ctx, "9876543210", MockOTP); err != nil {
		t.Fatalf("VerifyOTP() error: %v", err)
	}
	stub.logoutErr = apperror.New(apperror.Network, "Network request failed: connection refused")

	err := flow.Logout(ctx)
	if err == nil {
		t.Fatal("Logout() should surface the remote failure")
	}
	if apperror.MessageOf(err) != MsgNetwork {
		t.Errorf("Logout() message = %q, want %q", apperror.MessageOf(err), MsgNetwork)
	}
	if tok, _ := holder.Token(ctx); tok != "" {
		t.Errorf("token after Logout = %q, want empty", tok)
	}
	if status := flow.CheckAuthStatus(ctx); status.Authenticated {
		t.Error("CheckAuthStatus() after Logout reported authenticated")
	}
	if flow.State() != Anonymous {
		t.Errorf("State() = %q, want anonymous", flow.State())
	}
}

func TestCheckAuthStatus(t *testing.T) {
	ctx := context.Background()
	flow, holder := newMockFlow(t)

	if status := flow.CheckAuthStatus(ctx); status.Authenticated {
		t.Fatal("empty session reported authenticated")
	}

	if _, err := flow.VerifyOTP(ctx, "9876543210", MockOTP); err != nil {
		t.Fatalf("VerifyOTP() error: %v", err)
	}
	status := flow.CheckAuthStatus(ctx)
	if !status.Authenticated || status.User == nil || status.User.ID != "user_123" {
		t.Fatalf("CheckAuthStatus() = %+v, want authenticated user_123", status)
	}

	// A token the backend never issued is stale and must be dropped.
	if err := holder.Rotate(ctx, "forged"); err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if status := flow.CheckAuthStatus(ctx); status.Authenticated {
		t.Error("stale token reported authenticated")
	}
	if tok, _ := holder.Token(ctx); tok != "" {
		t.Errorf("stale token kept: %q", tok)
	}
	if flow.IsAuthenticated(ctx) {
		t.Error("IsAuthenticated() after stale clear = true")
	}
}

func TestMockSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	newFileFlow := func() (*Flow, *session.Holder) {
		holder, err := session.NewHolder(session.NewFileStore(path))
		if err != nil {
			t.Fatalf("NewHolder() error: %v", err)
		}
		flow, err := NewFlow(NewMockBackend(holder), holder, nil, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("NewFlow() error: %v", err)
		}
		return flow, holder
	}

	first, _ := newFileFlow()
	res, err := first.VerifyOTP(ctx, "9876543210", MockOTP)
	if err != nil {
		t.Fatalf("VerifyOTP() error: %v", err)
	}

	second, holder := newFileFlow()
	status := second.CheckAuthStatus(ctx)
	if !status.Authenticated || status.User == nil || status.User.ID != "user_123" {
		t.Fatalf("CheckAuthStatus() in new process = %+v, want authenticated user_123", status)
	}
	if tok, _ := holder.Token(ctx); tok != res.Token {
		t.Errorf("token = %q, want persisted %q", tok, res.Token)
	}

	// Logging out revokes the persisted token for this backend.
	if err := second.Logout(ctx); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	holder.Rotate(ctx, res.Token) //nolint:errcheck
	if status := second.CheckAuthStatus(ctx); status.Authenticated {
		t.Error("revoked mock token reported authenticated")
	}
}

func TestCurrentUserStaleSession(t *testing.T) {
	ctx := context.Background()
	flow, holder := newMockFlow(t)
	holder.Rotate(ctx, "forged") //nolint:errcheck

	_, err := flow.CurrentUser(ctx)
	if !apperror.Is(err, apperror.StaleSession) {
		t.Fatalf("CurrentUser() error = %v, want StaleSession", err)
	}
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	flow, stub, holder := newStubFlow(t)

	if _, err := flow.VerifyOTP(ctx, "9876543210", MockOTP); err != nil {
		t.Fatalf("VerifyOTP() error: %v", err)
	}
	before, _ := holder.Token(ctx)

	res, err := flow.RefreshToken(ctx)
	if err != nil {
		t.Fatalf("RefreshToken() error: %v", err)
	}
	after, _ := holder.Token(ctx)
	if after != res.Token || after == before {
		t.Errorf("token after refresh = %q, want new token %q (old %q)", after, res.Token, before)
	}

	stub.refreshErr = apperror.New(apperror.Timeout, "Request timed out after 10s")
	if _, err := flow.RefreshToken(ctx); !apperror.Is(err, apperror.Timeout) {
		t.Errorf("RefreshToken() error = %v, want Timeout", err)
	}
	if tok, _ := holder.Token(ctx); tok != after {
		t.Errorf("failed refresh replaced token: %q, want %q", tok, after)
	}
}

type fakePinger bool

func (p fakePinger) Ping(context.Context) bool { return bool(p) }

func TestDiagnose(t *testing.T) {
	holder, _ := session.NewHolder(session.NewMemoryStore())

	up, _ := NewFlow(NewMockBackend(holder), holder, fakePinger(true), nil)
	if d := up.Diagnose(context.Background(), "+919876543210"); d.Status != DiagnosisReady || len(d.Suggestions) != 0 {
		t.Errorf("Diagnose(valid, up) = %+v, want ready", d)
	}

	down, _ := NewFlow(NewMockBackend(holder), holder, fakePinger(false), nil)
	d := down.Diagnose(context.Background(), "12a")
	if d.Status != DiagnosisIssues {
		t.Errorf("Status = %q, want issues_found", d.Status)
	}
	if len(d.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want length, digits and connectivity issues", d.Suggestions)
	}
}

// newLiveFlow runs the HTTP backend against handler through a real gateway.
func newLiveFlow(t *testing.T, handler http.HandlerFunc) (*Flow, *session.Holder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	holder, _ := session.NewHolder(session.NewMemoryStore())
	gw := gateway.New(gateway.Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zaptest.NewLogger(t)}, holder)
	flow, err := NewFlow(NewHTTPBackend(gw), holder, gw, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewFlow() error: %v", err)
	}
	return flow, holder
}

func TestHTTPVerifySuccess(t *testing.T) {
	ctx := context.Background()
	flow, holder := newLiveFlow(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("verify carried Authorization header")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["phone"] != "9876543210" || body["code"] != "482913" {
			t.Errorf("verify body = %v", body)
		}
		w.Write([]byte(`{"msg":"OTP verified. User registered.","token":"live-tok","user":{"user_id":42,"first_name":"Asha","last_name":"Rao","email":"asha@example.com","phone":"9876543210"}}`)) //nolint:errcheck
	})

	res, err := flow.VerifyOTP(ctx, "+919876543210", "482913")
	if err != nil {
		t.Fatalf("VerifyOTP() error: %v", err)
	}
	if !res.Success || res.Token != "live-tok" {
		t.Fatalf("VerifyOTP() = %+v", res)
	}
	if res.User == nil || res.User.ID != "42" || res.User.DisplayName != "Asha Rao" {
		t.Errorf("User = %+v, want id 42 name Asha Rao", res.User)
	}
	if tok, _ := holder.Token(ctx); tok != "live-tok" {
		t.Errorf("stored token = %q", tok)
	}
}

func TestHTTPVerifyClassification(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantRejected bool
		wantKind     apperror.Kind
		wantMsg      string
	}{
		{"structured invalid", 400, `{"message":"Wrong code","code":"otp_invalid"}`, true, "", ""},
		{"structured expired", 400, `{"message":"Code too old","code":"otp_expired"}`, true, "", ""},
		{"legacy message", 400, `{"msg":"Invalid or expired OTP"}`, true, "", ""},
		{"2xx without token", 200, `{"msg":"Please try again"}`, true, "", ""},
		{"other code", 400, `{"message":"Invalid phone for region","code":"region_blocked"}`, false, apperror.Remote, "OTP verification failed: Invalid phone for region"},
		{"server error", 500, `{"message":"database down"}`, false, apperror.Remote, "OTP verification failed: database down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, holder := newLiveFlow(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			})
			res, err := flow.VerifyOTP(context.Background(), "9876543210", "111111")
			if tt.wantRejected {
				if err != nil {
					t.Fatalf("VerifyOTP() error = %v, want rejected outcome", err)
				}
				if res.Success {
					t.Fatal("VerifyOTP() reported success")
				}
			} else {
				if !apperror.Is(err, tt.wantKind) {
					t.Fatalf("VerifyOTP() error = %v, want kind %q", err, tt.wantKind)
				}
				if err.Error() != tt.wantMsg {
					t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
				}
			}
			if tok, _ := holder.Token(context.Background()); tok != "" {
				t.Errorf("token stored: %q", tok)
			}
		})
	}
}

func TestHTTPSendOTPNetworkMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	holder, _ := session.NewHolder(session.NewMemoryStore())
	gw := gateway.New(gateway.Options{BaseURL: base, Timeout: time.Second}, holder)
	flow, _ := NewFlow(NewHTTPBackend(gw), holder, gw, nil)

	_, err := flow.SendOTP(context.Background(), "9876543210")
	if !apperror.Is(err, apperror.Network) {
		t.Fatalf("SendOTP() error = %v, want Network", err)
	}
	if err.Error() != MsgNetwork {
		t.Errorf("message = %q, want %q", err.Error(), MsgNetwork)
	}
}

func TestHTTPSendOTPRemoteMessage(t *testing.T) {
	flow, _ := newLiveFlow(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Too many OTP requests"}`)) //nolint:errcheck
	})
	_, err := flow.SendOTP(context.Background(), "9876543210")
	if err == nil || err.Error() != "Failed to send OTP: Too many OTP requests" {
		t.Errorf("SendOTP() error = %v", err)
	}
}

func TestHTTPSignupSplitsName(t *testing.T) {
	ctx := context.Background()
	flow, holder := newLiveFlow(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != config.PathSignup {
			http.NotFound(w, r)
			return
		}
		var req models.SignupRequest
		json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
		if req.FirstName != "Asha" || req.LastName != "Devi Rao" || req.Phone != "9876543210" {
			t.Errorf("signup request = %+v", req)
		}
		w.Write([]byte(`{"success":true,"message":"Signup successful","data":{"token":"s-tok","user":{"user_id":"u9","first_name":"Asha","last_name":"Devi Rao"}}}`)) //nolint:errcheck
	})

	res, err := flow.Signup(ctx, models.SignupProfile{Name: " Asha Devi Rao ", Phone: "09876543210", Email: "a@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Signup() error: %v", err)
	}
	if !res.Success || res.Token != "s-tok" {
		t.Fatalf("Signup() = %+v", res)
	}
	if tok, _ := holder.Token(ctx); tok != "s-tok" {
		t.Errorf("stored token = %q", tok)
	}
	if flow.State() != Authenticated {
		t.Errorf("State() = %q", flow.State())
	}
}

func TestHTTPCheckAuthStatusClearsOn401(t *testing.T) {
	ctx := context.Background()
	flow, holder := newLiveFlow(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("profile call without bearer token")
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token revoked"}`)) //nolint:errcheck
	})
	holder.Establish(ctx, "dead", nil) //nolint:errcheck

	if status := flow.CheckAuthStatus(ctx); status.Authenticated {
		t.Fatal("revoked token reported authenticated")
	}
	if tok, _ := holder.Token(ctx); tok != "" {
		t.Errorf("revoked token kept: %q", tok)
	}
}
