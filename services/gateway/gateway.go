// Package gateway executes single HTTP calls against the Samayog API with a
// hard timeout, default headers, bearer-token injection and uniform error
// normalization.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"samayog/config"
	"samayog/services/apperror"
	"samayog/utils"
)

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 1 << 20 // 1 MB

// TokenSource yields the current session token, "" when anonymous.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Options configures a Gateway.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Gateway is the request gateway. It reads the token source but never
// writes to it.
type Gateway struct {
	endpoints  config.Endpoints
	timeout    time.Duration
	headers    map[string]string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a Gateway. tokens may be nil for anonymous-only use.
func New(opts Options, tokens TokenSource) *Gateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	for k, v := range opts.DefaultHeaders {
		headers[k] = v
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Gateway{
		endpoints:  config.Endpoints{BaseURL: opts.BaseURL},
		timeout:    timeout,
		headers:    headers,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     utils.OrNop(opts.Logger),
	}
}

// Execute issues method against endpoint and decodes a successful JSON
// response into out (when non-nil). Failures are *apperror.Error values of
// kind Timeout, Network or Remote.
func (g *Gateway) Execute(ctx context.Context, endpoint, method string, body any, headers map[string]string, out any) error {
	target := g.endpoints.URL(endpoint)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperror.Wrap(apperror.Validation, "Request could not be encoded", err)
		}
		reqBody = bytes.NewReader(data)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, target, reqBody)
	if err != nil {
		return apperror.Wrap(apperror.Validation, fmt.Sprintf("Invalid request to %s", endpoint), err)
	}
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if config.IsAuthPath(endpoint) {
		req.Header.Del("Authorization")
	} else if g.tokens != nil {
		token, err := g.tokens.Token(ctx)
		if err != nil {
			g.logger.Warn("gateway: token lookup failed, sending anonymously", zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	g.logger.Debug("gateway: request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Bool("authorized", req.Header.Get("Authorization") != ""),
	)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			g.logger.Warn("gateway: request timed out", zap.String("url", target), zap.Duration("timeout", g.timeout))
			return apperror.Wrap(apperror.Timeout,
				fmt.Sprintf("Request timed out after %s", g.timeout), err)
		}
		g.logger.Warn("gateway: transport failure", zap.String("url", target), zap.Error(err))
		return apperror.Wrap(apperror.Network, "Network request failed: "+transportMessage(err), err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	g.logger.Debug("gateway: response",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return g.remoteError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return apperror.Wrap(apperror.Timeout,
				fmt.Sprintf("Request timed out after %s", g.timeout), err)
		}
		return apperror.Wrap(apperror.Remote, "Invalid response from server", err)
	}
	return nil
}

// Ping reports whether the API health endpoint answers with a success status.
func (g *Gateway) Ping(ctx context.Context) bool {
	if err := g.Execute(ctx, config.PathHealth, http.MethodGet, nil, nil, nil); err != nil {
		g.logger.Debug("gateway: health check failed", zap.Error(err))
		return false
	}
	return true
}

type errorBody struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (g *Gateway) remoteError(resp *http.Response) error {
	statusLine := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	appErr := &apperror.Error{Kind: apperror.Remote, Status: resp.StatusCode, Message: statusLine}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		g.logger.Warn("gateway: read error body", zap.Int("status", resp.StatusCode), zap.Error(err))
		return appErr
	}

	var parsed errorBody
	if json.Unmarshal(raw, &parsed) == nil {
		appErr.Code = parsed.Code
		if msg := firstNonEmpty(parsed.Message, parsed.Msg, parsed.Error); msg != "" {
			appErr.Message = msg
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		appErr.Message = text
	}

	g.logger.Warn("gateway: remote error",
		zap.Int("status", resp.StatusCode),
		zap.String("code", appErr.Code),
		zap.String("message", appErr.Message),
	)
	return appErr
}

func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
