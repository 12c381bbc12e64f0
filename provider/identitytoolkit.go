package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	toolkitBaseURL  = "https://identitytoolkit.googleapis.com/v1"
	toolkitTimeout  = 15 * time.Second
	oobPasswordRest = "PASSWORD_RESET"
)

// BotTokenFunc produces a bot-detection token for the widget bound to the
// given anchor. The host environment supplies it; tests use a stub.
type BotTokenFunc func(ctx context.Context, anchor string) (string, error)

// IdentityToolkit is a Phone provider (and password-reset sender) over the
// Google Identity Toolkit REST API.
type IdentityToolkit struct {
	apiKey   string
	baseURL  string
	hc       *http.Client
	timeout  time.Duration
	botToken BotTokenFunc
}

// ToolkitOption configures an IdentityToolkit adapter.
type ToolkitOption func(*IdentityToolkit)

// WithToolkitBaseURL overrides the API endpoint, for tests.
func WithToolkitBaseURL(u string) ToolkitOption {
	return func(p *IdentityToolkit) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithToolkitHTTPClient substitutes the underlying http.Client.
func WithToolkitHTTPClient(hc *http.Client) ToolkitOption {
	return func(p *IdentityToolkit) {
		if hc != nil {
			p.hc = hc
		}
	}
}

// WithToolkitTimeout sets the per-call timeout.
func WithToolkitTimeout(d time.Duration) ToolkitOption {
	return func(p *IdentityToolkit) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewIdentityToolkit creates the adapter. botToken must be non-nil; the
// provider refuses to send codes without a bot-detection token.
func NewIdentityToolkit(apiKey string, botToken BotTokenFunc, opts ...ToolkitOption) (*IdentityToolkit, error) {
	if apiKey == "" {
		return nil, errors.New("identitytoolkit: api key required")
	}
	if botToken == nil {
		return nil, errors.New("identitytoolkit: bot token source required")
	}
	p := &IdentityToolkit{
		apiKey:   apiKey,
		baseURL:  toolkitBaseURL,
		hc:       &http.Client{},
		timeout:  toolkitTimeout,
		botToken: botToken,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *IdentityToolkit) post(ctx context.Context, action string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	buf, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrFailed, err)
	}
	url := p.baseURL + "/accounts:" + action + "?key=" + p.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode: %v", ErrFailed, err)
		}
		return nil
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &body)
	return mapToolkitError(body.Error.Message, resp.StatusCode)
}

// mapToolkitError converts the API's error code strings onto the provider
// taxonomy.
func mapToolkitError(code string, status int) error {
	// The API appends detail after a colon for some codes.
	if i := strings.IndexAny(code, " :"); i > 0 {
		code = code[:i]
	}
	switch code {
	case "INVALID_PHONE_NUMBER", "MISSING_PHONE_NUMBER":
		return fmt.Errorf("%w: %s", ErrInvalidPhoneNumber, code)
	case "TOO_MANY_ATTEMPTS_TRY_LATER", "QUOTA_EXCEEDED":
		return fmt.Errorf("%w: %s", ErrRateLimited, code)
	case "INVALID_CODE", "MISSING_CODE":
		return fmt.Errorf("%w: %s", ErrInvalidCode, code)
	case "SESSION_EXPIRED", "CODE_EXPIRED", "INVALID_SESSION_INFO":
		return fmt.Errorf("%w: %s", ErrChallengeExpired, code)
	}
	if code != "" {
		return fmt.Errorf("%w: %s", ErrFailed, code)
	}
	return fmt.Errorf("%w: http %d", ErrFailed, status)
}

// toolkitWidget carries the anchor so a fresh bot token can be fetched per
// code send.
type toolkitWidget struct {
	anchor string
}

func (toolkitWidget) Close() error { return nil }

// NewWidget binds an invisible bot-detection widget to the anchor.
func (p *IdentityToolkit) NewWidget(_ context.Context, anchor string) (Widget, error) {
	if anchor == "" {
		return nil, fmt.Errorf("%w: empty widget anchor", ErrFailed)
	}
	return toolkitWidget{anchor: anchor}, nil
}

type toolkitConfirmation struct {
	p           *IdentityToolkit
	sessionInfo string
	phoneNumber string
}

// SendCode asks the provider to text a one-time code and returns the
// confirmation handle.
func (p *IdentityToolkit) SendCode(ctx context.Context, phoneNumber string, w Widget) (Confirmation, error) {
	tw, ok := w.(toolkitWidget)
	if !ok {
		return nil, fmt.Errorf("%w: foreign widget", ErrFailed)
	}

	token, err := p.botToken(ctx, tw.anchor)
	if err != nil {
		return nil, fmt.Errorf("%w: bot token: %v", ErrFailed, err)
	}

	var out struct {
		SessionInfo string `json:"sessionInfo"`
	}
	err = p.post(ctx, "sendVerificationCode", map[string]string{
		"phoneNumber":    phoneNumber,
		"recaptchaToken": token,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.SessionInfo == "" {
		return nil, fmt.Errorf("%w: empty session info", ErrFailed)
	}
	return &toolkitConfirmation{p: p, sessionInfo: out.SessionInfo, phoneNumber: phoneNumber}, nil
}

// Verify submits a code attempt against the pending challenge.
func (c *toolkitConfirmation) Verify(ctx context.Context, code string) (Assertion, error) {
	var out struct {
		IDToken     string `json:"idToken"`
		PhoneNumber string `json:"phoneNumber"`
	}
	err := c.p.post(ctx, "signInWithPhoneNumber", map[string]string{
		"sessionInfo": c.sessionInfo,
		"code":        code,
	}, &out)
	if err != nil {
		return Assertion{}, err
	}
	if out.IDToken == "" {
		return Assertion{}, fmt.Errorf("%w: empty id token", ErrFailed)
	}
	phone := out.PhoneNumber
	if phone == "" {
		phone = c.phoneNumber
	}
	return Assertion{Kind: KindPhone, IDToken: out.IDToken, PhoneNumber: phone}, nil
}

// SendPasswordReset delegates a reset email to the provider.
func (p *IdentityToolkit) SendPasswordReset(ctx context.Context, email string) error {
	return p.post(ctx, "sendOobCode", map[string]string{
		"requestType": oobPasswordRest,
		"email":       email,
	}, nil)
}
