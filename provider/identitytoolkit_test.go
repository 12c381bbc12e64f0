package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBotToken(ctx context.Context, anchor string) (string, error) {
	return "bot-" + anchor, nil
}

func newToolkitTest(t *testing.T, handler http.HandlerFunc) *IdentityToolkit {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewIdentityToolkit("key-1", stubBotToken, WithToolkitBaseURL(srv.URL))
	require.NoError(t, err)
	return p
}

func TestSendCodeAndVerify(t *testing.T) {
	p := newToolkitTest(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key-1", r.URL.Query().Get("key"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/accounts:sendVerificationCode":
			require.Equal(t, "+15550001111", body["phoneNumber"])
			require.Equal(t, "bot-signin-anchor", body["recaptchaToken"])
			w.Write([]byte(`{"sessionInfo":"si-1"}`))
		case "/accounts:signInWithPhoneNumber":
			require.Equal(t, "si-1", body["sessionInfo"])
			require.Equal(t, "123456", body["code"])
			w.Write([]byte(`{"idToken":"pt-1","phoneNumber":"+15550001111"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	widget, err := p.NewWidget(ctx, "signin-anchor")
	require.NoError(t, err)
	t.Cleanup(func() { _ = widget.Close() })

	conf, err := p.SendCode(ctx, "+15550001111", widget)
	require.NoError(t, err)

	assertion, err := conf.Verify(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, KindPhone, assertion.Kind)
	assert.Equal(t, "pt-1", assertion.IDToken)
	assert.Equal(t, "+15550001111", assertion.PhoneNumber)
}

func TestToolkitErrorMapping(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"INVALID_PHONE_NUMBER", ErrInvalidPhoneNumber},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", ErrRateLimited},
		{"INVALID_CODE", ErrInvalidCode},
		{"SESSION_EXPIRED", ErrChallengeExpired},
		{"CODE_EXPIRED : The SMS code has expired.", ErrChallengeExpired},
		{"SOMETHING_ELSE", ErrFailed},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			require.ErrorIs(t, mapToolkitError(tc.code, 400), tc.want)
		})
	}
	require.ErrorIs(t, mapToolkitError("", 503), ErrFailed)
}

func TestSendCodeProviderRejectsNumber(t *testing.T) {
	p := newToolkitTest(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"INVALID_PHONE_NUMBER"}}`))
	})

	widget, err := p.NewWidget(context.Background(), "a")
	require.NoError(t, err)
	_, err = p.SendCode(context.Background(), "not-a-number", widget)
	require.ErrorIs(t, err, ErrInvalidPhoneNumber)
}

func TestVerifyWrongCodeKeepsChallengeUsable(t *testing.T) {
	attempts := 0
	p := newToolkitTest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/accounts:sendVerificationCode" {
			w.Write([]byte(`{"sessionInfo":"si-2"}`))
			return
		}
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"INVALID_CODE"}}`))
			return
		}
		w.Write([]byte(`{"idToken":"pt-2"}`))
	})

	ctx := context.Background()
	widget, _ := p.NewWidget(ctx, "a")
	conf, err := p.SendCode(ctx, "+15550002222", widget)
	require.NoError(t, err)

	_, err = conf.Verify(ctx, "000000")
	require.ErrorIs(t, err, ErrInvalidCode)

	// Same handle, second attempt.
	assertion, err := conf.Verify(ctx, "654321")
	require.NoError(t, err)
	assert.Equal(t, "pt-2", assertion.IDToken)
	// Phone number falls back to the challenged number when the provider
	// omits it.
	assert.Equal(t, "+15550002222", assertion.PhoneNumber)
}

func TestSendPasswordReset(t *testing.T) {
	p := newToolkitTest(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts:sendOobCode", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "PASSWORD_RESET", body["requestType"])
		require.Equal(t, "a@b.com", body["email"])
		w.Write([]byte(`{}`))
	})

	require.NoError(t, p.SendPasswordReset(context.Background(), "a@b.com"))
}

func TestNewIdentityToolkitValidation(t *testing.T) {
	_, err := NewIdentityToolkit("", stubBotToken)
	require.Error(t, err)
	_, err = NewIdentityToolkit("k", nil)
	require.Error(t, err)
}
