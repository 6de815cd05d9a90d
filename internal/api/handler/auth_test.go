package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"roamly/internal/domain/auth"
	apperrors "roamly/pkg/errors"
)

type fakeAccounts struct {
	err     error
	logouts []string
}

func (f *fakeAccounts) SignUp(ctx context.Context, req *auth.SignupRequest) (*auth.AuthPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.AuthPayload{Token: "abc.def", User: &auth.User{ID: 1, Username: req.Username}}, nil
}

func (f *fakeAccounts) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.AuthPayload{Token: "abc.def"}, nil
}

func (f *fakeAccounts) Logout(ctx context.Context, sessionID string) error {
	f.logouts = append(f.logouts, sessionID)
	return f.err
}

func post(ctx context.Context, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)).WithContext(ctx)
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func TestSignUpEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		want   string
	}{
		{"created", `{"username":"ana","email":"a@b.com","password":"pw123"}`, nil, http.StatusCreated, ""},
		{"malformed", `{"username":`, nil, http.StatusBadRequest, "invalid request payload"},
		{"invalid", `{}`, apperrors.NewValidationError("username is required"), http.StatusBadRequest, "username is required"},
		{"taken", `{"username":"ana"}`, apperrors.NewConflictError("username or email already in use"), http.StatusConflict, "username or email already in use"},
		{"broken", `{"username":"ana"}`, errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAccounts{err: tt.err})
			rec := post(context.Background(), h.SignUp, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			body := gjson.Parse(rec.Body.String())
			if tt.want == "" {
				assert.Equal(t, "abc.def", body.Get("token").String())
				return
			}
			assert.Equal(t, tt.want, body.Get("message").String())
		})
	}
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{err: apperrors.NewAuthenticationError("invalid credentials")})
	rec := post(context.Background(), h.Login, `{"email":"a@b.com","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", gjson.Get(rec.Body.String(), "message").String())
}

func TestLogoutEndpoint(t *testing.T) {
	accounts := &fakeAccounts{}
	h := NewAuthHandler(accounts)

	rec := post(context.Background(), h.Logout, ``)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx := auth.WithIdentity(context.Background(), &auth.Identity{UserID: 1, SessionID: "s1"})
	rec = post(ctx, h.Logout, ``)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s1"}, accounts.logouts)
}
