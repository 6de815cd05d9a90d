package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"roamly/internal/domain/auth"
	apperrors "roamly/pkg/errors"
)

type fakeAccounts struct {
	signups []*auth.SignupRequest
	signErr error
	logouts []string
	users   map[string]*auth.User
}

func (f *fakeAccounts) SignUp(ctx context.Context, req *auth.SignupRequest) (*auth.AuthPayload, error) {
	f.signups = append(f.signups, req)
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &auth.AuthPayload{Token: "abc.def", User: &auth.User{ID: 1, Username: req.Username, Email: req.Email}}, nil
}

func (f *fakeAccounts) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthPayload, error) {
	return nil, apperrors.NewAuthenticationError("invalid credentials")
}

func (f *fakeAccounts) Logout(ctx context.Context, sessionID string) error {
	f.logouts = append(f.logouts, sessionID)
	return nil
}

func (f *fakeAccounts) UserByID(ctx context.Context, id int64) (*auth.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (f *fakeAccounts) UserByUsername(ctx context.Context, username string) (*auth.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func exec(t *testing.T, ctx context.Context, accounts AccountService, query string, vars map[string]interface{}) gjson.Result {
	t.Helper()
	schema, err := NewSchema(NewResolver(accounts, slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	resp := schema.Exec(ctx, query, "", vars)
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	return gjson.ParseBytes(body)
}

const addUser = `mutation addUser($username: String!, $email: String!, $password: String!, $location: String, $description: String) {
  addUser(username: $username, email: $email, password: $password, location: $location, description: $description) {
    token
    user { id username }
  }
}`

func TestAddUserReturnsToken(t *testing.T) {
	accounts := &fakeAccounts{}
	res := exec(t, context.Background(), accounts, addUser, map[string]interface{}{
		"username": "ana", "email": "a@b.com", "password": "pw123", "location": "",
	})

	assert.False(t, res.Get("errors").Exists(), res.Raw)
	assert.Equal(t, "abc.def", res.Get("data.addUser.token").String())
	assert.Equal(t, "1", res.Get("data.addUser.user.id").String())

	require.Len(t, accounts.signups, 1)
	assert.Equal(t, &auth.SignupRequest{Username: "ana", Email: "a@b.com", Password: "pw123"}, accounts.signups[0])
}

func TestAddUserErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		msg  string
	}{
		{"validation", apperrors.NewValidationError("email must be a valid email address"), CodeBadUserInput, "email must be a valid email address"},
		{"conflict", apperrors.NewConflictError("username or email already in use"), CodeConflict, "username or email already in use"},
		{"internal", errors.New("pq: connection refused"), CodeInternal, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := exec(t, context.Background(), &fakeAccounts{signErr: tt.err}, addUser, map[string]interface{}{
				"username": "ana", "email": "a@b.com", "password": "pw123",
			})

			assert.Equal(t, tt.msg, res.Get("errors.0.message").String())
			assert.Equal(t, tt.code, res.Get("errors.0.extensions.code").String())
			assert.Equal(t, gjson.Null, res.Get("data.addUser").Type)
		})
	}
}

func TestMeRequiresLogin(t *testing.T) {
	res := exec(t, context.Background(), &fakeAccounts{}, `{ me { username } }`, nil)

	assert.Equal(t, "You need to be logged in!", res.Get("errors.0.message").String())
	assert.Equal(t, CodeUnauthenticated, res.Get("errors.0.extensions.code").String())
}

func TestMeReturnsCaller(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	accounts := &fakeAccounts{users: map[string]*auth.User{
		"ana": {ID: 7, Username: "ana", Email: "a@b.com", Location: "Lisbon", CreatedAt: created},
	}}
	ctx := auth.WithIdentity(context.Background(), &auth.Identity{UserID: 7, Username: "ana", SessionID: "s1"})

	res := exec(t, ctx, accounts, `{ me { id username location description createdAt } }`, nil)

	assert.False(t, res.Get("errors").Exists(), res.Raw)
	assert.Equal(t, "7", res.Get("data.me.id").String())
	assert.Equal(t, "Lisbon", res.Get("data.me.location").String())
	assert.Equal(t, gjson.Null, res.Get("data.me.description").Type)
	assert.Equal(t, "2024-05-01T12:00:00Z", res.Get("data.me.createdAt").String())
}

func TestUnknownUserIsNull(t *testing.T) {
	res := exec(t, context.Background(), &fakeAccounts{}, `{ user(username: "ghost") { username } }`, nil)

	assert.False(t, res.Get("errors").Exists(), res.Raw)
	assert.Equal(t, gjson.Null, res.Get("data.user").Type)
}

func TestLogoutEndsCallerSession(t *testing.T) {
	accounts := &fakeAccounts{}
	ctx := auth.WithIdentity(context.Background(), &auth.Identity{UserID: 7, SessionID: "s1"})

	res := exec(t, ctx, accounts, `mutation { logout }`, nil)

	assert.True(t, res.Get("data.logout").Bool())
	assert.Equal(t, []string{"s1"}, accounts.logouts)
}

func TestLoginFailureIsUnauthenticated(t *testing.T) {
	res := exec(t, context.Background(), &fakeAccounts{}, `mutation { login(email: "a@b.com", password: "x") { token } }`, nil)

	assert.Equal(t, "invalid credentials", res.Get("errors.0.message").String())
	assert.Equal(t, CodeUnauthenticated, res.Get("errors.0.extensions.code").String())
}
