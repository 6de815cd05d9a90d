package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "roamly/pkg/errors"
)

type memRepo struct {
	users  []*User
	failOn error
}

func (m *memRepo) CreateUser(ctx context.Context, req *SignupRequest) (*User, error) {
	if m.failOn != nil {
		return nil, m.failOn
	}
	for _, u := range m.users {
		if u.Username == req.Username || u.Email == req.Email {
			return nil, ErrUserExists
		}
	}
	u := &User{
		ID:           int64(len(m.users) + 1),
		Username:     req.Username,
		PasswordHash: req.Password,
		Email:        req.Email,
		Location:     req.Location,
		Description:  req.Description,
		CreatedAt:    time.Now(),
	}
	m.users = append(m.users, u)
	return u, nil
}

func (m *memRepo) find(match func(*User) bool) (*User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memRepo) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return m.find(func(u *User) bool { return u.ID == id })
}

func (m *memRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return m.find(func(u *User) bool { return u.Username == username })
}

func (m *memRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return m.find(func(u *User) bool { return u.Email == email })
}

type memStore struct {
	sessions map[string]string
	seq      int
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]string{}}
}

func (m *memStore) CreateSession(ctx context.Context, userID string, duration time.Duration) (string, error) {
	m.seq++
	id := "s" + strconv.Itoa(m.seq)
	m.sessions[id] = userID
	return id, nil
}

func (m *memStore) GetSession(ctx context.Context, sessionID string) *AuthResult {
	userID, ok := m.sessions[sessionID]
	return &AuthResult{Valid: ok, UserID: userID}
}

func (m *memStore) DeleteSession(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

type recordingAnnouncer struct {
	members []string
}

func (r *recordingAnnouncer) AnnounceMember(ctx context.Context, user *User) error {
	r.members = append(r.members, user.Username)
	return nil
}

func newTestService(repo *memRepo, store *memStore, opts ...Option) *AuthService {
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewAuthService(repo, store, NewValidator(validator.New()), NewTokenIssuer("test-secret", time.Hour), opts...)
}

func validSignup() *SignupRequest {
	return &SignupRequest{Username: "ana", Email: "a@b.com", Password: "pw123", Location: "Lisbon"}
}

func TestSignUpCreatesAccountAndSession(t *testing.T) {
	repo, store := &memRepo{}, newMemStore()
	announcer := &recordingAnnouncer{}
	svc := newTestService(repo, store, WithAnnouncer(announcer))

	req := validSignup()
	payload, err := svc.SignUp(context.Background(), req)
	require.NoError(t, err)

	require.NotEmpty(t, payload.Token)
	assert.Equal(t, "ana", payload.User.Username)
	assert.Equal(t, "Lisbon", payload.User.Location)
	assert.Equal(t, "pw123", req.Password, "caller's request must not be mutated")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users[0].PasswordHash), []byte("pw123")))
	assert.Len(t, store.sessions, 1)
	assert.Equal(t, []string{"ana"}, announcer.members)

	id, err := svc.Authenticate(context.Background(), payload.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.UserID)
	assert.Equal(t, "ana", id.Username)
	assert.Equal(t, "a@b.com", id.Email)
}

func TestSignUpValidatesOnTheServer(t *testing.T) {
	tests := map[string]*SignupRequest{
		"missing username": {Email: "a@b.com", Password: "pw123"},
		"missing email":    {Username: "ana", Password: "pw123"},
		"bad email":        {Username: "ana", Email: "not-an-email", Password: "pw123"},
		"short password":   {Username: "ana", Email: "a@b.com", Password: "pw"},
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			repo := &memRepo{}
			_, err := newTestService(repo, newMemStore()).SignUp(context.Background(), req)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, repo.users)
		})
	}
}

func TestSignUpDuplicateIsConflict(t *testing.T) {
	svc := newTestService(&memRepo{}, newMemStore())
	_, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	_, err = svc.SignUp(context.Background(), validSignup())
	var cerr *apperrors.ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestSignUpRepositoryFailureIsInternal(t *testing.T) {
	svc := newTestService(&memRepo{failOn: errors.New("connection reset")}, newMemStore())
	_, err := svc.SignUp(context.Background(), validSignup())

	var ierr *apperrors.InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "internal server error", err.Error())
}

func TestLogin(t *testing.T) {
	svc := newTestService(&memRepo{}, newMemStore())
	_, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	payload, err := svc.Login(context.Background(), &LoginRequest{Email: "a@b.com", Password: "pw123"})
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Token)

	for name, req := range map[string]*LoginRequest{
		"wrong password": {Email: "a@b.com", Password: "nope1"},
		"unknown email":  {Email: "z@b.com", Password: "pw123"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), req)
			var aerr *apperrors.AuthenticationError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, "invalid credentials", aerr.Message)
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(&memRepo{}, store)
	payload, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	id, err := svc.Authenticate(context.Background(), payload.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), id.SessionID))

	_, err = svc.Authenticate(context.Background(), payload.Token)
	var aerr *apperrors.AuthenticationError
	assert.ErrorAs(t, err, &aerr)
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	svc := newTestService(&memRepo{}, newMemStore())
	other := NewTokenIssuer("someone-else", time.Hour)
	token, err := other.Issue(&User{ID: 1, Username: "ana"}, "s1")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.Error(t, err)
}

func TestUserLookups(t *testing.T) {
	svc := newTestService(&memRepo{}, newMemStore())
	_, err := svc.SignUp(context.Background(), validSignup())
	require.NoError(t, err)

	u, err := svc.UserByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = svc.UserByID(context.Background(), 42)
	var nerr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nerr)
}
