// Package signup holds the state and submit flow of the signup form.
package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

const (
	MsgRequired = "Username, email, and password are required."
	MsgNoToken  = "No token returned from server"
	MsgFallback = "Signup failed. Please try again."

	LabelIdle     = "Create Account"
	LabelInFlight = "Creating Account..."
)

var ErrNoToken = errors.New(MsgNoToken)

// Field names accepted by Form.Change.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldLocation    = "location"
	FieldDescription = "description"
)

type Request struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

type Result struct {
	Token string
}

// AccountService creates the account and returns its token.
type AccountService interface {
	AddUser(ctx context.Context, req Request) (*Result, error)
}

// Session persists the token for later requests.
type Session interface {
	Login(token string) error
}

type Form struct {
	accounts AccountService
	session  Session
	logger   *slog.Logger

	mu        sync.Mutex
	fields    Request
	submitErr *string
	loading   bool
}

func NewForm(accounts AccountService, session Session, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{accounts: accounts, session: session, logger: logger}
}

// Change sets a single field. Other fields are left untouched.
func (f *Form) Change(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch name {
	case FieldUsername:
		f.fields.Username = value
	case FieldEmail:
		f.fields.Email = value
	case FieldPassword:
		f.fields.Password = value
	case FieldLocation:
		f.fields.Location = value
	case FieldDescription:
		f.fields.Description = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

func (f *Form) Values() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Submit runs one signup attempt and reports whether a session was
// established. Failures never escape; they end up in SubmitError. A submit
// while another is in flight is ignored.
func (f *Form) Submit(ctx context.Context) bool {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return false
	}
	f.submitErr = nil
	req := f.fields
	if req.Username == "" || req.Email == "" || req.Password == "" {
		f.setErrorLocked(MsgRequired)
		f.mu.Unlock()
		return false
	}
	f.loading = true
	f.mu.Unlock()

	err := f.send(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.logger.ErrorContext(ctx, "Signup error", "error", err)
		msg := err.Error()
		if msg == "" {
			msg = MsgFallback
		}
		f.setErrorLocked(msg)
		return false
	}
	return true
}

func (f *Form) send(ctx context.Context, req Request) error {
	res, err := f.accounts.AddUser(ctx, req)
	if err != nil {
		return err
	}
	if res == nil || res.Token == "" {
		return ErrNoToken
	}
	return f.session.Login(res.Token)
}

func (f *Form) setErrorLocked(msg string) {
	f.submitErr = &msg
}

// SubmitError returns the message of the last failed attempt, if any.
func (f *Form) SubmitError() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr == nil {
		return "", false
	}
	return *f.submitErr, true
}

// ErrorText is the message shown under the form, empty when there is none.
func (f *Form) ErrorText() string {
	msg, _ := f.SubmitError()
	return msg
}

func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *Form) Disabled() bool {
	return f.Loading()
}

func (f *Form) ButtonLabel() string {
	if f.Loading() {
		return LabelInFlight
	}
	return LabelIdle
}
