// internal/api/handler/auth.go
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"roamly/internal/domain/auth"
	"roamly/pkg/errors"
)

// Accounts is the slice of auth.AuthService the REST endpoints call.
type Accounts interface {
	SignUp(ctx context.Context, req *auth.SignupRequest) (*auth.AuthPayload, error)
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthPayload, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandler exposes signup, login and logout as plain JSON endpoints for
// clients that do not speak GraphQL.
type AuthHandler struct {
	accounts Accounts
}

func NewAuthHandler(accounts Accounts) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		WriteError(w, r, errors.NewBadRequestError("invalid request payload"), http.StatusBadRequest)
		return
	}

	resp, err := h.accounts.SignUp(r.Context(), &req)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	WriteJSON(w, r, resp, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		WriteError(w, r, errors.NewBadRequestError("invalid request payload"), http.StatusBadRequest)
		return
	}

	resp, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	WriteJSON(w, r, resp, http.StatusOK)
}

// Logout ends the session behind the caller's bearer token. It relies on
// AuthContext having run first.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		WriteError(w, r, errors.NewAuthenticationError("no session found"), http.StatusUnauthorized)
		return
	}

	if err := h.accounts.Logout(r.Context(), id.SessionID); err != nil {
		writeAuthError(w, r, err)
		return
	}

	WriteJSON(w, r, map[string]string{"message": "Successfully logged out"}, http.StatusOK)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *errors.ValidationError:
		WriteError(w, r, e, http.StatusBadRequest)
	case *errors.AuthenticationError:
		WriteError(w, r, e, http.StatusUnauthorized)
	case *errors.ConflictError:
		WriteError(w, r, e, http.StatusConflict)
	default:
		WriteError(w, r, errors.WrapInternal(err), http.StatusInternalServerError)
	}
}
