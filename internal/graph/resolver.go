// internal/graph/resolver.go
package graph

import (
	"context"
	_ "embed"
	"log/slog"
	"strconv"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"roamly/internal/domain/auth"
	apperrors "roamly/pkg/errors"
)

//go:embed schema.graphql
var Schema string

// AccountService is the part of auth.AuthService the resolvers call.
type AccountService interface {
	SignUp(ctx context.Context, req *auth.SignupRequest) (*auth.AuthPayload, error)
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthPayload, error)
	Logout(ctx context.Context, sessionID string) error
	UserByID(ctx context.Context, id int64) (*auth.User, error)
	UserByUsername(ctx context.Context, username string) (*auth.User, error)
}

type Resolver struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewResolver(accounts AccountService, logger *slog.Logger) *Resolver {
	return &Resolver{accounts: accounts, logger: logger}
}

// NewSchema parses the embedded SDL against r.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(Schema, r, graphql.MaxDepth(8))
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return nil, r.fail(ctx, "me", errLoginRequired)
	}

	user, err := r.accounts.UserByID(ctx, id.UserID)
	if err != nil {
		return nil, r.fail(ctx, "me", err)
	}
	return &userResolver{u: user}, nil
}

func (r *Resolver) User(ctx context.Context, args struct{ Username string }) (*userResolver, error) {
	user, err := r.accounts.UserByUsername(ctx, args.Username)
	if err != nil {
		if _, ok := err.(*apperrors.NotFoundError); ok {
			return nil, nil
		}
		return nil, r.fail(ctx, "user", err)
	}
	return &userResolver{u: user}, nil
}

type addUserArgs struct {
	Username    string
	Email       string
	Password    string
	Location    *string
	Description *string
}

func (r *Resolver) AddUser(ctx context.Context, args addUserArgs) (*authResolver, error) {
	payload, err := r.accounts.SignUp(ctx, &auth.SignupRequest{
		Username:    args.Username,
		Email:       args.Email,
		Password:    args.Password,
		Location:    deref(args.Location),
		Description: deref(args.Description),
	})
	if err != nil {
		return nil, r.fail(ctx, "addUser", err)
	}
	return &authResolver{p: payload}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct{ Email, Password string }) (*authResolver, error) {
	payload, err := r.accounts.Login(ctx, &auth.LoginRequest{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, r.fail(ctx, "login", err)
	}
	return &authResolver{p: payload}, nil
}

func (r *Resolver) Logout(ctx context.Context) (bool, error) {
	id, ok := auth.IdentityFrom(ctx)
	if !ok {
		return false, r.fail(ctx, "logout", errLoginRequired)
	}
	if err := r.accounts.Logout(ctx, id.SessionID); err != nil {
		return false, r.fail(ctx, "logout", err)
	}
	return true, nil
}

type authResolver struct {
	p *auth.AuthPayload
}

func (a *authResolver) Token() graphql.ID {
	return graphql.ID(a.p.Token)
}

func (a *authResolver) User() *userResolver {
	if a.p.User == nil {
		return nil
	}
	return &userResolver{u: a.p.User}
}

type userResolver struct {
	u *auth.User
}

func (u *userResolver) ID() graphql.ID {
	return graphql.ID(strconv.FormatInt(u.u.ID, 10))
}

func (u *userResolver) Username() string {
	return u.u.Username
}

func (u *userResolver) Email() string {
	return u.u.Email
}

func (u *userResolver) Location() *string {
	return optional(u.u.Location)
}

func (u *userResolver) Description() *string {
	return optional(u.u.Description)
}

func (u *userResolver) CreatedAt() string {
	return u.u.CreatedAt.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
