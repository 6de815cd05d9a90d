// Package gqlclient talks to the roamly GraphQL endpoint.
package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"roamly/internal/client/signup"
)

const (
	addUserMutation = `mutation addUser($username: String!, $email: String!, $password: String!, $location: String, $description: String) {
  addUser(username: $username, email: $email, password: $password, location: $location, description: $description) {
    token
    user { id username }
  }
}`

	logoutMutation = `mutation logout { logout }`

	meQuery = `query me { me { id username email location description createdAt } }`
)

// TokenSource returns the current bearer token, or "" when signed out.
type TokenSource func() string

type Client struct {
	endpoint string
	http     *http.Client
	token    TokenSource
}

func New(endpoint string, token TokenSource) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
		token:    token,
	}
}

// Error is the first entry of a response's errors array.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Do posts one operation and returns the raw response body. GraphQL errors
// are returned as *Error.
func (c *Client) Do(ctx context.Context, query string, vars map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != nil {
		if t := c.token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if first := gjson.GetBytes(raw, "errors.0"); first.Exists() {
		return raw, &Error{
			Message: first.Get("message").String(),
			Code:    first.Get("extensions.code").String(),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return raw, fmt.Errorf("graphql endpoint returned %s", resp.Status)
	}
	if !gjson.ValidBytes(raw) {
		return raw, errors.New("malformed response from server")
	}
	return raw, nil
}

// AddUser runs the addUser mutation. A response without a token yields a
// Result with an empty Token.
func (c *Client) AddUser(ctx context.Context, r signup.Request) (*signup.Result, error) {
	raw, err := c.Do(ctx, addUserMutation, map[string]interface{}{
		"username":    r.Username,
		"email":       r.Email,
		"password":    r.Password,
		"location":    r.Location,
		"description": r.Description,
	})
	if err != nil {
		return nil, err
	}
	return &signup.Result{Token: gjson.GetBytes(raw, "data.addUser.token").String()}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Do(ctx, logoutMutation, nil)
	return err
}

type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	raw, err := c.Do(ctx, meQuery, nil)
	if err != nil {
		return nil, err
	}
	me := gjson.GetBytes(raw, "data.me")
	if !me.IsObject() {
		return nil, &Error{Message: "You need to be logged in!", Code: "UNAUTHENTICATED"}
	}
	var p Profile
	if err := json.Unmarshal([]byte(me.Raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}
