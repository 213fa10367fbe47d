package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// credentials is the JSON body shared by the unauthenticated user endpoints.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userIDResponse carries the backend's Mongo-style "_id" field.
type userIDResponse struct {
	ID string `json:"_id"` //nolint:tagliatelle // backend field name
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Account is a user record as returned by GetUser.
type Account struct {
	ID      string `json:"_id"` //nolint:tagliatelle // backend field name
	Email   string `json:"email"`
	Created string `json:"creation_date"`
}

// CreateUser registers a new user and returns the assigned user ID.
// The email must not already be registered.
func (c *Client) CreateUser(ctx context.Context, email, password string) (string, error) {
	c.logger.Info("creating user", slog.String("email", email))

	var out userIDResponse

	err := c.doJSON(ctx, http.MethodPost, "/users", "", credentials{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}

	if out.ID == "" {
		return "", fmt.Errorf("%w: create user response has no id", ErrMalformedResponse)
	}

	return out.ID, nil
}

// GetIDForEmail looks up the user ID for an email/password pair. Needed
// when only the credentials are known, because all per-user routes are
// keyed by ID. POST: the request carries a JSON credential body.
func (c *Client) GetIDForEmail(ctx context.Context, email, password string) (string, error) {
	c.logger.Debug("fetching user id", slog.String("email", email))

	path := fmt.Sprintf("/users/%s/idformail", url.PathEscape(email))

	var out userIDResponse

	err := c.doJSON(ctx, http.MethodPost, path, "", credentials{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}

	if out.ID == "" {
		return "", fmt.Errorf("%w: idformail response has no id", ErrMalformedResponse)
	}

	return out.ID, nil
}

// GetToken authenticates the user and returns an access token. The token
// must accompany every per-user call after login.
func (c *Client) GetToken(ctx context.Context, userID, email, password string) (string, error) {
	c.logger.Debug("requesting token", slog.String("user_id", userID))

	path := fmt.Sprintf("/users/%s/authenticate", url.PathEscape(userID))

	var out tokenResponse

	err := c.doJSON(ctx, http.MethodPost, path, "", credentials{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}

	if out.Token == "" {
		return "", fmt.Errorf("%w: authenticate response has no token", ErrMalformedResponse)
	}

	return out.Token, nil
}

// GetUser fetches the user record for the given ID.
func (c *Client) GetUser(ctx context.Context, userID, token string) (*Account, error) {
	path := fmt.Sprintf("/users/%s", url.PathEscape(userID))

	var out Account
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteUser removes the user account.
func (c *Client) DeleteUser(ctx context.Context, userID, token string) error {
	c.logger.Info("deleting user", slog.String("user_id", userID))

	path := fmt.Sprintf("/users/%s", url.PathEscape(userID))

	return c.doJSON(ctx, http.MethodDelete, path, token, nil, nil)
}

// UpdateUser updates user fields. The backend expects a url-encoded form
// body for this route, unlike the JSON everywhere else.
func (c *Client) UpdateUser(ctx context.Context, userID, token string, fields map[string]string) error {
	c.logger.Info("updating user",
		slog.String("user_id", userID),
		slog.Int("fields", len(fields)),
	)

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}

	path := fmt.Sprintf("/users/%s", url.PathEscape(userID))

	body := []byte(form.Encode())

	resp, err := c.do(ctx, http.MethodPut, path, token, "application/x-www-form-urlencoded", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain body to reuse connection.
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best effort

	return nil
}
