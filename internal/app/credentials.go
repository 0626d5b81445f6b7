package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"studio_alert_bot/internal/domain/studio"
	"studio_alert_bot/internal/infra/studioapi"
)

// CredentialProvider supplies the backend token used for every fetch.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
	// Invalidate drops a token the backend rejected so the next call obtains a new one.
	Invalidate()
}

// Credentials serves a configured token, or logs in with username and password
// and caches the issued token until it is invalidated.
type Credentials struct {
	directory studio.Directory
	username  string
	password  string

	mu    sync.Mutex
	token string
	fixed bool
}

func NewStaticCredentials(token string) *Credentials {
	return &Credentials{token: token, fixed: true}
}

func NewLoginCredentials(directory studio.Directory, username, password string) *Credentials {
	return &Credentials{directory: directory, username: username, password: password}
}

func (c *Credentials) Credential(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	if c.fixed || c.directory == nil || c.username == "" {
		return "", studio.ErrNotAuthenticated
	}

	token, err := c.directory.Login(ctx, c.username, c.password)
	if err != nil {
		var apiErr *studioapi.APIError
		if errors.As(err, &apiErr) {
			// Rejected credentials, not a transport problem.
			return "", fmt.Errorf("%w: %w", studio.ErrNotAuthenticated, err)
		}
		return "", fmt.Errorf("failed to log in as %q: %w", c.username, err)
	}
	c.token = token
	return token, nil
}

func (c *Credentials) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fixed {
		c.token = ""
	}
}
