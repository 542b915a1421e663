package auth

import (
	"context"
	"errors"
)

const (
	// LocalDevAPIKey is the hardcoded token accepted in development only
	LocalDevAPIKey = "sk_local_cloudly_dev_key"
)

// MockAuthorizer resolves LocalDevAPIKey to a fixed local developer.
type MockAuthorizer struct{}

func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{}
}

func (m *MockAuthorizer) Authorize(ctx context.Context, token string) (*Identity, error) {
	if token != LocalDevAPIKey {
		return nil, errors.New("invalid API key for local development")
	}
	return &Identity{
		UserID: "cloudly-dev",
		Email:  "dev@cloudly.local",
		Name:   "Local Developer",
	}, nil
}

// chain tries each authorizer in order and returns the first success.
type chain []Authorizer

func (c chain) Authorize(ctx context.Context, token string) (*Identity, error) {
	var firstErr error
	for _, a := range c {
		id, err := a.Authorize(ctx, token)
		if err == nil {
			return id, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
