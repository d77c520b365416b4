// Package credential supplies bearer tokens to components that call the upstream API.
package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/jwt"
)

const DefaultEnvKey = "AWBDESK_TOKEN"

type Provider interface {
	Token(ctx context.Context) (string, error)
}

type ProviderFunc func(ctx context.Context) (string, error)

func (f ProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static always returns token.
func Static(token string) Provider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		return checked(token)
	})
}

// Env reads the token from the environment on every call.
func Env(key string) Provider {
	if key == "" {
		key = DefaultEnvKey
	}
	return ProviderFunc(func(ctx context.Context) (string, error) {
		return checked(os.Getenv(key))
	})
}

// AuthSession is the persisted login session written by the web login flow.
type AuthSession struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user,omitempty"`
}

// SessionFile reads an AuthSession file on every call.
func SessionFile(path string) Provider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: read auth session: %v", appErr.ErrUnauthorized, err)
		}
		var sess AuthSession
		if err := json.Unmarshal(data, &sess); err != nil {
			return "", fmt.Errorf("%w: decode auth session: %v", appErr.ErrUnauthorized, err)
		}
		return checked(sess.Token)
	})
}

type tokenKey struct{}

// WithToken stores a request-scoped token for the Context provider.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// Context returns the token stored by WithToken in the calling context.
func Context() Provider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		token, _ := ctx.Value(tokenKey{}).(string)
		return checked(token)
	})
}

// First tries providers in order and returns the first token found.
func First(providers ...Provider) Provider {
	return ProviderFunc(func(ctx context.Context) (string, error) {
		lastErr := appErr.ErrUnauthorized
		for _, p := range providers {
			if p == nil {
				continue
			}
			token, err := p.Token(ctx)
			if err == nil {
				return token, nil
			}
			lastErr = err
		}
		return "", lastErr
	})
}

func checked(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing token", appErr.ErrUnauthorized)
	}
	if err := jwt.CheckExpiry(token, time.Now()); err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrUnauthorized, err)
	}
	return token, nil
}
