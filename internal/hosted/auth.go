package hosted

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/internal/auth"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

// authClient speaks GoTrue. The session is held in memory for the life of
// the client.
type authClient struct {
	c    *Client
	subs auth.SubscriberList

	mu      sync.RWMutex
	session *types.Session
}

var _ types.Auth = (*authClient)(nil)

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        *types.User `json:"user"`
}

func (a *authClient) SignUp(ctx context.Context, params types.SignUpParams) (*types.User, error) {
	data, err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "signup",
		body:   params,
	})
	if err != nil {
		return nil, err
	}
	// GoTrue returns the user bare, or wrapped with a session when
	// confirmation is disabled.
	var wrapped struct {
		User *types.User `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var user types.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decoding sign-up response: %w", err)
	}
	return &user, nil
}

func (a *authClient) SignInWithPassword(ctx context.Context, creds types.Credentials) (*types.Session, error) {
	data, err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "token",
		query:  url.Values{"grant_type": {"password"}},
		body:   creds,
	})
	if err != nil {
		return nil, err
	}
	var tok tokenResponse
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	sess := &types.Session{AccessToken: tok.AccessToken, User: tok.User}

	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()

	a.c.log.Info("signed in to hosted backend", zap.String("email", creds.Email))
	if err := a.notify(types.AuthSignedIn, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (a *authClient) SignOut(ctx context.Context) error {
	a.mu.Lock()
	sess := a.session
	a.session = nil
	a.mu.Unlock()

	if sess != nil {
		_, err := a.c.do(ctx, request{
			method: http.MethodPost,
			path:   authPath + "logout",
			bearer: sess.AccessToken,
		})
		if err != nil {
			a.c.log.Warn("hosted sign-out failed; session dropped locally", zap.Error(err))
		}
	}
	return a.notify(types.AuthSignedOut, nil)
}

func (a *authClient) GetSession() *types.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *authClient) GetUser() *types.User {
	sess := a.GetSession()
	if sess == nil {
		return nil
	}
	return sess.User
}

func (a *authClient) OnAuthStateChange(cb types.AuthStateFunc) types.Subscription {
	return a.subs.Add(cb)
}

func (a *authClient) notify(event types.AuthEvent, sess *types.Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = types.Errorf(types.KindHandlerPanic, fmt.Sprintf("auth subscriber panicked: %v", r))
		}
	}()
	a.subs.Notify(event, sess)
	return nil
}

func (a *authClient) Admin() types.AdminAuth {
	return hostedAdmin{a: a}
}

type hostedAdmin struct{ a *authClient }

// UpdateUserByID calls the admin users endpoint with the API key, which
// must be a service-role key.
func (h hostedAdmin) UpdateUserByID(ctx context.Context, id string, attrs types.AdminUserAttributes) (*types.User, error) {
	data, err := h.a.c.do(ctx, request{
		method: http.MethodPut,
		path:   authPath + "admin/users/" + url.PathEscape(id),
		body:   attrs,
	})
	if err != nil {
		return nil, err
	}
	var user types.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &user, nil
}
