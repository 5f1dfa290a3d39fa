package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/campus_food/internal/models"
	"github.com/Skotchmaster/campus_food/internal/transport"
	"github.com/Skotchmaster/campus_food/pkg/logging"
)

const (
	RoleUser  = models.RoleUser
	RoleAdmin = models.RoleAdmin
)

// Envelope is an API response with its data left undecoded.
type Envelope = transport.Envelope[json.RawMessage]

// APIError is a non-2xx API response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

var errNoRefreshToken = errors.New("no refresh token stored")

const renewTimeout = 10 * time.Second

// Decode unmarshals the data field of env.
func Decode[T any](env *Envelope) (T, error) {
	var out T
	if env == nil || len(env.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("decode data: %w", err)
	}
	return out, nil
}

type Option func(*Agent)

func WithHTTPClient(c *http.Client) Option {
	return func(a *Agent) { a.httpClient = c }
}

func WithNavigator(n Navigator) Option {
	return func(a *Agent) { a.nav = n }
}

// Agent talks to the API on behalf of one client session. It attaches the
// access token, renews it once on a 401, and persists the session to a Store.
type Agent struct {
	baseURL    string
	httpClient *http.Client
	store      Store
	nav        Navigator

	mu    sync.Mutex
	state SessionState

	renewals singleflight.Group
}

func NewAgent(ctx context.Context, baseURL string, store Store, opts ...Option) (*Agent, error) {
	a := &Agent{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		store: store,
		nav:   nopNavigator{},
	}
	for _, opt := range opts {
		opt(a)
	}
	st, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	st.normalize()
	a.state = st
	return a, nil
}

// Call sends an authenticated request. A 401 triggers one token renewal and
// one retry. When renewal fails the session is cleared, the client is sent to
// the login page and Call returns (nil, nil).
func (a *Agent) Call(ctx context.Context, method, endpoint string, body any) (*Envelope, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	token := a.AccessToken()
	status, env, err := a.send(ctx, method, endpoint, payload, token)
	if err != nil {
		return nil, err
	}
	if status != http.StatusUnauthorized {
		return result(status, env)
	}

	fresh, err := a.renew(ctx, token)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logging.FromContext(ctx).Info("session renewal failed", "error", err)
		if err := a.expire(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	status, env, err = a.send(ctx, method, endpoint, payload, fresh)
	if err != nil {
		return nil, err
	}
	return result(status, env)
}

// renew exchanges the refresh token for a new access token. Concurrent
// callers share one request; a caller whose token was already replaced gets
// the replacement without another request. The shared request outlives any
// single caller's cancellation.
func (a *Agent) renew(ctx context.Context, stale string) (string, error) {
	ch := a.renewals.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renewTimeout)
		defer cancel()

		a.mu.Lock()
		if a.state.AccessToken != "" && a.state.AccessToken != stale {
			tok := a.state.AccessToken
			a.mu.Unlock()
			return tok, nil
		}
		refresh := a.state.RefreshToken
		a.state.BeginRenew()
		a.mu.Unlock()

		if refresh == "" {
			return "", errNoRefreshToken
		}
		status, env, err := a.send(ctx, http.MethodPost, "/refresh", mustJSON(transport.RefreshTokenRequest{RefreshToken: refresh}), "")
		if err != nil {
			return "", err
		}
		if status < 200 || status > 299 {
			return "", apiError(status, env)
		}
		res, err := Decode[struct {
			AccessToken string `json:"accessToken"`
		}](env)
		if err != nil {
			return "", err
		}
		if res.AccessToken == "" {
			return "", errors.New("refresh response has no access token")
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		a.state.Renewed(res.AccessToken)
		if err := a.store.Save(ctx, a.state); err != nil {
			logging.FromContext(ctx).Warn("save session failed", "error", err)
		}
		return res.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (a *Agent) expire(ctx context.Context) error {
	a.mu.Lock()
	a.state.Clear()
	err := a.store.Clear(ctx)
	a.mu.Unlock()
	a.nav.Navigate(UserLoginPage)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (a *Agent) send(ctx context.Context, method, endpoint string, payload []byte, token string) (int, *Envelope, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	env := &Envelope{Code: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			// non-JSON bodies keep the status and raw text
			env.Message = strings.TrimSpace(string(raw))
		}
	}
	return resp.StatusCode, env, nil
}

func result(status int, env *Envelope) (*Envelope, error) {
	if status < 200 || status > 299 {
		return nil, apiError(status, env)
	}
	return env, nil
}

func apiError(status int, env *Envelope) *APIError {
	e := &APIError{Status: status}
	if env != nil {
		e.Message = env.Message
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return payload, nil
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

type loginData struct {
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates and stores the tokens and profile.
func (a *Agent) Login(ctx context.Context, username, password string) (Profile, error) {
	status, env, err := a.send(ctx, http.MethodPost, "/login",
		mustJSON(transport.LoginRequest{Username: username, Password: password}), "")
	if err != nil {
		return Profile{}, err
	}
	if _, err := result(status, env); err != nil {
		return Profile{}, err
	}
	data, err := Decode[loginData](env)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{UserID: data.UserID, Username: data.Username, Role: data.Role}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Clear()
	a.state.Authenticate(data.AccessToken, data.RefreshToken, p)
	if err := a.store.Save(ctx, a.state); err != nil {
		return Profile{}, fmt.Errorf("save session: %w", err)
	}
	return a.state.User, nil
}

type RegisterResult struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register creates an account. It does not sign in.
func (a *Agent) Register(ctx context.Context, in transport.RegisterRequest) (RegisterResult, error) {
	status, env, err := a.send(ctx, http.MethodPost, "/register", mustJSON(in), "")
	if err != nil {
		return RegisterResult{}, err
	}
	if _, err := result(status, env); err != nil {
		return RegisterResult{}, err
	}
	return Decode[RegisterResult](env)
}

// Logout revokes the refresh token when the server is reachable and always
// clears the local session.
func (a *Agent) Logout(ctx context.Context) error {
	a.mu.Lock()
	refresh := a.state.RefreshToken
	a.mu.Unlock()

	if refresh != "" {
		status, env, err := a.send(ctx, http.MethodPost, "/logout",
			mustJSON(transport.RefreshTokenRequest{RefreshToken: refresh}), "")
		if err == nil {
			_, err = result(status, env)
		}
		if err != nil {
			logging.FromContext(ctx).Warn("server logout failed", "error", err)
		}
	}
	return a.expire(ctx)
}

// UpdateProfile merges the non-empty fields of p into the cached profile.
func (a *Agent) UpdateProfile(ctx context.Context, p Profile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.User.merge(p)
	return a.store.Save(ctx, a.state)
}

func (a *Agent) AccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.AccessToken
}

// CurrentUser returns the cached profile, or false when not signed in.
func (a *Agent) CurrentUser() (Profile, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.AccessToken == "" {
		return Profile{}, false
	}
	return a.state.User, true
}

func (a *Agent) IsLoggedIn() bool {
	return a.AccessToken() != ""
}

func (a *Agent) HasRole(role string) bool {
	p, ok := a.CurrentUser()
	return ok && p.Role == role
}

func (a *Agent) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.CurrentPhase()
}

func (a *Agent) navigate(page string) {
	a.nav.Navigate(page)
}
