package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/campus_food/internal/models"
	"github.com/Skotchmaster/campus_food/internal/service"
	"github.com/Skotchmaster/campus_food/internal/transport"
)

func TestAuthFlow_Scenario(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/register", map[string]any{
		"username": "alice", "password": "secret1", "isAdmin": false,
	}, "")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 201, body.Code)
	reg := decode[service.RegisterResult](t, body.Data)
	assert.Equal(t, "alice", reg.Username)
	assert.Equal(t, "user", reg.Role)
	assert.NotZero(t, reg.UserID)

	code, body = env.do(t, http.MethodPost, "/api/login", map[string]any{
		"username": "alice", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 200, body.Code)
	login := decode[map[string]any](t, body.Data)
	access, _ := login["accessToken"].(string)
	refresh, _ := login["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.EqualValues(t, reg.UserID, login["userId"])
	assert.Equal(t, "alice", login["username"])
	assert.Equal(t, "user", login["role"])

	code, body = env.do(t, http.MethodGet, "/api/user", nil, access)
	require.Equal(t, http.StatusOK, code)
	info := decode[transport.UserInfo](t, body.Data)
	assert.Equal(t, reg.UserID, info.ID)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, "user", info.Role)
	assert.Equal(t, "active", info.Status)
	assert.NotEmpty(t, info.CreatedAt)

	code, body = env.do(t, http.MethodPost, "/api/refresh", map[string]any{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, code)
	refreshed := decode[map[string]any](t, body.Data)
	assert.NotEmpty(t, refreshed["accessToken"])

	code, body = env.do(t, http.MethodPost, "/api/logout", map[string]any{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "logged out", body.Message)

	code, body = env.do(t, http.MethodPost, "/api/refresh", map[string]any{"refreshToken": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 401, body.Code)
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/register", map[string]any{"username": "bob", "password": "123"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "password must be at least 6 characters", body.Message)

	code, _ = env.do(t, http.MethodPost, "/api/register", map[string]any{"username": "bob"}, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/register", map[string]any{"username": "bob", "password": "secret1", "studentId": "S1"}, "")
	require.Equal(t, http.StatusCreated, code)

	code, body = env.do(t, http.MethodPost, "/api/register", map[string]any{"username": "bob", "password": "different1"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "username already registered", body.Message)

	code, body = env.do(t, http.MethodPost, "/api/register", map[string]any{"username": "carl", "password": "secret1", "studentId": "S1"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "student id already registered", body.Message)
}

func TestRegister_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/register", "not an object", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid body", body.Message)
}

func TestLogin_Errors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.Register(context.Background(), service.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	wrongCode, wrongBody := env.do(t, http.MethodPost, "/api/login", map[string]any{"username": "alice", "password": "nope-nope"}, "")
	unknownCode, unknownBody := env.do(t, http.MethodPost, "/api/login", map[string]any{"username": "ghost", "password": "secret1"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongCode)
	assert.Equal(t, wrongCode, unknownCode)
	assert.Equal(t, wrongBody, unknownBody)

	require.NoError(t, env.auth.SetUserStatus(context.Background(), "alice", models.StatusDisabled))
	code, body := env.do(t, http.MethodPost, "/api/login", map[string]any{"username": "alice", "password": "secret1"}, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "account disabled", body.Message)

	code, _ = env.do(t, http.MethodPost, "/api/login", map[string]any{"username": "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRefresh_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, service.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	env.clock.t = env.clock.t.Add(30*24*time.Hour + time.Minute)

	for i := 0; i < 2; i++ {
		code, body := env.do(t, http.MethodPost, "/api/refresh", map[string]any{"refreshToken": login.RefreshToken}, "")
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, 401, body.Code)
	}

	code, _ := env.do(t, http.MethodPost, "/api/refresh", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRefresh_UserRemoved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.auth.Register(ctx, service.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, env.repo.DB.Delete(&models.User{}, reg.UserID).Error)

	code, body := env.do(t, http.MethodPost, "/api/refresh", map[string]any{"refreshToken": login.RefreshToken}, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "user not found", body.Message)
}

func TestLogout_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		code, body := env.do(t, http.MethodPost, "/api/logout", map[string]any{"refreshToken": "whatever"}, "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 200, body.Code)
	}

	code, _ := env.do(t, http.MethodPost, "/api/logout", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetUser_Gate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, service.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	code, body := env.do(t, http.MethodGet, "/api/user", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "no token provided", body.Message)

	code, body = env.do(t, http.MethodGet, "/api/user", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid or expired token", body.Message)

	env.clock.t = env.clock.t.Add(59 * time.Minute)
	code, _ = env.do(t, http.MethodGet, "/api/user", nil, login.AccessToken)
	assert.Equal(t, http.StatusOK, code)

	env.clock.t = env.clock.t.Add(2 * time.Minute)
	code, body = env.do(t, http.MethodGet, "/api/user", nil, login.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid or expired token", body.Message)
}

func TestGetUser_DeletedUserWithLiveToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.auth.Register(ctx, service.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, env.repo.DB.Delete(&models.User{}, reg.UserID).Error)

	code, body := env.do(t, http.MethodGet, "/api/user", nil, login.AccessToken)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "user not found", body.Message)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 200, body.Code)

	code, body = env.do(t, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 404, body.Code)
	assert.Equal(t, "Not Found", body.Message)
}

func TestAdminUserStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, service.RegisterInput{Username: "root", Password: "secret1", IsAdmin: true})
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, service.RegisterInput{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	admin, err := env.auth.Login(ctx, "root", "secret1")
	require.NoError(t, err)
	alice, err := env.auth.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	disable := transport.UserStatusRequest{Status: models.StatusDisabled}

	code, _ := env.do(t, http.MethodPut, "/api/admin/users/alice/status", disable, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := env.do(t, http.MethodPut, "/api/admin/users/alice/status", disable, alice.AccessToken)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", body.Message)

	code, _ = env.do(t, http.MethodPut, "/api/admin/users/alice/status", disable, admin.AccessToken)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPut, "/api/admin/users/alice/status", disable, admin.AccessToken)
	assert.Equal(t, http.StatusOK, code)

	// the gate does not read the database, so an issued token stays valid until expiry
	code, body = env.do(t, http.MethodGet, "/api/user", nil, alice.AccessToken)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusDisabled, decode[transport.UserInfo](t, body.Data).Status)

	code, body = env.do(t, http.MethodPost, "/api/login", map[string]any{"username": "alice", "password": "secret1"}, "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "account disabled", body.Message)

	code, _ = env.do(t, http.MethodPut, "/api/admin/users/alice/status", transport.UserStatusRequest{Status: "banned"}, admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPut, "/api/admin/users/nobody/status", disable, admin.AccessToken)
	assert.Equal(t, http.StatusNotFound, code)
}
