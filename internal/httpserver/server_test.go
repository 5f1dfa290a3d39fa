package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/campus_food/internal/repo"
	"github.com/Skotchmaster/campus_food/internal/service"
	pkgdb "github.com/Skotchmaster/campus_food/pkg/db"
	"github.com/Skotchmaster/campus_food/pkg/hash"
	"github.com/Skotchmaster/campus_food/pkg/logging"
	"github.com/Skotchmaster/campus_food/pkg/middleware/metrics"
	"github.com/Skotchmaster/campus_food/pkg/tokens"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

type testEnv struct {
	e       *echo.Echo
	repo    *repo.GormRepo
	auth    *service.AuthService
	catalog *service.CatalogService
	clock   *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := pkgdb.OpenMemory(context.Background())
	require.NoError(t, err)

	r := repo.New(db)
	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	issuer := &tokens.Issuer{Secret: []byte("test-jwt-secret"), Now: clock.Now}

	auth := &service.AuthService{
		Repo:   r,
		Hasher: hash.Bcrypt{Cost: bcrypt.MinCost},
		Tokens: issuer,
		Now:    clock.Now,
	}
	catalog := &service.CatalogService{Repo: r}

	e := New(logging.NewWithWriter(io.Discard, "error"), "*", &Deps{
		AuthHandler:    &AuthHTTP{Svc: auth},
		CatalogHandler: &CatalogHTTP{Svc: catalog},
		Verifier:       issuer,
		Metrics:        metrics.New("campus_test"),
	})

	return &testEnv{e: e, repo: r, auth: auth, catalog: catalog, clock: clock}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (env *testEnv) do(t *testing.T, method, path string, body any, bearer string) (int, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 && rec.Header().Get(echo.HeaderContentType) != "" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
