package gate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/middleware"
	"github.com/gugatkesheladze/youtube-monitor/internal/transport/http/response"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyAccessToken(raw string) (domain.Identity, error) {
	if u, ok := f[raw]; ok {
		return domain.Identity{Username: u}, nil
	}
	return domain.Identity{}, errors.New("bad token")
}

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	g, err := New(Config{
		CORS:             middleware.CORSConfig{Enabled: true, AllowedOrigins: []string{"http://localhost:3000"}},
		Verifier:         fakeVerifier{"good": "alice"},
		ProtectedPattern: "/secured/**",
	}, response.WriteError)
	require.NoError(t, err)
	return g
}

// echo reports the identity the handler saw.
func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := middleware.IdentityFromContext(r.Context()); ok {
			w.Header().Set("X-User", id.Username)
		} else {
			w.Header().Set("X-User", "anonymous")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func serve(g *Gate, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.Middleware(echo()).ServeHTTP(rec, req)
	return rec
}

func TestGate_PublicPathWithInvalidTokenIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	rec := serve(newTestGate(t), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Header().Get("X-User"))
}

func TestGate_ProtectedWithoutTokenRejected(t *testing.T) {
	rec := serve(newTestGate(t), httptest.NewRequest(http.MethodGet, "/secured/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"authentication_required"`)
	assert.Empty(t, rec.Header().Get("X-User"), "handler must not run")
}

func TestGate_ProtectedWithInvalidTokenRejectedIdentically(t *testing.T) {
	noToken := serve(newTestGate(t), httptest.NewRequest(http.MethodGet, "/secured/users/me", nil))

	req := httptest.NewRequest(http.MethodGet, "/secured/users/me", nil)
	req.Header.Set("Authorization", "Bearer expired")
	badToken := serve(newTestGate(t), req)

	assert.Equal(t, noToken.Code, badToken.Code)
	assert.Equal(t, noToken.Body.String(), badToken.Body.String())
}

func TestGate_ProtectedWithValidTokenAttachesIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/secured/users/me", nil)
	req.Header.Set("Authorization", "Bearer good")

	rec := serve(newTestGate(t), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Header().Get("X-User"))
}

func TestGate_PathTricksStayProtected(t *testing.T) {
	g := newTestGate(t)
	for _, p := range []string{"/secured", "/secured/", "//secured/users/me", "/public/../secured/users/me", "/secured/a/b/c"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = p
		rec := serve(g, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p)
	}
}

func TestGate_CORSHeadersSurviveRejection(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/secured/users/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PATCH")

	rec := serve(newTestGate(t), req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestGate_StageOrder(t *testing.T) {
	g := newTestGate(t)
	req := httptest.NewRequest(http.MethodGet, "/secured/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	ex, err := g.Evaluate(req)

	assert.True(t, domain.Is(err, "authentication_required"))
	assert.Equal(t, "http://localhost:3000", ex.Header.Get("Access-Control-Allow-Origin"), "CORS runs before the access decision")
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(Config{ProtectedPattern: "secured/**", Verifier: fakeVerifier{}}, response.WriteError)
	assert.Error(t, err)
}
