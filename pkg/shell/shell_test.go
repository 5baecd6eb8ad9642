package shell_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"appshell/pkg/apiclient"
	"appshell/pkg/session"
	"appshell/pkg/shell"
	"appshell/pkg/toast"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "appshell.session_token"

type fakeBackend struct {
	users map[string]string
	err   error
}

func (b fakeBackend) FetchSession(r *http.Request) (*session.Session, error) {
	if b.err != nil {
		return nil, b.err
	}
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil, nil
	}
	if uid, ok := b.users[c.Value]; ok {
		return &session.Session{ID: "s", UserID: uid}, nil
	}
	return nil, nil
}

func (fakeBackend) CookieName() string {
	return cookieName
}

func newAPI(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-alice" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":"u-alice","username":"alice"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
}

func render(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestDocument(t *testing.T) {
	s := shell.New(shell.Options{Logger: testLogger()})

	rr := render(t, s, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Contains(t, body, `<html lang="en" class="dark">`)
	assert.Contains(t, body, `<meta charset="utf-8">`)
	assert.Contains(t, body, `<meta name="viewport" content="width=device-width, initial-scale=1">`)
	assert.Contains(t, body, `<title>My App</title>`)
	assert.Contains(t, body, `<link rel="stylesheet" href="/static/index.css">`)
	assert.Contains(t, body, `data-rich-colors="true"`)
	assert.Contains(t, body, `id="loader"`)
	assert.Contains(t, body, `data-path="/dashboard"`)
	assert.Contains(t, body, `Sign in`)
	assert.Contains(t, body, `<script id="__router_context" type="application/json">{}</script>`)
	assert.NotContains(t, body, "router-devtools")
}

func TestAuthBeforeLoad(t *testing.T) {
	api := newAPI(t)
	base := apiclient.New(api.URL, api.Client())

	s := shell.New(shell.Options{Title: "Shell", Client: base, Logger: testLogger()})
	s.Use(shell.AuthBeforeLoad(fakeBackend{users: map[string]string{"tok-alice": "u-alice"}}))
	s.Load(shell.HeaderLoader)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "tok-alice"})
	rr := render(t, s, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `<title>Shell</title>`)
	assert.Contains(t, body, `data-user-id="u-alice">alice</span>`)
	assert.Contains(t, body, `<script id="__router_context" type="application/json">{"userId":"u-alice"}</script>`)
	assert.NotContains(t, body, "tok-alice")
	assert.Empty(t, base.Token(), "shared client must stay unauthenticated")

	// the next anonymous request sees nothing of the previous one
	rr = render(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "alice")
	assert.Contains(t, rr.Body.String(), `type="application/json">{}</script>`)
}

func TestAuthBeforeLoad_StaleCookie(t *testing.T) {
	api := newAPI(t)
	s := shell.New(shell.Options{Client: apiclient.New(api.URL, api.Client()), Logger: testLogger()})
	s.Use(shell.AuthBeforeLoad(fakeBackend{users: map[string]string{}}))
	s.Load(shell.HeaderLoader)

	var seen shell.RouteContext
	s.Load(func(ctx context.Context, rc *shell.RouteContext) error {
		seen = *rc
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "revoked"})
	rr := render(t, s, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "revoked", seen.Token)
	assert.Empty(t, seen.UserID)
	assert.Contains(t, rr.Body.String(), `type="application/json">{}</script>`)
	assert.NotContains(t, rr.Body.String(), "revoked")
	assert.Contains(t, rr.Body.String(), "Sign in")
}

func TestBeforeLoadErrorFailsPage(t *testing.T) {
	s := shell.New(shell.Options{Logger: testLogger()})
	s.Use(shell.AuthBeforeLoad(fakeBackend{err: errors.New("store down")}))

	rr := render(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<html")
}

func TestLoaderErrorStillRenders(t *testing.T) {
	s := shell.New(shell.Options{Logger: testLogger()})
	s.Use(func(r *http.Request, rc *shell.RouteContext) error {
		rc.UserID = "u1"
		return nil
	})
	s.Load(func(ctx context.Context, rc *shell.RouteContext) error {
		return errors.New("api down")
	})

	rr := render(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `data-user-id="u1">Signed in</span>`)
}

func TestHeaderLoaderSkipsAnonymous(t *testing.T) {
	rc := &shell.RouteContext{Client: apiclient.New("http://127.0.0.1:0", nil)}
	assert.NoError(t, shell.HeaderLoader(context.Background(), rc))
	assert.Empty(t, rc.Username)
}

func TestDevtoolsAndRouteTemplate(t *testing.T) {
	s := shell.New(shell.Options{Dev: true, Logger: testLogger()})
	r := mux.NewRouter()
	r.PathPrefix("/").Handler(s)

	rr := render(t, r, httptest.NewRequest(http.MethodGet, "/posts/1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `class="router-devtools" data-position="bottom-left"`)
	assert.Contains(t, body, "<dt>route</dt><dd>/</dd>")
	assert.Contains(t, body, "<dt>path</dt><dd>/posts/1</dd>")
}

func TestToastsRendered(t *testing.T) {
	store := toast.NewStore([]byte("test-secret-key-32-bytes-long!!!"), false)
	s := shell.New(shell.Options{Toasts: store, Logger: testLogger()})

	set := httptest.NewRecorder()
	require.NoError(t, store.Add(set, httptest.NewRequest(http.MethodPost, "/api/login", nil), toast.Success, "Welcome back"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range set.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := render(t, s, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `<li class="toast" data-type="success">Welcome back</li>`)
}

func TestTemplateEscaping(t *testing.T) {
	s := shell.New(shell.Options{Logger: testLogger()})
	s.Use(func(r *http.Request, rc *shell.RouteContext) error {
		rc.UserID = "</script><script>x"
		rc.Username = "<script>alert(1)</script>"
		return nil
	})

	rr := render(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rr.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.NotContains(t, body, "</script><script>x")
}
