package bootstrap_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"appshell/pkg/bootstrap"
	"appshell/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const cookieName = "appshell.session_token"

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) FetchSession(r *http.Request) (*session.Session, error) {
	args := m.Called(r)
	if s := args.Get(0); s != nil {
		return s.(*session.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) CookieName() string {
	return m.Called().String(0)
}

// cookieBackend resolves a session for a fixed set of tokens.
type cookieBackend struct {
	users map[string]string
}

func (b cookieBackend) FetchSession(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil, nil
	}
	if uid, ok := b.users[c.Value]; ok {
		return &session.Session{ID: "s-" + uid, UserID: uid}, nil
	}
	return nil, nil
}

func (cookieBackend) CookieName() string {
	return cookieName
}

func newRequest(cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestFetchAuth_NothingPresent(t *testing.T) {
	m := new(mockBackend)
	r := newRequest()
	m.On("FetchSession", r).Return(nil, nil)
	m.On("CookieName").Return(cookieName)

	id, err := bootstrap.FetchAuth(r, m)

	require.NoError(t, err)
	assert.Equal(t, bootstrap.Identity{}, id)
	assert.False(t, id.Authenticated())
	m.AssertExpectations(t)
}

func TestFetchAuth_SessionWithoutReadableCookie(t *testing.T) {
	m := new(mockBackend)
	// the session was resolved from a cookie the backend no longer names
	r := newRequest(&http.Cookie{Name: "legacy.session_token", Value: "tok"})
	m.On("FetchSession", r).Return(&session.Session{ID: "s1", UserID: "u1"}, nil)
	m.On("CookieName").Return(cookieName)

	id, err := bootstrap.FetchAuth(r, m)

	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Empty(t, id.Token)
}

func TestFetchAuth_CookieWithoutSession(t *testing.T) {
	b := cookieBackend{users: map[string]string{}}
	r := newRequest(&http.Cookie{Name: cookieName, Value: "stale-token"})

	id, err := bootstrap.FetchAuth(r, b)

	require.NoError(t, err)
	assert.Empty(t, id.UserID)
	assert.Equal(t, "stale-token", id.Token)
}

func TestFetchAuth_Both(t *testing.T) {
	raw := "eyJhbGciOiJIUzI1NiJ9.payload.sig"
	b := cookieBackend{users: map[string]string{raw: "u1"}}
	r := newRequest(&http.Cookie{Name: cookieName, Value: raw})

	id, err := bootstrap.FetchAuth(r, b)

	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, raw, id.Token)
	assert.True(t, id.Authenticated())
}

func TestFetchAuth_NoLeakBetweenRequests(t *testing.T) {
	b := cookieBackend{users: map[string]string{"tok-a": "user-a"}}

	first, err := bootstrap.FetchAuth(newRequest(&http.Cookie{Name: cookieName, Value: "tok-a"}), b)
	require.NoError(t, err)
	assert.Equal(t, bootstrap.Identity{UserID: "user-a", Token: "tok-a"}, first)

	second, err := bootstrap.FetchAuth(newRequest(), b)
	require.NoError(t, err)
	assert.Equal(t, bootstrap.Identity{}, second)

	third, err := bootstrap.FetchAuth(newRequest(&http.Cookie{Name: cookieName, Value: "tok-b"}), b)
	require.NoError(t, err)
	assert.Equal(t, bootstrap.Identity{Token: "tok-b"}, third)
}

func TestFetchAuth_BackendFailure(t *testing.T) {
	boom := errors.New("session store unreachable")
	m := new(mockBackend)
	r := newRequest(&http.Cookie{Name: cookieName, Value: "tok"})
	m.On("FetchSession", r).Return(nil, boom)

	id, err := bootstrap.FetchAuth(r, m)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, bootstrap.Identity{}, id)
	m.AssertNotCalled(t, "CookieName")
}

func TestFetchAuth_NilRequest(t *testing.T) {
	_, err := bootstrap.FetchAuth(nil, new(mockBackend))
	assert.ErrorIs(t, err, bootstrap.ErrNoRequest)
}

func TestIdentityJSON(t *testing.T) {
	raw, err := json.Marshal(bootstrap.Identity{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = json.Marshal(bootstrap.Identity{UserID: "u1", Token: "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u1","token":"t"}`, string(raw))
}
