package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieSessionStoreRoundTrip(t *testing.T) {
	store := NewCookieSessionStore(false, securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, store.SetUserID(w, r, 42))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	assert.Equal(t, uint(42), store.GetUserID(next))

	w = httptest.NewRecorder()
	require.NoError(t, store.ClearUserID(w, next))
	cleared := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		cleared.AddCookie(c)
	}
	assert.Equal(t, uint(0), store.GetUserID(cleared))
}

func TestCookieSessionStoreIgnoresForeignCookie(t *testing.T) {
	store := NewCookieSessionStore(false, securecookie.GenerateRandomKey(32))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "garbage"})
	assert.Equal(t, uint(0), store.GetUserID(r))
}
