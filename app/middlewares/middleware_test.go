package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/middlewares"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/testutil"
	"github.com/Rakhulsr/go-portal/app/utils/renderer"
	"github.com/Rakhulsr/go-portal/app/views"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireLogin(t *testing.T) {
	h := middlewares.RequireLogin(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todo/tasks?page=2", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next="+url.QueryEscape("/todo/tasks?page=2"), rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/todo/tasks", nil)
	req = req.WithContext(helpers.WithUser(req.Context(), &models.User{ID: 1}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireCapability(t *testing.T) {
	db := testutil.NewDB(t)
	perms := repositories.NewPermissionRepository(db)
	rnd := renderer.New(views.FS, false)
	h := middlewares.RequireCapability(perms, rnd, models.CapAddCar)(ok)
	user := testutil.CreateUser(t, db, "driver@example.com")

	serve := func(u *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/catalog/cars/create", nil)
		if u != nil {
			req = req.WithContext(helpers.WithUser(req.Context(), u))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusFound, serve(nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(user).Code)

	testutil.Grant(t, db, user, models.CapAddCar)
	assert.Equal(t, http.StatusOK, serve(user).Code)
}

func TestAPITokenAuth(t *testing.T) {
	db := testutil.NewDB(t)
	users := repositories.NewUserRepository(db)
	rnd := renderer.New(views.FS, false)
	owner := testutil.CreateUserWithToken(t, db, "api@example.com", "secret-token")

	var seen *models.User
	h := middlewares.APITokenAuth(users, rnd)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = helpers.UserFromContext(r.Context())
	}))

	for _, header := range []string{"", "Bearer", "Bearer ", "Token secret-token", "Bearer wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.JSONEq(t, `{"message":"Bad credentials"}`, rec.Body.String(), header)
	}
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "bearer secret-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, owner.ID, seen.ID)
}

func TestMethodOverrideMiddleware(t *testing.T) {
	var method string
	h := middlewares.MethodOverrideMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))

	cases := []struct {
		name        string
		method      string
		contentType string
		override    string
		want        string
	}{
		{"delete", http.MethodPost, "application/x-www-form-urlencoded", "delete", http.MethodDelete},
		{"put", http.MethodPost, "application/x-www-form-urlencoded", "PUT", http.MethodPut},
		{"unknown override", http.MethodPost, "application/x-www-form-urlencoded", "TRACE", http.MethodPost},
		{"json body", http.MethodPost, "application/json", "DELETE", http.MethodPost},
		{"get", http.MethodGet, "application/x-www-form-urlencoded", "DELETE", http.MethodGet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := url.Values{"_method": {tc.override}}.Encode()
			req := httptest.NewRequest(tc.method, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", tc.contentType)
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, method)
		})
	}
}

func TestSkipCSRF(t *testing.T) {
	key := make([]byte, 32)
	protect := csrf.Protect(key, csrf.Secure(false))
	h := middlewares.SkipCSRF("/api/")(protect(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/topics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/blog/topics/create", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecoverer(t *testing.T) {
	h := middlewares.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAccessLogRequestID(t *testing.T) {
	var buf strings.Builder
	h := middlewares.AccessLog(zerolog.New(&buf))(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/posts", nil))
	id := rec.Header().Get(middlewares.RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Contains(t, buf.String(), id)
	assert.Contains(t, buf.String(), `"status":200`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middlewares.RequestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get(middlewares.RequestIDHeader))
}
