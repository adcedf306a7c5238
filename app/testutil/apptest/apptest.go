// Package apptest wires the whole HTTP stack against an in-memory database
// for handler level tests.
package apptest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/routes"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/Rakhulsr/go-portal/app/testutil"
	"github.com/Rakhulsr/go-portal/app/utils/renderer"
	"github.com/Rakhulsr/go-portal/app/utils/sessions"
	"github.com/Rakhulsr/go-portal/app/views"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Queue records enqueued job names instead of running them.
type Queue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *Queue) Enqueue(_ context.Context, name string, _ any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, name)
	return nil
}

func (q *Queue) Jobs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.jobs...)
}

type App struct {
	DB      *gorm.DB
	Handler http.Handler
	Media   *services.MediaStore
	Queue   *Queue
	Catalog *services.CatalogService
}

// New builds the router with caching disabled and page size 2, API page
// size 5.
func New(t *testing.T) *App {
	t.Helper()

	db := testutil.NewDB(t)
	validate := helpers.NewValidator()
	users := repositories.NewUserRepository(db)
	perms := repositories.NewPermissionRepository(db)
	cars := repositories.NewCarRepository(db)
	manufacturers := repositories.NewManufacturerRepository(db)
	media := services.NewMediaStore(t.TempDir())
	queue := &Queue{}
	catalog := services.NewCatalogService(cars, manufacturers, perms, services.NewCatalogCache(nil, cars, manufacturers), validate)

	handler := routes.NewRouter(routes.Dependencies{
		Render:      renderer.New(views.FS, false),
		Sessions:    sessions.NewCookieSessionStore(false, securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32)),
		Logger:      zerolog.Nop(),
		Users:       users,
		Permissions: perms,
		Accounts:    services.NewAccountService(users, perms, media, validate),
		Blog: services.NewBlogService(
			repositories.NewTopicRepository(db),
			repositories.NewBlogPostRepository(db),
			repositories.NewCommentRepository(db),
			perms, media, queue, validate,
		),
		Tasks:       services.NewTaskService(repositories.NewTaskRepository(db), validate),
		Catalog:     catalog,
		PageSize:    2,
		APIPageSize: 5,
	})

	return &App{DB: db, Handler: handler, Media: media, Queue: queue, Catalog: catalog}
}

func (a *App) Do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, req)
	return rec
}

// Login signs in through the login form and returns the session cookies.
func (a *App) Login(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	rec := a.Do(Form(http.MethodPost, "/login", url.Values{
		"email":    {email},
		"password": {testutil.Password},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func Form(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// JSON builds an API request. body is marshalled unless it is a string.
func JSON(t *testing.T, method, target, token string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// Decode unmarshals a JSON response body into a generic map.
func Decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
