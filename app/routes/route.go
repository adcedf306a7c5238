package routes

import (
	"net/http"
	"os"

	"github.com/Rakhulsr/go-portal/app/handlers"
	"github.com/Rakhulsr/go-portal/app/handlers/api"
	"github.com/Rakhulsr/go-portal/app/middlewares"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/Rakhulsr/go-portal/app/utils/sessions"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/unrolled/render"
)

// Dependencies is everything the router needs. CSRFKey may be nil, which
// leaves page forms unprotected; only tests do that.
type Dependencies struct {
	Render       *render.Render
	Sessions     sessions.SessionStore
	CSRFKey      []byte
	SecureCookie bool
	Logger       zerolog.Logger

	Users       repositories.UserRepositoryImpl
	Permissions repositories.PermissionRepositoryImpl

	Accounts *services.AccountService
	Blog     *services.BlogService
	Tasks    *services.TaskService
	Catalog  *services.CatalogService

	PageSize    int
	APIPageSize int
}

func NewRouter(deps Dependencies) http.Handler {
	router := mux.NewRouter()
	router.Use(
		middlewares.AccessLog(deps.Logger),
		middlewares.SessionUserMiddleware(deps.Sessions, deps.Users),
	)
	if deps.CSRFKey != nil {
		router.Use(
			middlewares.SkipCSRF("/api/"),
			csrf.Protect(deps.CSRFKey, csrf.Secure(deps.SecureCookie), csrf.Path("/")),
		)
	}

	registerAPI(router, deps)
	registerPages(router, deps)

	media := http.StripPrefix(services.MediaURLPrefix, http.FileServer(filesOnly{http.Dir(deps.Blog.Media().Root())}))
	router.PathPrefix(services.MediaURLPrefix).Handler(media).Methods(http.MethodGet, http.MethodHead)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middlewares.NotFound(deps.Render, w, r)
	})

	return middlewares.Recoverer(middlewares.MethodOverrideMiddleware(router))
}

// filesOnly hides directories so the media tree cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func registerAPI(router *mux.Router, deps Dependencies) {
	h := api.NewHandler(deps.Render, deps.Blog, deps.Tasks, deps.Catalog, deps.APIPageSize)

	r := router.PathPrefix("/api/v1").Subrouter()
	r.Use(middlewares.APITokenAuth(deps.Users, deps.Render))
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	r.HandleFunc("/blog/topic", h.ListTopics).Methods(http.MethodGet)
	r.HandleFunc("/blog/topic", h.CreateTopic).Methods(http.MethodPost)
	r.HandleFunc("/blog/topic/{id:[0-9]+}", h.GetTopic).Methods(http.MethodGet)
	r.HandleFunc("/blog/topic/{id:[0-9]+}", h.UpdateTopic).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/blog/topic/{id:[0-9]+}", h.DeleteTopic).Methods(http.MethodDelete)

	r.HandleFunc("/blog/post", h.ListPosts).Methods(http.MethodGet)
	r.HandleFunc("/blog/post", h.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/blog/post/{id:[0-9]+}", h.GetPost).Methods(http.MethodGet)
	r.HandleFunc("/blog/post/{id:[0-9]+}", h.UpdatePost).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/blog/post/{id:[0-9]+}", h.DeletePost).Methods(http.MethodDelete)

	r.HandleFunc("/todo/task", h.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("/todo/task", h.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/todo/task/{id:[0-9]+}", h.GetTask).Methods(http.MethodGet)
	r.HandleFunc("/todo/task/{id:[0-9]+}", h.UpdateTask).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/todo/task/{id:[0-9]+}", h.DeleteTask).Methods(http.MethodDelete)

	r.HandleFunc("/catalog/car", h.ListCars).Methods(http.MethodGet)
	r.HandleFunc("/catalog/manufacturer", h.ListManufacturers).Methods(http.MethodGet)
}

func registerPages(router *mux.Router, deps Dependencies) {
	login := func(f http.HandlerFunc) http.Handler {
		return middlewares.RequireLogin(f)
	}
	can := func(capability models.Capability, f http.HandlerFunc) http.Handler {
		return middlewares.RequireCapability(deps.Permissions, deps.Render, capability)(f)
	}

	home := handlers.NewHomeHandler(deps.Render, deps.Blog)
	router.HandleFunc("/", home.Home).Methods(http.MethodGet)

	auth := handlers.NewAuthHandler(deps.Render, deps.Accounts, deps.Sessions)
	router.HandleFunc("/login", auth.LoginGetHandler).Methods(http.MethodGet)
	router.HandleFunc("/login", auth.LoginPostHandler).Methods(http.MethodPost)
	router.HandleFunc("/logout", auth.LogoutHandler).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/create_user", auth.CreateUserGetHandler).Methods(http.MethodGet)
	router.HandleFunc("/create_user", auth.CreateUserPostHandler).Methods(http.MethodPost)
	router.Handle("/edit_user", login(auth.EditUserGetHandler)).Methods(http.MethodGet)
	router.Handle("/edit_user", login(auth.EditUserPostHandler)).Methods(http.MethodPost)
	router.Handle("/reset_password", login(auth.ResetPasswordGetHandler)).Methods(http.MethodGet)
	router.Handle("/reset_password", login(auth.ResetPasswordPostHandler)).Methods(http.MethodPost)
	router.Handle("/delete_account", login(auth.DeleteAccountGetHandler)).Methods(http.MethodGet)
	router.Handle("/delete_account", login(auth.DeleteAccountPostHandler)).Methods(http.MethodPost)
	router.Handle("/generate_token", login(auth.GenerateTokenGetHandler)).Methods(http.MethodGet)
	router.Handle("/generate_token", login(auth.GenerateTokenPostHandler)).Methods(http.MethodPost)

	blog := handlers.NewBlogHandler(deps.Render, deps.Blog, deps.PageSize)
	router.HandleFunc("/blog/topics", blog.TopicList).Methods(http.MethodGet)
	router.HandleFunc("/blog/topics/detail/{id:[0-9]+}", blog.TopicDetail).Methods(http.MethodGet)
	router.Handle("/blog/topics/create", can(models.CapAddTopic, blog.TopicCreateGet)).Methods(http.MethodGet)
	router.Handle("/blog/topics/create", can(models.CapAddTopic, blog.TopicCreatePost)).Methods(http.MethodPost)
	router.Handle("/blog/topics/update/{id:[0-9]+}", can(models.CapChangeTopic, blog.TopicUpdateGet)).Methods(http.MethodGet)
	router.Handle("/blog/topics/update/{id:[0-9]+}", can(models.CapChangeTopic, blog.TopicUpdatePost)).Methods(http.MethodPost, http.MethodPut)
	router.Handle("/blog/topics/delete/{id:[0-9]+}", can(models.CapDeleteTopic, blog.TopicDeleteGet)).Methods(http.MethodGet)
	router.Handle("/blog/topics/delete/{id:[0-9]+}", can(models.CapDeleteTopic, blog.TopicDeletePost)).Methods(http.MethodPost, http.MethodDelete)

	router.HandleFunc("/blog/posts", blog.PostList).Methods(http.MethodGet)
	router.HandleFunc("/blog/posts/detail/{id:[0-9]+}", blog.PostDetail).Methods(http.MethodGet)
	router.Handle("/blog/posts/create", can(models.CapAddBlogPost, blog.PostCreateGet)).Methods(http.MethodGet)
	router.Handle("/blog/posts/create", can(models.CapAddBlogPost, blog.PostCreatePost)).Methods(http.MethodPost)
	router.Handle("/blog/posts/update/{id:[0-9]+}", can(models.CapChangeBlogPost, blog.PostUpdateGet)).Methods(http.MethodGet)
	router.Handle("/blog/posts/update/{id:[0-9]+}", can(models.CapChangeBlogPost, blog.PostUpdatePost)).Methods(http.MethodPost, http.MethodPut)
	router.Handle("/blog/posts/delete/{id:[0-9]+}", can(models.CapDeleteBlogPost, blog.PostDeleteGet)).Methods(http.MethodGet)
	router.Handle("/blog/posts/delete/{id:[0-9]+}", can(models.CapDeleteBlogPost, blog.PostDeletePost)).Methods(http.MethodPost, http.MethodDelete)

	router.Handle("/blog/comments/add", login(blog.AddComment)).Methods(http.MethodPost)
	router.Handle("/blog/comments/remove/{id:[0-9]+}", login(blog.RemoveComment)).Methods(http.MethodPost, http.MethodDelete)

	tasks := handlers.NewTaskHandler(deps.Render, deps.Tasks, deps.PageSize)
	router.Handle("/todo/tasks", login(tasks.TaskList)).Methods(http.MethodGet)
	router.Handle("/todo/tasks/detail/{id:[0-9]+}", login(tasks.TaskDetail)).Methods(http.MethodGet)
	router.Handle("/todo/tasks/create", login(tasks.TaskCreateGet)).Methods(http.MethodGet)
	router.Handle("/todo/tasks/create", login(tasks.TaskCreatePost)).Methods(http.MethodPost)
	router.Handle("/todo/tasks/update/{id:[0-9]+}", login(tasks.TaskUpdateGet)).Methods(http.MethodGet)
	router.Handle("/todo/tasks/update/{id:[0-9]+}", login(tasks.TaskUpdatePost)).Methods(http.MethodPost, http.MethodPut)
	router.Handle("/todo/tasks/delete/{id:[0-9]+}", login(tasks.TaskDeleteGet)).Methods(http.MethodGet)
	router.Handle("/todo/tasks/delete/{id:[0-9]+}", login(tasks.TaskDeletePost)).Methods(http.MethodPost, http.MethodDelete)

	catalog := handlers.NewCatalogHandler(deps.Render, deps.Catalog, deps.PageSize)
	router.HandleFunc("/catalog/manufacturers", catalog.ManufacturerList).Methods(http.MethodGet)
	router.HandleFunc("/catalog/manufacturers/detail/{id:[0-9]+}", catalog.ManufacturerDetail).Methods(http.MethodGet)
	router.Handle("/catalog/manufacturers/create", can(models.CapAddManufacturer, catalog.ManufacturerCreateGet)).Methods(http.MethodGet)
	router.Handle("/catalog/manufacturers/create", can(models.CapAddManufacturer, catalog.ManufacturerCreatePost)).Methods(http.MethodPost)
	router.Handle("/catalog/manufacturers/update/{id:[0-9]+}", can(models.CapChangeManufacturer, catalog.ManufacturerUpdateGet)).Methods(http.MethodGet)
	router.Handle("/catalog/manufacturers/update/{id:[0-9]+}", can(models.CapChangeManufacturer, catalog.ManufacturerUpdatePost)).Methods(http.MethodPost, http.MethodPut)
	router.Handle("/catalog/manufacturers/delete/{id:[0-9]+}", can(models.CapDeleteManufacturer, catalog.ManufacturerDeleteGet)).Methods(http.MethodGet)
	router.Handle("/catalog/manufacturers/delete/{id:[0-9]+}", can(models.CapDeleteManufacturer, catalog.ManufacturerDeletePost)).Methods(http.MethodPost, http.MethodDelete)

	router.HandleFunc("/catalog/cars", catalog.CarList).Methods(http.MethodGet)
	router.HandleFunc("/catalog/cars/detail/{id:[0-9]+}", catalog.CarDetail).Methods(http.MethodGet)
	router.Handle("/catalog/cars/create", can(models.CapAddCar, catalog.CarCreateGet)).Methods(http.MethodGet)
	router.Handle("/catalog/cars/create", can(models.CapAddCar, catalog.CarCreatePost)).Methods(http.MethodPost)
	router.Handle("/catalog/cars/update/{id:[0-9]+}", can(models.CapChangeCar, catalog.CarUpdateGet)).Methods(http.MethodGet)
	router.Handle("/catalog/cars/update/{id:[0-9]+}", can(models.CapChangeCar, catalog.CarUpdatePost)).Methods(http.MethodPost, http.MethodPut)
	router.Handle("/catalog/cars/delete/{id:[0-9]+}", can(models.CapDeleteCar, catalog.CarDeleteGet)).Methods(http.MethodGet)
	router.Handle("/catalog/cars/delete/{id:[0-9]+}", can(models.CapDeleteCar, catalog.CarDeletePost)).Methods(http.MethodPost, http.MethodDelete)
}
