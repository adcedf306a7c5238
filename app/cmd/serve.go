package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rakhulsr/go-portal/app/configs"
	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/routes"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/Rakhulsr/go-portal/app/utils/renderer"
	"github.com/Rakhulsr/go-portal/app/utils/sessions"
	"github.com/Rakhulsr/go-portal/app/views"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func banner(env configs.ENV) {
	title := color.New(color.FgCyan, color.Bold)
	title.Println("Portal")
	fmt.Printf("  env %s, listening on %s\n", notice(env.AppEnv), notice(env.Port))
}

func newCacheStore(ctx context.Context, env configs.ENV) (store.StoreInterface, func(), error) {
	switch {
	case env.NoCache:
		log.Info().Msg("catalog cache disabled")
		return nil, func() {}, nil
	case env.CacheURL != "":
		client, err := configs.NewRedisClient(ctx, env.CacheURL)
		if err != nil {
			return nil, nil, fmt.Errorf("cache: %w", err)
		}
		log.Info().Msg("catalog cache backed by redis")
		return services.NewRedisCacheStore(client), func() { client.Close() }, nil
	}
	s, err := services.NewLocalCacheStore()
	if err != nil {
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	return s, func() {}, nil
}

// startQueue returns the job queue and a function that stops its workers.
func startQueue(ctx context.Context, env configs.ENV, registry *services.JobRegistry) (services.JobQueue, func(), error) {
	if env.BrokerURL == "" {
		queue := services.NewMemoryQueue(registry, 0)
		queue.Start(env.JobWorkers)
		return queue, queue.Stop, nil
	}

	client, err := configs.NewRedisClient(ctx, env.BrokerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("broker: %w", err)
	}
	workerCtx, cancel := context.WithCancel(context.Background())
	queue := services.NewRedisQueue(client, registry)
	queue.Start(workerCtx, env.JobWorkers)
	log.Info().Int("workers", env.JobWorkers).Msg("job workers consuming from redis")
	return queue, func() {
		cancel()
		queue.Wait()
		client.Close()
	}, nil
}

func serve(ctx context.Context, env configs.ENV) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(env)
	if err != nil {
		return err
	}

	validate := helpers.NewValidator()
	users := repositories.NewUserRepository(db)
	perms := repositories.NewPermissionRepository(db)
	comments := repositories.NewCommentRepository(db)
	posts := repositories.NewBlogPostRepository(db)
	cars := repositories.NewCarRepository(db)
	manufacturers := repositories.NewManufacturerRepository(db)
	media := services.NewMediaStore(env.MediaRoot)

	cacheStore, closeCache, err := newCacheStore(ctx, env)
	if err != nil {
		return err
	}
	defer closeCache()

	mailer := services.NewMailer(services.Config{
		Host:     env.EmailHost,
		Port:     env.EmailPort,
		Username: env.EmailUsername,
		Password: env.EmailPassword,
		From:     env.EmailFrom,
	})
	registry := services.NewJobRegistry()
	registry.Register(services.JobCommentEmail, services.NewCommentEmailJob(comments, mailer, env.NotifyEmail, env.AppURL))
	queue, stopQueue, err := startQueue(ctx, env, registry)
	if err != nil {
		return err
	}
	defer stopQueue()

	scheduler, err := services.NewScheduler(services.NewMediaJanitor(media, posts, users))
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	keys, err := configs.LoadSessionKeys(env)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Render:       renderer.New(views.FS, !env.IsProduction()),
		Sessions:     sessions.NewCookieSessionStore(env.IsProduction(), keys.AuthKey, keys.EncKey),
		CSRFKey:      keys.CSRFKey(),
		SecureCookie: env.IsProduction(),
		Logger:       log.Logger,
		Users:        users,
		Permissions:  perms,
		Accounts:     services.NewAccountService(users, perms, media, validate),
		Blog: services.NewBlogService(
			repositories.NewTopicRepository(db),
			posts,
			comments,
			perms,
			media,
			queue,
			validate,
		),
		Tasks:       services.NewTaskService(repositories.NewTaskRepository(db), validate),
		Catalog:     services.NewCatalogService(cars, manufacturers, perms, services.NewCatalogCache(cacheStore, cars, manufacturers), validate),
		PageSize:    env.PaginationSize,
		APIPageSize: env.APIPaginationSize,
	})

	server := &http.Server{
		Addr:              env.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		banner(env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
