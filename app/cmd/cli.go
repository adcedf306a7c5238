package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Rakhulsr/go-portal/app/configs"
	"github.com/Rakhulsr/go-portal/app/db/fakers"
	"github.com/Rakhulsr/go-portal/app/db/seeders"
	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/models/migrations"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

const keysFile = ".env.keys"

var (
	success = color.New(color.FgGreen).SprintFunc()
	notice  = color.New(color.FgYellow).SprintFunc()
)

// RunCli runs the command named in args. Without a command the web
// server is started.
func RunCli(args []string) {
	env := configs.LoadEnv()
	configs.InitLogger(env)

	cmd := &cli.Command{
		Name:  "portal",
		Usage: "Blog, todo and car catalog web application",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, env)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the web server",
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, env)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migration",
				Action: func(ctx context.Context, c *cli.Command) error {
					if _, err := openDatabase(env); err != nil {
						return err
					}
					fmt.Println(success("Migration complete"))
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "Fill the database with demo users, posts, tasks and cars",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Value: 5, Usage: "rows per kind"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					db, err := openDatabase(env)
					if err != nil {
						return err
					}
					if err := seeders.DBSeed(ctx, db, int(c.Int("count"))); err != nil {
						return err
					}
					cacheStore, closeCache, err := newCacheStore(ctx, env)
					if err != nil {
						return err
					}
					defer closeCache()
					cars := repositories.NewCarRepository(db)
					if err := services.NewCatalogCache(cacheStore, cars, repositories.NewManufacturerRepository(db)).Refresh(ctx); err != nil {
						log.Warn().Err(err).Msg("failed to refresh catalog cache")
					}
					fmt.Println(success("Seeding complete."), "Demo users log in with", notice(fakers.DemoPassword))
					return nil
				},
			},
			{
				Name:  "generate-keys",
				Usage: "Generate new session authentication and encryption keys for .env",
				Action: func(ctx context.Context, c *cli.Command) error {
					return configs.GenerateAndPrintSessionKeys(os.Stdout, keysFile)
				},
			},
			{
				Name:  "create-superuser",
				Usage: "Create a staff user holding every capability",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					accounts, _, err := accountService(env)
					if err != nil {
						return err
					}
					user, err := accounts.CreateSuperuser(ctx, services.RegisterInput{
						Email:     c.String("email"),
						Password:  c.String("password"),
						FirstName: c.String("first-name"),
						LastName:  c.String("last-name"),
					})
					if err != nil {
						return err
					}
					fmt.Println(success("Superuser created:"), user.Email)
					return nil
				},
			},
			{
				Name:  "grant",
				Usage: "Give a user a capability",
				Flags: capabilityFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					return changeCapability(ctx, env, c, true)
				},
			},
			{
				Name:  "revoke",
				Usage: "Take a capability away from a user",
				Flags: capabilityFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					return changeCapability(ctx, env, c, false)
				},
			},
			{
				Name:  "generate-token",
				Usage: "Issue a new API token for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					accounts, users, err := accountService(env)
					if err != nil {
						return err
					}
					user, err := users.FindByEmail(ctx, c.String("email"))
					if err != nil {
						return fmt.Errorf("find user %s: %w", c.String("email"), err)
					}
					token, err := accounts.GenerateToken(ctx, user)
					if err != nil {
						return err
					}
					fmt.Println(success("Token for"), user.Email+":", token)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func capabilityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true},
		&cli.StringFlag{Name: "capability", Required: true, Usage: "e.g. blog.add_topic"},
	}
}

func changeCapability(ctx context.Context, env configs.ENV, c *cli.Command, grant bool) error {
	capability, ok := models.ParseCapability(c.String("capability"))
	if !ok {
		fmt.Println(notice("Known capabilities:"))
		for _, known := range models.AllCapabilities {
			fmt.Println("  " + string(known))
		}
		return fmt.Errorf("unknown capability %q", c.String("capability"))
	}
	accounts, _, err := accountService(env)
	if err != nil {
		return err
	}
	if grant {
		err = accounts.Grant(ctx, c.String("email"), capability)
	} else {
		err = accounts.Revoke(ctx, c.String("email"), capability)
	}
	if err != nil {
		return err
	}
	fmt.Println(success("Done:"), c.String("email"), capability)
	return nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(env configs.ENV) (*gorm.DB, error) {
	db, err := configs.OpenConnection(env)
	if err != nil {
		return nil, err
	}
	if err := migrations.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func accountService(env configs.ENV) (*services.AccountService, repositories.UserRepositoryImpl, error) {
	db, err := openDatabase(env)
	if err != nil {
		return nil, nil, err
	}
	users := repositories.NewUserRepository(db)
	accounts := services.NewAccountService(
		users,
		repositories.NewPermissionRepository(db),
		services.NewMediaStore(env.MediaRoot),
		helpers.NewValidator(),
	)
	return accounts, users, nil
}
