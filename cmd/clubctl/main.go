package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KilloQ/StudentsClubs/config"
	"github.com/KilloQ/StudentsClubs/internal/repository"
	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/database"
	"github.com/KilloQ/StudentsClubs/pkg/jwt"
	applogger "github.com/KilloQ/StudentsClubs/pkg/logger"
)

// env holds what every subcommand needs.
type env struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *zap.Logger
}

func main() {
	app := &cli.App{
		Name:  "clubctl",
		Usage: "student clubs administration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the YAML config file",
				EnvVars: []string{"CLUBS_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			teacherCommand(),
			usersCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func connect(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db, logger: logger}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.logger.Sync()
}

// withEnv opens the database for the duration of one action.
func withEnv(action func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := connect(c)
		if err != nil {
			return err
		}
		defer e.close()
		return action(c, e)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withEnv(func(_ *cli.Context, e *env) error {
					sqlDB, err := e.db.DB()
					if err != nil {
						return err
					}
					return database.RunMigrations(sqlDB, e.logger)
				}),
			},
			{
				Name:  "down",
				Usage: "roll back the last migration",
				Action: withEnv(func(_ *cli.Context, e *env) error {
					sqlDB, err := e.db.DB()
					if err != nil {
						return err
					}
					return database.RollbackMigration(sqlDB, e.logger)
				}),
			},
			{
				Name:  "version",
				Usage: "print the applied schema version",
				Action: withEnv(func(_ *cli.Context, e *env) error {
					sqlDB, err := e.db.DB()
					if err != nil {
						return err
					}
					version, dirty, err := database.MigrationVersion(sqlDB)
					if err != nil {
						return err
					}
					fmt.Printf("version %d (dirty: %t)\n", version, dirty)
					return nil
				}),
			},
		},
	}
}

// teacherCommand creates teacher accounts; registration over HTTP only creates students.
func teacherCommand() *cli.Command {
	return &cli.Command{
		Name:  "teacher",
		Usage: "teacher accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a teacher account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "full-name", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"CLUBS_TEACHER_PASSWORD"}},
				},
				Action: withEnv(func(c *cli.Context, e *env) error {
					repo := repository.NewRepository(e.db)
					auth := service.NewAuthService(repo, jwt.NewManager(&e.cfg.Auth), nil, nil, e.logger)

					user, err := auth.CreateTeacher(context.Background(), c.String("username"), c.String("full-name"), c.String("password"))
					if err != nil {
						return err
					}
					fmt.Printf("created teacher %s (id %d)\n", user.Username, user.ID)
					return nil
				}),
			},
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "list accounts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "teachers", Usage: "only teacher accounts"},
		},
		Action: withEnv(func(c *cli.Context, e *env) error {
			users, err := repository.NewRepository(e.db).User.List(c.Context, c.Bool("teachers"))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tFULL NAME\tROLE")
			for _, u := range users {
				role := "student"
				if u.IsTeacher {
					role = "teacher"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.FullName, role)
			}
			return w.Flush()
		}),
	}
}
