package main

import (
	"fmt"
	"time"

	"github.com/ikkim/qna-forum-backend/config"
	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/repository"
	"github.com/ikkim/qna-forum-backend/internal/cache"
	"github.com/ikkim/qna-forum-backend/internal/db"
	"github.com/ikkim/qna-forum-backend/internal/scheduler"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"github.com/ikkim/qna-forum-backend/pkg/redis"
	"github.com/ikkim/qna-forum-backend/pkg/util"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env carries what every subcommand needs; tests swap openDB for SQLite.
type env struct {
	loadConfig func() (*config.Config, error)
	openDB     func(cfg *config.Config) (*gorm.DB, func(), error)
}

func defaultEnv() *env {
	return &env{
		loadConfig: config.Load,
		openDB: func(cfg *config.Config) (*gorm.DB, func(), error) {
			if err := db.Initialize(&cfg.Database); err != nil {
				return nil, nil, err
			}
			return db.GetDB(), func() { _ = db.Close() }, nil
		},
	}
}

func newRootCmd(e *env) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Administrative tasks for the Q&A forum backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Initialize(logger.Config{
				Level:  logLevel,
				Format: "console",
				Output: cmd.ErrOrStderr(),
			})
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCmd(e),
		newSeedCmd(e),
		newTokenCmd(e),
		newReconcileCmd(e),
	)
	return root
}

// withDB loads configuration, opens the database and runs fn.
func (e *env) withDB(fn func(cfg *config.Config, conn *gorm.DB) error) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conn, closeFn, err := e.openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeFn()
	return fn(cfg, conn)
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withDB(func(_ *config.Config, conn *gorm.DB) error {
				if err := db.MigrateDB(conn); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users, a post and a reply thread (idempotent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withDB(func(_ *config.Config, conn *gorm.DB) error {
				if err := db.MigrateDB(conn); err != nil {
					return err
				}
				if err := db.Seed(conn); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data ready")
				return nil
			})
		},
	}
}

func newTokenCmd(e *env) *cobra.Command {
	var (
		userID uint
		email  string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token for an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 && email == "" {
				return fmt.Errorf("one of --user-id or --email is required")
			}
			return e.withDB(func(cfg *config.Config, conn *gorm.DB) error {
				if cfg.Server.Environment == "production" {
					return fmt.Errorf("token issuing is disabled in production")
				}

				users := repository.NewUserRepository(conn)
				var (
					user *model.User
					err  error
				)
				if userID != 0 {
					user, err = users.FindByID(userID)
				} else {
					user, err = users.FindByEmail(email)
				}
				if err != nil {
					return fmt.Errorf("find user: %w", err)
				}

				accessExpiry := cfg.JWT.AccessTokenExpiry
				if expiry > 0 {
					accessExpiry = expiry
				}
				tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), cfg.JWT.Secret, accessExpiry, cfg.JWT.RefreshTokenExpiry)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tokens.AccessToken)
				return nil
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user-id", 0, "user id")
	cmd.Flags().StringVar(&email, "email", "", "user email (ignored when --user-id is set)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "access token lifetime (default JWT_ACCESS_TOKEN_EXPIRY)")
	return cmd
}

func newReconcileCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile-votes",
		Short: "Repair vote_score columns that disagree with the votes table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withDB(func(cfg *config.Config, conn *gorm.DB) error {
				job := scheduler.NewVoteReconcileScheduler(repository.NewVoteRepository(conn), cfg.Scheduler.VoteReconcileSpec)
				// the server's in-process cache is out of reach; only a shared Redis cache can be flushed
				if cfg.Redis.Enabled {
					if err := redis.Init(&cfg.Redis); err != nil {
						return fmt.Errorf("connect redis: %w", err)
					}
					defer redis.Close()
					replyCache, err := cache.New(cfg.Cache, redis.GetClient())
					if err != nil {
						return err
					}
					job.WithReplyCache(replyCache)
				}
				repaired, err := job.RunOnce()
				if err != nil {
					return err
				}
				for _, target := range []model.VoteTarget{model.VoteTargetPost, model.VoteTargetReply} {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d repaired\n", target, repaired[target])
				}
				return nil
			})
		},
	}
}
