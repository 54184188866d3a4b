package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/martijn/usersapi/internal/core/repository"
	"github.com/martijn/usersapi/internal/core/service"
	"github.com/martijn/usersapi/internal/infrastructure/mongodb"
	"github.com/martijn/usersapi/internal/infrastructure/sqlite"
	"github.com/martijn/usersapi/pkg/config"
	"github.com/martijn/usersapi/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "usersapi",
	Short: "Users API - CRUD service for user records",
	Long: `usersapi serves a REST API over a single collection of user records.

It provides:
- list, get, create, update and delete endpoints under /users
- bcrypt hashing of passwords before they are stored
- a MongoDB store, or an embedded sqlite store for local use
- user management commands for operators`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err = logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file")
}

// store is what every backing store offers besides the repository
type store interface {
	Ping(ctx context.Context) error
	io.Closer
}

// Services holds all initialized services
type Services struct {
	Store       store
	UserRepo    repository.UserRepository
	UserService *service.UserService
}

// initServices opens the configured store and wires the user service.
// It fails when the store cannot be reached within connect_timeout.
func initServices(ctx context.Context) (*Services, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var (
		st       store
		userRepo repository.UserRepository
	)

	switch cfg.StoreDriver {
	case config.DriverMongo:
		db, err := mongodb.New(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		st, userRepo = db, mongodb.NewUserRepository(db)
		log.Info("connected to MongoDB", "database", cfg.MongoDatabase)
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		st, userRepo = db, sqlite.NewUserRepository(db)
		log.Info("opened sqlite store", "path", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.StoreDriver)
	}

	hasher := service.NewPasswordHasher(cfg.BcryptCost)

	return &Services{
		Store:       st,
		UserRepo:    userRepo,
		UserService: service.NewUserService(userRepo, hasher),
	}, nil
}

// Close closes all resources
func (s *Services) Close() {
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			log.Warn("failed to close store", "error", err)
		}
	}
}
