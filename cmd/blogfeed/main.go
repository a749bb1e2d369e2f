package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MosinFAM/blog-feed/internal/api"
	"github.com/MosinFAM/blog-feed/internal/config"
	"github.com/MosinFAM/blog-feed/internal/db"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

var (
	// Version задаётся через ldflags при сборке
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "blogfeed",
	Short:   "Blog feeds with groups, follows and a cached index page",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(groupCmd)

	tokenCmd.Flags().Int64("user-id", 0, "ID of the user the token is issued to")
	tokenCmd.Flags().Bool("admin", false, "Grant admin access")
	_ = tokenCmd.MarkFlagRequired("user-id")

	userAddCmd.Flags().String("display-name", "", "Display name")
	userCmd.AddCommand(userAddCmd)

	groupAddCmd.Flags().String("title", "", "Group title")
	groupAddCmd.Flags().String("description", "", "Group description")
	groupCmd.AddCommand(groupAddCmd)
}

// loadConfig читает конфиг из --config и настраивает логирование
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	return cfg, nil
}

// openStore создаёт хранилище по cfg.Storage.Type. Возвращаемая функция закрывает соединение с БД.
func openStore(ctx context.Context, cfg config.Config, migrate bool) (storage.Storage, func(), error) {
	switch cfg.Storage.Type {
	case config.StoragePostgres:
		conn, err := db.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		pg := storage.NewPostgresStorage(conn, cfg.Storage.DSN)
		if migrate {
			if err := pg.InitDB(cfg.Storage.MigrationsDir); err != nil {
				_ = conn.Close()
				return nil, nil, err
			}
		}
		return pg, func() { _ = conn.Close() }, nil
	case config.StorageMemory:
		return storage.NewMemoryStorage(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, closeStore, err := openStore(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := seedStore(ctx, store, cfg.Seed); err != nil {
			return err
		}

		logger := log.WithComponent("main")
		logger.Info().
			Str("storage", cfg.Storage.Type).
			Int("page_size", cfg.PageSize).
			Dur("cache_ttl", cfg.CacheTTL).
			Msg("Starting blogfeed")

		return api.NewServer(cfg, store).Run(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Storage.Type != config.StoragePostgres {
			return errors.New("migrations require postgres storage")
		}
		_, closeStore, err := openStore(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		closeStore()
		fmt.Println("✓ Migrations applied")
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed access token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		userID, _ := cmd.Flags().GetInt64("user-id")
		admin, _ := cmd.Flags().GetBool("admin")

		token, err := api.IssueToken(cfg.Auth.Secret, userID, admin, cfg.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

// Пользователи и группы живут в БД, для in-memory хранилища команды
// бессмысленны: данные пропадут вместе с процессом. Там их заводит секция seed конфига.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := persistentStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		displayName, _ := cmd.Flags().GetString("display-name")
		user := &models.User{Username: args[0], DisplayName: displayName}
		if err := store.CreateUser(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Printf("✓ User %s created with id %d\n", user.Username, user.ID)
		return nil
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
}

var groupAddCmd = &cobra.Command{
	Use:   "add SLUG",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := persistentStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		group := &models.Group{Slug: args[0], Title: title, Description: description}
		if err := store.CreateGroup(cmd.Context(), group); err != nil {
			return err
		}
		fmt.Printf("✓ Group %s created\n", group.Slug)
		return nil
	},
}

func persistentStore(cmd *cobra.Command) (storage.Storage, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Type != config.StoragePostgres {
		return nil, nil, errors.New("this command requires postgres storage")
	}
	return openStore(cmd.Context(), cfg, false)
}
