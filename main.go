package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dododo1295/studyroute/config"
	"github.com/dododo1295/studyroute/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "studyroute",
	Short: "Study route backend",
	Long: `studyroute stores learners, their generated study routes, activity
progress, points and notes, and serves them over a JSON API.

Available subcommands:
  serve   - Run the HTTP API
  migrate - Create tables and indexes for the configured store
  import  - Load a users document into the configured store`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return err
		}
		if _, err := utils.InitLogger(cfg.Env, cfg.LogLevel); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		utils.InitValidator()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = utils.Logger().Sync()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), cfg)
	},
}

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a users document into the configured store",
	Long: `Reads a { "users": { "<email>": {...} } } document, the layout the
file and jsonbin drivers keep, and inserts every user the store does not
already hold. Existing users are left untouched. Plaintext passwords are
kept and upgraded to argon2id on the user's next login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), cfg, importFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "path of the users document")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.Logger().Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
