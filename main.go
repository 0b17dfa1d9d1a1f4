package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cppla/grievances/config"
	"github.com/cppla/grievances/routes"
	"github.com/cppla/grievances/utils"
)

var (
	rootCmd = &cobra.Command{
		Use:   "grievances",
		Short: "Grievance board API server",
		RunE:  runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and start the HTTP API",
		RunE:  runServe,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// boot loads configuration and initializes the logger early.
func boot() config.AppConfig {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := boot()
	defer utils.Logger.Sync()

	db := config.InitDatabase(cfg)

	cache := utils.NewCacheFromConfig(cfg)
	defer cache.Close()

	r := routes.SetupRouter(db, cfg, cache)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := boot()
	defer utils.Logger.Sync()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	utils.Sugar.Infof("schema migrated (%s)", cfg.DBDriver)
	return nil
}
