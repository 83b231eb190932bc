package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tenantry/tenantry/internal/engine/conf"
	"github.com/tenantry/tenantry/internal/engine/model"
	"github.com/tenantry/tenantry/pkg/database"
	"github.com/tenantry/tenantry/pkg/log"
	"github.com/tenantry/tenantry/pkg/version"
)

/**
 * @author: gagral.x@gmail.com
 * @time: 2024/9/4 19:51
 * @file: main.go
 * @description: cli program
 */

var configFile string

var rootCmd = &cobra.Command{
	Use:   "tenantry-cli",
	Short: "tenantry cli is a command line tool",
	Long:  "tenantry cli is a command line tool",
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			return
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "run database schema migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.MustInit(log.SetDefaults())

		appConf := conf.NewConf(configFile)
		db, err := database.NewDatabase(appConf.Database)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}

		if err := db.AutoMigrate(
			&model.Organization{},
			&model.OrganizationMember{},
			&model.SubscriptionPlan{},
			&model.Subscription{},
			&model.UsageTracking{},
			&model.ApiKey{},
			&model.FeatureFlag{},
		); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}

		fmt.Println("migration complete")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path")
	rootCmd.AddCommand(version.VersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
