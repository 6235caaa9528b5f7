package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rana718/botseed/internal/database"
	"github.com/Rana718/botseed/internal/schema"
	"github.com/Rana718/botseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var schemaApply bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the insertion order and table definitions",
	Long: `Print the dependency-ordered list of entity types and the CREATE TABLE
statements for the configured database provider.

With --apply the tables are created in the database. Existing tables are
left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		s := schema.BotPlatform()
		if err := s.Validate(); err != nil {
			return err
		}
		order, err := seeder.GraphFromSchema(s).BuildInsertionOrder()
		if err != nil {
			return err
		}

		if !schemaApply {
			ddl, err := database.NewAdapter(cfg.Database.Provider).SchemaSQL(s, order)
			if err != nil {
				return err
			}
			color.Cyan("📋 Insertion order: %s", strings.Join(order, " → "))
			fmt.Println()
			fmt.Println(ddl)
			return nil
		}

		ctx := context.Background()
		store, err := openStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx, s, order); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
		color.Green("✅ Schema is in place (%d tables)", len(order))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaApply, "apply", false, "Create missing tables in the database")
}
