package cmd

import (
	"context"
	"fmt"

	"github.com/Rana718/botseed/internal/schema"
	"github.com/Rana718/botseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every stored relation points at an existing record",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := context.Background()
		store, err := openStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := seeder.Verify(ctx, schema.BotPlatform(), store)
		if err != nil {
			return err
		}

		var orphans int64
		for _, f := range report.Findings {
			if f.Orphans > 0 {
				color.Red("❌ %s.%s → %s: %d orphaned rows", f.Entity, f.Column, f.Target, f.Orphans)
				orphans += f.Orphans
			} else {
				color.Green("✅ %s.%s → %s", f.Entity, f.Column, f.Target)
			}
		}

		if !report.OK() {
			return fmt.Errorf("referential check failed: %d orphaned rows", orphans)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
