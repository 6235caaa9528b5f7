package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Rana718/botseed/internal/export"
	"github.com/Rana718/botseed/internal/schema"
	"github.com/Rana718/botseed/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	planFile       string
	populateDryRun bool
	populateQuiet  bool
	exportPath     string
	exportFormat   string
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Generate synthetic records",
	Long: `Create tables if they are missing and fill them with synthetic records.

Without --plan the stock dataset is generated:
  5 users, 2 CRM and 2 messenger integrations, 3 segments, 3 contact sources,
  20 contacts, 2 bot scripts, 3 messengers, 15 conversations with 10 messages
  each, and 10 tasks.

Every run is additive: running it twice creates a second, independent batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if exportPath != "" && !populateDryRun {
			return fmt.Errorf("--export requires --dry-run")
		}

		plan := seeder.DefaultPlan()
		path := planFile
		if path == "" {
			path = cfg.Seed.PlanFile
		}
		if path != "" {
			if plan, err = seeder.LoadPlan(path); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		store, err := openStore(ctx, cfg, populateDryRun)
		if err != nil {
			return err
		}
		defer store.Close()

		var opts []seeder.Option
		if populateQuiet {
			opts = append(opts, seeder.WithQuiet())
		}
		s, err := newSeeder(cfg, store, opts...)
		if err != nil {
			return err
		}

		if err := s.Prepare(ctx); err != nil {
			return err
		}

		summary, err := s.Populate(ctx, plan)
		if err != nil {
			if summary != nil && summary.Total() > 0 {
				color.Yellow("⚠️  %d records were written before the failure", summary.Total())
			}
			return err
		}

		if !populateQuiet {
			fmt.Println()
			for _, entity := range summary.Order {
				if n := summary.Count(entity); n > 0 {
					fmt.Printf("   %-14s %d\n", entity, n)
				}
			}
			if populateDryRun {
				color.Yellow("💡 Dry run: nothing was written to the database")
			}
		}

		if exportPath != "" {
			src, ok := store.(export.Source)
			if !ok {
				return fmt.Errorf("store does not support export")
			}
			out, err := export.PerformExport(ctx, schema.BotPlatform(), summary.Order, src, exportPath, exportFormat)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			color.Green("📦 Exported dataset to %s", out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(populateCmd)
	populateCmd.Flags().StringVar(&planFile, "plan", "", "YAML file with per-entity counts")
	populateCmd.Flags().BoolVar(&populateDryRun, "dry-run", false, "Generate into an in-memory store instead of the database")
	populateCmd.Flags().BoolVarP(&populateQuiet, "quiet", "q", false, "Suppress progress output")
	populateCmd.Flags().StringVar(&exportPath, "export", "", "With --dry-run, write the generated dataset to this directory")
	populateCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json, csv or sqlite")
}
