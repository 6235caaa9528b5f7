package cmd

import (
	"fmt"

	"github.com/Rana718/botseed/internal/config"
	"github.com/Rana718/botseed/internal/logger"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	Version   = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════╗",
		"║   ██████╗  ██████╗ ████████╗███████╗███████╗██████╗ ║",
		"║   ██╔══██╗██╔═══██╗╚══██╔══╝██╔════╝██╔════╝██╔══██╗║",
		"║   ██████╔╝██║   ██║   ██║   ███████╗█████╗  ██║  ██║║",
		"║   ██╔══██╗██║   ██║   ██║   ╚════██║██╔══╝  ██║  ██║║",
		"║   ██████╔╝╚██████╔╝   ██║   ███████║███████╗██████╔╝║",
		"║   ╚═════╝  ╚═════╝    ╚═╝   ╚══════╝╚══════╝╚═════╝ ║",
		"║                                                  ║",
		"║      🤖 Synthetic data for bot platforms 🤖      ║",
		"╚══════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "botseed",
	Short: "Populate a bot platform database with realistic synthetic data",
	Long: `
BotSeed fills a customer-engagement bot platform database with synthetic
users, integrations, contacts, conversations, messages and tasks.

Referenced records are always created before the records that point at
them, and every generated row satisfies the model's invariants.

Database Support:
- PostgreSQL
- MySQL
- SQLite (default, ./bot_database.db)
- In-memory store (--dry-run)`,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("BotSeed CLI version %s\n", Version)
			return nil
		}

		showBanner()
		fmt.Println()
		return cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./botseed.config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("botseed.config")
	}

	viper.SetEnvPrefix("BOTSEED")
	viper.AutomaticEnv()

	viper.ReadInConfig()
}

// loadConfig reads the merged configuration, applies command-line overrides
// and configures logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
