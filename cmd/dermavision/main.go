package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dermavision "github.com/unowned-ai/dermavision/pkg"
	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/config"
	pkgdb "github.com/unowned-ai/dermavision/pkg/db"
	"github.com/unowned-ai/dermavision/pkg/kv"
	"github.com/unowned-ai/dermavision/pkg/logging"
	"github.com/unowned-ai/dermavision/pkg/utils"
)

var (
	settings   = config.New()
	cfg        config.Config
	logger     = zap.NewNop()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "dermavision",
	Short: "Analyze skin photos with Gemini and keep a local skin journal.",
	Long: `dermavision sends a photo of your skin to Google's Gemini model, shows the
issues it finds with food and over-the-counter recommendations, and keeps the
results you choose to save in a local journal you can annotate and export.

The analysis is informational only and is not a medical diagnosis.`,
	Version:       fmt.Sprintf("v%s", dermavision.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ReadFile(settings, configFile); err != nil {
			return err
		}
		loaded, err := config.Load(settings)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for dermavision.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(dermavision completion bash)

  Zsh:
    $ dermavision completion zsh > "${fpath[1]}/_dermavision"

  Fish:
    $ dermavision completion fish > ~/.config/fish/completions/dermavision.fish

  PowerShell:
    PS> dermavision completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of dermavision",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), dermavision.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the dermavision database",
	Long:  `Provides commands for managing the dermavision SQLite database, including schema upgrades.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the journal database schema to the latest version",
	Long: `Connects to the SQLite database (the --db flag, DERMAVISION_DB, or the system default)
and applies any schema migrations needed for the journal store. A missing database is
created and initialized with the latest schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := utils.ResolveAndEnsureDBPath(cfg.DBPath)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Upgrading journal store in database at: %s (WAL: %t, Sync: %s)\n", path, cfg.WAL, cfg.Sync)

		dbConn, err := pkgdb.Open(path, cfg.WAL, cfg.Sync, logger)
		if err != nil {
			return err
		}
		return pkgdb.Close(dbConn, logger)
	},
}

var dbKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys held in the journal store",
	Long: `Lists every key in the key/value store. After a successful start the legacy
journal key should no longer be present.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := utils.ResolveAndEnsureDBPath(cfg.DBPath)
		if err != nil {
			return err
		}
		dbConn, err := pkgdb.Open(path, cfg.WAL, cfg.Sync, logger)
		if err != nil {
			return err
		}
		defer closeDB(dbConn)

		keys, err := kv.NewSQLiteStore(dbConn).Keys(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list store keys: %w", err)
		}
		if len(keys) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "The store is empty.")
			return nil
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a config file (default: config.yaml in the user config directory)")
	flags.String("db", "", "Path to the database file (uses a system-specific default if not provided)")
	flags.Bool("wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	flags.String("sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	flags.String("model", "", "Gemini model used for analysis (default: "+analysis.DefaultModel+")")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-file", "", "Also write JSON logs to this file, rotated automatically")

	for key, flag := range map[string]string{
		config.KeyDB:       "db",
		config.KeyWAL:      "wal",
		config.KeySync:     "sync",
		config.KeyModel:    "model",
		config.KeyLogLevel: "log-level",
		config.KeyLogFile:  "log-file",
	} {
		if err := settings.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	dbCmd.AddCommand(dbUpgradeCmd, dbKeysCmd)
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
