package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"library-circulation/internal/config"
	"library-circulation/internal/logger"
	"library-circulation/library"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "library",
		Short: "Simulate a library's circulation desk one day at a time",
		Long: "Interactive circulation simulator: check items out, return them, place holds,\n" +
			"pay fines and advance the clock. Reads commands from stdin.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cfg, func(mgr *library.LibraryManager, log *zap.Logger) error {
				return runInteractive(cmd, mgr, log)
			})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML catalog of items and patrons to load at startup")
	flags.StringVar(&cfg.JournalDSN, "journal", cfg.JournalDSN, "SQLite journal file, or :memory:")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(newRunCmd(cfg))
	return root
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>...",
		Short: "Execute command scripts against one simulation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cfg, func(mgr *library.LibraryManager, log *zap.Logger) error {
				sh := newShell(mgr, cmd.OutOrStdout(), log)
				for _, path := range args {
					if err := runScript(sh, path); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func withManager(cfg *config.Config, fn func(*library.LibraryManager, *zap.Logger) error) error {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	manager, err := library.NewLibraryManager(cfg.JournalDSN, log)
	if err != nil {
		log.Error("open journal failed", zap.String("dsn", cfg.JournalDSN), zap.Error(err))
		return err
	}
	defer manager.Close()

	if cfg.CatalogPath != "" {
		if err := manager.LoadCatalogFile(cfg.CatalogPath); err != nil {
			log.Error("catalog load failed", zap.Error(err))
			return err
		}
	}
	return fn(manager, log)
}

func runInteractive(cmd *cobra.Command, mgr *library.LibraryManager, log *zap.Logger) error {
	out := cmd.OutOrStdout()
	sh := newShell(mgr, out, log)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		sh.readPIN = readPIN
		fmt.Fprintln(out, "Library circulation desk. Type 'help' for commands.")
	}
	return sh.run(os.Stdin, interactive, false)
}

func runScript(sh *shell, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	sh.log.Debug("running script", zap.String("path", path))
	if err := sh.run(f, false, true); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// readPIN reads a PIN from the terminal without echoing it.
func readPIN(prompt string) (string, error) {
	fmt.Print(prompt)
	pin, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after PIN input
	return strings.TrimSpace(string(pin)), nil
}
