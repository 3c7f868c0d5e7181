package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/eznix86/slashirc/internal/command"
	"github.com/eznix86/slashirc/internal/config"
	"github.com/eznix86/slashirc/internal/i18n"
	"github.com/eznix86/slashirc/internal/irc"
	"github.com/eznix86/slashirc/internal/logging"
	"github.com/eznix86/slashirc/internal/ui"
)

var errMissingArgs = errors.New("server and nick are required")

var (
	verbose      bool
	locale       string
	queryTimeout time.Duration
	logDir       string
)

var rootCmd = &cobra.Command{
	Use:   "slashirc [flags] <server[:port]|server/port> <nick>",
	Short: "Terminal IRC client driven by slash commands",
	Long: `slashirc connects to an IRC server and opens a terminal UI where
plain text goes to the current channel and /commands control the session.

Server and nick can also come from SLASHIRC_SERVER and SLASHIRC_NICK
(a .env file in the working directory is read if present).

Examples:
  slashirc irc.libera.chat/6697 twoflower
  slashirc -v irc.libera.chat:6667 twoflower`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show every IRC protocol line")
	rootCmd.Flags().StringVar(&locale, "locale", "", "message catalog locale (en, da)")
	rootCmd.Flags().DurationVar(&queryTimeout, "query-timeout", 0, "how long /list and /who wait for the server")
	rootCmd.Flags().StringVar(&logDir, "log-dir", "", "write a rotating log file to this directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotenvIfPresent(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags beat the environment
	if len(args) > 0 {
		cfg.Server = args[0]
	}
	if len(args) > 1 {
		cfg.Nick = args[1]
	}
	if cmd.Flags().Changed("locale") {
		cfg.Locale = locale
	}
	if cmd.Flags().Changed("query-timeout") {
		if queryTimeout <= 0 {
			return errors.New("--query-timeout must be positive")
		}
		cfg.QueryTimeout = queryTimeout
	}
	if cmd.Flags().Changed("log-dir") {
		cfg.Log.Dir = logDir
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if cfg.Server == "" || cfg.Nick == "" {
		_ = cmd.Usage()
		return errMissingArgs
	}

	logger, closer, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	text, err := i18n.Load(cfg.Locale)
	if err != nil {
		return fmt.Errorf("load locale %q: %w", cfg.Locale, err)
	}

	host, port := command.ParseServerAddress(cfg.Server)

	base := irc.NewConfig(cfg.Nick)
	base.User = cfg.User
	base.RealName = cfg.RealName
	base.SSL = cfg.TLS
	base.SendRate = rate.Every(cfg.SendInterval)
	base.SendBurst = cfg.SendBurst
	base.Logger = logger
	if cfg.TLSInsecure {
		base.SSLConfig = &tls.Config{InsecureSkipVerify: true}
	}

	logger.Info("starting",
		slog.String("server", host),
		slog.Int("port", port),
		slog.String("nick", cfg.Nick),
		slog.String("locale", text.Language().String()),
	)

	m := ui.New(ui.Options{
		Session: irc.NewSession(base),
		Host:    host,
		Port:    port,
		Registration: command.RegistrationInfo{
			Nick:     cfg.Nick,
			User:     cfg.User,
			RealName: cfg.RealName,
		},
		Catalog:      text,
		QueryTimeout: cfg.QueryTimeout,
		Verbose:      verbose,
		Logger:       logger,
	})
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
