package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/voidlabs/narrator/internal/config"
	"github.com/voidlabs/narrator/narrate"
	"github.com/voidlabs/narrator/playback"
	"github.com/voidlabs/narrator/playback/audio"
	"github.com/voidlabs/narrator/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	serverURL  string

	rootCmd = &cobra.Command{
		Use:   "narrator",
		Short: "A dramatic narrator in your terminal",
		Long: paragraph(
			fmt.Sprintf("\nType a prompt and the %s speaks it back, word by word.", keyword("narrator")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		RunE:             runClient,
	}
)

// keyword colorizes a span for help text.
func keyword(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func paragraph(s string) string {
	return lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render(s)
}

func runClient(*cobra.Command, []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the narrator needs a terminal; use %s for the API", keyword("narrator serve"))
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if v := viper.GetString("server_url"); v != "" && serverURL == "" {
		cfg.ServerURL = v
	}

	client := narrate.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	player := audio.NewPlayer()
	defer player.Close()

	seq := playback.NewSequencer(player, cfg.SyncInterval, log.Default())
	session := playback.NewSession(client, seq, playback.SessionConfig{
		ErrorClearDelay: cfg.ErrorClearDelay,
	}, log.Default())

	if _, err := ui.NewProgram(session).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	session.Shutdown()
	return nil
}

// setupLog sends logs to a file when NARRATOR_LOGFILE is set and
// silences them otherwise, keeping the TUI clean.
func setupLog() (func() error, error) {
	if path := os.Getenv("NARRATOR_LOGFILE"); path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("unable to open log file: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "", "narrator server URL")

	_ = viper.BindPFlag("server_url", rootCmd.Flags().Lookup("server"))
	viper.SetDefault("server_url", "")

	rootCmd.AddCommand(serveCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "narrator")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "narrator")}, dirs...)
	}
	if c := os.Getenv("NARRATOR_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("narrator")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("narrator")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "narrator.yml")
	}
}
