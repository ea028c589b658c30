// Package main is the CLI entry point for expurgate.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/eliteGoblin/expurgate/internal/config"
	"github.com/eliteGoblin/expurgate/internal/console"
	"github.com/eliteGoblin/expurgate/internal/daemon"
	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/infra"
	"github.com/eliteGoblin/expurgate/internal/policy"
	"github.com/eliteGoblin/expurgate/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "expurgate",
	Short: "Close every open app with one hotkey",
	Long: `expurgate lists the apps you have open (the ones a taskbar would show)
and politely asks all of them to close when you press a global hotkey.

Apps on the allow list are never touched. Apps on the kill list are always
asked to close, even when they hide from the taskbar.`,
	Version:      Version,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch open apps and close them on the hotkey",
	Long: `Polls the open apps every poll interval, prints them, and closes them
all when the hotkey is pressed. Type 'help' for interactive commands.

Edit the lists from the run console while it is running; list edits made
with the allow/kill commands in another terminal are overwritten on exit.`,
	RunE: runLoop,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the apps a bulk close would target",
	RunE:  runList,
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close every open app now",
	Long:  `Runs one scan and asks every closable app, plus everything on the kill list, to close.`,
	RunE:  runClose,
}

var showAllCmd = &cobra.Command{
	Use:       "show-all [on|off]",
	Short:     "Show or set the visibility filter bypass",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runShowAll,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath   string
	dataDir      string
	hotkeyFlag   string
	pollInterval time.Duration
	storeBackend string
	jsonOutput   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <data dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for lists, key and log")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "List store backend (json|sqlcipher)")

	runCmd.Flags().StringVar(&hotkeyFlag, "hotkey", "", "Bulk-close hotkey, e.g. ctrl+alt+j")
	runCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "How often to rescan open apps")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(newListCmd("allow", "never closed", func(l *policy.Lists) *policy.NameList { return l.Allow }))
	rootCmd.AddCommand(newListCmd("kill", "always closed", func(l *policy.Lists) *policy.NameList { return l.Kill }))
	rootCmd.AddCommand(showAllCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(infra.ExpandHome(path))
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Store.Dir = dataDir
	}
	if flags.Changed("store") {
		cfg.Store.Backend = storeBackend
	}
	if flags.Changed("hotkey") {
		cfg.Hotkey = hotkeyFlag
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = pollInterval
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	hk, err := domain.ParseHotkey(cfg.Hotkey)
	if err != nil {
		return err
	}

	logger := createLogger(cfg)
	defer func() { _ = logger.Sync() }()

	store, err := infra.OpenListStore(cfg.Store.Backend, cfg.DataDir())
	if err != nil {
		return fmt.Errorf("open list store: %w", err)
	}
	defer store.Close()
	lists := policy.LoadLists(store, logger)

	dir, err := infra.NewWindowDirectory()
	if err != nil {
		return fmt.Errorf("window directory: %w", err)
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	hotkeys := make(chan domain.HotkeyEvent, 16)
	listener := daemon.NewHotkeyListener(hk, infra.NewHotkeyFacility, logger)
	if err := listener.Start(hotkeys); err != nil {
		return fmt.Errorf("hotkey %s unavailable (is another instance running?): %w", hk, err)
	}
	defer listener.Stop()

	intents := make(chan domain.Intent)
	go func() {
		if err := console.ReadIntents(ctx, os.Stdin, intents, os.Stderr); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("console input closed", zap.Error(err))
		}
	}()

	scanner := usecase.NewScanner(infra.NewProcessSnapshotter(), dir, policy.NewHeuristic(infra.SelfImageName()), logger)
	dispatcher := usecase.NewDispatcher(dir, logger)

	sweeper := daemon.NewSweeper(
		daemon.SweeperConfig{PollInterval: cfg.PollInterval, Hotkey: hk.String()},
		scanner,
		dispatcher,
		lists,
		store,
		console.NewPresenter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd()))),
		hotkeys,
		intents,
		logger,
	)

	fmt.Printf("expurgate %s: logging to %s\n", Version, cfg.LogFile())
	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// scanOnce runs a single scan with a console logger.
func scanOnce(cmd *cobra.Command) (*domain.ScanResult, *policy.Lists, domain.WindowDirectory, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	logger, _ := zap.NewDevelopment()

	store, err := infra.OpenListStore(cfg.Store.Backend, cfg.DataDir())
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open list store: %w", err)
	}
	defer store.Close()
	lists := policy.LoadLists(store, logger)

	dir, err := infra.NewWindowDirectory()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("window directory: %w", err)
	}

	scanner := usecase.NewScanner(infra.NewProcessSnapshotter(), dir, policy.NewHeuristic(infra.SelfImageName()), logger)
	scan, err := scanner.Scan(cmd.Context(), lists)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return scan, lists, dir, logger, nil
}

func runList(cmd *cobra.Command, args []string) error {
	scan, lists, _, logger, err := scanOnce(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Print(console.Format(domain.View{
		Closable: scan.Closable.Entries(),
		Allow:    lists.Allow.Names(),
		Kill:     lists.Kill.Names(),
		ShowAll:  lists.ShowAll(),
	}))
	return nil
}

func runClose(cmd *cobra.Command, args []string) error {
	scan, lists, dir, logger, err := scanOnce(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	targets := usecase.Targets(scan, lists)
	result := usecase.NewDispatcher(dir, logger).CloseAll(domain.TriggerManual, targets, lists.ShowAll())

	fmt.Println("\n=== Close Requests ===")
	if len(targets) == 0 {
		fmt.Println("Nothing to close.")
	}
	for _, t := range targets {
		status := "no window"
		switch {
		case contains(result.Posted, t.PID):
			status = "asked to close"
		case contains(result.Hidden, t.PID):
			status = "hidden, skipped"
		case !contains(result.NoWindow, t.PID):
			status = "failed"
		}
		fmt.Printf("  %-8d %-32s %s\n", t.PID, console.Sanitize(t.ImageName), status)
	}
	fmt.Printf("\nTotal: %d of %d asked to close\n", len(result.Posted), len(targets))
	fmt.Println("======================")
	return nil
}

func contains(pids []uint32, pid uint32) bool {
	for _, p := range pids {
		if p == pid {
			return true
		}
	}
	return false
}

// withLists loads the lists, runs fn, and saves if fn reports a change.
func withLists(cmd *cobra.Command, fn func(*policy.Lists) (bool, error)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := infra.OpenListStore(cfg.Store.Backend, cfg.DataDir())
	if err != nil {
		return fmt.Errorf("open list store: %w", err)
	}
	defer store.Close()

	state, err := store.Load()
	if err != nil {
		return fmt.Errorf("load lists: %w", err)
	}
	lists := policy.ListsFromState(state)

	changed, err := fn(lists)
	if err != nil || !changed {
		return err
	}
	if err := store.Save(lists.State()); err != nil {
		return fmt.Errorf("save lists: %w", err)
	}
	return nil
}

func newListCmd(name, meaning string, pick func(*policy.Lists) *policy.NameList) *cobra.Command {
	root := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Manage the %s list (apps %s)", name, meaning),
	}

	root.AddCommand(&cobra.Command{
		Use:   "add NAME...",
		Short: fmt.Sprintf("Add image names (e.g. Code.exe) to the %s list", name),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLists(cmd, func(l *policy.Lists) (bool, error) {
				changed := false
				for _, a := range args {
					if !pick(l).Add(a) {
						return false, fmt.Errorf("invalid name %q", a)
					}
					changed = true
				}
				return changed, nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "remove NAME...",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Remove image names from the %s list", name),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLists(cmd, func(l *policy.Lists) (bool, error) {
				for _, a := range args {
					if !pick(l).Contains(a) {
						fmt.Printf("%s is not on the %s list\n", a, name)
						continue
					}
					pick(l).Remove(a)
				}
				return true, nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("Print the %s list", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLists(cmd, func(l *policy.Lists) (bool, error) {
				for _, n := range pick(l).Names() {
					fmt.Println(console.Sanitize(n))
				}
				return false, nil
			})
		},
	})

	return root
}

func runShowAll(cmd *cobra.Command, args []string) error {
	return withLists(cmd, func(l *policy.Lists) (bool, error) {
		if len(args) == 0 {
			fmt.Printf("show-all: %s\n", onOff(l.ShowAll()))
			return false, nil
		}
		switch args[0] {
		case "on":
			l.SetShowAll(true)
		case "off":
			l.SetShowAll(false)
		default:
			return false, fmt.Errorf("expected on or off, got %q", args[0])
		}
		fmt.Printf("show-all: %s\n", onOff(l.ShowAll()))
		return true, nil
	})
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// createLogger opens the run loop's JSON log file. The core is built by hand
// because zap's URL-style output paths misread Windows drive letters.
func createLogger(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	path := cfg.LogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err == nil {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err == nil {
			core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), level)
			return zap.New(core, zap.AddCaller())
		}
	}

	// Fallback to stderr if file logging fails
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller())
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("expurgate %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
