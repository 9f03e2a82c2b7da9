package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sergeknystautas/tmuxctl/internal/config"
	"github.com/sergeknystautas/tmuxctl/internal/tmuxcm"
	"github.com/sergeknystautas/tmuxctl/internal/tmuxexec"
	"github.com/sergeknystautas/tmuxctl/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "run":
		err = runCommand(args)
	case "attach":
		err = attachCommand(args)
	case "relay":
		err = relayCommand(args)
	case "provision":
		err = provisionCommand()
	case "config":
		err = configCommand()
	case "version":
		fmt.Println(version.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tmuxctl: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("tmuxctl - a tmux control-mode client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tmuxctl <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run <command...>  Start a session running command, streaming its pane here")
	fmt.Println("  attach            Attach to the configured session, streaming its pane here")
	fmt.Println("  relay [addr]      Serve the session's notifications over a websocket (default :7777)")
	fmt.Println("  provision         Attach a raw (non-control-mode) terminal, for watching auth prompts")
	fmt.Println("  config            Run the setup wizard")
	fmt.Println("  version           Print the tmuxctl version")
}

// loadOrSetupConfig loads tmuxctl's config, running the first-run wizard
// when no config file exists yet.
func loadOrSetupConfig() (*config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return runSetupWizard(path)
	}
	return config.Load(path)
}

func configCommand() error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	_, err = runSetupWizard(path)
	return err
}

func checkTmuxVersion(ctx context.Context) error {
	if err := tmuxexec.CheckVersion(ctx); err != nil {
		return fmt.Errorf("tmux version check: %w", err)
	}
	return nil
}

func runCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tmuxctl run <command...>")
	}
	command := strings.Join(args, " ")

	cfg, err := loadOrSetupConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := checkTmuxVersion(ctx); err != nil {
		return err
	}

	upper := newCLIUpperLayer()
	dispatcher := tmuxcm.NewDispatcher(upper, tmuxcm.InlineExecutor{})
	session := tmuxcm.NewControlSession(cfg.SessionName, cfg.Remote, dispatcher)

	cwd, _ := os.Getwd()
	marker, err := session.RunCommand(ctx, command, cwd, nil, "")
	if err != nil {
		return err
	}
	upper.awaitMarker(marker)

	w, h := terminalSize(int(os.Stdout.Fd()), cfg.TerminalWidth, cfg.TerminalHeight)
	if err := session.RefreshClient(w, h); err != nil {
		fmt.Fprintf(os.Stderr, "tmuxctl: refresh-client: %v\n", err)
	}

	return streamInteractive(ctx, session, upper)
}

func attachCommand(args []string) error {
	cfg, err := loadOrSetupConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := checkTmuxVersion(ctx); err != nil {
		return err
	}

	upper := newCLIUpperLayer()
	dispatcher := tmuxcm.NewDispatcher(upper, tmuxcm.InlineExecutor{})
	session := tmuxcm.NewControlSession(cfg.SessionName, cfg.Remote, dispatcher)

	if err := session.AttachSession(ctx); err != nil {
		return err
	}

	w, h := terminalSize(int(os.Stdout.Fd()), cfg.TerminalWidth, cfg.TerminalHeight)
	if err := session.RefreshClient(w, h); err != nil {
		fmt.Fprintf(os.Stderr, "tmuxctl: refresh-client: %v\n", err)
	}

	return streamInteractive(ctx, session, upper)
}

func relayCommand(args []string) error {
	addr := ":7777"
	if len(args) > 0 {
		addr = args[0]
	}

	cfg, err := loadOrSetupConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := checkTmuxVersion(ctx); err != nil {
		return err
	}

	upper := newRelayUpperLayer()
	dispatcher := tmuxcm.NewDispatcher(upper, tmuxcm.InlineExecutor{})
	session := tmuxcm.NewControlSession(cfg.SessionName, cfg.Remote, dispatcher)

	if err := session.AttachSession(ctx); err != nil {
		return err
	}

	fmt.Printf("tmuxctl: relaying %q on %s (ws://%s/ws)\n", cfg.SessionName, addr, addr)
	return runRelay(ctx, addr, session, upper)
}

// provisionCommand attaches a plain (non-control-mode) terminal to the
// configured session so a human can watch and respond to prompts a
// control-mode client can't represent, e.g. an interactive ssh password
// prompt the first time a remote host is reached.
func provisionCommand() error {
	cfg, err := loadOrSetupConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	dispatcher := tmuxcm.NewDispatcher(newCLIUpperLayer(), tmuxcm.InlineExecutor{})
	session := tmuxcm.NewControlSession(cfg.SessionName, cfg.Remote, dispatcher)

	raw, err := makeRaw(int(os.Stdin.Fd()))
	if err == nil {
		defer raw.restore()
	}

	return session.AttachInteractive(ctx, os.Stdin, os.Stdout)
}

// streamInteractive puts stdin into raw mode, waits for the session's pane
// to be known, backfills its scrollback, and forwards every keystroke to
// the pane until the session exits or ctx is canceled.
func streamInteractive(ctx context.Context, session *tmuxcm.ControlSession, upper *cliUpperLayer) error {
	raw, err := makeRaw(int(os.Stdin.Fd()))
	if err == nil {
		defer raw.restore()
	}

	select {
	case <-upper.bound:
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timed out waiting for pane to start")
	case <-ctx.Done():
		return ctx.Err()
	}

	paneID := upper.watchedPane()
	if err := session.InitialOutput(paneID); err != nil {
		fmt.Fprintf(os.Stderr, "tmuxctl: initial output: %v\n", err)
	}

	keysDone := make(chan struct{})
	go func() {
		defer close(keysDone)
		reader := bufio.NewReader(os.Stdin)
		for {
			ev, err := readKeyEvent(reader)
			if err != nil {
				return
			}
			if sendErr := session.SendKeypress(ev, paneID); sendErr != nil {
				return
			}
		}
	}()

	select {
	case reason := <-upper.exited:
		fmt.Fprintf(os.Stderr, "\ntmuxctl: session ended: %s\n", reason)
	case <-ctx.Done():
	case <-keysDone:
	}

	return nil
}

// signalContext returns a context canceled on SIGINT/SIGTERM. Raw terminal
// mode disables the local signal-generating keys, so this only matters for
// an externally sent signal (e.g. `kill`), not a user pressing Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, stop
}
