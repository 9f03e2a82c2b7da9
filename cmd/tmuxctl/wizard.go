package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/sergeknystautas/tmuxctl/internal/config"
)

// runSetupWizard prompts for the handful of values tmuxctl needs on first
// run and returns a Config ready to Save(). A huh form per logical step,
// confirming before branching into the remote-host questions.
func runSetupWizard(configPath string) (*config.Config, error) {
	style := newTermStyle()
	style.Header("tmuxctl setup")

	cfg := config.CreateDefault(configPath)

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Session name").
				Description("The tmux session tmuxctl will create or attach to").
				Placeholder(config.DefaultSessionName).
				Value(&cfg.SessionName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("session name cannot be empty")
					}
					return nil
				}),
		),
	).Run(); err != nil {
		return nil, err
	}
	if cfg.SessionName == "" {
		cfg.SessionName = config.DefaultSessionName
	}

	useRemote := false
	if err := huh.NewConfirm().
		Title("Connect to a remote tmux server over ssh?").
		Affirmative("Yes, remote").
		Negative("No, local").
		Value(&useRemote).
		Run(); err != nil {
		return nil, err
	}

	if useRemote {
		var host, extraArgs string
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Remote host").
					Description("Passed to ssh as the destination, e.g. user@example.com").
					Value(&host).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("host cannot be empty")
						}
						return nil
					}),
				huh.NewInput().
					Title("Extra ssh arguments").
					Description("Space-separated, e.g. -p 2222 -i ~/.ssh/id_ed25519 (optional)").
					Value(&extraArgs),
			),
		).Run(); err != nil {
			return nil, err
		}

		cfg.Remote = &config.Remote{Host: host}
		if strings.TrimSpace(extraArgs) != "" {
			cfg.Remote.Args = strings.Fields(extraArgs)
		}
	}

	if err := cfg.Save(); err != nil {
		return nil, err
	}

	style.Success("Configuration saved to " + style.Cyan(configPath))
	return cfg, nil
}
