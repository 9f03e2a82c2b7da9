package tmuxexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrUnsupportedTmux is returned when the installed tmux predates the
// minimum version this client was written against.
var ErrUnsupportedTmux = errors.New("tmux version unsupported")

// MinimumVersion is the oldest tmux release this control-mode client has
// been exercised against. Older servers drop fields off %layout-change and
// reply to -P -F differently, which the decoder does not accommodate.
const MinimumVersion = "3.0"

var versionRegex = regexp.MustCompile(`(\d+\.\d+[a-z]?)`)

// Checker reports whether the tmux binary on PATH satisfies MinimumVersion.
// Exposed as an interface, with TmuxChecker holding the default
// implementation, so callers can substitute a fake in tests without
// shelling out.
type Checker interface {
	Check(ctx context.Context) error
}

type execChecker struct{}

func (execChecker) Check(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "tmux", "-V")
	out, err := cmd.Output()
	if err != nil {
		return classifyError(fmt.Errorf("tmux -V: %w", err), "")
	}

	raw := strings.TrimSpace(string(out))
	match := versionRegex.FindString(raw)
	if match == "" {
		return fmt.Errorf("%w: could not parse version from %q", ErrUnsupportedTmux, raw)
	}
	// semver requires three components; tmux reports two plus an optional
	// letter suffix tracking a patch release (e.g. "3.3a").
	match = strings.TrimRight(match, "abcdefghijklmnopqrstuvwxyz")

	got, err := semver.NewVersion(match + ".0")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedTmux, err)
	}
	min, err := semver.NewVersion(MinimumVersion + ".0")
	if err != nil {
		return err
	}
	if got.LessThan(min) {
		return fmt.Errorf("%w: found %s, need >= %s", ErrUnsupportedTmux, raw, MinimumVersion)
	}
	return nil
}

// TmuxChecker is the package-level Checker used by CheckVersion. Tests
// substitute a fake here instead of requiring a real tmux binary on PATH.
var TmuxChecker Checker = execChecker{}

// CheckVersion validates the tmux on PATH against MinimumVersion.
func CheckVersion(ctx context.Context) error {
	return TmuxChecker.Check(ctx)
}
