package tmuxexec

import (
	"context"
	"errors"
	"testing"
)

type fakeChecker struct {
	err error
}

func (f fakeChecker) Check(ctx context.Context) error {
	return f.err
}

func TestCheckVersionDelegatesToPackageChecker(t *testing.T) {
	orig := TmuxChecker
	defer func() { TmuxChecker = orig }()

	TmuxChecker = fakeChecker{err: nil}
	if err := CheckVersion(context.Background()); err != nil {
		t.Fatalf("CheckVersion() = %v, want nil", err)
	}

	TmuxChecker = fakeChecker{err: ErrUnsupportedTmux}
	if err := CheckVersion(context.Background()); !errors.Is(err, ErrUnsupportedTmux) {
		t.Fatalf("CheckVersion() = %v, want ErrUnsupportedTmux", err)
	}
}

func TestVersionRegexExtractsDottedVersion(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"tmux 3.3a", "3.3a"},
		{"tmux 3.0", "3.0"},
		{"tmux next-3.4", "3.4"},
		{"tmux 2.9", "2.9"},
	}

	for _, tt := range tests {
		if got := versionRegex.FindString(tt.raw); got != tt.want {
			t.Errorf("versionRegex.FindString(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	if got := versionRegex.FindString("garbage"); got != "" {
		t.Errorf("versionRegex.FindString(garbage) = %q, want no match", got)
	}
}

func TestCheckVersionRequiresTmuxBinary(t *testing.T) {
	t.Skip("requires a real tmux binary on PATH; exercised manually")
}
