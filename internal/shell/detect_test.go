package shell

import (
	"errors"
	"testing"
)

func TestParseShell(t *testing.T) {
	tests := []struct {
		in   string
		want ShellType
	}{
		{"/bin/bash", ShellBash},
		{"/usr/bin/zsh", ShellZsh},
		{"/usr/local/bin/fish", ShellFish},
		{"-zsh", ShellZsh},
		{"BASH.EXE", ShellBash},
		{"/bin/ksh", ShellUnknown},
		{"", ShellUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseShell(tt.in); got != tt.want {
				t.Errorf("ParseShell(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectShell(t *testing.T) {
	tests := []struct {
		name       string
		shellEnv   string
		parent     string
		parentErr  error
		wantShell  ShellType
		wantMethod string
	}{
		{
			name:       "from SHELL",
			shellEnv:   "/bin/bash",
			parent:     "fish",
			wantShell:  ShellBash,
			wantMethod: "$SHELL environment variable",
		},
		{
			name:       "parent process fallback",
			shellEnv:   "/bin/ksh",
			parent:     "zsh",
			wantShell:  ShellZsh,
			wantMethod: "parent process",
		},
		{
			name:       "nothing detected",
			parent:     "sshd",
			wantShell:  ShellUnknown,
			wantMethod: "detection failed",
		},
		{
			name:       "parent lookup fails",
			parentErr:  errors.New("no such process"),
			wantShell:  ShellUnknown,
			wantMethod: "detection failed",
		},
	}

	orig := parentProcess
	t.Cleanup(func() { parentProcess = orig })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHELL", tt.shellEnv)
			parentProcess = func() (string, string, error) {
				return tt.parent, "/usr/bin/" + tt.parent, tt.parentErr
			}

			got := DetectShell()
			if got.Shell != tt.wantShell || got.Method != tt.wantMethod {
				t.Errorf("DetectShell() = %+v, want %v via %q", got, tt.wantShell, tt.wantMethod)
			}
		})
	}
}

func TestValidateShell(t *testing.T) {
	for _, s := range SupportedShells() {
		if err := ValidateShell(s); err != nil {
			t.Errorf("ValidateShell(%v) = %v", s, err)
		}
	}
	if err := ValidateShell("tcsh"); !errors.Is(err, ErrUnsupportedShell) {
		t.Errorf("ValidateShell(tcsh) = %v, want ErrUnsupportedShell", err)
	}
}
