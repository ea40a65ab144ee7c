package shell

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// parentProcess returns the name and executable path of the parent process.
var parentProcess = func() (string, string, error) {
	p, err := process.NewProcess(int32(os.Getppid()))
	if err != nil {
		return "", "", err
	}
	name, err := p.Name()
	if err != nil {
		return "", "", err
	}
	exe, _ := p.Exe()
	return name, exe, nil
}

// DetectShell detects the user's shell from $SHELL, falling back to the
// parent process.
func DetectShell() *DetectionResult {
	if shell := os.Getenv("SHELL"); shell != "" {
		if shellType := ParseShell(shell); shellType.IsValid() {
			return &DetectionResult{
				Shell:     shellType,
				Method:    "$SHELL environment variable",
				ShellPath: shell,
			}
		}
	}

	if name, exe, err := parentProcess(); err == nil {
		if shellType := ParseShell(name); shellType.IsValid() {
			return &DetectionResult{
				Shell:     shellType,
				Method:    "parent process",
				ShellPath: exe,
			}
		}
	}

	return &DetectionResult{Shell: ShellUnknown, Method: "detection failed"}
}

// ParseShell maps a shell name or binary path to a shell type.
// Examples:
//   - /bin/bash -> bash
//   - -zsh (login shell) -> zsh
//   - fish.exe -> fish
func ParseShell(shell string) ShellType {
	name := strings.ToLower(filepath.Base(shell))
	name = strings.TrimPrefix(name, "-")
	name = strings.TrimSuffix(name, ".exe")

	switch ShellType(name) {
	case ShellBash, ShellZsh, ShellFish:
		return ShellType(name)
	default:
		return ShellUnknown
	}
}

// ValidateShell validates that a shell type is supported
func ValidateShell(shell ShellType) error {
	if !shell.IsValid() {
		return &UnsupportedShellError{Shell: shell.String()}
	}
	return nil
}

// SupportedShells returns a list of supported shells
func SupportedShells() []ShellType {
	return []ShellType{ShellBash, ShellZsh, ShellFish}
}
