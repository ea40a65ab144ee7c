package shell

import (
	"fmt"
	"time"
)

// Manager orchestrates shell integration setup
type Manager struct {
	userHome string
	program  string
	now      func() time.Time
}

// NewManager creates a new shell manager
func NewManager(config Config) (*Manager, error) {
	if config.UserHome == "" {
		return nil, fmt.Errorf("UserHome is required")
	}
	program := config.Program
	if program == "" {
		program = DefaultProgram
	}

	return &Manager{userHome: config.UserHome, program: program, now: time.Now}, nil
}

// SetupIntegration appends the activation line to the shell's rc file unless
// one is already present.
func (m *Manager) SetupIntegration(shell ShellType, opts SetupOptions) (*SetupResult, error) {
	if err := ValidateShell(shell); err != nil {
		return nil, err
	}

	rcPath, err := RCFilePath(shell, m.userHome)
	if err != nil {
		return nil, fmt.Errorf("get rc file path: %w", err)
	}

	activationCmd, err := ActivationCommand(shell, m.program)
	if err != nil {
		return nil, fmt.Errorf("generate activation command: %w", err)
	}

	result := &SetupResult{Shell: shell, RCFile: rcPath, ActivationCommand: activationCmd}

	hasActivation, err := HasActivationLine(rcPath, m.program)
	if err != nil {
		return nil, fmt.Errorf("check activation line: %w", err)
	}
	if hasActivation {
		result.AlreadyPresent = true
		return result, nil
	}

	if opts.DryRun {
		return result, nil
	}

	exists, err := RCFileExists(rcPath)
	if err != nil {
		return nil, fmt.Errorf("check rc file: %w", err)
	}
	if exists && opts.Backup {
		result.BackupPath, err = BackupRCFile(rcPath, m.now())
		if err != nil {
			return nil, fmt.Errorf("backup rc file: %w", err)
		}
	}

	if err := AddActivationLine(rcPath, activationCmd); err != nil {
		return nil, fmt.Errorf("add activation line: %w", err)
	}
	result.Added = true
	return result, nil
}

// DetectAndSetup detects the user's shell and sets up integration
func (m *Manager) DetectAndSetup(opts SetupOptions) (*SetupResult, error) {
	detection := DetectShell()
	if !detection.Shell.IsValid() {
		return nil, &UnsupportedShellError{Shell: detection.ShellPath}
	}
	return m.SetupIntegration(detection.Shell, opts)
}
