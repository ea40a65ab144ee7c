package shell

import (
	"errors"
	"fmt"
)

// ShellType represents a supported shell
type ShellType string

const (
	// ShellBash represents the Bash shell
	ShellBash ShellType = "bash"
	// ShellZsh represents the Z shell
	ShellZsh ShellType = "zsh"
	// ShellFish represents the Fish shell
	ShellFish ShellType = "fish"
	// ShellUnknown represents an unknown or unsupported shell
	ShellUnknown ShellType = "unknown"
)

const (
	// DefaultProgram is the command activation lines invoke.
	DefaultProgram = "kaleido"

	// BackupSuffix precedes the timestamp of rc file backups.
	BackupSuffix = ".kaleido-backup"
)

// String returns the string representation of the shell type
func (s ShellType) String() string {
	return string(s)
}

// IsValid returns true if the shell type is supported
func (s ShellType) IsValid() bool {
	switch s {
	case ShellBash, ShellZsh, ShellFish:
		return true
	default:
		return false
	}
}

// Config holds configuration for the shell manager
type Config struct {
	// UserHome is the directory rc files are located in.
	UserHome string
	// Program is the command name used in activation lines (default: kaleido).
	Program string
}

// SetupOptions holds options for shell integration setup
type SetupOptions struct {
	// Backup creates a timestamped copy of the rc file before modification
	Backup bool
	// DryRun reports what would be done without making changes
	DryRun bool
}

// SetupResult contains the result of shell integration setup
type SetupResult struct {
	Shell             ShellType
	RCFile            string
	Added             bool
	AlreadyPresent    bool
	BackupPath        string
	ActivationCommand string
}

// DetectionResult contains the result of shell detection
type DetectionResult struct {
	// Shell is the detected shell type
	Shell ShellType
	// Method describes how the shell was detected
	Method string
	// ShellPath is the filesystem path to the shell binary
	ShellPath string
}

// ErrUnsupportedShell is matched by every UnsupportedShellError.
var ErrUnsupportedShell = errors.New("unsupported shell")

// UnsupportedShellError represents an unsupported shell error
type UnsupportedShellError struct {
	Shell string
}

func (e *UnsupportedShellError) Error() string {
	return fmt.Sprintf("unsupported shell: %s (supported: bash, zsh, fish)", e.Shell)
}

func (e *UnsupportedShellError) Is(target error) bool {
	return target == ErrUnsupportedShell
}

// RCFileError represents an error with shell rc file operations
type RCFileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *RCFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rc file error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("rc file error (%s): %s", e.Path, e.Message)
}

func (e *RCFileError) Unwrap() error {
	return e.Cause
}
