package shell

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RCFilePath returns the path to the shell's rc file under userHome.
func RCFilePath(shell ShellType, userHome string) (string, error) {
	switch shell {
	case ShellBash:
		return filepath.Join(userHome, ".bashrc"), nil
	case ShellZsh:
		return filepath.Join(userHome, ".zshrc"), nil
	case ShellFish:
		return filepath.Join(userHome, ".config", "fish", "config.fish"), nil
	default:
		return "", &UnsupportedShellError{Shell: shell.String()}
	}
}

// RCFileExists checks if the rc file exists. Symlinked rc files are followed.
func RCFileExists(rcPath string) (bool, error) {
	info, err := os.Stat(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &RCFileError{Path: rcPath, Message: "failed to stat file", Cause: err}
	}

	if !info.Mode().IsRegular() {
		return false, &RCFileError{Path: rcPath, Message: "not a regular file"}
	}
	return true, nil
}

// HasActivationLine checks if the rc file already evaluates `<program> env`.
func HasActivationLine(rcPath, program string) (bool, error) {
	file, err := os.Open(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &RCFileError{Path: rcPath, Message: "failed to open file", Cause: err}
	}
	defer file.Close()

	marker := program + " env"
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, marker) {
			return true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return false, &RCFileError{Path: rcPath, Message: "failed to read file", Cause: err}
	}
	return false, nil
}

// BackupRCFile copies the rc file to <rc>.kaleido-backup.<timestamp>.
func BackupRCFile(rcPath string, now time.Time) (string, error) {
	content, err := os.ReadFile(rcPath)
	if err != nil {
		return "", &RCFileError{Path: rcPath, Message: "failed to read file for backup", Cause: err}
	}

	backupPath := fmt.Sprintf("%s%s.%s", rcPath, BackupSuffix, now.Format("20060102-150405"))
	if err := os.WriteFile(backupPath, content, 0644); err != nil {
		return "", &RCFileError{Path: backupPath, Message: "failed to write backup file", Cause: err}
	}
	return backupPath, nil
}

// AddActivationLine appends activationCommand to the rc file through a
// temporary file and rename. The rc file's directory is created if needed.
func AddActivationLine(rcPath, activationCommand string) error {
	if strings.ContainsAny(activationCommand, "\r\n") || !strings.Contains(activationCommand, " env ") {
		return &RCFileError{Path: rcPath, Message: fmt.Sprintf("invalid activation command format: %q", activationCommand)}
	}

	// Write through the link target so a symlinked rc file stays a symlink.
	target := rcPath
	if resolved, err := filepath.EvalSymlinks(rcPath); err == nil {
		target = resolved
	}

	var existing []byte
	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		if !info.Mode().IsRegular() {
			return &RCFileError{Path: rcPath, Message: "not a regular file"}
		}
		mode = info.Mode().Perm()
		if existing, err = os.ReadFile(target); err != nil {
			return &RCFileError{Path: rcPath, Message: "failed to read existing file", Cause: err}
		}
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create parent directory", Cause: err}
	}

	tmpFile, err := os.CreateTemp(dir, ".kaleido-tmp-*")
	if err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to create temporary file", Cause: err}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n# kaleido - put installed packages on PATH\n%s\n", activationCommand)

	if _, err := tmpFile.WriteString(b.String()); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to write activation line", Cause: err}
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return &RCFileError{Path: rcPath, Message: "failed to sync file", Cause: err}
	}
	if err := tmpFile.Close(); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to close temporary file", Cause: err}
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to set file mode", Cause: err}
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return &RCFileError{Path: rcPath, Message: "failed to rename temp file", Cause: err}
	}
	return nil
}
