package shell

import (
	"fmt"
	"strings"
)

// Snippet returns shell code that prepends dirs to PATH.
func Snippet(shell ShellType, dirs ...string) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}

	var b strings.Builder
	switch shell {
	case ShellFish:
		b.WriteString("set -gx PATH")
		for _, d := range dirs {
			fmt.Fprintf(&b, " %s", quote(d))
		}
		b.WriteString(" $PATH\n")
	default:
		quoted := make([]string, len(dirs))
		for i, d := range dirs {
			quoted[i] = strings.ReplaceAll(d, `"`, `\"`)
		}
		fmt.Fprintf(&b, "export PATH=\"%s:$PATH\"\n", strings.Join(quoted, ":"))
	}
	return b.String(), nil
}

// ActivationCommand returns the rc file line that evaluates the snippet
// printed by `<program> env <shell>`.
func ActivationCommand(shell ShellType, program string) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}

	switch shell {
	case ShellFish:
		return fmt.Sprintf("%s env %s | source", program, shell), nil
	default:
		return fmt.Sprintf(`eval "$(%s env %s)"`, program, shell), nil
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
