// Package prompt asks the operator yes/no questions, with a huh form on an
// interactive terminal and a line-oriented reader otherwise.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are both interactive terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Confirmer asks yes/no questions.
type Confirmer struct {
	in          io.Reader
	lines       *bufio.Scanner // reused by every question
	out         io.Writer
	interactive func() bool
	ask         func(question string) (bool, error)
}

// Option configures a Confirmer.
type Option func(*Confirmer)

// WithInteractive overrides terminal detection.
func WithInteractive(fn func() bool) Option {
	return func(c *Confirmer) {
		c.interactive = fn
	}
}

// New creates a Confirmer reading answers from in and writing questions to out.
func New(in io.Reader, out io.Writer, opts ...Option) *Confirmer {
	c := &Confirmer{
		in:          in,
		lines:       bufio.NewScanner(in),
		out:         out,
		interactive: IsInteractive,
	}
	c.ask = c.askForm
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confirm asks question and reports whether the operator agreed. Any failure
// to get an answer counts as no.
func (c *Confirmer) Confirm(question string) bool {
	if c.interactive() {
		ok, err := c.ask(question)
		return err == nil && ok
	}
	return c.confirmLine(question)
}

func (c *Confirmer) askForm(question string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithInput(c.in).WithOutput(c.out)

	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// confirmLine reads answers until one is recognised or input ends.
func (c *Confirmer) confirmLine(question string) bool {
	for {
		fmt.Fprintf(c.out, "%s [y/n]: ", question)
		if !c.lines.Scan() {
			fmt.Fprintln(c.out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(c.lines.Text())) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}
