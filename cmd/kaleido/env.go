package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/shell"
)

func newEnvCmd(a *app) *cobra.Command {
	var (
		setup  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "env [shell]",
		Short: "Print shell commands that put installed executables on PATH",
		Long: `Print shell commands that put the kaleido bin and alias directories on PATH.

Add this to your shell rc file, or run with --setup to do it for you:

  eval "$(kaleido env bash)"
  kaleido env fish | source`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := a.shellFor(args)
			if err != nil {
				return err
			}

			if !setup {
				snippet, err := shell.Snippet(sh, a.layout.Bin, a.layout.Alias)
				if err != nil {
					return err
				}
				fmt.Fprint(a.out, snippet)
				return nil
			}

			userHome, err := homedir.Dir()
			if err != nil {
				return fmt.Errorf("find user home: %w", err)
			}
			mgr, err := shell.NewManager(shell.Config{UserHome: userHome})
			if err != nil {
				return err
			}
			res, err := mgr.SetupIntegration(sh, shell.SetupOptions{Backup: true, DryRun: dryRun})
			if err != nil {
				return err
			}
			switch {
			case res.AlreadyPresent:
				fmt.Fprintf(a.out, "%s already activates kaleido\n", res.RCFile)
			case dryRun:
				fmt.Fprintf(a.out, "would add to %s:\n  %s\n", res.RCFile, res.ActivationCommand)
			default:
				if res.BackupPath != "" {
					fmt.Fprintf(a.out, "backed up %s to %s\n", res.RCFile, res.BackupPath)
				}
				color.New(color.FgGreen).Fprintf(a.out, "added %q to %s\n", res.ActivationCommand, res.RCFile)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&setup, "setup", false, "Add the activation line to the shell rc file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "With --setup, report the change without writing it")
	return cmd
}

func (a *app) shellFor(args []string) (shell.ShellType, error) {
	if len(args) == 1 {
		sh := shell.ParseShell(args[0])
		if err := shell.ValidateShell(sh); err != nil {
			return "", err
		}
		return sh, nil
	}
	det := shell.DetectShell()
	if err := shell.ValidateShell(det.Shell); err != nil {
		return "", fmt.Errorf("detect shell (%s): %w", det.Method, err)
	}
	a.logger.Debug("detected shell", "shell", det.Shell, "method", det.Method)
	return det.Shell, nil
}
