package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and platform information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "kaleido %s (commit %s, built %s)\n", Version, Commit, BuildDate)

			info, err := a.detector.Detect(cmd.Context())
			if err != nil {
				a.logger.Warn("platform detection failed", "error", err)
				return nil
			}
			sig := info.Signature(a.settings.RustABI)
			fmt.Fprintf(a.out, "platform: %s/%s (%s-%s-%s)\n", info.OS, info.GoArch, sig.Arch, sig.OS, sig.ABI)
			if d := info.GetDistro(); d != nil {
				fmt.Fprintf(a.out, "distro: %s %s\n", d.ID, d.Version)
			}
			return nil
		},
	}
}
