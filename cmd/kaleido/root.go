package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "kaleido",
		Short:         "Install and manage command-line tools from GitHub releases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newInstallCmd(a),
		newUpdateCmd(a),
		newUninstallCmd(a),
		newListCmd(a),
		newSearchCmd(a),
		newBindleCmd(a),
		newConfigCmd(a),
		newUpgradeCmd(a),
		newEnvCmd(a),
		newVersionCmd(a),
	)
	return root
}
