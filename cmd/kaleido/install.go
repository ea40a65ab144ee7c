package main

import (
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
)

type installFlags struct {
	version string
	alias   string
	rustABI string
	force   bool
}

func (f *installFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.version, "version", "", "Version to install (only with a single package)")
	cmd.Flags().StringVarP(&f.alias, "alias", "a", "", "Also link the executable under this name (only with a single package)")
	cmd.Flags().StringVar(&f.rustABI, "rust-abi", "", "ABI of Rust release assets: gnu, musl or msvc")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Reinstall even if the version is already installed")
}

func newInstallCmd(a *app) *cobra.Command {
	var flags installFlags
	cmd := &cobra.Command{
		Use:   "install <package>...",
		Short: "Install packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstall(cmd, catalog.Requests(args, flags.version, flags.alias), flags.force)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var flags installFlags
	cmd := &cobra.Command{
		Use:   "update <package>...",
		Short: "Install the latest (or given) version of packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstall(cmd, catalog.Requests(args, flags.version, flags.alias), flags.force)
		},
	}
	flags.bind(cmd)
	return cmd
}

// runInstall installs requests and reports each result. Request failures are
// reported but do not fail the command.
func (a *app) runInstall(cmd *cobra.Command, requests []catalog.Request, force bool) error {
	ctx := cmd.Context()
	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}
	in, err := a.installer(ctx, cat, force)
	if err != nil {
		return err
	}
	in.Install(ctx, requests)
	return nil
}

func newUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <package>...",
		Aliases: []string{"remove"},
		Short:   "Uninstall packages and their links",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printUninstalled(a.uninstaller().Uninstall(cmd.Context(), args))
			return nil
		},
	}
}
