package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/catalog"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/inventory"
)

func newBindleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindle",
		Short: "Manage named groups of packages",
	}
	cmd.AddCommand(
		newBindleInstallCmd(a, "install", "Install every package of a bindle"),
		newBindleInstallCmd(a, "update", "Update every package of a bindle"),
		newBindleUninstallCmd(a),
		newBindleListCmd(a),
	)
	return cmd
}

func newBindleInstallCmd(a *app, use, short string) *cobra.Command {
	var (
		rustABI string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   use + " <bindle>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			requests, missing, err := cat.Expand(args[0])
			if err != nil {
				return err
			}
			in, err := a.installer(cmd.Context(), cat, force)
			if err != nil {
				return err
			}
			in.Install(cmd.Context(), requests)
			a.printMissing(missing)
			return nil
		},
	}
	cmd.Flags().StringVar(&rustABI, "rust-abi", "", "ABI of Rust release assets: gnu, musl or msvc")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reinstall packages that are already installed")
	return cmd
}

func newBindleUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <bindle>",
		Short: "Uninstall every package of a bindle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			requests, missing, err := cat.Expand(args[0])
			if err != nil {
				return err
			}
			a.printUninstalled(a.uninstaller().Uninstall(cmd.Context(), requestNames(requests)))
			a.printMissing(missing)
			return nil
		},
	}
}

func newBindleListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [bindle]",
		Short: "List bindles, or the packages of one bindle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				for _, b := range cat.Bindles {
					fmt.Fprintf(a.out, "  %s\n", b.Name)
				}
				return nil
			}

			requests, missing, err := cat.Expand(args[0])
			if err != nil {
				return err
			}
			installed, err := a.installed()
			if err != nil {
				return err
			}
			versions := inventory.Index(installed)
			for _, r := range requests {
				a.printInstalledLine(r.Name, versions[r.Name])
			}
			a.printMissing(missing)
			return nil
		},
	}
}

func requestNames(requests []catalog.Request) []string {
	names := make([]string, 0, len(requests))
	for _, r := range requests {
		names = append(names, r.Name)
	}
	return names
}
