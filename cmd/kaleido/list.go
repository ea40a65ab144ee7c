package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/inventory"
)

func newListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			installed, err := a.installed()
			if err != nil {
				return err
			}
			if !all {
				for _, p := range installed {
					a.printInstalledLine(p.Name, p.Version)
				}
				return nil
			}

			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			versions := inventory.Index(installed)
			for _, p := range cat.Packages {
				var b strings.Builder
				if v, ok := versions[p.Name]; ok {
					fmt.Fprintf(&b, "* %s (%s)", p.Name, v)
				} else {
					fmt.Fprintf(&b, "  %s", p.Name)
				}
				switch {
				case p.Description != "":
					fmt.Fprintf(&b, " - %s [%s]", p.Description, p.URL)
				case p.URL != "":
					fmt.Fprintf(&b, " - [%s]", p.URL)
				}
				if _, ok := versions[p.Name]; ok {
					color.New(color.FgGreen).Fprintln(a.out, b.String())
				} else {
					fmt.Fprintln(a.out, b.String())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every catalog package")
	return cmd
}

func (a *app) installed() ([]inventory.Installed, error) {
	return inventory.InstalledPackages(a.linker, a.layout.Bin, a.layout.Packages, a.logger)
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search catalog packages by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range cat.Search(args[0]) {
				fmt.Fprintln(a.out, p.Name)
			}
			return nil
		},
	}
}
