package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the package catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Download the latest catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.catalogStore().Update(cmd.Context()); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(a.out, "updated configuration file successfully")
			return nil
		},
	})
	return cmd
}
