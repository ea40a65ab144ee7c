package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/install"
)

// printResult reports the outcome of one install request.
func (a *app) printResult(res install.Result) {
	name := res.Request.Name
	switch {
	case res.Installed():
		color.New(color.FgGreen).Fprintf(a.out, "installed %s %s\n", name, res.Version)
	case res.State == install.StateSkipped:
		color.New(color.FgYellow).Fprintf(a.out, "%s %s is already installed\n", name, res.Version)
	case errors.Is(res.Err, install.ErrSourceBuildDeclined):
		color.New(color.FgYellow).Fprintf(a.out, "skipped %s\n", name)
	default:
		color.New(color.FgRed).Fprintf(a.out, "failed to install %s (%s): %v\n", name, install.Kind(res.Err), res.Err)
	}
}

func (a *app) printUninstalled(results []install.UninstallResult) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			color.New(color.FgRed).Fprintf(a.out, "failed to uninstall %s: %v\n", r.Name, r.Err)
		case r.Removed:
			color.New(color.FgGreen).Fprintf(a.out, "uninstalled %s\n", r.Name)
		default:
			fmt.Fprintf(a.out, "%s is not installed\n", r.Name)
		}
	}
}

// printMissing lists bindle members absent from the catalog.
func (a *app) printMissing(missing []string) {
	if len(missing) == 0 {
		return
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "cannot find the following packages:")
	for _, name := range missing {
		color.New(color.FgRed).Fprintf(a.out, "%s\n", name)
	}
}

func (a *app) printInstalledLine(name, version string) {
	if version != "" {
		color.New(color.FgGreen).Fprintf(a.out, "* %s - %s\n", name, version)
		return
	}
	fmt.Fprintf(a.out, "  %s\n", name)
}
