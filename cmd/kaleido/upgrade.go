package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/archive"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/release"
	"github.com/ZebulonRouseFrantzich/kaleido/internal/selfupdate"
)

func newUpgradeCmd(a *app) *cobra.Command {
	var (
		target    string
		checkOnly bool
	)
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade kaleido itself and refresh the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if checkOnly {
				_, _, err := a.checkUpgrade(ctx, target)
				return err
			}
			return a.runUpgrade(ctx, target)
		},
	}
	cmd.Flags().StringVar(&target, "version", "", "Upgrade to this version instead of the latest")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an upgrade is available")
	return cmd
}

func (a *app) updater(ctx context.Context) (*selfupdate.Updater, error) {
	sig, _, err := a.signature(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := a.resolver()
	if err != nil {
		return nil, err
	}
	return selfupdate.NewUpdater(Version, resolver, a.transfer(true),
		archive.NewExtractor(archive.WithLogger(a.logger)),
		release.CriteriaFor(sig, selfupdate.DefaultRepo.Name),
		selfupdate.WithLogger(a.logger),
	), nil
}

// checkUpgrade reports whether a newer release than the running one exists.
func (a *app) checkUpgrade(ctx context.Context, target string) (*selfupdate.Updater, *selfupdate.Check, error) {
	u, err := a.updater(ctx)
	if err != nil {
		return nil, nil, err
	}
	check, err := u.Check(ctx, target)
	if err != nil {
		return nil, nil, fmt.Errorf("check for upgrade: %w", err)
	}
	fmt.Fprintln(a.out, check.Message)
	return u, check, nil
}

// runUpgrade replaces the running executable when a newer release exists,
// then refreshes the catalog.
func (a *app) runUpgrade(ctx context.Context, target string) error {
	u, check, err := a.checkUpgrade(ctx, target)
	if err != nil {
		return err
	}

	if check.UpgradeAvailable {
		if err := u.Apply(ctx, check); err != nil {
			return fmt.Errorf("upgrade: %w", err)
		}
		color.New(color.FgGreen).Fprintf(a.out, "upgraded kaleido to %s\n", check.LatestVersion)
	}

	if err := a.catalogStore().Update(ctx); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintln(a.out, "updated configuration file successfully")
	return nil
}
