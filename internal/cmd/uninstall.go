package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/db"
	"github.com/squashmate/squashmate/internal/registry"
	"github.com/squashmate/squashmate/internal/ui"
)

// NewUninstallCmd creates the uninstall command
func NewUninstallCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		confirmToken   string
		preserveConfig bool
		purgeLogs      bool
	)

	cmd := &cobra.Command{
		Use:   "uninstall [name]",
		Short: "Uninstall a managed application or tracked package",
		Long: `Uninstall an item squashmate manages. Without a name an interactive
selector is shown. Removal requires typing the item's exact name as
confirmation; pass --confirm for non-interactive use.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := newServices(cfg, log)

			tracker, err := db.Open(ctx, svc.resolver.DBFile())
			if err != nil {
				ui.PrintError("failed to open tracking database: %v", err)
				return fmt.Errorf("open tracking database: %w", err)
			}
			defer tracker.Close()

			reg := registry.New(svc.fs, svc.resolver, tracker, svc.provider, svc.desktopMgr, svc.appLogs, log)

			item, err := pickItem(ctx, reg, args)
			if err != nil {
				return err
			}
			name := item.DisplayName()

			token := confirmToken
			if token == "" {
				ui.PrintWarning("This permanently removes %s.", name)
				token, err = ui.InputPrompt(fmt.Sprintf("Type %q to confirm", name), ui.ValidateNonEmpty)
				if err != nil {
					return err
				}
				if token == name && item.Kind == core.KindManagedApp && !cmd.Flags().Changed("purge-logs") {
					purgeLogs, err = ui.ConfirmPrompt(fmt.Sprintf("Also delete the log history for %s", name), false)
					if err != nil {
						return err
					}
				}
			}

			err = svc.coordinator.Run(name, func() error {
				return reg.Uninstall(ctx, item, registry.UninstallOptions{
					Confirmation:   token,
					PreserveConfig: preserveConfig && item.SupportsPreserveConfig(),
					PurgeLogs:      purgeLogs,
				})
			})
			if err != nil {
				if errors.Is(err, core.ErrConfirmationMismatch) {
					ui.PrintError("confirmation does not match %q, nothing removed", name)
				} else {
					ui.PrintError("uninstall failed: %v", err)
				}
				return err
			}

			svc.refresher.RefreshDesktopDatabase(svc.resolver.DesktopDir(), log)
			ui.PrintSuccess("%s uninstalled", name)
			if preserveConfig && item.SupportsPreserveConfig() {
				ui.PrintInfo("Configuration data was preserved")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&confirmToken, "confirm", "", "confirmation token (must equal the item name exactly)")
	cmd.Flags().BoolVar(&preserveConfig, "preserve-config", true, "keep user configuration data of managed applications")
	cmd.Flags().BoolVar(&purgeLogs, "purge-logs", false, "also delete the per-application log history")

	return cmd
}

// pickItem resolves the uninstall target from the argument or an
// interactive selector
func pickItem(ctx context.Context, reg *registry.Registry, args []string) (core.InstalledItem, error) {
	if len(args) == 1 {
		item, err := reg.Find(ctx, args[0])
		if err != nil {
			ui.PrintError("%v", err)
		}
		return item, err
	}

	items, err := reg.List(ctx)
	if err != nil {
		ui.PrintError("failed to list installed items: %v", err)
		return core.InstalledItem{}, err
	}
	if len(items) == 0 {
		ui.PrintInfo("Nothing installed")
		return core.InstalledItem{}, fmt.Errorf("nothing to uninstall")
	}

	labels := make([]string, len(items))
	byLabel := make(map[string]core.InstalledItem, len(items))
	for i, item := range items {
		label := fmt.Sprintf("%s  [%s]", item.DisplayName(), item.Kind)
		labels[i] = label
		byLabel[label] = item
	}

	chosen, err := ui.SelectPrompt("Select item to uninstall", labels)
	if err != nil {
		return core.InstalledItem{}, err
	}
	return byLabel[chosen], nil
}
