package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/squashmate/squashmate/internal/config"
	"github.com/squashmate/squashmate/internal/core"
	"github.com/squashmate/squashmate/internal/db"
	"github.com/squashmate/squashmate/internal/registry"
	"github.com/squashmate/squashmate/internal/ui"
)

// NewListCmd creates the list command
func NewListCmd(cfg *config.Config, log *zerolog.Logger) *cobra.Command {
	var (
		jsonOutput bool
		filterKind string
		filterName string
		sortBy     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List managed applications and tracked packages",
		Long: `List everything squashmate manages: application bundles under the
applications root and native packages recorded in the tracking
database, cross-checked against the live package database.`,
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
			items, err := reg.List(ctx)
			if err != nil {
				ui.PrintError("failed to list installed items: %v", err)
				return fmt.Errorf("list installed items: %w", err)
			}

			filtered := filterItems(items, filterKind, filterName)
			sortItems(filtered, sortBy)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(filtered)
			}

			if len(filtered) == 0 {
				if filterKind != "" || filterName != "" {
					ui.PrintWarning("No items match the filters")
				} else {
					ui.PrintInfo("Nothing installed")
				}
				return nil
			}

			printSummary(items, filtered, filterKind, filterName)
			printTable(cmd, filtered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().StringVar(&filterKind, "kind", "", "filter by item kind (app, deb)")
	cmd.Flags().StringVar(&filterName, "filter", "", "filter by name (fuzzy match)")
	cmd.Flags().StringVar(&sortBy, "sort", "name", "sort by: name, kind, size, date")

	return cmd
}

// filterItems narrows the listing by kind and fuzzy name match
func filterItems(items []core.InstalledItem, filterKind, filterName string) []core.InstalledItem {
	filtered := make([]core.InstalledItem, 0, len(items))

	for _, item := range items {
		if filterKind != "" && !strings.EqualFold(string(item.Kind), filterKind) {
			continue
		}
		if filterName != "" && !fuzzy.MatchNormalizedFold(filterName, item.DisplayName()) {
			continue
		}
		filtered = append(filtered, item)
	}

	return filtered
}

// sortItems orders the listing by the requested field. Fields that only
// apply to one kind (size, date) group the other kind last.
func sortItems(items []core.InstalledItem, sortBy string) {
	byName := func(i, j int) bool {
		return strings.ToLower(items[i].DisplayName()) < strings.ToLower(items[j].DisplayName())
	}

	switch strings.ToLower(sortBy) {
	case "kind":
		sort.Slice(items, func(i, j int) bool {
			if items[i].Kind == items[j].Kind {
				return byName(i, j)
			}
			return items[i].Kind < items[j].Kind
		})
	case "size":
		sort.Slice(items, func(i, j int) bool {
			si, sj := itemSize(items[i]), itemSize(items[j])
			if si == sj {
				return byName(i, j)
			}
			return si > sj
		})
	case "date":
		sort.Slice(items, func(i, j int) bool {
			if items[i].Kind != core.KindManagedApp || items[j].Kind != core.KindManagedApp {
				return items[i].Kind == core.KindManagedApp
			}
			return items[i].App.InstalledAt.After(items[j].App.InstalledAt)
		})
	default:
		sort.Slice(items, byName)
	}
}

func itemSize(item core.InstalledItem) int64 {
	if item.Kind == core.KindManagedApp {
		return item.App.SizeBytes
	}
	return -1
}

// printSummary prints the header line with counts per kind
func printSummary(all, filtered []core.InstalledItem, filterKind, filterName string) {
	apps, debs := 0, 0
	for _, item := range all {
		switch item.Kind {
		case core.KindManagedApp:
			apps++
		case core.KindNativePackage:
			debs++
		}
	}

	ui.PrintHeader("Installed Items")
	fmt.Printf("Total: %d", len(all))
	if len(filtered) != len(all) {
		fmt.Printf(" (showing %d filtered)", len(filtered))
	}
	fmt.Printf("  %s %s: %d | %s: %d\n", ui.Bullet, ui.ColorizeKind("app"), apps, ui.ColorizeKind("deb"), debs)

	if filterKind != "" || filterName != "" {
		ui.PrintInfo("Active filters:")
		if filterKind != "" {
			fmt.Printf("  %s Kind: %s\n", ui.Bullet, ui.ColorizeKind(strings.ToLower(filterKind)))
		}
		if filterName != "" {
			fmt.Printf("  %s Name: %s\n", ui.Bullet, filterName)
		}
	}
	fmt.Println()
}

// printTable renders the listing as a borderless table
func printTable(cmd *cobra.Command, items []core.InstalledItem) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeader([]string{"Name", "Kind", "Version/Size", "Installed", "Menu"}),
		tablewriter.WithAlignment(tw.MakeAlign(5, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleNone)),
	)

	for _, item := range items {
		switch item.Kind {
		case core.KindManagedApp:
			menu := ui.CrossMark
			if item.App.HasDesktopEntry {
				menu = ui.CheckMark
			}
			table.Append(
				item.App.Name,
				ui.ColorizeKind(string(item.Kind)),
				humanize.Bytes(uint64(item.App.SizeBytes)),
				item.App.InstalledAt.Format("2006-01-02 15:04"),
				menu,
			)
		case core.KindNativePackage:
			version := item.Pkg.Version
			if version == "" {
				version = "-"
			}
			table.Append(
				item.Pkg.Name,
				ui.ColorizeKind(string(item.Kind)),
				version,
				"-",
				"-",
			)
		}
	}

	table.Render()
}
