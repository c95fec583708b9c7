package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hmallory/toytill/internal/cli"
	"github.com/hmallory/toytill/internal/model"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scans",
		RunE:  runHistory,
	}

	cmd.Flags().Int("limit", 20, "maximum number of scans to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	limit, _ := cmd.Flags().GetInt("limit")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	scans, err := store.RecentScans(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load scan history: %w", err)
	}

	if len(scans) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No scans recorded yet."))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render("Recent scans"))
	for _, scan := range scans {
		price := model.PriceFromCents(scan.PriceCents)
		fmt.Printf("  %s  %s %s %s\n",
			cli.SubtleStyle.Render(scan.CreatedAt.Format("2006-01-02 15:04")),
			cli.BoldStyle.Render(scan.Name),
			cli.PriceStyle.Render(price.String()),
			cli.SubtleStyle.Render(fmt.Sprintf("(%s, via %s)", scan.Category.DisplayName(), scan.Provenance)),
		)
	}

	return nil
}
