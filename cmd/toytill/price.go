package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hmallory/toytill/internal/cli"
	"github.com/hmallory/toytill/internal/model"
	"github.com/hmallory/toytill/internal/pricing"
)

func priceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price <item name>",
		Short: "Show the deterministic suggested price for an item",
		Long: `Show the price the pipeline would attach to an item. Prices are a pure
function of category and item name: the same item always costs the same.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPrice,
	}

	cmd.Flags().String("category", "", "item category (defaults to showing every category)")

	return cmd
}

func runPrice(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")
	rawCategory, _ := cmd.Flags().GetString("category")

	if rawCategory != "" {
		category := model.ParseCategory(rawCategory)
		price := pricing.Suggest(category, name)
		fmt.Printf("%s %s %s\n",
			cli.BoldStyle.Render(name),
			cli.SubtleStyle.Render("("+category.DisplayName()+")"),
			cli.PriceStyle.Render(price.String()))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render(name))
	for _, category := range model.Categories() {
		price := pricing.Suggest(category, name)
		fmt.Printf("  %s %s\n",
			cli.TableCellStyle.Render(category.DisplayName()),
			cli.PriceStyle.Render(price.String()))
	}
	return nil
}
