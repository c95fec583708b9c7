package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hmallory/toytill/internal/cli"
	"github.com/hmallory/toytill/internal/sprite"
)

func spritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sprites",
		Short: "Manage cached sprites",
	}

	cmd.AddCommand(spritesListCmd())
	cmd.AddCommand(spritesClearCmd())

	return cmd
}

func spritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached sprite keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			disk, err := sprite.NewDiskCache(spriteCacheDir())
			if err != nil {
				return fmt.Errorf("failed to open sprite cache: %w", err)
			}
			diskKeys, err := disk.Keys()
			if err != nil {
				return fmt.Errorf("failed to list sprite cache: %w", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close storage", "error", closeErr)
				}
			}()
			serverKeys, err := store.ListSpriteKeys(ctx)
			if err != nil {
				return fmt.Errorf("failed to list server sprite cache: %w", err)
			}

			if len(diskKeys) == 0 && len(serverKeys) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No cached sprites."))
				return nil
			}

			if len(diskKeys) > 0 {
				fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Disk cache (%d)", len(diskKeys))))
				for _, key := range diskKeys {
					fmt.Printf("  %s\n", key)
				}
			}
			if len(serverKeys) > 0 {
				fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Server cache (%d)", len(serverKeys))))
				for _, key := range serverKeys {
					fmt.Printf("  %s\n", key)
				}
			}
			return nil
		},
	}
}

func spritesClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached sprites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			disk, err := sprite.NewDiskCache(spriteCacheDir())
			if err != nil {
				return fmt.Errorf("failed to open sprite cache: %w", err)
			}
			removed, err := disk.Clear()
			if err != nil {
				return fmt.Errorf("failed to clear sprite cache: %w", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("Failed to close storage", "error", closeErr)
				}
			}()
			cleared, err := store.ClearSprites(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear server sprite cache: %w", err)
			}

			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Cleared %d disk and %d server sprites", removed, cleared)))
			return nil
		},
	}
}
