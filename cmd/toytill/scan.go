package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hmallory/toytill/internal/catalog"
	"github.com/hmallory/toytill/internal/cli"
	"github.com/hmallory/toytill/internal/common"
	"github.com/hmallory/toytill/internal/engine"
	"github.com/hmallory/toytill/internal/identify"
	"github.com/hmallory/toytill/internal/model"
	"github.com/hmallory/toytill/internal/sprite"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [image]",
		Short: "Identify an item from a captured frame or barcode",
		Long: `Run one capture through the identification chain: barcode catalog lookup
first, then the remote vision classifier via the backend. The accepted item
is priced and its sprite resolved through the cache tiers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}

	cmd.Flags().String("code", "", "pre-detected barcode for catalog lookup")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	code, _ := cmd.Flags().GetString("code")

	var frame identify.Frame
	if len(args) > 0 {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		frame = identify.Frame{MIME: frameMIME(args[0]), Bytes: image}
	}
	if len(frame.Bytes) == 0 && code == "" {
		return common.NewUserError("nothing to scan: provide an image path, a --code barcode, or both", nil)
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

	client, err := backendClient()
	if err != nil {
		return err
	}

	providers := []identify.Provider{
		identify.NewCatalogProvider(catalog.New(
			catalog.NewOpenFoodFactsSource(),
			catalog.NewUPCItemDBSource(),
		)),
		// No on-device vision model here; the local tier is a pass-through
		// and every frame without a catalog hit escalates to the backend,
		// which moderates it server-side before classification.
		identify.NewLocalProvider(nil, identify.DefaultConfidenceThreshold),
		identify.NewRemoteProvider(identify.NewBackendClassifier(client), nil),
	}

	disk, err := sprite.NewDiskCache(spriteCacheDir())
	if err != nil {
		return fmt.Errorf("failed to open sprite cache: %w", err)
	}
	resolver := sprite.NewResolver(sprite.NewBundleStore(bundleDir()), disk, client)

	eng := engine.New(providers, resolver, engine.NewCart(), engine.WithScanRecorder(store))

	entry, err := eng.Identify(ctx, frame, code)
	if err != nil {
		if errors.Is(err, common.ErrUnresolved) {
			fmt.Println(cli.WarningStyle.Render("Could not identify the item. Try another angle or enter it manually."))
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Println(cli.TitleStyle.Render("Item identified"))
	fmt.Printf("  %s %s\n", cli.BoldStyle.Render(entry.Name), cli.SubtleStyle.Render("("+entry.Category.DisplayName()+")"))
	fmt.Printf("  %s\n", cli.PriceStyle.Render(entry.Price.String()))

	fmt.Println(cli.SubtleStyle.Render("Resolving sprite..."))
	select {
	case update := <-eng.Updates():
		switch update.Sprite.Kind {
		case model.SpriteLocal, model.SpriteGenerated:
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Sprite ready (%s, %d bytes)", update.Sprite.Kind, len(update.Sprite.Image))))
		case model.SpriteSuppressed:
			fmt.Println(cli.WarningStyle.Render("No sprite available for this item"))
		default:
			fmt.Println(cli.SubtleStyle.Render("Showing placeholder " + update.Sprite.Symbol))
		}
	case <-time.After(30 * time.Second):
		fmt.Println(cli.SubtleStyle.Render("Sprite still resolving; placeholder " + entry.Sprite.Symbol + " shown"))
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// frameMIME maps a file extension to the capture MIME type.
func frameMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
