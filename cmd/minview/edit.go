package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"minview/internal/catalog"
	"minview/internal/remote"
	"minview/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit <image> [minutiae]",
	Short: "View and edit minutiae in the terminal",
	Long: `Open the interactive viewer on a fingerprint image.

The minutiae file defaults to the image path with a .min extension and is
optional in that case. On the Manual Labeling tab, click to place a ridge
ending, ctrl+click for a bifurcation, drag to set the angle and right click
to delete the nearest minutia.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dd, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		st := newStorage(cfg.Remote)

		minPath, optional := minutiaePathFor(args[0], args[1:])
		s, err := newViewer(ctx, cfg, st, viewerOptions{
			ImagePath:        args[0],
			MinutiaePath:     minPath,
			MinutiaeOptional: optional,
		})
		if err != nil {
			return err
		}

		store, err := catalog.Open(cfg.CatalogPath(dd))
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer store.Close()

		// The save prompt writes local files only
		if remote.IsURL(minPath) {
			minPath = ""
		}

		log.Printf("[TUI] Editing %s", args[0])
		return tui.Run(tui.ModelConfig{
			Session:      s,
			NewExtractor: extractorFactory(cfg),
			Catalog:      store,
			ImagePath:    args[0],
			MinutiaePath: minPath,
			Context:      ctx,
		})
	},
}
