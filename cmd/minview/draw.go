package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"minview/internal/config"
	"minview/internal/imageio"
)

var (
	drawOutput     string
	drawMarkerSize int
	drawQuality    float64
)

var drawCmd = &cobra.Command{
	Use:   "draw <image> [minutiae]",
	Short: "Draw minutiae over a fingerprint image",
	Long: `Draw the minutiae of a fingerprint over its image and write the result
as PNG at the image's own resolution.

The minutiae file defaults to the image path with a .min extension. Its
format follows the extension: .sim, .min or .xyt.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("size") {
			cfg.Display.MarkerSize = drawMarkerSize
		}
		if cmd.Flags().Changed("quality") {
			cfg.Display.QualityThreshold = drawQuality
		}
		if err := cfg.Display.Validate(); err != nil {
			return err
		}

		minPath, _ := minutiaePathFor(args[0], args[1:])
		return runDraw(cmd.Context(), cfg, newStorage(cfg.Remote), args[0], minPath, drawOutput)
	},
}

func init() {
	drawCmd.Flags().StringVarP(&drawOutput, "output", "o", "", "output PNG path (required)")
	drawCmd.Flags().IntVar(&drawMarkerSize, "size", 0, "marker size in image pixels (default: scaled to the image)")
	drawCmd.Flags().Float64Var(&drawQuality, "quality", 0, "only draw minutiae with at least this quality (0-1)")
	_ = drawCmd.MarkFlagRequired("output")
}

func runDraw(ctx context.Context, cfg *config.Config, st *storage, imagePath, minutiaePath, output string) error {
	if !strings.EqualFold(filepath.Ext(output), ".png") {
		return fmt.Errorf("output must be a .png file, got %q", output)
	}

	s, err := newViewer(ctx, cfg, st, viewerOptions{ImagePath: imagePath, MinutiaePath: minutiaePath})
	if err != nil {
		return err
	}

	out, err := s.RenderFull()
	if err != nil {
		return fmt.Errorf("failed to draw minutiae: %w", err)
	}
	data, err := imageio.PNGBytes(out)
	if err != nil {
		return err
	}
	if err := st.Write(ctx, output, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	log.Printf("[Draw] %d minutiae drawn to %s", s.Collection().Len(), output)
	return nil
}
