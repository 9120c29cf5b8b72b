package main

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/spf13/cobra"

	"minview/internal/codec"
)

var (
	convertImage  string
	convertWidth  int
	convertHeight int
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a minutiae file between formats",
	Long: `Convert a minutiae file between the SIMPLE (.sim), NBIST (.min) and
XYT (.xyt) formats. Formats follow the file extensions.

NBIST output records the image dimensions. They are taken from an NBIST
input, from --image, or from --width and --height.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		return runConvert(cmd.Context(), newStorage(cfg.Remote), args[0], args[1], convertOptions{
			ImagePath: convertImage,
			Dims:      image.Pt(convertWidth, convertHeight),
		})
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertImage, "image", "", "fingerprint image to take NBIST dimensions from")
	convertCmd.Flags().IntVar(&convertWidth, "width", 0, "image width for NBIST output")
	convertCmd.Flags().IntVar(&convertHeight, "height", 0, "image height for NBIST output")
	convertCmd.MarkFlagsRequiredTogether("width", "height")
	convertCmd.MarkFlagsMutuallyExclusive("image", "width")
}

type convertOptions struct {
	ImagePath string
	Dims      image.Point
}

func runConvert(ctx context.Context, st *storage, input, output string, opts convertOptions) error {
	in, err := codec.FormatForPath(input)
	if err != nil {
		return err
	}
	out, err := codec.FormatForPath(output)
	if err != nil {
		return err
	}

	data, err := st.Read(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}
	c, err := codec.Decode(in, string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	dims := opts.Dims
	if out == codec.NBIST && dims == (image.Point{}) {
		switch {
		case in == codec.NBIST:
			dims, _ = codec.Header(string(data))
		case opts.ImagePath != "":
			img, err := st.LoadImage(ctx, opts.ImagePath)
			if err != nil {
				return err
			}
			dims = img.Bounds().Size()
		default:
			return fmt.Errorf("NBIST output needs image dimensions: pass --image or --width and --height")
		}
	}

	if err := st.SaveMinutiae(ctx, output, c, dims); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	log.Printf("[Convert] %s (%s) -> %s (%s), %d minutiae", input, in, output, out, c.Len())
	return nil
}
