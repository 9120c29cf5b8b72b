package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"minview/internal/catalog"
	"minview/internal/codec"
	"minview/internal/config"
	"minview/internal/datadir"
)

var (
	catalogNote   string
	catalogSource string
	catalogImage  string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage saved minutiae sets",
	Long: `The catalog keeps named minutiae sets per fingerprint image in a local
database, so several annotations of the same print can be compared and
exported later.`,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <image> <minutiae>",
	Short: "Save a minutiae file to the catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, cfg *config.Config, store *catalog.Store) error {
			id, err := addToCatalog(ctx, newStorage(cfg.Remote), store, args[0], args[1], catalogNote, catalog.Source(catalogSource))
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		})
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved minutiae sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, _ *config.Config, store *catalog.Store) error {
			return listCatalog(ctx, os.Stdout, store, catalogImage)
		})
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved minutiae set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, _ *config.Config, store *catalog.Store) error {
			return showCatalogEntry(ctx, os.Stdout, store, args[0])
		})
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export <id> [output]",
	Short: "Write a saved minutiae set to a file",
	Long: `Write a saved minutiae set to a file. The format follows the output
extension. Without an output path the set is written as SIMPLE into the
data directory's exports folder.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dd, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := catalog.Open(cfg.CatalogPath(dd))
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer store.Close()

		output := ""
		if len(args) > 1 {
			output = args[1]
		}
		path, err := exportCatalogEntry(cmd.Context(), newStorage(cfg.Remote), store, dd, args[0], output)
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved minutiae set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd, func(ctx context.Context, _ *config.Config, store *catalog.Store) error {
			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted.")
			return nil
		})
	},
}

func init() {
	catalogAddCmd.Flags().StringVar(&catalogNote, "note", "", "note stored with the set")
	catalogAddCmd.Flags().StringVar(&catalogSource, "source", string(catalog.SourceFile), "how the set was produced: file, manual or mindtct")
	catalogListCmd.Flags().StringVar(&catalogImage, "image", "", "only list sets of this image")

	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)
}

// withCatalog loads the configuration, opens the catalog and runs fn
func withCatalog(cmd *cobra.Command, fn func(context.Context, *config.Config, *catalog.Store) error) error {
	cfg, dd, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg.CatalogPath(dd))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()
	return fn(cmd.Context(), cfg, store)
}

func addToCatalog(ctx context.Context, st *storage, store *catalog.Store, imagePath, minutiaePath, note string, source catalog.Source) (string, error) {
	switch source {
	case catalog.SourceFile, catalog.SourceManual, catalog.SourceMindtct:
	default:
		return "", fmt.Errorf("unknown source %q (must be file, manual or mindtct)", source)
	}

	c, err := st.LoadMinutiae(ctx, minutiaePath)
	if err != nil {
		return "", err
	}

	// Dimensions come from the image when it can be read; an NBIST file
	// carries them too.
	var dims image.Point
	if img, err := st.LoadImage(ctx, imagePath); err == nil {
		dims = img.Bounds().Size()
	} else if data, rerr := st.Read(ctx, minutiaePath); rerr == nil {
		dims, _ = codec.Header(string(data))
	}

	return store.Save(ctx, catalog.Entry{
		ImagePath: imagePath,
		Dims:      dims,
		Note:      note,
		Source:    source,
		Minutiae:  c.All(),
	})
}

func listCatalog(ctx context.Context, out io.Writer, store *catalog.Store, imagePath string) error {
	sets, err := store.List(ctx, imagePath)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		fmt.Fprintln(out, "No saved minutiae sets.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tIMAGE\tMINUTIAE\tSOURCE\tUPDATED\tNOTE")
	for _, s := range sets {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			s.ID, s.ImagePath, s.Count, s.Source, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.Note)
	}
	return w.Flush()
}

func showCatalogEntry(ctx context.Context, out io.Writer, store *catalog.Store, id string) error {
	e, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ID:       %s\n", e.ID)
	fmt.Fprintf(out, "Image:    %s\n", e.ImagePath)
	if e.Dims != (image.Point{}) {
		fmt.Fprintf(out, "Size:     %dx%d\n", e.Dims.X, e.Dims.Y)
	}
	fmt.Fprintf(out, "Source:   %s\n", e.Source)
	if e.Note != "" {
		fmt.Fprintf(out, "Note:     %s\n", e.Note)
	}
	fmt.Fprintf(out, "Updated:  %s\n", e.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Minutiae: %d\n\n", len(e.Minutiae))

	if len(e.Minutiae) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tX\tY\tANGLE\tTYPE\tQUALITY")
	for i, m := range e.Minutiae {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.1f\t%s\t%.2f\n", i, m.X, m.Y, m.Angle, m.Type, m.Quality)
	}
	return w.Flush()
}

// exportCatalogEntry writes a saved set to output, or to a .sim file named
// after the image in the exports folder when output is empty
func exportCatalogEntry(ctx context.Context, st *storage, store *catalog.Store, dd *datadir.DataDir, id, output string) (string, error) {
	e, err := store.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if output == "" {
		if err := dd.EnsureDirs(); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
		base := strings.TrimSuffix(filepath.Base(e.ImagePath), filepath.Ext(e.ImagePath))
		output = filepath.Join(dd.ExportDir(), fmt.Sprintf("%s-%s%s", base, shortID(e.ID), codec.Simple.Ext()))
	}

	f, err := codec.FormatForPath(output)
	if err != nil {
		return "", err
	}
	if f == codec.NBIST && e.Dims == (image.Point{}) {
		return "", fmt.Errorf("set %s has no image dimensions, export it as .sim or .xyt", e.ID)
	}

	if err := st.SaveMinutiae(ctx, output, e.Collection(), e.Dims); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", output, err)
	}
	return output, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
