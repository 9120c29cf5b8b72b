package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"minview/internal/config"
	"minview/internal/mindtct"
	"minview/internal/remote"
)

var (
	extractAlgorithm string
	extractJobs      int
	extractMindtct   string
)

var extractCmd = &cobra.Command{
	Use:   "extract <image>...",
	Short: "Detect minutiae with mindtct",
	Long: `Run the mindtct detector over one or more fingerprint images and write
the detected minutiae in NBIST format next to each image as <image>.min.

Images are processed concurrently, at most --jobs at a time. A failed image
is reported and does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if extractAlgorithm != "" {
			a, err := mindtct.ParseAlgorithm(extractAlgorithm)
			if err != nil {
				return err
			}
			cfg.Mindtct.Algorithm = a
		}
		if cmd.Flags().Changed("jobs") {
			cfg.Mindtct.Jobs = extractJobs
		}
		if extractMindtct != "" {
			cfg.Mindtct.Path = extractMindtct
		}
		if err := cfg.Mindtct.Validate(); err != nil {
			return err
		}

		results, err := runExtract(cmd.Context(), cfg, newStorage(cfg.Remote), args)
		printResults(os.Stdout, results)
		if err != nil {
			return err
		}
		return batchError(results)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractAlgorithm, "algorithm", "a", "", "detection algorithm: m1 or iafis (default from config)")
	extractCmd.Flags().IntVarP(&extractJobs, "jobs", "j", mindtct.DefaultJobs, "maximum concurrent mindtct runs")
	extractCmd.Flags().StringVar(&extractMindtct, "mindtct", "", "path to the mindtct binary")
}

// runExtract detects minutiae in every image. Local images go through the
// extractor's batch runner; remote images are fetched, detected and
// uploaded one at a time.
func runExtract(ctx context.Context, cfg *config.Config, st *storage, paths []string) ([]mindtct.Result, error) {
	ex := cfg.Mindtct.Extractor()

	var local []string
	var localIdx []int
	results := make([]mindtct.Result, len(paths))
	for i, p := range paths {
		if remote.IsURL(p) {
			continue
		}
		local = append(local, p)
		localIdx = append(localIdx, i)
	}

	if len(local) > 0 {
		batch, err := ex.ExtractAll(ctx, local, cfg.Mindtct.JobLimit())
		for j, r := range batch {
			results[localIdx[j]] = r
		}
		if err != nil {
			return results, err
		}
	}

	for i, p := range paths {
		if !remote.IsURL(p) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results[i] = extractRemote(ctx, ex, st, p)
	}
	return results, nil
}

func extractRemote(ctx context.Context, ex *mindtct.Extractor, st *storage, path string) mindtct.Result {
	res := mindtct.Result{Image: path, Output: mindtct.OutputPath(path)}

	img, err := st.LoadImage(ctx, path)
	if err != nil {
		res.Err = err
		return res
	}
	c, err := ex.Extract(ctx, img)
	if err != nil {
		res.Err = err
		return res
	}
	if err := st.SaveMinutiae(ctx, res.Output, c, img.Bounds().Size()); err != nil {
		res.Err = err
		return res
	}
	res.Minutiae = c.Len()
	return res
}

func printResults(out io.Writer, results []mindtct.Result) {
	if len(results) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IMAGE\tOUTPUT\tMINUTIAE\tSTATUS")
	for _, r := range results {
		if r.Image == "" {
			continue
		}
		status := "ok"
		count := fmt.Sprint(r.Minutiae)
		if r.Err != nil {
			status = r.Err.Error()
			count = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Image, r.Output, count, status)
	}
	w.Flush()
}

func batchError(results []mindtct.Result) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(results))
	}
	return nil
}
