package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"minview/internal/catalog"
	"minview/internal/config"
	"minview/internal/datadir"
	"minview/internal/maintenance"
)

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Optimize the catalog and prune old exports",
	Long: `Run the maintenance tasks once: VACUUM and ANALYZE on the catalog
database and removal of exports older than maintenance.exports.retention_days.

'minview serve' also runs them on maintenance.schedule when
maintenance.enabled is true.`,
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

		s := newMaintenance(cfg, dd, store)
		runErr := s.RunNow(cmd.Context())

		statuses := s.GetStatus()
		names := make([]string, 0, len(statuses))
		for name := range statuses {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TASK\tRESULT\tDURATION\tMESSAGE")
		for _, name := range names {
			st := statuses[name]
			res := "ok"
			if !st.LastResult.Success {
				res = "failed"
			}
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", name, res, st.LastResult.Duration.Round(time.Millisecond), st.LastResult.Message)
		}
		w.Flush()
		return runErr
	},
}

// newMaintenance builds the scheduler with the catalog and exports tasks
func newMaintenance(cfg *config.Config, dd *datadir.DataDir, store *catalog.Store) *maintenance.Scheduler {
	s := maintenance.NewScheduler(cfg.Maintenance, log.Default())
	s.RegisterTask(maintenance.NewCatalogTask(store.DB(), cfg.Maintenance.Catalog, log.Default()))
	s.RegisterTask(maintenance.NewExportsTask(dd.ExportDir(), cfg.Maintenance.Exports, log.Default()))
	return s
}
