package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"minview/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Backup and restore minview data",
	Long:  `Create, restore, and inspect portable snapshots of the catalog, config, and optional SSH keys and exports.`,
}

// backup create flags
var (
	backupOutput     string
	backupSSHKeys    bool
	backupExports    bool
	backupJSONOutput bool
)

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup archive",
	Long:  `Create a .tar.gz archive containing the catalog database and the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		result, err := backup.Create(ctx, backup.Options{
			ConfigPath:     path,
			OutputPath:     backupOutput,
			IncludeSSHKeys: backupSSHKeys,
			IncludeExports: backupExports,
		})
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		if backupJSONOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}

		fmt.Printf("Backup created: %s\n", result.ArchivePath)
		fmt.Printf("Files: %d\n", result.FileCount)
		fmt.Printf("Size: %s\n", backup.FormatBytes(result.TotalSize))
		fmt.Printf("Components: %s\n", result.Components)
		fmt.Printf("Duration: %v\n", result.Duration.Round(time.Millisecond))

		for _, w := range result.Warnings {
			fmt.Printf("WARNING: %s\n", w)
		}

		return nil
	},
}

// backup restore flags
var (
	restoreDryRun      bool
	restoreForce       bool
	restoreSkipConfig  bool
	restoreSSHKeys     bool
	restoreConfigPath  string
	restoreCatalogPath string
	restoreExportDir   string
	restoreJSONOutput  bool
)

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore from a backup archive",
	Long:  `Restore minview data from a previously created backup archive.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := backup.RestoreOptions{
			BackupPath:     args[0],
			DryRun:         restoreDryRun,
			Force:          restoreForce,
			SkipConfig:     restoreSkipConfig,
			RestoreSSHKeys: restoreSSHKeys,
			ConfigPath:     restoreConfigPath,
			CatalogPath:    restoreCatalogPath,
			ExportDir:      restoreExportDir,
			Verbose:        verbose,
		}

		result, err := backup.Restore(opts)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		if restoreJSONOutput {
			return json.NewEncoder(os.Stdout).Encode(result)
		}

		if !opts.DryRun {
			fmt.Printf("Restore complete.\n")
			fmt.Printf("Files restored: %d\n", result.FilesRestored)
			fmt.Printf("Files skipped: %d\n", result.FilesSkipped)
			fmt.Printf("Components: %s\n", result.Components)
		}

		for _, w := range result.Warnings {
			fmt.Printf("WARNING: %s\n", w)
		}

		return nil
	},
}

// backup list flags
var (
	listJSONOutput bool
	listVerbose    bool
)

var backupListCmd = &cobra.Command{
	Use:   "list <backup-file>",
	Short: "Inspect a backup archive",
	Long:  `Display the contents and metadata of a backup archive.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := backup.ListOptions{
			BackupPath: args[0],
			JSONOutput: listJSONOutput,
			Verbose:    listVerbose || verbose,
		}

		result, err := backup.List(opts)
		if err != nil {
			return fmt.Errorf("list failed: %w", err)
		}

		return backup.PrintListResult(os.Stdout, result, opts)
	},
}

func init() {
	backupCreateCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "Output file path (default: minview-backup-YYYYMMDD-HHMMSS.tar.gz)")
	backupCreateCmd.Flags().BoolVar(&backupSSHKeys, "include-ssh-keys", false, "Include SSH keys in backup")
	backupCreateCmd.Flags().BoolVar(&backupExports, "include-exports", false, "Include exported minutiae files")
	backupCreateCmd.Flags().BoolVar(&backupJSONOutput, "json", false, "Output results in JSON format")

	backupRestoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "Preview restore without writing files")
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Skip confirmation prompt")
	backupRestoreCmd.Flags().BoolVar(&restoreSkipConfig, "skip-config", false, "Don't restore config file")
	backupRestoreCmd.Flags().BoolVar(&restoreSSHKeys, "restore-ssh-keys", false, "Restore SSH keys (explicit opt-in)")
	backupRestoreCmd.Flags().StringVar(&restoreConfigPath, "config-path", "", "Override config destination path")
	backupRestoreCmd.Flags().StringVar(&restoreCatalogPath, "catalog-path", "", "Override catalog destination path")
	backupRestoreCmd.Flags().StringVar(&restoreExportDir, "export-dir", "", "Override exports destination directory")
	backupRestoreCmd.Flags().BoolVar(&restoreJSONOutput, "json", false, "Output results in JSON format")

	backupListCmd.Flags().BoolVar(&listJSONOutput, "json", false, "Output in JSON format")
	backupListCmd.Flags().BoolVar(&listVerbose, "files", false, "Show all files in archive")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupListCmd)
}
