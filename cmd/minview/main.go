package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"minview/internal/config"
	"minview/internal/datadir"
	internalssh "minview/internal/ssh"
	"minview/internal/version"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "minview",
	Short: "minview - fingerprint minutiae viewer and editor",
	Long: `minview draws, converts, detects and edits fingerprint minutiae.

Minutiae files are read and written in the SIMPLE (.sim), NBIST (.min) and
XYT (.xyt) formats. Paths of the form s3://bucket/key are read from and
written to the object store configured under "remote".`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("minview %s\n", version.Full())
		buildInfo := version.GetBuildInfo()

		if buildInfo.GitCommit != "unknown" {
			fmt.Printf("Git commit: %s\n", buildInfo.GitCommit)
		}
		if buildInfo.GitTag != "" {
			fmt.Printf("Git tag: %s\n", buildInfo.GitTag)
		}
		if buildInfo.GitDirty {
			fmt.Printf("Git status: dirty (uncommitted changes)\n")
		}
		if buildInfo.BuildDate != "unknown" {
			fmt.Printf("Build date: %s\n", buildInfo.BuildDate)
		}
		fmt.Printf("Go version: %s\n", buildInfo.GoVersion)

		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: <data dir>/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(drawCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sshKeysCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Verbose logging enabled")
	}
	loadDataDirEnv()
}

// loadDataDirEnv exports the data directory's .env before the config is
// read, so ${VAR} placeholders in it resolve
func loadDataDirEnv() {
	dd, err := datadir.New("")
	if err != nil {
		log.Printf("[Config] Failed to resolve data directory: %v", err)
		return
	}
	keys, err := dd.LoadEnv()
	if err != nil {
		log.Printf("[Config] Failed to load %s: %v", dd.EnvPath(), err)
		return
	}
	if verbose && len(keys) > 0 {
		log.Printf("[Config] Loaded %s from %s", strings.Join(keys, ", "), dd.EnvPath())
	}
}

// configPath returns --config, or config.yaml in the default data directory
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dd, err := datadir.New("")
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory: %w", err)
	}
	return dd.ConfigPath(), nil
}

// loadConfig loads the configuration and resolves the data directory it
// names. A missing config file is created with defaults.
func loadConfig() (*config.Config, *datadir.DataDir, error) {
	path, err := configPath()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dd, err := datadir.New(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	// Wire data_dir into SSH key resolution
	internalssh.DataDirConfig = cfg.DataDir

	return cfg, dd, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
