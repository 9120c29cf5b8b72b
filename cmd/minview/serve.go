package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmssh "github.com/charmbracelet/ssh"
	"github.com/spf13/cobra"

	"minview/internal/catalog"
	"minview/internal/config"
	"minview/internal/datadir"
	"minview/internal/mindtct"
	"minview/internal/ratelimit"
	internalssh "minview/internal/ssh"
	"minview/internal/session"
)

var (
	serveListenAddr string
	serveHostKey    string
	serveAuthKeys   string
	serveImage      string
	serveMinutiae   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the viewer over SSH",
	Long: `Start an SSH server that serves the interactive viewer. Every connection
gets its own session, loaded with the configured image and minutiae.

Only keys in the authorized keys file are accepted. Manage them with
'minview ssh-keys'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dd, err := loadConfig()
		if err != nil {
			return err
		}
		applyServeFlags(cmd, cfg)
		if !cfg.SSH.Enabled {
			return fmt.Errorf("ssh is disabled; set ssh.enabled to true in the config or pass --listen")
		}
		return runServe(cfg, dd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", "", "SSH listen address (default from config, :2222)")
	serveCmd.Flags().StringVar(&serveHostKey, "host-key", "", "path to the SSH host key")
	serveCmd.Flags().StringVar(&serveAuthKeys, "authorized-keys", "", "path to the authorized_keys file")
	serveCmd.Flags().StringVar(&serveImage, "image", "", "fingerprint image loaded into each session")
	serveCmd.Flags().StringVar(&serveMinutiae, "minutiae", "", "minutiae file loaded into each session")
}

// applyServeFlags overrides the ssh section with flags given on the command
// line. An explicit --listen enables the server.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("listen") {
		cfg.SSH.ListenAddr = serveListenAddr
		cfg.SSH.Enabled = true
	}
	if serveHostKey != "" {
		cfg.SSH.HostKeyPath = serveHostKey
	}
	if serveAuthKeys != "" {
		cfg.SSH.AuthorizedKeysPath = serveAuthKeys
	}
	if serveImage != "" {
		cfg.SSH.Image = serveImage
	}
	if serveMinutiae != "" {
		cfg.SSH.Minutiae = serveMinutiae
	}
}

// sshServerConfig builds the server configuration. Each connection loads
// its own copy of the configured image and minutiae.
func sshServerConfig(cfg *config.Config, st *storage, store *catalog.Store) internalssh.SSHConfig {
	opts := viewerOptions{ImagePath: cfg.SSH.Image}
	if opts.ImagePath != "" {
		if cfg.SSH.Minutiae != "" {
			opts.MinutiaePath = cfg.SSH.Minutiae
		} else {
			opts.MinutiaePath = mindtct.OutputPath(opts.ImagePath)
			opts.MinutiaeOptional = true
		}
	}

	sc := internalssh.SSHConfig{
		ListenAddr:         cfg.SSH.ListenAddr,
		HostKeyPath:        cfg.SSH.HostKeyPath,
		AuthorizedKeysPath: cfg.SSH.AuthorizedKeysPath,
		NewSession: func(ctx context.Context) (*session.Session, error) {
			return newViewer(ctx, cfg, st, opts)
		},
		NewExtractor: extractorFactory(cfg),
		ImagePath:    opts.ImagePath,
		MinutiaePath: opts.MinutiaePath,
	}
	if store != nil {
		sc.Catalog = store
	}
	return sc
}

func runServe(cfg *config.Config, dd *datadir.DataDir) error {
	if err := dd.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := catalog.Open(cfg.CatalogPath(dd))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer store.Close()

	sc := sshServerConfig(cfg, newStorage(cfg.Remote), store)
	if cfg.SSH.SessionsPerMinute > 0 {
		sc.Limiter = ratelimit.NewSlidingWindow(time.Minute, cfg.SSH.SessionsPerMinute, 5*time.Minute)
		defer sc.Limiter.Stop()
	}

	server, err := internalssh.NewServer(sc)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	scheduler := newMaintenance(cfg, dd, store)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance: %w", err)
	}
	defer scheduler.Stop()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("[SSH] Listening on %s", cfg.SSH.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, charmssh.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-sigChan:
		log.Println("[SSH] Shutting down...")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("SSH server error: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[SSH] Graceful shutdown failed: %v", err)
		return server.Close()
	}
	return nil
}
