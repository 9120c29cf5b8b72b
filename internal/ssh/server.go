// Package ssh serves the minutiae editor over SSH. Every connection gets a
// session of its own; nothing is shared between connections.
package ssh

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	charmssh "github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	wishbubbletea "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"minview/internal/mindtct"
	"minview/internal/ratelimit"
	"minview/internal/session"
	"minview/internal/tui"
)

// DefaultListenAddr is used when no address is configured
const DefaultListenAddr = ":2222"

// SSHConfig holds configuration for the SSH server
type SSHConfig struct {
	ListenAddr         string
	HostKeyPath        string
	AuthorizedKeysPath string

	// NewSession prepares the session of one connection, typically by
	// loading the configured image and minutiae. Required.
	NewSession func(ctx context.Context) (*session.Session, error)
	// NewExtractor enables detection from the MINDTCT tab when set
	NewExtractor func(mindtct.Algorithm) session.Extractor
	// Catalog enables catalog saves when set
	Catalog tui.CatalogSaver

	ImagePath    string
	MinutiaePath string

	// Limiter bounds how often one remote host may open sessions. Nil
	// disables limiting. The caller owns it and stops it.
	Limiter *ratelimit.SlidingWindow
}

// NewServer creates a Wish SSH server that serves the TUI
func NewServer(config SSHConfig) (*charmssh.Server, error) {
	if config.NewSession == nil {
		return nil, fmt.Errorf("ssh server needs a session factory")
	}
	if config.ListenAddr == "" {
		config.ListenAddr = DefaultListenAddr
	}
	if config.HostKeyPath == "" {
		path, err := DefaultHostKeyPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get SSH host key path: %w", err)
		}
		config.HostKeyPath = path
	}

	// Load authorized keys for public key auth
	authorizedKeys, err := LoadAuthorizedKeys(config.AuthorizedKeysPath)
	if err != nil {
		log.Printf("[SSH] No authorized keys loaded: %v", err)
		authorizedKeys = nil
	} else {
		log.Printf("[SSH] Loaded %d authorized keys", len(authorizedKeys))
	}

	handler := func(sess charmssh.Session) (tea.Model, []tea.ProgramOption) {
		return sshBubbleTeaHandler(sess, config)
	}

	opts := []charmssh.Option{
		wish.WithAddress(config.ListenAddr),
		wish.WithHostKeyPath(config.HostKeyPath),
		wish.WithMiddleware(
			wishbubbletea.Middleware(handler),
			activeterm.Middleware(),
			rateLimitMiddleware(config.Limiter),
			logging.Middleware(),
		),
	}

	// Add public key auth if we have authorized keys
	if len(authorizedKeys) > 0 {
		opts = append(opts, wish.WithPublicKeyAuth(func(ctx charmssh.Context, key charmssh.PublicKey) bool {
			return publicKeyHandler(ctx.User(), key, authorizedKeys)
		}))
	} else {
		log.Printf("[SSH] WARNING: no authorized keys, any client can connect")
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}

	return server, nil
}

// sshBubbleTeaHandler creates a fresh session and TUI model for each SSH connection
func sshBubbleTeaHandler(sess charmssh.Session, config SSHConfig) (tea.Model, []tea.ProgramOption) {
	sshUser := sess.User()
	if sshUser == "" {
		sshUser = "ssh-user"
	}

	// Create renderer for this SSH session so styles emit correct ANSI
	// escape sequences for the connecting terminal.
	renderer := wishbubbletea.MakeRenderer(sess)

	model, err := newModel(sess.Context(), config, sshUser, renderer)
	if err != nil {
		log.Printf("[SSH] Failed to prepare session for %s: %v", sshUser, err)
		wish.Fatalln(sess, "minview: "+err.Error())
		return nil, nil
	}

	return model, []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}
}

// newModel builds the TUI model of one connection
func newModel(ctx context.Context, config SSHConfig, user string, renderer *lipgloss.Renderer) (tui.Model, error) {
	s, err := config.NewSession(ctx)
	if err != nil {
		return tui.Model{}, err
	}
	return tui.NewModel(tui.ModelConfig{
		Session:      s,
		NewExtractor: config.NewExtractor,
		Catalog:      config.Catalog,
		ImagePath:    config.ImagePath,
		MinutiaePath: config.MinutiaePath,
		Context:      ctx,
		Renderer:     renderer,
		SSHUser:      user,
	}), nil
}

// rateLimitMiddleware turns away hosts that open sessions too often
func rateLimitMiddleware(limiter *ratelimit.SlidingWindow) wish.Middleware {
	return func(next charmssh.Handler) charmssh.Handler {
		return func(sess charmssh.Session) {
			if limiter == nil {
				next(sess)
				return
			}
			host := remoteHost(sess.RemoteAddr())
			if d := limiter.Allow(host); !d.Allowed {
				log.Printf("[SSH] Rate limited %s, retry in %s", host, d.RetryAfter)
				wish.Fatalf(sess, "minview: too many sessions, retry in %s\n", d.RetryAfter.Round(time.Second))
				return
			}
			next(sess)
		}
	}
}

// remoteHost strips the port from a remote address
func remoteHost(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// publicKeyHandler validates SSH public keys against the authorized keys list
func publicKeyHandler(user string, key charmssh.PublicKey, authorizedKeys []charmssh.PublicKey) bool {
	for _, authKey := range authorizedKeys {
		if charmssh.KeysEqual(key, authKey) {
			log.Printf("[SSH] Public key accepted for user: %s", user)
			return true
		}
	}
	log.Printf("[SSH] Public key rejected for user: %s", user)
	return false
}
