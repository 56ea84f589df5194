// Package server serves body simulation consoles over SSH.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/gliderlabs/ssh"
	"github.com/pkg/errors"
	"github.com/zond/anatomy"
	"github.com/zond/anatomy/console"
	"github.com/zond/anatomy/pemfile"
	"github.com/zond/anatomy/species"
	"github.com/zond/anatomy/storage"
	"github.com/zond/anatomy/termio"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	gossh "golang.org/x/crypto/ssh"
)

type Config struct {
	SSHAddr string `env:"SSH_ADDR"`
	Dir     string `env:"DIR"`
	// SpeciesFile is an optional JSON array of species added to the built in ones.
	SpeciesFile    string `env:"SPECIES_FILE"`
	DefaultSpecies string `env:"DEFAULT_SPECIES"`
	// LogFile is relative to Dir unless absolute. Empty logs to stderr only.
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS"`
}

func DefaultConfig() Config {
	return Config{
		SSHAddr:        "127.0.0.1:15000",
		Dir:            filepath.Join(os.Getenv("HOME"), ".anatomy"),
		DefaultSpecies: console.DefaultSpecies,
		LogFile:        "anatomy.log",
		LogMaxSizeMB:   10,
		LogMaxBackups:  5,
		LogMaxAgeDays:  28,
	}
}

// LoadConfig overrides DefaultConfig with ANATOMY_ prefixed environment variables.
func LoadConfig() (Config, error) {
	config := DefaultConfig()
	if err := env.ParseWithOptions(&config, env.Options{Prefix: "ANATOMY_"}); err != nil {
		return Config{}, errors.Wrap(err, "parsing environment")
	}
	return config, nil
}

func (c Config) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

// SetupLogging sends the standard logger to stderr and a rotated log file.
// The returned closer closes the log file.
func SetupLogging(c Config) io.Closer {
	if c.LogFile == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}
	rotator := &lumberjack.Logger{
		Filename:   c.path(c.LogFile),
		MaxSize:    c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAge:     c.LogMaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}

type Server struct {
	config   Config
	registry *species.Registry
	store    *storage.Store
}

func New(ctx context.Context, config Config) (*Server, error) {
	if err := os.MkdirAll(config.Dir, 0700); err != nil {
		return nil, errors.WithStack(err)
	}
	registry := species.NewRegistry(species.Builtin()...)
	if config.SpeciesFile != "" {
		f, err := os.Open(config.path(config.SpeciesFile))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer f.Close()
		configs, err := species.Load(f)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %q", config.SpeciesFile)
		}
		for _, c := range configs {
			if err := registry.Set(c); err != nil {
				return nil, err
			}
		}
	}
	if _, err := registry.Get(config.DefaultSpecies); err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, filepath.Join(config.Dir, "anatomy.db"))
	if err != nil {
		return nil, err
	}
	return &Server{
		config:   config,
		registry: registry,
		store:    store,
	}, nil
}

func (s *Server) Close() error {
	return s.store.Close()
}

// HandleSession runs a console for one SSH session, saving bodies under the user name.
func (s *Server) HandleSession(sess ssh.Session) {
	t := term.NewTerminal(sess, "> ")
	log.Printf("%s@%s connected", sess.User(), sess.RemoteAddr())
	err := s.runConsole(sess, t)
	if err != nil && !errors.Is(err, io.EOF) {
		fmt.Fprintf(t, "InternalServerError: %v\n", err)
		log.Println(err)
		log.Println(anatomy.StackTrace(err))
	}
	log.Printf("%s@%s disconnected", sess.User(), sess.RemoteAddr())
}

func (s *Server) runConsole(sess ssh.Session, t *term.Terminal) error {
	name, err := termio.Select(t, "Which species do you want to simulate?", s.registry.Names(), s.config.DefaultSpecies)
	if err != nil {
		return err
	}
	c, err := console.New(sess.Context(), t, s.registry,
		console.WithStore(s.store),
		console.WithID(sess.User()),
		console.WithSpecies(name))
	if err != nil {
		return err
	}
	return c.Process()
}

func (s *Server) sshServer() (*ssh.Server, error) {
	pemBytes, signer, err := pemfile.KeyParams{
		KeyPath:       filepath.Join(s.config.Dir, "private.pem"),
		SSHPubKeyPath: filepath.Join(s.config.Dir, "public.pub"),
	}.Ensure()
	if err != nil {
		return nil, err
	}
	srv := &ssh.Server{
		Addr:    s.config.SSHAddr,
		Handler: s.HandleSession,
	}
	if err := srv.SetOption(ssh.HostKeyPEM(pemBytes)); err != nil {
		return nil, errors.WithStack(err)
	}
	log.Printf("Host key %s", gossh.FingerprintSHA256(signer.PublicKey()))
	return srv, nil
}

// Start serves SSH on the configured address until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.SSHAddr)
	if err != nil {
		return errors.WithStack(err)
	}
	return s.Serve(ctx, l)
}

// Serve accepts SSH connections from l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv, err := s.sshServer()
	if err != nil {
		l.Close()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Printf("Listening on %q", l.Addr())
	if err := srv.Serve(l); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return errors.WithStack(err)
	}
	return nil
}
