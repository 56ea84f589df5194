// Package console runs an interactive line based simulation of a body.
package console

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/buildkite/shellwords"
	"github.com/pkg/errors"
	"github.com/zond/anatomy"
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/effects"
	"github.com/zond/anatomy/lang"
	"github.com/zond/anatomy/species"
	"github.com/zond/anatomy/storage"
)

var (
	ErrQuit = errors.New("quit")
)

const DefaultSpecies = "human"

// Terminal is satisfied by *term.Terminal.
type Terminal interface {
	io.Writer
	ReadLine() (string, error)
}

// Session is one user simulating one body at a time.
type Session struct {
	ctx      context.Context
	term     Terminal
	registry *species.Registry
	store    *storage.Store
	effects  *effects.Registry
	rng      *rand.Rand
	env      body.Environment
	id       string
	species  string
	body     *body.Body
	commands commands
}

type Option func(*Session)

// WithStore enables save and load.
func WithStore(store *storage.Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithID sets the default id of saved bodies.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithSpecies sets the species of the first body.
func WithSpecies(name string) Option {
	return func(s *Session) {
		s.species = name
	}
}

func WithEnvironment(env body.Environment) Option {
	return func(s *Session) {
		s.env = env
	}
}

// New creates a session and its first body.
func New(ctx context.Context, term Terminal, registry *species.Registry, opts ...Option) (*Session, error) {
	s := &Session{
		ctx:      ctx,
		term:     term,
		registry: registry,
		effects:  effects.NewRegistry(0),
		env:      body.Environment{Temperature: 70, ActivityLevel: 1},
		id:       "default",
		species:  DefaultSpecies,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.commands = s.allCommands()
	b, err := s.newBody(s.species)
	if err != nil {
		return nil, err
	}
	s.body = b
	return s, nil
}

func (s *Session) newBody(name string) (*body.Body, error) {
	cfg, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	b, err := cfg.NewBody(body.WithRand(s.rng), body.WithEffects(s.effects), body.WithInjuryRule(defaultRule))
	if err != nil {
		return nil, err
	}
	s.species = cfg.Name
	return b, nil
}

// Body returns the body currently simulated.
func (s *Session) Body() *body.Body {
	return s.body
}

func (s *Session) Species() string {
	return s.species
}

// Run executes one command line.
func (s *Session) Run(line string) error {
	parts, err := shellwords.SplitPosix(line)
	if err != nil {
		return anatomy.WithStack(err)
	}
	if len(parts) == 0 {
		return nil
	}
	found, err := s.commands.attempt(s, parts)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(s.term, "Unknown command: %q\n", parts[0])
	}
	return nil
}

// Process reads and runs commands until the terminal closes or the user quits.
func (s *Session) Process() error {
	fmt.Fprintf(s.term, "You are simulating %s. Type \"help\" for commands.\n", lang.Indef(s.species))
	for {
		line, err := s.term.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return anatomy.WithStack(err)
		}
		if err := s.Run(line); errors.Is(err, ErrQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintln(s.term, err)
		}
	}
}

type writerTerminal struct {
	io.Writer
}

func (writerTerminal) ReadLine() (string, error) {
	return "", io.EOF
}

// Output wraps w as a Terminal without input, for running scripts.
func Output(w io.Writer) Terminal {
	return writerTerminal{Writer: w}
}
