package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/dobble/internal/config"
	"github.com/roach88/dobble/internal/engine"
	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/gateway"
	"github.com/roach88/dobble/internal/journal"
	"github.com/roach88/dobble/internal/push"
)

// PlayOptions holds flags for the play command. Empty values fall back to
// the DOBBLE_* environment.
type PlayOptions struct {
	*RootOptions
	EnvFile string
	APIURL  string
	WSURL   string
	Name    string
	Journal string
	Timeout time.Duration
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play an interactive session",
		Long: `Start a session and read commands from standard input.

Commands:
  games            refresh the lobby listing
  create <name>    create a game and join it
  join <id>        join an existing game
  start            start the joined game
  ready            ask for the next card
  answer <symbol>  name the symbol shared by the two latest cards
  view             print the current session
  quit             end the session

Every state change is printed as it happens. With --journal, every event
is recorded for later replay.

Exit codes:
  0 - Session ended normally
  2 - Command error (bad config, journal cannot be opened, etc.)

Examples:
  dobble play --name ann
  dobble play --api http://localhost:8080 --ws ws://localhost:8080/ws
  dobble play --journal ./session.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "file to seed DOBBLE_* variables from")
	cmd.Flags().StringVar(&opts.APIURL, "api", "", "game server base url (DOBBLE_API_URL)")
	cmd.Flags().StringVar(&opts.WSURL, "ws", "", "push channel url (DOBBLE_WS_URL)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "player name (DOBBLE_PLAYER_NAME)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path (DOBBLE_JOURNAL)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-request timeout (DOBBLE_REQUEST_TIMEOUT)")

	return cmd
}

// loadPlayConfig reads the environment and applies flags the user set.
func loadPlayConfig(opts *PlayOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = opts.APIURL
	}
	if flags.Changed("ws") {
		cfg.WSURL = opts.WSURL
	}
	if flags.Changed("name") {
		cfg.PlayerName = opts.Name
	}
	if flags.Changed("journal") {
		cfg.Journal = opts.Journal
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.Timeout
	}
	return cfg, cfg.Validate()
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	cfg, err := loadPlayConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	engOpts := []engine.Option{engine.WithRequestTimeout(cfg.RequestTimeout)}
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		engOpts = append(engOpts, engine.WithJournal(j))
	}

	eng, err := engine.New(gateway.NewClient(cfg.APIURL), engine.UUIDv7Generator{}, engOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}

	out := &OutputFormatter{
		Format:  opts.Format,
		Writer:  &syncWriter{w: cmd.OutOrStdout()},
		Verbose: opts.Verbose,
	}
	out.VerboseLog("session %s", eng.ID())

	dial := func(ctx context.Context, hs push.Handshake) (frameSource, error) {
		conn, err := push.Dial(ctx, cfg.WSURL, hs, push.WithMaxTries(uint(cfg.DialAttempts)))
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	c := &console{eng: eng, out: out, playerName: cfg.PlayerName, dial: dial}
	return c.play(cmd.Context(), cmd.InOrStdin())
}

// frameSource is an open push channel.
type frameSource interface {
	Frames() <-chan []byte
	Close() error
}

// dialFunc opens the push channel for the player named in hs.
type dialFunc func(ctx context.Context, hs push.Handshake) (frameSource, error)

// console drives one engine from line commands.
type console struct {
	eng        *engine.Engine
	out        *OutputFormatter
	playerName string
	dial       dialFunc

	group *errgroup.Group
	src   frameSource
}

// play runs the engine, the view printer and the command loop until the
// input ends, a quit command arrives or ctx is cancelled.
func (c *console) play(ctx context.Context, in io.Reader) error {
	g, gctx := errgroup.WithContext(ctx)
	c.group = g

	views, stopViews := c.eng.Views()
	defer stopViews()

	g.Go(func() error {
		return c.eng.Run(gctx)
	})
	g.Go(func() error {
		for v := range views {
			if err := c.out.View(v); err != nil {
				return err
			}
		}
		return nil
	})

	// The reader is not part of the group: a blocked Read must not hold up
	// shutdown.
	lines := readLines(in)
	g.Go(func() error {
		defer c.eng.Close()
		defer c.closeSource()
		return c.serve(gctx, lines)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			slog.Warn("input read failed", "error", err)
		}
	}()
	return lines
}

func (c *console) serve(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.execute(ctx, line)
			if err != nil || quit {
				return err
			}
		}
	}
}

// execute runs one command line. Action failures are reported and the
// session continues; only a closed engine ends it.
func (c *console) execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	var err error
	switch name {
	case "quit", "exit":
		return true, nil

	case "help":
		err = c.out.Success("commands: games, create <name>, join <id>, start, ready, answer <symbol>, view, quit")

	case "view":
		err = c.out.View(c.eng.View())

	case "games":
		var games []game.Listing
		games, err = c.eng.RefreshGames(ctx)
		if err == nil {
			err = c.out.Success(gameList(games))
		}

	case "create":
		if len(args) != 1 {
			return false, c.out.Error(CodeUsage, "usage: create <name>", nil)
		}
		var p game.Player
		p, err = c.eng.CreateGame(ctx, args[0], c.playerName)
		if err == nil {
			c.connect(ctx, p)
		}

	case "join":
		if len(args) != 1 {
			return false, c.out.Error(CodeUsage, "usage: join <id>", nil)
		}
		id, perr := strconv.ParseInt(args[0], 10, 64)
		if perr != nil {
			return false, c.out.Error(CodeUsage, fmt.Sprintf("invalid game id %q", args[0]), nil)
		}
		var p game.Player
		p, err = c.eng.JoinGame(ctx, id, c.playerName)
		if err == nil {
			c.connect(ctx, p)
		}

	case "start":
		err = c.eng.StartGame(ctx)

	case "ready":
		err = c.eng.ReportReady(ctx)

	case "answer":
		if len(args) != 1 {
			return false, c.out.Error(CodeUsage, "usage: answer <symbol>", nil)
		}
		var correct bool
		correct, err = c.eng.SubmitAnswer(ctx, args[0])
		if err == nil {
			err = c.out.Success(verdict{Answer: args[0], Correct: correct})
		}

	default:
		return false, c.out.Error(CodeUsage, fmt.Sprintf("unknown command %q (try help)", name), nil)
	}

	if err == nil {
		return false, nil
	}
	if errors.Is(err, engine.ErrClosed) || ctx.Err() != nil {
		return false, err
	}
	return false, c.out.ActionError(err)
}

// connect opens the push channel for p and pumps it into the engine. A
// failed dial is reported; the session keeps working without notices.
func (c *console) connect(ctx context.Context, p game.Player) {
	src, err := c.dial(ctx, push.Handshake{GameID: p.GameID, PlayerID: p.ID})
	if err != nil {
		_ = c.out.Error(CodeGateway, err.Error(), nil)
		return
	}
	c.src = src

	c.group.Go(func() error {
		err := c.eng.PumpFrames(ctx, src.Frames())
		if errors.Is(err, engine.ErrClosed) {
			return nil
		}
		return err
	})
}

func (c *console) closeSource() {
	if c.src == nil {
		return
	}
	if err := c.src.Close(); err != nil {
		slog.Debug("push close failed", "error", err)
	}
}

// verdict is the immediate result of an answer.
type verdict struct {
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"`
}

func (v verdict) String() string {
	if v.Correct {
		return fmt.Sprintf("%q is correct", v.Answer)
	}
	return fmt.Sprintf("%q is wrong", v.Answer)
}

type gameList []game.Listing

func (l gameList) String() string {
	if len(l) == 0 {
		return "no games"
	}
	var b strings.Builder
	for i, g := range l {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\t%s", g.ID, g.Status)
	}
	return b.String()
}

// syncWriter serializes writes from the view printer and the command loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
