package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/IlikeChooros/go-pentobi/pkg/bench"
	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/mcts"
	"github.com/IlikeChooros/go-pentobi/pkg/search"
	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

type Shell struct {
	cfg      *Config
	table    *search.ParamTable
	out      io.Writer
	render   *Renderer
	logger   zerolog.Logger
	registry *board.Registry
	bd       *board.Board
	engine   *search.Search
	commands map[string]command
}

func NewShell(cfg *Config, table *search.ParamTable, out io.Writer, logger zerolog.Logger) *Shell {
	sh := &Shell{
		cfg:      cfg,
		table:    table,
		out:      out,
		render:   NewRenderer(out, cfg.NoColor),
		logger:   logger,
		registry: board.NewRegistry(),
	}
	sh.bd = board.New(sh.registry, cfg.Variant)
	sh.engine = search.New(cfg.Variant, cfg.SearchParams(table))
	sh.engine.SetLogger(logger)
	if cfg.Verbose {
		sh.engine.SetListener(sh.progressListener())
	}

	sh.commands = map[string]command{
		"new":      {"new [variant]", "start a new game", sh.cmdNew},
		"play":     {"play [color] <move>", "play a move, e.g. 'play e5,f5,f6' or 'play 2 pass'", sh.cmdPlay},
		"genmove":  {"genmove [color]", "search and play a move", sh.cmdGenmove},
		"undo":     {"undo", "take back the last move", sh.cmdUndo},
		"show":     {"show", "print the board", sh.cmdShow},
		"info":     {"info", "print the statistics of the last search", sh.cmdInfo},
		"dump":     {"dump [--min-count n] [file]", "write the tree of the last search", sh.cmdDump},
		"selfplay": {"selfplay", "let the engine finish the game", sh.cmdSelfplay},
		"versus":   {"versus [flags]", "play games between two bias term constants", sh.cmdVersus},
		"help":     {"help", "list the commands", sh.cmdHelp},
		"quit":     {"quit", "exit", func(context.Context, []string) error { return errQuit }},
	}
	return sh
}

func (sh *Shell) progressListener() mcts.StatsListener[board.ColorMove] {
	listener := mcts.NewStatsListener[board.ColorMove]()
	listener.
		OnDepth(func(stats mcts.ListenerTreeStats[board.ColorMove]) {
			if len(stats.Lines) == 0 {
				return
			}
			main := stats.Lines[0]
			fmt.Fprintf(sh.out, "info depth %d cycles %d cps %d eval %.2f pv %s\n",
				stats.Maxdepth, stats.Cycles, stats.Cps, main.Eval, sh.formatMoves(main.Moves))
		}).
		OnStop(func(stats mcts.ListenerTreeStats[board.ColorMove]) {
			fmt.Fprintf(sh.out, "info stop %s cycles %d time %dms\n",
				stats.StopReason, stats.Cycles, stats.TimeMs)
		})
	return listener
}

func (sh *Shell) formatMoves(moves []board.ColorMove) string {
	return strings.Join(lo.Map(moves, func(cm board.ColorMove, _ int) string {
		return cm.Color.String() + ":" + sh.bd.MoveString(cm.Move)
	}), " ")
}

// Run a single command line
func (sh *Shell) Execute(ctx context.Context, line string) error {
	fields, err := shellquote.Split(line)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := sh.commands[strings.ToLower(fields[0])]
	if !ok {
		return fmt.Errorf("unknown command %q, try 'help'", fields[0])
	}
	return cmd.run(ctx, fields[1:])
}

// Read and execute commands until 'quit', end of input or an interrupt
// on an empty line
func (sh *Shell) Loop(ctx context.Context) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "pentobi> ",
		HistoryFile:     sh.cfg.HistoryFile,
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",
		AutoComplete:    &completer{sh: sh},

		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}

		err = sh.Execute(ctx, strings.TrimSpace(line))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			sh.logger.Error().Err(err).Msg("command-failed")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (sh *Shell) cmdNew(_ context.Context, args []string) error {
	v := sh.bd.Variant()
	if len(args) > 0 {
		var err error
		if v, err = board.ParseVariant(args[0]); err != nil {
			return err
		}
	}
	sh.bd = board.New(sh.registry, v)
	sh.render.Board(sh.bd)
	return nil
}

func (sh *Shell) cmdPlay(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: play [color] <move>")
	}
	cm, err := sh.bd.ParseColorMove(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := sh.bd.PlayChecked(cm); err != nil {
		return err
	}
	sh.render.Board(sh.bd)
	return nil
}

// Color argument, or the color to play
func (sh *Shell) parseColor(args []string) (board.Color, error) {
	if len(args) == 0 {
		return sh.bd.ToPlay(), nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > sh.bd.NuColors() {
		return 0, fmt.Errorf("invalid color %q", args[0])
	}
	return board.Color(n - 1), nil
}

// Search and play a move for c, passes when c has no moves
func (sh *Shell) genmove(ctx context.Context, c board.Color) (board.ColorMove, error) {
	if !sh.bd.HasMoves(c) {
		cm := board.Pass(c)
		sh.bd.Play(cm)
		return cm, nil
	}
	cm, ok := sh.engine.Search(ctx, sh.bd, c, sh.cfg.Budget())
	if !ok {
		if err := ctx.Err(); err != nil {
			return board.ColorMove{}, err
		}
		return board.ColorMove{}, fmt.Errorf("no move found for color %s", c)
	}
	if err := sh.bd.PlayChecked(cm); err != nil {
		return board.ColorMove{}, err
	}
	return cm, nil
}

func (sh *Shell) cmdGenmove(ctx context.Context, args []string) error {
	c, err := sh.parseColor(args)
	if err != nil {
		return err
	}
	cm, err := sh.genmove(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "= %s %s\n", cm.Color, sh.bd.MoveString(cm.Move))
	sh.render.Board(sh.bd)
	return nil
}

func (sh *Shell) cmdUndo(context.Context, []string) error {
	if !sh.bd.Undo() {
		return errors.New("no move to undo")
	}
	sh.render.Board(sh.bd)
	return nil
}

func (sh *Shell) cmdShow(context.Context, []string) error {
	sh.render.Board(sh.bd)
	return nil
}

func (sh *Shell) cmdInfo(context.Context, []string) error {
	if sh.engine.Simulations() == 0 {
		return errors.New("no search yet")
	}
	if err := sh.engine.WriteInfo(sh.out); err != nil {
		return err
	}
	for i, line := range sh.engine.Lines(3) {
		fmt.Fprintf(sh.out, "%d. %s (%d, %.3f)\n", i+1, sh.formatMoves(line.Moves), line.Visits, line.Eval)
	}
	return nil
}

func (sh *Shell) cmdDump(_ context.Context, args []string) error {
	fs := pflag.NewFlagSet("dump", pflag.ContinueOnError)
	fs.SetOutput(sh.out)
	minCount := fs.Uint32("min-count", 0, "skip nodes with fewer visits")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if sh.engine.Simulations() == 0 {
		return errors.New("no search yet")
	}
	if fs.NArg() == 0 {
		err := sh.engine.DumpTree(sh.out, *minCount)
		fmt.Fprintln(sh.out)
		return err
	}

	f, err := os.Create(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := sh.engine.DumpTree(f, *minCount); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (sh *Shell) cmdSelfplay(ctx context.Context, _ []string) error {
	for !sh.bd.IsGameOver() {
		cm, err := sh.genmove(ctx, sh.bd.ToPlay())
		if err != nil {
			return err
		}
		if !cm.IsPass() {
			fmt.Fprintf(sh.out, "%d. %s %s\n", sh.bd.NuMoves(), cm.Color, sh.bd.MoveString(cm.Move))
		}
	}
	sh.render.Board(sh.bd)
	return nil
}

func (sh *Shell) cmdVersus(ctx context.Context, args []string) error {
	base := sh.cfg.SearchParams(sh.table)
	fs := pflag.NewFlagSet("versus", pflag.ContinueOnError)
	fs.SetOutput(sh.out)
	games := fs.Int("games", 10, "number of games")
	workers := fs.Int("workers", 2, "games played in parallel")
	threads := fs.Int("threads", 1, "search threads of each engine")
	bias1 := fs.Float64("bias1", base.BiasTermConstant, "bias term constant of player 1")
	bias2 := fs.Float64("bias2", base.BiasTermConstant, "bias term constant of player 2")
	noRave := fs.Bool("no-rave2", false, "disable RAVE for player 2")
	jsonFile := fs.String("json", "", "write the summary as json to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	player := func(name string, bias float64, seed uint64) bench.Player {
		params := base
		params.Threads = *threads
		params.AutoParam = false
		params.BiasTermConstant = bias
		if sh.cfg.Seed != 0 {
			params.Seed = sh.cfg.Seed + seed
		}
		return bench.Player{Name: name, Params: params, Budget: sh.cfg.Budget()}
	}
	p1 := player(fmt.Sprintf("bias-%.3f", *bias1), *bias1, 0)
	p2 := player(fmt.Sprintf("bias-%.3f", *bias2), *bias2, 1000)
	if *noRave {
		p2.Params.Rave = false
		p2.Name += "-norave"
	}

	arena := bench.NewVersusArena(sh.registry, sh.bd.Variant(), p1, p2)
	arena.SetLogger(sh.logger)
	arena.Setup(*games, *workers)

	listener := bench.NewArenaListener(bench.NewLogListener(sh.logger))
	var jsonListener *bench.JSONSummaryListener
	if *jsonFile != "" {
		f, err := os.Create(*jsonFile)
		if err != nil {
			return err
		}
		defer f.Close()
		jsonListener = bench.NewJSONSummaryListener(f)
		listener.Add(jsonListener)
	}

	summary, err := arena.Run(ctx, listener)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s %d - %d %s, draws %d\n",
		summary.P1Name, summary.P1Wins, summary.P2Wins, summary.P2Name, summary.Draws)
	if jsonListener != nil {
		return jsonListener.Err()
	}
	return nil
}

func (sh *Shell) cmdHelp(context.Context, []string) error {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cmd := sh.commands[name]
		fmt.Fprintf(sh.out, "  %-28s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

// Completes the command names and the variant of 'new'
type completer struct {
	sh *Shell
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var candidates []string
	switch {
	case len(fields) == 0 || (len(fields) == 1 && !endsWithSpace):
		if len(fields) == 1 {
			prefix = fields[0]
		}
		candidates = lo.Keys(c.sh.commands)
	case fields[0] == "new" && (len(fields) == 1 || (len(fields) == 2 && !endsWithSpace)):
		if len(fields) == 2 {
			prefix = fields[1]
		}
		candidates = []string{board.Duo.String(), board.Classic.String(), board.Classic2.String()}
	default:
		return nil, 0
	}

	slices.Sort(candidates)
	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, prefix) {
			out = append(out, []rune(cand[len(prefix):]+" "))
		}
	}
	return out, len([]rune(prefix))
}
