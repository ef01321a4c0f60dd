package main

/*

Command line driver of the polyomino MCTS engine.

Without arguments it starts an interactive shell, otherwise the arguments
left after the flags are executed as a single shell command, e.g.

	pentobi-mcts --variant classic --simulations 50000 selfplay
	PENTOBI_THREADS=2 pentobi-mcts versus --games 20 --bias2 0.2

*/

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func newLogger(debug bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i any) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func main() {
	cfg := &Config{}
	args, err := cfg.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg.Debug)
	log.Logger = logger
	logger.Debug().
		Stringer("variant", cfg.Variant).
		Int("threads", cfg.Threads).
		Int64("memory-mb", cfg.MemoryMB).
		Uint64("simulations", cfg.Simulations).
		Dur("movetime", cfg.Movetime).
		Msg("loaded-config")

	table, err := cfg.ParamTable()
	if err != nil {
		logger.Fatal().Err(err).Msg("loading-params")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sh := NewShell(cfg, table, os.Stdout, logger)
	if len(args) == 0 {
		err = sh.Loop(ctx)
	} else {
		err = sh.Execute(ctx, shellquote.Join(args...))
		if errors.Is(err, errQuit) {
			err = nil
		}
	}
	if err != nil {
		logger.Error().Err(err).Msg("exiting")
		stop()
		os.Exit(1)
	}
}
