package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/search"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "PENTOBI"

type Config struct {
	Variant        board.Variant
	Threads        int
	MemoryMB       int64
	Simulations    uint64
	MinSimulations uint64
	Movetime       time.Duration
	Seed           uint64
	ParamsFile     string
	NoReuse        bool
	NoColor        bool
	Verbose        bool
	Debug          bool
	HistoryFile    string
}

// Load the configuration from the flags, PENTOBI_* environment variables
// and an optional config file, in this order of precedence.
// Returns the arguments left after the flags.
func (c *Config) Load(args []string) ([]string, error) {
	fs := pflag.NewFlagSet("pentobi-mcts", pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("variant", "duo", "game variant: duo, classic, classic_2")
	fs.Int("threads", 0, "search threads, 0 uses all cpus")
	fs.Int64("memory-mb", 0, "tree memory in MiB, 0 uses a quarter of the system memory")
	fs.Uint64("simulations", 10000, "simulations per move, 0 for no limit")
	fs.Uint64("min-simulations", 0, "simulations run before the movetime is checked")
	fs.Duration("movetime", 0, "time per move, 0 for no limit")
	fs.Uint64("seed", 0, "random seed, 0 picks a random one")
	fs.String("params", "", "yaml file overriding the per-variant parameter table")
	fs.Bool("no-reuse", false, "do not reuse the subtree of the previous search")
	fs.Bool("no-color", false, "print the board without colors")
	fs.BoolP("verbose", "v", false, "print the search progress")
	fs.Bool("debug", false, "debug logging")
	fs.String("history-file", "", "readline history file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	variant, err := board.ParseVariant(v.GetString("variant"))
	if err != nil {
		return nil, err
	}
	c.Variant = variant
	c.Threads = v.GetInt("threads")
	c.MemoryMB = v.GetInt64("memory-mb")
	c.Simulations = v.GetUint64("simulations")
	c.MinSimulations = v.GetUint64("min-simulations")
	c.Movetime = v.GetDuration("movetime")
	c.Seed = v.GetUint64("seed")
	c.ParamsFile = v.GetString("params")
	c.NoReuse = v.GetBool("no-reuse")
	c.NoColor = v.GetBool("no-color")
	c.Verbose = v.GetBool("verbose")
	c.Debug = v.GetBool("debug")
	c.HistoryFile = v.GetString("history-file")
	return fs.Args(), nil
}

// Parameter table of the params file, or the built-in one
func (c *Config) ParamTable() (*search.ParamTable, error) {
	if c.ParamsFile == "" {
		return search.DefaultParamTable(), nil
	}
	data, err := os.ReadFile(c.ParamsFile)
	if err != nil {
		return nil, err
	}
	table, err := search.ParseParamTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.ParamsFile, err)
	}
	return table, nil
}

func (c *Config) SearchParams(table *search.ParamTable) search.Params {
	params := search.DefaultParams(c.Variant)
	if table != nil {
		params.Table = table
		vp := table.Variant(c.Variant)
		params.BiasTermConstant = vp.BiasTermConstant
		params.ExpandThreshold = table.ExpandThreshold
		params.Rave = table.Rave
		params.RaveBias = table.RaveBias
		params.LastGoodReply = table.LastGoodReply
	}
	params.Threads = c.Threads
	params.Memory = c.MemoryMB << 20
	params.Seed = c.Seed
	params.ReuseSubtree = !c.NoReuse
	return params
}

func (c *Config) Budget() search.Budget {
	return search.Budget{
		MaxCount:       c.Simulations,
		MinSimulations: c.MinSimulations,
		MaxTime:        c.Movetime,
	}
}
