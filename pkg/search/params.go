package search

import (
	_ "embed"
	"fmt"
	"runtime"
	"sync"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/mcts"
	"github.com/pbnjay/memory"
	"gopkg.in/yaml.v3"
)

//go:embed params.yaml
var defaultParamsYAML []byte

// Restriction of the pieces considered while fewer than BeforeRounds*nuColors
// pieces are on the board. Either only the named pieces, or the ones of at least MinSize
type PieceFilter struct {
	BeforeRounds int      `yaml:"before_rounds"`
	MinSize      int      `yaml:"min_size,omitempty"`
	Only         []string `yaml:"only,omitempty"`
}

type VariantParams struct {
	BiasTermConstant float64       `yaml:"bias_term_constant"`
	Filters          []PieceFilter `yaml:"filters"`
}

// Tunable search parameters, with per variant values
type ParamTable struct {
	ExpandThreshold int                      `yaml:"expand_threshold"`
	Rave            bool                     `yaml:"rave"`
	RaveBias        float64                  `yaml:"rave_bias"`
	LastGoodReply   bool                     `yaml:"last_good_reply"`
	Variants        map[string]VariantParams `yaml:"variants"`
}

var defaultTable = sync.OnceValue(func() *ParamTable {
	table, err := ParseParamTable(defaultParamsYAML)
	if err != nil {
		panic(fmt.Sprintf("search: embedded parameters: %v", err))
	}
	return table
})

// Parameter table built into the binary
func DefaultParamTable() *ParamTable {
	return defaultTable()
}

// Parse a parameter table in the format of the embedded params.yaml
func ParseParamTable(data []byte) (*ParamTable, error) {
	table := &ParamTable{}
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}

	catalog := board.NewPieceCatalog()
	for name, vp := range table.Variants {
		if _, err := board.ParseVariant(name); err != nil {
			return nil, fmt.Errorf("parameters: %w", err)
		}
		for _, f := range vp.Filters {
			if f.BeforeRounds <= 0 {
				return nil, fmt.Errorf("parameters of %s: before_rounds must be positive", name)
			}
			for _, piece := range f.Only {
				if _, ok := catalog.ByName(piece); !ok {
					return nil, fmt.Errorf("parameters of %s: unknown piece %q", name, piece)
				}
			}
		}
	}
	return table, nil
}

// Parameters of the variant, a variant missing in the table gets
// the default exploration constant and no piece filters
func (t *ParamTable) Variant(v board.Variant) VariantParams {
	if vp, ok := t.Variants[v.String()]; ok {
		return vp
	}
	return VariantParams{BiasTermConstant: mcts.DefaultExploration}
}

// Search configuration
type Params struct {
	// Number of search threads, 0 means DefaultThreads()
	Threads int
	// Memory for the two tree arenas in bytes, 0 means DefaultMemory()
	Memory int64
	// Exploration constant of the selection formula
	BiasTermConstant float64
	// Reset BiasTermConstant to the table value when the variant changes
	AutoParam bool
	// Visits of a leaf before it gets expanded
	ExpandThreshold int
	Rave            bool
	RaveBias        float64
	// Prefer replies that won earlier playouts in the playouts
	LastGoodReply bool
	// Seed of the random generators, 0 means a random seed for each search
	Seed uint64
	// Clock for the time limit, nil means the system clock
	TimeSource mcts.TimeSource
	// Reuse the subtree of the previous search, if the position follows from it
	ReuseSubtree bool
	// Per variant values, nil means DefaultParamTable()
	Table *ParamTable
}

func DefaultParams(v board.Variant) Params {
	table := DefaultParamTable()
	return Params{
		BiasTermConstant: table.Variant(v).BiasTermConstant,
		AutoParam:        true,
		ExpandThreshold:  table.ExpandThreshold,
		Rave:             table.Rave,
		RaveBias:         table.RaveBias,
		LastGoodReply:    table.LastGoodReply,
		ReuseSubtree:     true,
		Table:            table,
	}
}

func (p *Params) table() *ParamTable {
	if p.Table == nil {
		return DefaultParamTable()
	}
	return p.Table
}

func (p *Params) treeParams() mcts.TreeParams {
	return mcts.TreeParams{
		Exploration:     p.BiasTermConstant,
		Rave:            p.Rave,
		RaveBias:        p.RaveBias,
		ExpandThreshold: p.ExpandThreshold,
	}
}

// Memory used for the tree by default: a quarter of the physical memory,
// at most 1 GiB, at least 32 MiB
func DefaultMemory() int64 {
	const (
		minMemory = 32 << 20
		maxMemory = 1 << 30
	)
	total := int64(memory.TotalMemory())
	if total <= 0 {
		return minMemory
	}
	return min(max(total/4, minMemory), maxMemory)
}

// Number of search threads by default
func DefaultThreads() int {
	return max(1, runtime.NumCPU())
}
