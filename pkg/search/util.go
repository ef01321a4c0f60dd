package search

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/IlikeChooros/go-pentobi/pkg/board"
	"github.com/IlikeChooros/go-pentobi/pkg/mcts"
	"github.com/samber/lo"
)

type Node = mcts.Node[board.ColorMove]

// Order of children: higher count first, the value breaks ties
func CompareNode(a, b *Node) int {
	return mcts.CompareNodes(a, b)
}

// Write the tree of the last search in the tree dump format, children with
// fewer than minCount visits are left out. When a board symmetry maps the
// root position onto itself without exchanging colors, root moves equivalent
// to an earlier root move are left out too
func (s *Search) DumpTree(w io.Writer, minCount uint32) error {
	if !s.searched {
		return nil
	}
	tree := s.mcts.Tree
	bc := s.root.Const()
	opts := mcts.DumpOptions[board.ColorMove]{
		FormatMove: func(cm board.ColorMove) (string, string) {
			return cm.Color.String(), bc.FormatMove(cm.Move)
		},
		MinCount:   minCount,
		RootPlayer: int(s.toPlay),
	}
	if maps := s.sc.EquivalentMoveMaps(s.root); len(maps) > 0 {
		opts.Skip = func(parent, child mcts.NodeIdx) bool {
			return parent == tree.Root() && s.isSymmetricDuplicate(child, maps)
		}
	}
	return tree.WriteDump(w, opts)
}

// Whether a sibling created before the child plays a mapped move
func (s *Search) isSymmetricDuplicate(child mcts.NodeIdx, maps []func(board.Move) board.Move) bool {
	tree := s.mcts.Tree
	cm := tree.Node(child).Move
	for _, f := range maps {
		mapped := board.ColorMove{Color: cm.Color, Move: f(cm.Move)}
		if mapped == cm || mapped.Move == board.NullMove {
			continue
		}
		if sibling := tree.FindChild(tree.Root(), mapped); !sibling.IsNil() && sibling < child {
			return true
		}
	}
	return false
}

// Write a one line summary of the last search
func (s *Search) WriteInfo(w io.Writer) error {
	if !s.searched || s.Simulations() == 0 {
		return nil
	}
	tree := s.mcts.Tree
	root := tree.Node(tree.Root())
	if root.NuChildren() == 0 {
		return nil
	}

	values := s.RootValues()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Val: %.2f, Cnt: %d, Sim: %d, Nds: %d, Tm: %s, Sim/s: %d, Dp: %d, Mov: %d",
		values[s.toPlay].Mean, root.Stats.Visits(), s.Simulations(), tree.Size(),
		s.elapsed.Round(time.Millisecond), s.mcts.Cps(),
		tree.MaxDepth(), root.NuChildren())
	if s.root.Variant().NuPlayers() > 2 {
		all := lo.Map(values, func(v ColorValue, _ int) string {
			if v.Count == 0 {
				return "-"
			}
			return fmt.Sprintf("%.2f", v.Mean)
		})
		fmt.Fprintf(&sb, ", All: %s", strings.Join(all, " "))
	}
	if s.reused {
		sb.WriteString(", Reuse")
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}
