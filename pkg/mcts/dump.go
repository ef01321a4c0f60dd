package mcts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

var ErrDumpSyntax = errors.New("malformed tree dump")

type DumpOptions[M MoveLike] struct {
	// Property name and value of a move, e.g. ("1", "e5,f5")
	FormatMove func(M) (key, value string)
	// Children with less visits are left out
	MinCount uint32
	// Player, whose value is written for the root
	RootPlayer int
	// Optional filter of the children of a node, return true to leave the child out
	Skip func(parent, child NodeIdx) bool
}

// Write the tree in a minimal SGF-like syntax: every node has its move property
// and a comment with its count and value, children are sorted with CompareNodes.
// Values are written in the shortest form that parses back to the same float, e.g.
//
//	(;C[N 12 V 0.55]
//	(;1[e5,f5]C[N 4 V 0.25]))
func (t *Tree[M]) WriteDump(w io.Writer, opts DumpOptions[M]) error {
	bw := bufio.NewWriter(w)
	root := t.Node(t.Root())
	fmt.Fprintf(bw, "(;C[N %d V %s]", root.Stats.Visits(), formatValue(t.RootValue(opts.RootPlayer).Mean()))
	t.dumpChildren(bw, t.Root(), &opts)
	bw.WriteString(")\n")
	return bw.Flush()
}

func (t *Tree[M]) dumpChildren(w *bufio.Writer, parent NodeIdx, opts *DumpOptions[M]) {
	children := t.Children(parent)
	order := make([]int, 0, len(children))
	for i := range children {
		if children[i].Stats.Visits() < opts.MinCount {
			continue
		}
		if opts.Skip != nil && opts.Skip(parent, t.Child(parent, i)) {
			continue
		}
		order = append(order, i)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return CompareNodes(&children[a], &children[b])
	})

	for _, i := range order {
		child := &children[i]
		key, value := opts.FormatMove(child.Move)
		fmt.Fprintf(w, "\n(;%s[%s]C[N %d V %s]", key, escapeValue(value),
			child.Stats.Visits(), formatValue(child.Stats.Mean(0)))
		t.dumpChildren(w, t.Child(parent, i), opts)
		w.WriteByte(')')
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `]`, `\]`).Replace(s)
}

// Node of a tree read back by ReadDump
type DumpNode struct {
	// Move property, empty for the root
	Key      string
	Move     string
	Count    uint32
	Value    float64
	Children []*DumpNode
}

// Parse a tree written by WriteDump
func ReadDump(r io.Reader) (*DumpNode, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &dumpParser{s: string(data)}
	root, err := p.tree()
	if err != nil {
		return nil, err
	}
	if p.skipSpace(); p.pos != len(p.s) {
		return nil, p.errorf("trailing data")
	}
	return root, nil
}

type dumpParser struct {
	s   string
	pos int
}

func (p *dumpParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrDumpSyntax, p.pos, fmt.Sprintf(format, args...))
}

func (p *dumpParser) skipSpace() {
	for p.pos < len(p.s) && strings.ContainsRune(" \t\r\n", rune(p.s[p.pos])) {
		p.pos++
	}
}

func (p *dumpParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *dumpParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *dumpParser) tree() (*DumpNode, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}

	node := &DumpNode{}
	for c := p.peek(); c != '(' && c != ')'; c = p.peek() {
		if c == 0 {
			return nil, p.errorf("unexpected end")
		}
		key, value, err := p.property()
		if err != nil {
			return nil, err
		}
		if key == "C" {
			if _, err := fmt.Sscanf(value, "N %d V %g", &node.Count, &node.Value); err != nil {
				return nil, p.errorf("comment %q: %v", value, err)
			}
		} else {
			node.Key, node.Move = key, value
		}
	}

	for p.peek() == '(' {
		child, err := p.tree()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, p.expect(')')
}

func (p *dumpParser) property() (string, string, error) {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != '[' {
		p.pos++
	}
	key := strings.TrimSpace(p.s[start:p.pos])
	if key == "" {
		return "", "", p.errorf("missing property name")
	}
	if err := p.expect('['); err != nil {
		return "", "", err
	}

	var value strings.Builder
	for ; p.pos < len(p.s); p.pos++ {
		switch c := p.s[p.pos]; c {
		case '\\':
			p.pos++
			if p.pos < len(p.s) {
				value.WriteByte(p.s[p.pos])
			}
		case ']':
			p.pos++
			return key, value.String(), nil
		default:
			value.WriteByte(c)
		}
	}
	return "", "", p.errorf("unterminated value of %s", key)
}
