package mcts

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	branchFactor  = 20
	maxDummyDepth = 10
)

// Move of the dummy game: two players alternate, every position has
// 'branchFactor' moves, and the game ends after 'maxDummyDepth' moves
type dummyMove struct {
	player, index int
}

func (m dummyMove) Player() int { return m.player }
func (m dummyMove) Index() int  { return m.index }

// A dummy implementation of GameOperations for testing purposes.
// Does random playouts (0 == loss, 0.5 == draw, 1 == win for the first player)
type DummyOps struct {
	rand  *rand.Rand
	depth int
	moves []dummyMove
}

func NewDummyOps(threadId int) GameOperations[dummyMove] {
	return &DummyOps{rand: rand.New(rand.NewSource(SeedGeneratorFn() + int64(threadId)))}
}

func (d *DummyOps) StartSimulation() {
	d.depth = 0
	d.moves = d.moves[:0]
}

func (d *DummyOps) PlayInTree(m dummyMove) {
	d.depth++
	d.moves = append(d.moves, m)
}

func (d *DummyOps) GenChildren(dst []dummyMove) []dummyMove {
	if d.depth >= maxDummyDepth {
		return dst
	}
	for i := range branchFactor {
		dst = append(dst, dummyMove{player: d.depth % 2, index: d.depth*branchFactor + i})
	}
	return dst
}

func (d *DummyOps) Playout() {
	for d.depth < maxDummyDepth {
		d.moves = append(d.moves, dummyMove{player: d.depth % 2, index: d.depth*branchFactor + d.rand.Intn(branchFactor)})
		d.depth++
	}
}

func (d *DummyOps) Evaluate() []float64 {
	v := float64(d.rand.Intn(3)) / 2
	return []float64{v, 1 - v}
}

func (d *DummyOps) Moves() []dummyMove {
	return d.moves
}

func TestMain(m *testing.M) {
	SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", SeedGeneratorFn())

	os.Exit(m.Run())
}

func NewDummyMCTS(capacity int) *MCTS[dummyMove] {
	mcts := NewMCTS(NewTree[dummyMove](capacity, 2, DefaultTreeParams()))
	mcts.ExpandRoot(NewDummyOps(0))
	return mcts
}

func GetDummyMCTS(t *testing.T, threads int) *MCTS[dummyMove] {
	mcts := NewDummyMCTS(1 << 18)
	mcts.SetLimits(DefaultLimits().SetCycles(10000).SetThreads(threads))
	require.NoError(t, mcts.Search(context.Background(), NewDummyOps))
	return mcts
}

// Tests checking if the search is working correctly

func TestDummySearch(t *testing.T) {
	mcts := GetDummyMCTS(t, 4)

	require.Equal(t, 10000, mcts.Cycles())
	require.EqualValues(t, 10000, mcts.Tree.Node(mcts.Tree.Root()).Stats.Visits())
	require.Equal(t, StopCycles, mcts.StopReason())
	require.Len(t, mcts.Tree.Children(mcts.Tree.Root()), branchFactor)

	pv := mcts.Tree.Pv(mcts.Tree.Root(), BestChildMostVisits)
	require.Greater(t, len(pv), 2)
	t.Logf("size %d cps %d depth %d collisions %d pv %v", mcts.Tree.Size(), mcts.Cps(),
		mcts.Tree.MaxDepth(), mcts.Tree.Collisions(), pv)
}

func TestDummySearchWithListener(t *testing.T) {
	mcts := NewDummyMCTS(1 << 18)
	mcts.SetLimits(DefaultLimits().SetCycles(10000).SetThreads(4))

	var mu sync.Mutex
	stops, cyclesCalls := 0, 0
	listener := NewStatsListener[dummyMove]()
	listener.
		OnDepth(func(stats ListenerTreeStats[dummyMove]) {
			t.Logf("depth %d cycle %d cps %d", stats.Maxdepth, stats.Cycles, stats.Cps)
		}).
		OnCycle(func(stats ListenerTreeStats[dummyMove]) {
			mu.Lock()
			cyclesCalls++
			mu.Unlock()
		}).
		SetCycleInterval(2000).
		OnStop(func(stats ListenerTreeStats[dummyMove]) {
			mu.Lock()
			stops++
			mu.Unlock()
			require.Equal(t, StopCycles, stats.StopReason)
			require.NotEmpty(t, stats.Lines)
			t.Logf("stop reason %s after %d cycles, maxdepth %d pv %v", stats.StopReason, stats.Cycles, stats.Maxdepth, stats.Lines[0].Moves)
		})

	mcts.SetListener(listener)
	require.NoError(t, mcts.Search(context.Background(), NewDummyOps))
	require.Equal(t, 1, stops)
	require.LessOrEqual(t, cyclesCalls, 5)
}

// Every node has at least as many visits as its children together,
// and no virtual loss is left after the search
func checkVisits(t *testing.T, tree *Tree[dummyMove], idx NodeIdx) {
	node := tree.Node(idx)
	visits, vl := node.Stats.GetVvl()
	require.Zero(t, vl)

	sum := uint32(0)
	children := tree.Children(idx)
	for i := range children {
		sum += children[i].Stats.Visits()
		checkVisits(t, tree, tree.Child(idx, i))
	}
	require.LessOrEqual(t, sum, visits)
}

func TestVisitInvariant(t *testing.T) {
	mcts := GetDummyMCTS(t, 8)
	checkVisits(t, mcts.Tree, mcts.Tree.Root())

	// Every simulation went through one of the root's children
	children := mcts.Tree.Children(mcts.Tree.Root())
	sum := uint32(0)
	for i := range children {
		sum += children[i].Stats.Visits()
	}
	require.EqualValues(t, mcts.Cycles(), sum)
	require.EqualValues(t, mcts.Cycles(), mcts.Tree.RootValue(0).Count())
}

func TestDeterministicSingleThread(t *testing.T) {
	a, b := GetDummyMCTS(t, 1), GetDummyMCTS(t, 1)
	require.Equal(t, a.Tree.Size(), b.Tree.Size())

	ca, cb := a.Tree.Children(a.Tree.Root()), b.Tree.Children(b.Tree.Root())
	for i := range ca {
		require.Equal(t, ca[i].Stats.Visits(), cb[i].Stats.Visits())
		require.Equal(t, ca[i].Stats.Sum(), cb[i].Stats.Sum())
	}
}

func TestConcurrentExpansion(t *testing.T) {
	tree := NewTree[dummyMove](1000, 2, DefaultTreeParams())
	moves := (&DummyOps{}).GenChildren(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tree.TryBeginExpand(tree.Root()) {
				mu.Lock()
				winners++
				mu.Unlock()
				require.True(t, tree.FinishExpand(tree.Root(), moves))
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, winners)
	require.Equal(t, 1+branchFactor, tree.Size())
	require.Len(t, tree.Children(tree.Root()), branchFactor)
	require.False(t, tree.TryBeginExpand(tree.Root()))
}

func TestTerminalExpansion(t *testing.T) {
	tree := NewTree[dummyMove](10, 2, DefaultTreeParams())
	require.True(t, tree.TryBeginExpand(tree.Root()))
	require.True(t, tree.FinishExpand(tree.Root(), nil))
	require.True(t, tree.Node(tree.Root()).Terminal())
	require.False(t, tree.Node(tree.Root()).Expanded())
	require.False(t, tree.TryBeginExpand(tree.Root()))
}

func TestArenaFull(t *testing.T) {
	tree := NewTree[dummyMove](branchFactor, 2, DefaultTreeParams())
	moves := (&DummyOps{}).GenChildren(nil)

	require.True(t, tree.TryBeginExpand(tree.Root()))
	require.False(t, tree.FinishExpand(tree.Root(), moves))
	require.True(t, tree.IsFull())
	require.Equal(t, 1, tree.Size())

	// The node can be expanded again later
	require.True(t, tree.TryBeginExpand(tree.Root()))
	tree.AbortExpand(tree.Root())

	// The search keeps running without expanding
	mcts := NewDummyMCTS(branchFactor + 5)
	mcts.SetLimits(DefaultLimits().SetCycles(500).SetThreads(2))
	require.NoError(t, mcts.Search(context.Background(), NewDummyOps))
	require.Equal(t, 500, mcts.Cycles())
	require.LessOrEqual(t, mcts.Tree.Size(), branchFactor+5)
	require.False(t, mcts.Limiter.Expand())
}

type subtree struct {
	move     dummyMove
	visits   uint32
	sum      float64
	children []subtree
}

func snapshot(tree *Tree[dummyMove], idx NodeIdx) subtree {
	node := tree.Node(idx)
	s := subtree{move: node.Move, visits: node.Stats.Visits(), sum: node.Stats.Sum()}
	for i := range tree.Children(idx) {
		s.children = append(s.children, snapshot(tree, tree.Child(idx, i)))
	}
	return s
}

func TestExtract(t *testing.T) {
	mcts := GetDummyMCTS(t, 4)
	tree := mcts.Tree

	best := tree.BestChild(tree.Root(), BestChildMostVisits)
	require.False(t, best.IsNil())
	before := snapshot(tree, best)
	pv := tree.Pv(best, BestChildMostVisits)

	tree.Extract(best)
	require.Equal(t, before, snapshot(tree, tree.Root()))
	require.Equal(t, pv, tree.Pv(tree.Root(), BestChildMostVisits))
	checkVisits(t, tree, tree.Root())

	// The extracted tree can be searched again
	mcts.SetLimits(DefaultLimits().SetCycles(1000).SetThreads(2))
	require.NoError(t, mcts.Search(context.Background(), func(threadId int) GameOperations[dummyMove] {
		ops := NewDummyOps(threadId).(*DummyOps)
		ops.depth = 1
		return &shiftedOps{ops}
	}))
	require.EqualValues(t, before.visits+1000, tree.Node(tree.Root()).Stats.Visits())
}

// Dummy operations starting one move deep
type shiftedOps struct {
	*DummyOps
}

func (s *shiftedOps) StartSimulation() {
	s.DummyOps.StartSimulation()
	s.depth = 1
}

func TestBackpropagateRave(t *testing.T) {
	tree := NewTree[dummyMove](100, 2, DefaultTreeParams())
	a, b, c := dummyMove{0, 0}, dummyMove{0, 1}, dummyMove{0, 2}
	x := dummyMove{1, 20}

	root := tree.Root()
	require.True(t, tree.TryBeginExpand(root))
	require.True(t, tree.FinishExpand(root, []dummyMove{a, b, c}))

	child := tree.FindChild(root, a)
	require.False(t, child.IsNil())
	tree.Node(child).Stats.AddVirtualLoss()

	marker := NewAmafMarker(0)
	tree.Backpropagate([]NodeIdx{root, child}, []dummyMove{a, x, c}, []float64{1, 0}, marker)

	require.EqualValues(t, 1, tree.Node(root).Stats.Visits())
	visits, vl := tree.Node(child).Stats.GetVvl()
	require.EqualValues(t, 1, visits)
	require.Zero(t, vl)
	require.Equal(t, 1.0, tree.Node(child).Stats.Mean(0))
	require.Equal(t, 1.0, tree.RootValue(0).Mean())
	require.Equal(t, 0.0, tree.RootValue(1).Mean())

	require.EqualValues(t, 1, tree.Node(child).Stats.RaveCount())
	require.EqualValues(t, 0, tree.Node(tree.FindChild(root, b)).Stats.RaveCount())
	cNode := tree.Node(tree.FindChild(root, c))
	require.EqualValues(t, 1, cNode.Stats.RaveCount())
	require.Equal(t, 1.0, cNode.Stats.RaveMean(0))
	require.Empty(t, marker.set)
}

func TestSelectChild(t *testing.T) {
	tree := NewTree[dummyMove](100, 2, DefaultTreeParams())
	root := tree.Root()
	require.True(t, tree.TryBeginExpand(root))
	require.True(t, tree.FinishExpand(root, []dummyMove{{0, 0}, {0, 1}, {0, 2}}))

	// All unvisited, the first child wins the tie
	require.Equal(t, tree.Child(root, 0), tree.SelectChild(root))

	// A virtual loss counts as a lost visit
	tree.Node(tree.Child(root, 0)).Stats.AddVirtualLoss()
	require.Equal(t, tree.Child(root, 1), tree.SelectChild(root))

	// Unvisited children are ordered by their RAVE value
	tree.Node(tree.Child(root, 2)).Stats.addRave(1)
	tree.Node(tree.Child(root, 1)).Stats.addRave(1)
	tree.Node(tree.Child(root, 1)).Stats.addRave(0)
	require.Equal(t, tree.Child(root, 2), tree.SelectChild(root))

	require.Equal(t, 0.0, RaveBeta(10, 0, 0.1))
	require.Equal(t, 1.0, RaveBeta(0, 10, 0.1))
	require.InDelta(t, 10.0/(20+4*0.01*100), RaveBeta(10, 10, 0.1), 1e-12)
}

func TestContextCancel(t *testing.T) {
	mcts := NewDummyMCTS(1 << 18)
	mcts.SetLimits(DefaultLimits().SetThreads(2))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, mcts.Search(ctx, NewDummyOps))
	require.Equal(t, StopInterrupt, mcts.StopReason())
	require.Positive(t, mcts.Cycles())
}

func TestDumpRoundTrip(t *testing.T) {
	mcts := GetDummyMCTS(t, 2)
	tree := mcts.Tree

	var buf bytes.Buffer
	opts := DumpOptions[dummyMove]{
		FormatMove: func(m dummyMove) (string, string) {
			return strconv.Itoa(m.player + 1), strconv.Itoa(m.index)
		},
		MinCount: 50,
	}
	require.NoError(t, tree.WriteDump(&buf, opts))

	root, err := ReadDump(&buf)
	require.NoError(t, err)
	require.EqualValues(t, mcts.Cycles(), root.Count)
	require.Equal(t, tree.RootValue(0).Mean(), root.Value)
	require.NotEmpty(t, root.Children)

	prev := root.Children[0].Count
	for _, child := range root.Children {
		require.GreaterOrEqual(t, child.Count, uint32(50))
		require.LessOrEqual(t, child.Count, prev)
		prev = child.Count

		index, err := strconv.Atoi(child.Move)
		require.NoError(t, err)
		node := tree.Node(tree.FindChild(tree.Root(), dummyMove{0, index}))
		require.Equal(t, node.Stats.Visits(), child.Count)
		require.Equal(t, node.Stats.Mean(0), child.Value)
		require.Equal(t, "1", child.Key)
	}

	// Values don't lose precision
	buf.Reset()
	require.NoError(t, tree.WriteDump(&buf, opts))
	require.Contains(t, buf.String(), "V "+strconv.FormatFloat(tree.RootValue(0).Mean(), 'g', -1, 64)+"]")

	_, err = ReadDump(bytes.NewBufferString("(;C[N 1 V 0.5](;1[e5]C[N x V 1]))"))
	require.ErrorIs(t, err, ErrDumpSyntax)
	_, err = ReadDump(bytes.NewBufferString("(;C[N 1 V 0.5]"))
	require.ErrorIs(t, err, ErrDumpSyntax)
}
