package fabric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowFor(rows []Row, dest int) Row {
	for _, r := range rows {
		if r.Dest == dest {
			return r
		}
	}
	panic("dest not found")
}

func TestRouteTable_SelfRowAlwaysZero(t *testing.T) {
	g := NewGraph()
	g.EnsureNode(0)

	rows := NewDijkstraRouter().RouteTable(g, 1, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{Dest: 0, NextHop: 0, Dist: 0}, rows[0])
}

func TestRouteTable_Unreachable(t *testing.T) {
	g := NewGraph()
	g.EnsureNode(0)
	g.EnsureNode(1)
	// no edge between them

	rows := NewDijkstraRouter().RouteTable(g, 2, 0)
	r := rowFor(rows, 1)
	assert.Equal(t, NoNextHop, r.NextHop)
	assert.Equal(t, InfiniteCost, r.Dist)
}

func TestRouteTable_TriangleShortcut(t *testing.T) {
	// 0-1 (1), 1-2 (1), 0-2 (5): shortest 0->2 is via 1, cost 2.
	t0 := NewGraph()
	t0.AddSymmetricEdge(0, 1, 1)
	t0.AddSymmetricEdge(1, 2, 1)
	t0.AddSymmetricEdge(0, 2, 5)

	rows := NewDijkstraRouter().RouteTable(t0, 3, 0)
	r := rowFor(rows, 2)
	assert.Equal(t, 1, r.NextHop)
	assert.Equal(t, Cost(2), r.Dist)
}

func TestRouteTable_SourceNotAlive_AllUnreachableExceptSelf(t *testing.T) {
	g := NewGraph() // empty effective graph: src itself absent

	rows := NewDijkstraRouter().RouteTable(g, 3, 1)
	require.Len(t, rows, 3)
	assert.Equal(t, Row{Dest: 1, NextHop: 1, Dist: 0}, rowFor(rows, 1))
	assert.Equal(t, Row{Dest: 0, NextHop: NoNextHop, Dist: InfiniteCost}, rowFor(rows, 0))
	assert.Equal(t, Row{Dest: 2, NextHop: NoNextHop, Dist: InfiniteCost}, rowFor(rows, 2))
}

func TestRouteTable_DirectNeighborIsItsOwnNextHop(t *testing.T) {
	g := NewGraph()
	g.AddSymmetricEdge(0, 1, 7)

	rows := NewDijkstraRouter().RouteTable(g, 2, 0)
	r := rowFor(rows, 1)
	assert.Equal(t, 1, r.NextHop)
	assert.Equal(t, Cost(7), r.Dist)
}
