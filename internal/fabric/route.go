package fabric

// Row is one destination's entry in a source switch's forwarding table.
type Row struct {
	Dest    int
	NextHop int
	Dist    Cost
}

// Router abstracts the path-computation algorithm over an effective
// topology. Kept as an interface (mirroring the teacher's swappable
// Router) even though Dijkstra is the only implementation this spec
// requires, so an alternative algorithm can be substituted without
// touching the controller.
type Router interface {
	// RouteTable computes the forwarding table for src across every
	// destination in [0, n), against the effective topology eff.
	RouteTable(eff *Graph, n, src int) []Row
}

// NewDijkstraRouter returns the default Router implementation.
func NewDijkstraRouter() Router { return dijkstraRouter{} }

type dijkstraRouter struct{}

// RouteTable implements Router. Tie-breaking among equal-cost paths follows
// whatever order container/heap happens to pop equal-priority items in;
// the spec does not mandate a particular tie-break, only a valid shortest
// path, so this is left unspecified rather than forced.
func (dijkstraRouter) RouteTable(eff *Graph, n, src int) []Row {
	rows := make([]Row, 0, n)

	if !eff.Has(src) {
		for d := 0; d < n; d++ {
			if d == src {
				rows = append(rows, Row{Dest: d, NextHop: src, Dist: 0})
			} else {
				rows = append(rows, Row{Dest: d, NextHop: NoNextHop, Dist: InfiniteCost})
			}
		}
		return rows
	}

	dist, parent := shortestPathsFrom(eff, src)

	for d := 0; d < n; d++ {
		switch {
		case d == src:
			rows = append(rows, Row{Dest: d, NextHop: src, Dist: 0})
		default:
			dd, reachable := dist[d]
			if !reachable {
				rows = append(rows, Row{Dest: d, NextHop: NoNextHop, Dist: InfiniteCost})
				continue
			}
			rows = append(rows, Row{Dest: d, NextHop: nextHop(parent, src, d), Dist: dd})
		}
	}
	return rows
}
