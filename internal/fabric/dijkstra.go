package fabric

import "container/heap"

// shortestPathsFrom runs single-source Dijkstra over g starting at src,
// returning the distance to every reachable node and the predecessor of
// every node but src on its shortest path. Nodes unreachable from src are
// absent from both maps.
//
// Grounded on the teacher's container/heap priority queue (stale entries
// are skipped via a cost check on pop), generalized to run to completion
// instead of stopping at a single destination since the controller needs
// the full per-source table on every recompute.
func shortestPathsFrom(g *Graph, src int) (dist map[int]Cost, parent map[int]int) {
	dist = map[int]Cost{src: 0}
	parent = make(map[int]int)

	pq := &priorityQueue{{node: src, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		u := item.node

		if item.cost > dist[u] {
			continue // stale entry, a shorter path to u was already relaxed
		}

		node, ok := g.Nodes[u]
		if !ok {
			continue
		}
		for _, e := range node.Edges {
			alt := dist[u] + e.Weight
			if cur, ok := dist[e.To]; !ok || alt < cur {
				dist[e.To] = alt
				parent[e.To] = u
				heap.Push(pq, &pqItem{node: e.To, cost: alt})
			}
		}
	}

	return dist, parent
}

// nextHop walks the parent chain backward from dest toward src and returns
// the node whose parent is src: the neighbor of src that the shortest path
// leaves through. dest must be reachable from src and dest != src.
func nextHop(parent map[int]int, src, dest int) int {
	cur := dest
	for {
		p, ok := parent[cur]
		if !ok || p == src {
			return cur
		}
		cur = p
	}
}

type pqItem struct {
	node int
	cost Cost
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].cost < pq[j].cost }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)         { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
