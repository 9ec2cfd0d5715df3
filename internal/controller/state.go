package controller

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sdnfabric/fabric/internal/clog"
	"github.com/sdnfabric/fabric/internal/fabric"
)

// State is the Controller's entire mutable aggregate: T0 plus everything
// the receive and periodic paths mutate. A single mutex guards it all,
// matching the one-lock discipline the spec requires. Log writes made by
// the mutating methods happen while that lock is held; LogRegisterResponse
// and LogRoutingUpdate write without it, and clog.Log's own mutex keeps
// every entry whole.
type State struct {
	mu     sync.Mutex
	n      int
	t0     *fabric.Graph
	router fabric.Router
	log    *clog.Log

	addr      map[int]*net.UDPAddr
	alive     map[int]bool
	lastHeard map[int]time.Time
	report    map[int]map[int]bool
	deadLinks map[fabric.Link]bool
}

// NewState builds the initial (empty) Controller state from a parsed config.
func NewState(cfg *Config, log *clog.Log) *State {
	return &State{
		n:         cfg.N,
		t0:        cfg.Graph,
		router:    fabric.NewDijkstraRouter(),
		log:       log,
		addr:      make(map[int]*net.UDPAddr),
		alive:     make(map[int]bool),
		lastHeard: make(map[int]time.Time),
		report:    make(map[int]map[int]bool),
		deadLinks: make(map[fabric.Link]bool),
	}
}

// N returns the configured switch count.
func (st *State) N() int { return st.n }

// AllRegistered reports whether every id in [0, N) has registered at least
// once, gating the bootstrap phase.
func (st *State) AllRegistered() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id := 0; id < st.n; id++ {
		if !st.alive[id] {
			return false
		}
	}
	return true
}

// RegisterSwitch applies a Register_Request from s arriving from addr at
// time now, returning whether s was previously not alive (for callers that
// want to distinguish first-registration bookkeeping, though the response
// pipeline runs identically either way).
func (st *State) RegisterSwitch(s int, addr *net.UDPAddr, now time.Time) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.lastHeard[s] = now
	st.addr[s] = addr
	st.log.RegisterRequest(s)

	wasAlive := st.alive[s]
	if !wasAlive {
		st.alive[s] = true
		st.log.SwitchAlive(s)

		st.report[s] = make(map[int]bool)
		for _, nid := range st.t0.Neighbors(s) {
			st.report[s][nid] = true
		}

		for link := range st.deadLinks {
			if link.A == s || link.B == s {
				delete(st.deadLinks, link)
			}
		}

		// Optimistic revival: every other alive switch's opinion of its
		// link to s resets to True; a still-bad link is corrected within
		// one periodic tick by that switch's own report.
		for other := range st.alive {
			if other == s {
				continue
			}
			if rs, ok := st.report[other]; ok {
				if _, isNeighbor := rs[s]; isNeighbor {
					rs[s] = true
				}
			}
		}
	}
	return !wasAlive
}

// TopologyUpdate overwrites s's reported link-liveness map and refreshes
// its liveness timestamp.
func (st *State) TopologyUpdate(s int, addr *net.UDPAddr, reports map[int]bool, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.lastHeard[s] = now
	st.addr[s] = addr
	if _, ok := st.alive[s]; !ok {
		return // report from a switch the controller doesn't consider alive; drop
	}
	st.report[s] = reports
}

// ExpireDeadSwitches removes every alive switch whose last inbound message
// is older than timeout, logging Switch Dead and dropping any dead-link
// entry mentioning it. Returns true if any switch was removed.
func (st *State) ExpireDeadSwitches(now time.Time, timeout time.Duration) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	var dead []int
	for s := range st.alive {
		if now.Sub(st.lastHeard[s]) > timeout {
			dead = append(dead, s)
		}
	}
	sort.Ints(dead)

	for _, s := range dead {
		delete(st.alive, s)
		delete(st.report, s)
		delete(st.addr, s)
		st.log.SwitchDead(s)
		for link := range st.deadLinks {
			if link.A == s || link.B == s {
				delete(st.deadLinks, link)
			}
		}
	}
	return len(dead) > 0
}

// RecomputeDeadLinks derives the next dead-link set from the OR-of-reports
// rule, logs Link Dead for every newly-dead pair, and installs it. Returns
// whether the set changed.
func (st *State) RecomputeDeadLinks() bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := make(map[fabric.Link]bool)
	for s := range st.alive {
		for n, up := range st.report[s] {
			if !st.alive[n] {
				continue
			}
			if !up {
				next[fabric.NewLink(s, n)] = true
			}
		}
	}

	var newlyDead []fabric.Link
	for link := range next {
		if !st.deadLinks[link] {
			newlyDead = append(newlyDead, link)
		}
	}
	sort.Slice(newlyDead, func(i, j int) bool {
		if newlyDead[i].A != newlyDead[j].A {
			return newlyDead[i].A < newlyDead[j].A
		}
		return newlyDead[i].B < newlyDead[j].B
	})
	for _, link := range newlyDead {
		st.log.LinkDead(link.A, link.B)
	}

	changed := !sameLinkSet(st.deadLinks, next)
	st.deadLinks = next
	return changed
}

func sameLinkSet(a, b map[fabric.Link]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// EffectiveGraph builds T* — T0 restricted to alive switches with dead
// links removed.
func (st *State) EffectiveGraph() *fabric.Graph {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.t0.BuildEffective(st.alive, st.deadLinks)
}

// AliveSwitches returns the currently alive switch ids in ascending order.
func (st *State) AliveSwitches() []int {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]int, 0, len(st.alive))
	for s := range st.alive {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// NeighborRows builds the Register_Response neighbor rows for switch s: its
// configured T0 neighbors in ascending id order, each tagged with the
// controller's current view of that neighbor's liveness and address.
func (st *State) NeighborRows(s int) []neighborRow {
	st.mu.Lock()
	defer st.mu.Unlock()

	ids := append([]int(nil), st.t0.Neighbors(s)...)
	sort.Ints(ids)

	rows := make([]neighborRow, 0, len(ids))
	for _, nid := range ids {
		row := neighborRow{ID: nid}
		if st.alive[nid] {
			row.Alive = true
			row.Addr = st.addr[nid]
		}
		rows = append(rows, row)
	}
	return rows
}

// LogRegisterResponse logs that a Register_Response was sent to s.
func (st *State) LogRegisterResponse(s int) {
	st.log.RegisterResponse(s)
}

// DeadLinkCount returns the number of currently dead links.
func (st *State) DeadLinkCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.deadLinks)
}

// AddrOf returns the last-known UDP endpoint for switch s, if any.
func (st *State) AddrOf(s int) (*net.UDPAddr, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	a, ok := st.addr[s]
	return a, ok
}

// RouteTables computes the forwarding table for every currently alive
// switch against the effective topology, in ascending source-id order.
func (st *State) RouteTables() []sourceRoutes {
	eff := st.EffectiveGraph()
	n := st.N()
	sources := st.AliveSwitches()

	out := make([]sourceRoutes, 0, len(sources))
	for _, s := range sources {
		rows := st.router.RouteTable(eff, n, s)
		out = append(out, sourceRoutes{Source: s, Rows: rows})
	}
	return out
}

// LogRoutingUpdate writes one combined Routing Update block covering every
// row of every source in tables, in source-then-dest order.
func (st *State) LogRoutingUpdate(tables []sourceRoutes) {
	var rows []clog.RouteRow
	for _, t := range tables {
		for _, r := range t.Rows {
			rows = append(rows, clog.RouteRow{Src: t.Source, Dest: r.Dest, NextHop: r.NextHop, Dist: int(r.Dist)})
		}
	}
	st.log.RoutingUpdate(rows)
}

type neighborRow struct {
	ID    int
	Alive bool
	Addr  *net.UDPAddr
}

type sourceRoutes struct {
	Source int
	Rows   []fabric.Row
}
