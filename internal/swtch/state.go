// Package swtch implements the Switch role: registration with the
// Controller, neighbor keep-alive exchange, neighbor-liveness reporting,
// and applying pushed forwarding tables.
package swtch

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sdnfabric/fabric/internal/clog"
	"github.com/sdnfabric/fabric/internal/wire"
)

// NoFailedNeighbor marks the absence of a -f command-line option.
const NoFailedNeighbor = -1

// State is one switch's neighbor bookkeeping, guarded by a single mutex per
// the spec's one-lock discipline.
type State struct {
	mu sync.Mutex

	myID           int
	failedNeighbor int
	log            *clog.Log

	nbAddr   map[int]*net.UDPAddr
	nbAlive  map[int]bool
	nbLastKA map[int]time.Time
}

// NewState builds a switch's state before any Register_Response has
// arrived.
func NewState(myID, failedNeighbor int, log *clog.Log) *State {
	return &State{
		myID:           myID,
		failedNeighbor: failedNeighbor,
		log:            log,
		nbAddr:         make(map[int]*net.UDPAddr),
		nbAlive:        make(map[int]bool),
		nbLastKA:       make(map[int]time.Time),
	}
}

// ApplyRegisterResponse (re-)initializes the neighbor tables from a
// Register_Response's rows, giving every neighbor a fresh keep-alive grace
// period as the bootstrap and any later re-registration both require.
func (st *State) ApplyRegisterResponse(neighbors []wire.NeighborEndpoint, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.nbAddr = make(map[int]*net.UDPAddr)
	st.nbAlive = make(map[int]bool)
	st.nbLastKA = make(map[int]time.Time)

	for _, n := range neighbors {
		st.nbAlive[n.ID] = n.Alive
		st.nbLastKA[n.ID] = now
		if n.Alive {
			st.nbAddr[n.ID] = &net.UDPAddr{IP: net.ParseIP(n.IP), Port: n.Port}
		}
	}
}

// HandleKeepAlive applies a keep-alive from sender arriving from addr at
// time now. Per failed_neighbor semantics, a probe from the one-sided-dead
// neighbor is ignored outright. Returns true if sender just flipped from
// dead to alive, so the caller can send an immediate Topology_Update.
func (st *State) HandleKeepAlive(sender int, addr *net.UDPAddr, now time.Time) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sender == st.failedNeighbor {
		return false
	}

	wasAlive := st.nbAlive[sender]
	st.nbLastKA[sender] = now
	st.nbAddr[sender] = addr

	if !wasAlive {
		st.nbAlive[sender] = true
		st.log.NeighborAlive(sender)
		return true
	}
	return false
}

// PeriodicExpire marks every alive neighbor whose last keep-alive is older
// than timeout as dead, logging Neighbor Dead once per transition.
func (st *State) PeriodicExpire(now time.Time, timeout time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()

	var ids []int
	for n := range st.nbAlive {
		ids = append(ids, n)
	}
	sort.Ints(ids)

	for _, n := range ids {
		if !st.nbAlive[n] {
			continue
		}
		if now.Sub(st.nbLastKA[n]) > timeout {
			st.nbAlive[n] = false
			st.log.NeighborDead(n)
		}
	}
}

// KeepAliveTargets returns the neighbors that should receive a keep-alive
// this tick: currently alive, not the failed neighbor, with a known
// address.
func (st *State) KeepAliveTargets() []Target {
	st.mu.Lock()
	defer st.mu.Unlock()

	var ids []int
	for n := range st.nbAlive {
		ids = append(ids, n)
	}
	sort.Ints(ids)

	targets := make([]Target, 0, len(ids))
	for _, n := range ids {
		if n == st.failedNeighbor {
			continue
		}
		if !st.nbAlive[n] {
			continue
		}
		addr, ok := st.nbAddr[n]
		if !ok {
			continue
		}
		targets = append(targets, Target{ID: n, Addr: addr})
	}
	return targets
}

// TopologyReport returns the switch's current opinion of every configured
// neighbor's liveness, in ascending id order, for the periodic
// Topology_Update.
func (st *State) TopologyReport() []wire.NeighborReport {
	st.mu.Lock()
	defer st.mu.Unlock()

	var ids []int
	for n := range st.nbAlive {
		ids = append(ids, n)
	}
	sort.Ints(ids)

	reports := make([]wire.NeighborReport, 0, len(ids))
	for _, n := range ids {
		reports = append(reports, wire.NeighborReport{ID: n, Alive: st.nbAlive[n]})
	}
	return reports
}

// Target is one neighbor to send a keep-alive to.
type Target struct {
	ID   int
	Addr *net.UDPAddr
}

// LogRoutingUpdate writes the switch-side Routing Update block: rows with
// next hop only, distance omitted.
func (st *State) LogRoutingUpdate(myID int, rows []wire.RouteRow) {
	out := make([]clog.RouteRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, clog.RouteRow{Src: myID, Dest: r.Dest, NextHop: r.NextHop})
	}
	st.log.RoutingUpdateReceived(out)
}
