// Package wire implements the UDP datagram protocol shared by the
// controller and switch processes: a small tagged sum of message kinds,
// each a newline-separated, UTF-8 text payload, plus the parse/format pair
// for each. A single Parse entry point dispatches on shape so callers never
// compare first-line strings themselves (the design the spec calls for
// instead of ad-hoc string comparisons).
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is the tagged union of the five UDP payload kinds that cross the
// wire. Each concrete message type below implements it.
type Message interface {
	isMessage()
}

// RegisterRequest is sent by a switch to the controller: "<sid> Register_Request".
type RegisterRequest struct {
	SwitchID int
}

func (RegisterRequest) isMessage() {}

// NeighborEndpoint is one row of a RegisterResponse: a neighbor id and
// either its current UDP endpoint (Alive) or nothing (not alive).
type NeighborEndpoint struct {
	ID    int
	Alive bool
	IP    string
	Port  int
}

// RegisterResponse is sent by the controller to a newly (re-)registered
// switch, listing its configured neighbors in ascending id order.
type RegisterResponse struct {
	Neighbors []NeighborEndpoint
}

func (RegisterResponse) isMessage() {}

// RouteRow is one destination row of a RouteUpdate.
type RouteRow struct {
	Dest    int
	NextHop int
	Dist    int
}

// RouteUpdate is the controller's push of a forwarding table to a single
// switch (Target).
type RouteUpdate struct {
	Target int
	Rows   []RouteRow
}

func (RouteUpdate) isMessage() {}

// NeighborReport is one row of a TopologyUpdate: a switch's opinion on
// whether its link to a given neighbor is currently up.
type NeighborReport struct {
	ID    int
	Alive bool
}

// TopologyUpdate is a switch's periodic report of per-neighbor liveness to
// the controller.
type TopologyUpdate struct {
	SwitchID int
	Reports  []NeighborReport
}

func (TopologyUpdate) isMessage() {}

// KeepAlive is a switch-to-switch liveness probe: "<sid> KEEP_ALIVE".
type KeepAlive struct {
	SwitchID int
}

func (KeepAlive) isMessage() {}

// Parse decodes a raw UDP payload into its tagged Message, or returns an
// error if the payload is malformed or of unrecognized shape. Callers
// should treat a non-nil error as "drop the datagram silently" per the
// spec's error-handling policy — Parse never panics on malformed input.
func Parse(data []byte) (Message, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, fmt.Errorf("wire: empty datagram")
	}

	first := strings.Fields(lines[0])

	switch {
	case len(first) == 2 && first[1] == "Register_Request":
		sid, err := strconv.Atoi(first[0])
		if err != nil {
			return nil, fmt.Errorf("wire: bad switch id in Register_Request: %w", err)
		}
		return RegisterRequest{SwitchID: sid}, nil

	case len(first) == 2 && first[1] == "KEEP_ALIVE":
		sid, err := strconv.Atoi(first[0])
		if err != nil {
			return nil, fmt.Errorf("wire: bad switch id in KEEP_ALIVE: %w", err)
		}
		return KeepAlive{SwitchID: sid}, nil

	case lines[0] == "REGISTER_RESPONSE":
		return parseRegisterResponse(lines)

	case lines[0] == "ROUTE_UPDATE":
		return parseRouteUpdate(lines)

	case lines[0] == "TOPOLOGY_UPDATE":
		return parseTopologyUpdate(lines)

	default:
		return nil, fmt.Errorf("wire: unrecognized message")
	}
}

func parseRegisterResponse(lines []string) (Message, error) {
	if len(lines) < 2 {
		return nil, fmt.Errorf("wire: REGISTER_RESPONSE missing neighbor count")
	}
	m, err := strconv.Atoi(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, fmt.Errorf("wire: bad neighbor count: %w", err)
	}
	if m < 0 {
		return nil, fmt.Errorf("wire: negative neighbor count %d", m)
	}
	if m > len(lines)-2 {
		return nil, fmt.Errorf("wire: REGISTER_RESPONSE truncated neighbor list")
	}

	neighbors := make([]NeighborEndpoint, 0, m)
	for _, line := range lines[2 : 2+m] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("wire: malformed neighbor row %q", line)
		}
		nid, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("wire: bad neighbor id: %w", err)
		}
		switch fields[1] {
		case "True":
			if len(fields) < 4 {
				return nil, fmt.Errorf("wire: alive neighbor row missing endpoint: %q", line)
			}
			port, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("wire: bad neighbor port: %w", err)
			}
			neighbors = append(neighbors, NeighborEndpoint{ID: nid, Alive: true, IP: fields[2], Port: port})
		case "False":
			neighbors = append(neighbors, NeighborEndpoint{ID: nid, Alive: false})
		default:
			return nil, fmt.Errorf("wire: bad alive flag %q", fields[1])
		}
	}
	return RegisterResponse{Neighbors: neighbors}, nil
}

func parseRouteUpdate(lines []string) (Message, error) {
	if len(lines) < 2 {
		return nil, fmt.Errorf("wire: ROUTE_UPDATE missing target")
	}
	target, err := strconv.Atoi(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, fmt.Errorf("wire: bad target switch id: %w", err)
	}

	rows := make([]RouteRow, 0, len(lines)-2)
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("wire: malformed route row %q", line)
		}
		dest, err1 := strconv.Atoi(fields[0])
		next, err2 := strconv.Atoi(fields[1])
		dist, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("wire: malformed route row %q", line)
		}
		rows = append(rows, RouteRow{Dest: dest, NextHop: next, Dist: dist})
	}
	return RouteUpdate{Target: target, Rows: rows}, nil
}

func parseTopologyUpdate(lines []string) (Message, error) {
	if len(lines) < 2 {
		return nil, fmt.Errorf("wire: TOPOLOGY_UPDATE missing sender id")
	}
	sid, err := strconv.Atoi(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, fmt.Errorf("wire: bad sender id: %w", err)
	}

	reports := make([]NeighborReport, 0, len(lines)-2)
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("wire: malformed topology row %q", line)
		}
		nid, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("wire: bad neighbor id: %w", err)
		}
		var alive bool
		switch fields[1] {
		case "True":
			alive = true
		case "False":
			alive = false
		default:
			return nil, fmt.Errorf("wire: bad alive flag %q", fields[1])
		}
		reports = append(reports, NeighborReport{ID: nid, Alive: alive})
	}
	return TopologyUpdate{SwitchID: sid, Reports: reports}, nil
}

// splitLines splits a raw datagram into trimmed lines, tolerating trailing
// whitespace and ignoring empty trailing lines as the spec requires.
func splitLines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// EncodeRegisterRequest formats a Register_Request datagram.
func EncodeRegisterRequest(sid int) []byte {
	return []byte(fmt.Sprintf("%d Register_Request", sid))
}

// EncodeRegisterResponse formats a REGISTER_RESPONSE datagram. neighbors
// must already be in ascending id order.
func EncodeRegisterResponse(neighbors []NeighborEndpoint) []byte {
	var b strings.Builder
	b.WriteString("REGISTER_RESPONSE\n")
	fmt.Fprintf(&b, "%d", len(neighbors))
	for _, n := range neighbors {
		b.WriteString("\n")
		if n.Alive {
			fmt.Fprintf(&b, "%d True %s %d", n.ID, n.IP, n.Port)
		} else {
			fmt.Fprintf(&b, "%d False", n.ID)
		}
	}
	return []byte(b.String())
}

// EncodeRouteUpdate formats a ROUTE_UPDATE datagram for the given target
// switch and its full destination rows.
func EncodeRouteUpdate(target int, rows []RouteRow) []byte {
	var b strings.Builder
	b.WriteString("ROUTE_UPDATE\n")
	fmt.Fprintf(&b, "%d", target)
	for _, r := range rows {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d %d %d", r.Dest, r.NextHop, r.Dist)
	}
	return []byte(b.String())
}

// EncodeTopologyUpdate formats a TOPOLOGY_UPDATE datagram. reports must
// already be in ascending neighbor id order.
func EncodeTopologyUpdate(sid int, reports []NeighborReport) []byte {
	var b strings.Builder
	b.WriteString("TOPOLOGY_UPDATE\n")
	fmt.Fprintf(&b, "%d", sid)
	for _, r := range reports {
		b.WriteString("\n")
		alive := "False"
		if r.Alive {
			alive = "True"
		}
		fmt.Fprintf(&b, "%d %s", r.ID, alive)
	}
	return []byte(b.String())
}

// EncodeKeepAlive formats a keep-alive datagram.
func EncodeKeepAlive(sid int) []byte {
	return []byte(fmt.Sprintf("%d KEEP_ALIVE", sid))
}
