// Package clog writes the graded event log that accompanies a controller
// or switch process: an append-only text file where every entry is preceded
// by two blank lines and a timestamp, matching the fixed format the grading
// scripts parse. This is deliberately separate from the operational
// slog-based logging used for diagnostics (see the cmd packages) — the
// content strings here are part of the contract and must never be
// reworded.
package clog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Log is an append-only, mutex-serialized writer for one process's graded
// event log.
type Log struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// Open opens the log file at path for appending, creating it if it does
// not yet exist. Entries from a prior run of the same process (e.g. a
// switch that died and restarted) are never discarded.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("clog: open %s: %w", path, err)
	}
	return &Log{file: f, now: time.Now}, nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	return l.file.Close()
}

// write appends one graded entry: two blank lines, a timestamp line, then
// the given content lines.
func (l *Log) write(lines ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().Format("15:04:05.000000")
	fmt.Fprintf(l.file, "\n\n%s\n", ts)
	for _, line := range lines {
		fmt.Fprintln(l.file, line)
	}
}

// RouteRow is one row of a Routing Update block, shared by both the
// controller (which logs a distance column) and a switch (which doesn't).
type RouteRow struct {
	Src     int
	Dest    int
	NextHop int
	Dist    int
}

// --- Controller-side entries ---

// RegisterRequest logs the controller's receipt of a Register_Request.
func (l *Log) RegisterRequest(switchID int) {
	l.write(fmt.Sprintf("Register Request %d", switchID))
}

// RegisterResponse logs a Register_Response the controller sent to a switch.
func (l *Log) RegisterResponse(switchID int) {
	l.write(fmt.Sprintf("Register Response %d", switchID))
}

// RoutingUpdate logs a full "Routing Update ... Routing Complete" block. Rows
// include the distance column, per the controller log format.
func (l *Log) RoutingUpdate(rows []RouteRow) {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, "Routing Update")
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%d,%d:%d,%d", r.Src, r.Dest, r.NextHop, r.Dist))
	}
	lines = append(lines, "Routing Complete")
	l.write(lines...)
}

// LinkDead logs a dead-link detection between two switches, a < b.
func (l *Log) LinkDead(a, b int) {
	l.write(fmt.Sprintf("Link Dead %d,%d", a, b))
}

// SwitchDead logs a switch's removal from alive_switch on timeout.
func (l *Log) SwitchDead(switchID int) {
	l.write(fmt.Sprintf("Switch Dead %d", switchID))
}

// SwitchAlive logs a switch's (re-)entry into alive_switch.
func (l *Log) SwitchAlive(switchID int) {
	l.write(fmt.Sprintf("Switch Alive %d", switchID))
}

// --- Switch-side entries ---

// RegisterRequestSent logs the switch's own Register_Request send.
func (l *Log) RegisterRequestSent() {
	l.write("Register Request Sent")
}

// RegisterResponseReceived logs the switch's receipt of its neighbor table.
func (l *Log) RegisterResponseReceived() {
	l.write("Register Response received")
}

// RoutingUpdateReceived logs a full "Routing Update ... Routing Complete"
// block as seen by a switch: no distance column.
func (l *Log) RoutingUpdateReceived(rows []RouteRow) {
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, "Routing Update")
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%d,%d:%d", r.Src, r.Dest, r.NextHop))
	}
	lines = append(lines, "Routing Complete")
	l.write(lines...)
}

// NeighborDead logs a switch's detection of a dead neighbor via keep-alive
// timeout.
func (l *Log) NeighborDead(neighborID int) {
	l.write(fmt.Sprintf("Neighbor Dead %d", neighborID))
}

// NeighborAlive logs a switch's detection of a neighbor coming back via a
// fresh keep-alive.
func (l *Log) NeighborAlive(neighborID int) {
	l.write(fmt.Sprintf("Neighbor Alive %d", neighborID))
}

// FormatTimestamp is exposed for tests that need to assert on the exact
// timestamp layout without duplicating the format string.
func FormatTimestamp(t time.Time) string {
	return t.Format("15:04:05.000000")
}

// looksLikeTimestamp reports whether s splits into three colon-separated
// parts, as an HH:MM:SS.micros line does; the parts themselves are not
// checked. Used only by tests to sanity-check written output.
func looksLikeTimestamp(s string) bool {
	parts := strings.Split(s, ":")
	return len(parts) == 3
}
