package controller

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sdnfabric/fabric/internal/fabric"
)

// Config is the parsed static topology T0: a switch count and a symmetric,
// deduplicated, self-loop-free edge set.
type Config struct {
	N     int
	Graph *fabric.Graph
}

// LoadConfig reads and validates the config-file format from §6: line 1 is
// the switch count N, subsequent non-empty lines are "<u> <v> <w>". Any
// malformed line is a fatal error — config problems must surface before the
// socket is bound, per the error-handling policy.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("controller: open config %s: %w", path, err)
	}
	defer f.Close()
	return parseConfig(f)
}

func parseConfig(r io.Reader) (*Config, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, fmt.Errorf("controller: config missing switch count line")
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("controller: bad switch count %q", scanner.Text())
	}

	g := fabric.NewGraph()
	for i := 0; i < n; i++ {
		g.EnsureNode(i)
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("controller: malformed edge line %q", line)
		}
		u, err1 := strconv.Atoi(fields[0])
		v, err2 := strconv.Atoi(fields[1])
		w, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("controller: malformed edge line %q", line)
		}
		if u < 0 || u >= n || v < 0 || v >= n {
			return nil, fmt.Errorf("controller: edge %q references switch outside [0,%d)", line, n)
		}
		if u == v {
			return nil, fmt.Errorf("controller: self-loop not allowed: %q", line)
		}
		if w < 1 {
			return nil, fmt.Errorf("controller: edge weight must be >= 1: %q", line)
		}
		// The sentinel distance 9999 must never collide with a real edge
		// weight, so configured weights are rejected at this boundary
		// rather than risked against it during route computation.
		if fabric.Cost(w) >= fabric.InfiniteCost {
			return nil, fmt.Errorf("controller: edge weight %d too large (must be < %d): %q", w, fabric.InfiniteCost, line)
		}
		g.AddSymmetricEdge(u, v, fabric.Cost(w))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("controller: reading config: %w", err)
	}

	return &Config{N: n, Graph: g}, nil
}
