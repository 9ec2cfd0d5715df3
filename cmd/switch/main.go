// Command switch runs the fabric Switch role: it registers with the
// Controller, exchanges keep-alives with its configured neighbors, reports
// per-neighbor liveness, and applies pushed forwarding tables.
//
//	switch <id> <controller-host> <controller-port> [-f <failed-neighbor-id>]
//
// The trailing "-f" option can't be parsed with the standard flag package,
// since flag stops at the first non-flag argument and this CLI's flag
// comes after three required positional arguments.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sdnfabric/fabric/internal/clog"
	"github.com/sdnfabric/fabric/internal/obs"
	"github.com/sdnfabric/fabric/internal/swtch"
	"github.com/sdnfabric/fabric/internal/version"
)

var tickInterval = 2 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr *os.File) int {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if len(args) == 1 && (args[0] == "--version" || args[0] == "-version") {
		fmt.Fprintln(stderr, version.Full())
		return 0
	}

	id, host, port, failedNeighbor, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, "usage: switch <id> <controller-host> <controller-port> [-f <failed-neighbor-id>]")
		return 1
	}

	logFile, err := clog.Open(fmt.Sprintf("switch%d.log", id))
	if err != nil {
		fmt.Fprintf(stderr, "switch: %v\n", err)
		return 1
	}
	defer logFile.Close()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		fmt.Fprintf(stderr, "switch: listen: %v\n", err)
		return 1
	}
	defer conn.Close()

	controllerAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		fmt.Fprintf(stderr, "switch: resolve controller address: %v\n", err)
		return 1
	}

	state := swtch.NewState(id, failedNeighbor, logFile)
	srv := swtch.NewServer(conn, controllerAddr, state, id, tickInterval, logFile, logger)

	maybeServeObservability(logger, state, srv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("switch started", "id", id, "controller", controllerAddr.String())
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("switch exited with error", "err", err)
		return 1
	}
	return 0
}

// parseArgs hand-parses the positional-then-flag CLI shape: three required
// positionals and an optional "-f <id>" pair, which is accepted at any
// position among them.
func parseArgs(args []string) (id int, host string, port int, failedNeighbor int, err error) {
	failedNeighbor = swtch.NoFailedNeighbor

	var positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-f" {
			if i+1 >= len(args) {
				return 0, "", 0, 0, fmt.Errorf("switch: -f requires a neighbor id")
			}
			failedNeighbor, err = strconv.Atoi(args[i+1])
			if err != nil {
				return 0, "", 0, 0, fmt.Errorf("switch: bad -f value %q: %w", args[i+1], err)
			}
			i++
			continue
		}
		positional = append(positional, args[i])
	}

	if len(positional) < 3 {
		return 0, "", 0, 0, fmt.Errorf("switch: missing required arguments")
	}

	id, err = strconv.Atoi(positional[0])
	if err != nil {
		return 0, "", 0, 0, fmt.Errorf("switch: bad id %q: %w", positional[0], err)
	}
	host = positional[1]
	port, err = strconv.Atoi(positional[2])
	if err != nil {
		return 0, "", 0, 0, fmt.Errorf("switch: bad controller port %q: %w", positional[2], err)
	}
	return id, host, port, failedNeighbor, nil
}

func maybeServeObservability(logger *slog.Logger, state *swtch.State, srv *swtch.Server) {
	cfg, err := obs.LoadConfig("observability.yaml")
	if err != nil {
		logger.Warn("observability config error, leaving admin listener disabled", "err", err)
		return
	}
	if !cfg.Enabled {
		return
	}

	reg := prometheus.NewRegistry()
	metrics := obs.NewSwitchMetrics(reg)
	go reportSwitchMetrics(metrics, state)
	srv.OnKeepAlivesSent(func(n int) {
		metrics.KeepAlivesSent.Add(float64(n))
	})

	status := func() string {
		return fmt.Sprintf("alive_neighbors=%d\n", len(state.KeepAliveTargets()))
	}
	mux := obs.Handler(reg, status)
	go func() {
		if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
			logger.Warn("admin listener stopped", "err", err)
		}
	}()
}

func reportSwitchMetrics(m *obs.SwitchMetrics, state *swtch.State) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		m.AliveNeighbors.Set(float64(len(state.KeepAliveTargets())))
	}
}
