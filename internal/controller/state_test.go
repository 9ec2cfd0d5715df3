package controller

import (
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdnfabric/fabric/internal/clog"
)

func testState(t *testing.T, cfg *Config) *State {
	t.Helper()
	l, err := clog.Open(filepath.Join(t.TempDir(), "Controller.log"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return NewState(cfg, l)
}

func udpAddr(t *testing.T, port int) *net.UDPAddr {
	t.Helper()
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
}

func TestRegisterSwitch_FirstTimeMarksAlive(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("2\n0 1 1\n"))
	require.NoError(t, err)
	st := testState(t, cfg)

	wasNew := st.RegisterSwitch(0, udpAddr(t, 1000), time.Now())
	assert.True(t, wasNew)
	assert.Equal(t, []int{0}, st.AliveSwitches())
}

func TestRegisterSwitch_ReregistrationNotNew(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("2\n0 1 1\n"))
	require.NoError(t, err)
	st := testState(t, cfg)

	st.RegisterSwitch(0, udpAddr(t, 1000), time.Now())
	wasNew := st.RegisterSwitch(0, udpAddr(t, 1001), time.Now())
	assert.False(t, wasNew)
}

func TestRegisterSwitch_OptimisticRevival(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("2\n0 1 1\n"))
	require.NoError(t, err)
	st := testState(t, cfg)

	st.RegisterSwitch(1, udpAddr(t, 1001), time.Now().Add(-10*time.Second))
	st.RegisterSwitch(0, udpAddr(t, 1000), time.Now())

	// 0 thinks the link to 1 is down; this makes it dead under OR-of-reports.
	// The topology update also refreshes 0's own liveness timestamp.
	st.TopologyUpdate(0, udpAddr(t, 1000), map[int]bool{1: false}, time.Now())
	require.True(t, st.RecomputeDeadLinks())

	// 1 is stale and drops out, then re-registers: every other alive
	// switch's opinion of its link to 1 resets to True, including 0's, and
	// 1's own report about its neighbors also resets to all-True.
	require.True(t, st.ExpireDeadSwitches(time.Now(), 3*time.Second))
	st.RegisterSwitch(1, udpAddr(t, 1001), time.Now())

	// The 0-1 dead-link entry was already dropped when 1 expired, so with
	// every report reset to True the recompute finds nothing new.
	changed := st.RecomputeDeadLinks()
	assert.False(t, changed)
	eff := st.EffectiveGraph()
	assert.ElementsMatch(t, []int{1}, eff.Neighbors(0))
}

func TestExpireDeadSwitches_RemovesStale(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("2\n0 1 1\n"))
	require.NoError(t, err)
	st := testState(t, cfg)

	past := time.Now().Add(-10 * time.Second)
	st.RegisterSwitch(0, udpAddr(t, 1000), past)

	removed := st.ExpireDeadSwitches(time.Now(), 3*time.Second)
	assert.True(t, removed)
	assert.Empty(t, st.AliveSwitches())
}

func TestRecomputeDeadLinks_ORofReports(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("2\n0 1 1\n"))
	require.NoError(t, err)
	st := testState(t, cfg)

	st.RegisterSwitch(0, udpAddr(t, 1000), time.Now())
	st.RegisterSwitch(1, udpAddr(t, 1001), time.Now())

	st.TopologyUpdate(0, udpAddr(t, 1000), map[int]bool{1: true}, time.Now())
	st.TopologyUpdate(1, udpAddr(t, 1001), map[int]bool{0: false}, time.Now())

	changed := st.RecomputeDeadLinks()
	assert.True(t, changed)

	eff := st.EffectiveGraph()
	assert.Empty(t, eff.Neighbors(0))
}

func TestRouteTables_DeadSwitchContributesNoRows(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("3\n0 1 1\n1 2 1\n"))
	require.NoError(t, err)
	st := testState(t, cfg)

	st.RegisterSwitch(0, udpAddr(t, 1000), time.Now())
	st.RegisterSwitch(1, udpAddr(t, 1001), time.Now())

	tables := st.RouteTables()
	require.Len(t, tables, 2)
	for _, tb := range tables {
		assert.NotEqual(t, 2, tb.Source)
	}
}

func TestNeighborRows_ReflectsAliveness(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("3\n0 1 1\n0 2 1\n"))
	require.NoError(t, err)
	st := testState(t, cfg)

	st.RegisterSwitch(1, udpAddr(t, 1001), time.Now())
	// 2 never registers.

	rows := st.NeighborRows(0)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].ID)
	assert.True(t, rows[0].Alive)
	assert.Equal(t, 2, rows[1].ID)
	assert.False(t, rows[1].Alive)
}
