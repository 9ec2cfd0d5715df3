package swtch

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdnfabric/fabric/internal/clog"
	"github.com/sdnfabric/fabric/internal/wire"
)

func testSwitchState(t *testing.T, myID, failedNeighbor int) *State {
	t.Helper()
	l, err := clog.Open(filepath.Join(t.TempDir(), "switch.log"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return NewState(myID, failedNeighbor, l)
}

func TestApplyRegisterResponse_PopulatesTables(t *testing.T) {
	st := testSwitchState(t, 0, NoFailedNeighbor)
	st.ApplyRegisterResponse([]wire.NeighborEndpoint{
		{ID: 1, Alive: true, IP: "127.0.0.1", Port: 9001},
		{ID: 2, Alive: false},
	}, time.Now())

	targets := st.KeepAliveTargets()
	require.Len(t, targets, 1)
	assert.Equal(t, 1, targets[0].ID)
}

func TestHandleKeepAlive_IgnoresFailedNeighbor(t *testing.T) {
	st := testSwitchState(t, 0, 1)
	st.ApplyRegisterResponse([]wire.NeighborEndpoint{{ID: 1, Alive: false}}, time.Now())

	becameAlive := st.HandleKeepAlive(1, &net.UDPAddr{Port: 1}, time.Now())
	assert.False(t, becameAlive)

	reports := st.TopologyReport()
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Alive)
}

func TestHandleKeepAlive_FlipsDeadToAlive(t *testing.T) {
	st := testSwitchState(t, 0, NoFailedNeighbor)
	st.ApplyRegisterResponse([]wire.NeighborEndpoint{{ID: 1, Alive: false}}, time.Now())

	becameAlive := st.HandleKeepAlive(1, &net.UDPAddr{Port: 1}, time.Now())
	assert.True(t, becameAlive)

	reports := st.TopologyReport()
	assert.True(t, reports[0].Alive)
}

func TestPeriodicExpire_MarksStaleNeighborDead(t *testing.T) {
	st := testSwitchState(t, 0, NoFailedNeighbor)
	past := time.Now().Add(-10 * time.Second)
	st.ApplyRegisterResponse([]wire.NeighborEndpoint{{ID: 1, Alive: true, IP: "127.0.0.1", Port: 1}}, past)

	st.PeriodicExpire(time.Now(), 3*time.Second)

	reports := st.TopologyReport()
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Alive)
}

func TestKeepAliveTargets_ExcludesDeadAndFailed(t *testing.T) {
	st := testSwitchState(t, 0, 2)
	st.ApplyRegisterResponse([]wire.NeighborEndpoint{
		{ID: 1, Alive: true, IP: "127.0.0.1", Port: 1},
		{ID: 2, Alive: true, IP: "127.0.0.1", Port: 2},
		{ID: 3, Alive: false},
	}, time.Now())

	targets := st.KeepAliveTargets()
	require.Len(t, targets, 1)
	assert.Equal(t, 1, targets[0].ID)
}
