package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Basic(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("3\n0 1 5\n1 2 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.N)
	assert.ElementsMatch(t, []int{1}, cfg.Graph.Neighbors(0))
	assert.ElementsMatch(t, []int{0, 2}, cfg.Graph.Neighbors(1))
}

func TestParseConfig_BlankLinesIgnored(t *testing.T) {
	cfg, err := parseConfig(strings.NewReader("2\n\n0 1 1\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.N)
	assert.ElementsMatch(t, []int{1}, cfg.Graph.Neighbors(0))
}

func TestParseConfig_SelfLoopRejected(t *testing.T) {
	_, err := parseConfig(strings.NewReader("2\n0 0 1\n"))
	assert.Error(t, err)
}

func TestParseConfig_OutOfRangeSwitchRejected(t *testing.T) {
	_, err := parseConfig(strings.NewReader("2\n0 5 1\n"))
	assert.Error(t, err)
}

func TestParseConfig_ZeroWeightRejected(t *testing.T) {
	_, err := parseConfig(strings.NewReader("2\n0 1 0\n"))
	assert.Error(t, err)
}

func TestParseConfig_SentinelCollisionRejected(t *testing.T) {
	_, err := parseConfig(strings.NewReader("2\n0 1 9999\n"))
	assert.Error(t, err)
}

func TestParseConfig_MalformedEdgeLine(t *testing.T) {
	_, err := parseConfig(strings.NewReader("2\n0 1\n"))
	assert.Error(t, err)
}

func TestParseConfig_MissingCountLine(t *testing.T) {
	_, err := parseConfig(strings.NewReader(""))
	assert.Error(t, err)
}
