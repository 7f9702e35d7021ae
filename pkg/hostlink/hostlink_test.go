//go:build linux

package hostlink

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New("")
	if err != nil {
		t.Skipf("netlink unavailable: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestSetUpMissingInterface(t *testing.T) {
	m := newManager(t)

	err := m.SetUp("osvsw-missing0")
	require.Error(t, err)

	var nf netlink.LinkNotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.False(t, m.Exists("osvsw-missing0"))
}

func TestLoopbackExists(t *testing.T) {
	m := newManager(t)
	assert.True(t, m.Exists("lo"))
}

func TestNewUnknownNamespace(t *testing.T) {
	_, err := New("osvsw-no-such-ns")
	assert.Error(t, err)
}
