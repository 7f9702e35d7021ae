package targets

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type versionSource struct {
	version string
	err     error
}

func (v versionSource) GetVersion(ctx context.Context) (string, error) {
	return v.version, v.err
}

func TestEngineTargetCheck(t *testing.T) {
	target := NewEngineTarget(versionSource{version: "24.10-release"}, true)
	res := target.Check(context.Background())
	assert.True(t, res.Healthy)
	assert.Equal(t, "24.10-release", res.Detail)
	assert.True(t, target.Critical())
	assert.Equal(t, "engine", target.Name())

	target = NewEngineTarget(versionSource{err: errors.New("engine command timed out")}, false)
	res = target.Check(context.Background())
	assert.False(t, res.Healthy)
	assert.Equal(t, "engine command timed out", res.ErrorStr)
}

func TestEngineTargetCallbacks(t *testing.T) {
	var ups, downs int
	recoverErr := errors.New("resync failed")

	target := NewEngineTarget(versionSource{}, true)
	require.NoError(t, target.Recover(context.Background()))

	target.SetCallbacks(EngineCallbacks{
		OnUp:      func() { ups++ },
		OnDown:    func() { downs++ },
		OnRecover: func(ctx context.Context) error { return recoverErr },
	})
	target.OnUp()
	target.OnDown()
	assert.Equal(t, 1, ups)
	assert.Equal(t, 1, downs)
	assert.ErrorIs(t, target.Recover(context.Background()), recoverErr)
}

func TestSocketTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.sock")

	target := NewSocketTarget("api-socket", path, false)
	assert.False(t, target.Check(context.Background()).Healthy)

	l, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer l.Close()

	assert.True(t, target.Check(context.Background()).Healthy)
	assert.Equal(t, "api-socket", target.Name())
	assert.False(t, target.Critical())
}
