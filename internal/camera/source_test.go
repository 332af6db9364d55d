package camera

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceAcquire(t *testing.T) {
	var d Device

	release, err := d.Acquire()
	require.NoError(t, err)

	_, err = d.Acquire()
	assert.ErrorIs(t, err, ErrCameraBusy)
	assert.ErrorIs(t, err, ErrCameraUnavailable)

	release()
	release, err = d.Acquire()
	require.NoError(t, err)
	release()
}

func TestAssetsCheck(t *testing.T) {
	dir := t.TempDir()
	assets := AssetsIn(dir)

	err := assets.Check()
	assert.ErrorIs(t, err, ErrMissingAsset)
	assert.Contains(t, err.Error(), DetectorFile)

	for _, name := range []string{DetectorFile, ModelFile, RegistryFile} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	assert.NoError(t, assets.Check())

	require.NoError(t, os.Remove(assets.Model))
	require.NoError(t, os.Mkdir(assets.Model, 0o755))
	assert.ErrorIs(t, assets.Check(), ErrMissingAsset)
}

func newTestSimulator(t *testing.T, registry string) *Simulator {
	t.Helper()
	assets := AssetsIn(t.TempDir())
	require.NoError(t, os.WriteFile(assets.Detector, []byte("<opencv_storage/>"), 0o644))
	require.NoError(t, os.WriteFile(assets.Model, []byte("%YAML:1.0"), 0o644))
	if registry != "" {
		require.NoError(t, os.WriteFile(assets.Registry, []byte(registry), 0o644))
	}
	sim := NewSimulator(assets, DefaultConfidenceThreshold, rand.NewPCG(1, 2), slog.New(slog.NewTextHandler(io.Discard, nil)))
	sim.ScanDelay = time.Millisecond
	return sim
}

func TestSimulatorRecognize(t *testing.T) {
	sim := newTestSimulator(t, "1 Zhang\n2 Li\n3 Wang\n")

	result, err := sim.Recognize(context.Background(), time.Millisecond, true)
	require.NoError(t, err)
	for _, name := range result.Recognized {
		assert.Contains(t, []string{"Zhang", "Li", "Wang"}, name)
	}
}

func TestSimulatorRecognize_MissingRegistry(t *testing.T) {
	sim := newTestSimulator(t, "")

	_, err := sim.Recognize(context.Background(), time.Millisecond, true)
	assert.ErrorIs(t, err, ErrMissingAsset)
}

func TestSimulatorRecognize_MissingModel(t *testing.T) {
	sim := newTestSimulator(t, "1 Zhang\n")
	require.NoError(t, os.Remove(sim.assets.Model))

	_, err := sim.Recognize(context.Background(), time.Millisecond, true)
	assert.ErrorIs(t, err, ErrMissingAsset)
	assert.Contains(t, err.Error(), ModelFile)

	// QR scanning only needs the camera
	_, err = sim.DecodeQR(context.Background(), time.Second)
	assert.NoError(t, err)
}

func TestSimulatorRecognize_Cancelled(t *testing.T) {
	sim := newTestSimulator(t, "1 Zhang\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Recognize(ctx, time.Hour, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatorDecodeQR(t *testing.T) {
	sim := newTestSimulator(t, "1 Zhang\n")
	sim.QRMissRate = 0

	data, err := sim.DecodeQR(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Zhang", data)

	sim.QRMissRate = 1
	data, err = sim.DecodeQR(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSimulatorDecodeQR_TimeoutShorterThanScan(t *testing.T) {
	sim := newTestSimulator(t, "1 Zhang\n")
	sim.QRMissRate = 0
	sim.ScanDelay = time.Hour

	data, err := sim.DecodeQR(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDisabled(t *testing.T) {
	var src Source = Disabled{}

	_, err := src.Recognize(context.Background(), time.Second, true)
	assert.ErrorIs(t, err, ErrCameraUnavailable)

	_, err = src.DecodeQR(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrCameraUnavailable)
}
