package mqtt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-classroom/internal/camera"
	"smart-classroom/internal/models"
)

const (
	testRecognizeRespTopic = "camera/A-101/recognize/response"
	testQRRespTopic        = "camera/A-101/qr/response"
)

func newTestBridge(t *testing.T, broker *fakeBroker) *CameraBridge {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		camera.DetectorFile: "<xml/>",
		camera.ModelFile:    "model",
		camera.RegistryFile: "1 Zhang\n2 Li\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	sub := NewSubscriber(broker, SubscriberConfig{
		Room:                   "A-101",
		RecognizeResponseTopic: "camera/{room}/recognize/response",
		QRResponseTopic:        "camera/{room}/qr/response",
	}, discardLogger())
	require.NoError(t, sub.SubscribeAll())

	return NewCameraBridge(broker, sub, CameraBridgeConfig{
		Room:                  "A-101",
		RecognizeRequestTopic: "camera/{room}/recognize/request",
		QRRequestTopic:        "camera/{room}/qr/request",
		Assets:                camera.AssetsIn(dir),
		ConfidenceThreshold:   camera.DefaultConfidenceThreshold,
		ResponseGrace:         50 * time.Millisecond,
	}, discardLogger())
}

// answerRecognize replies to every recognize request, first with a stale
// response and then with the real one
func answerRecognize(t *testing.T, broker *fakeBroker, resp models.RecognizeResponse) {
	broker.onPublish = func(topic string, payload []byte) {
		var req models.RecognizeRequest
		require.NoError(t, json.Unmarshal(payload, &req))

		stale, _ := json.Marshal(models.RecognizeResponse{RequestID: "old"})
		broker.deliver(testRecognizeRespTopic, stale)

		resp.RequestID = req.RequestID
		body, _ := json.Marshal(resp)
		broker.deliver(testRecognizeRespTopic, body)
	}
}

func TestCameraBridge_Recognize(t *testing.T) {
	broker := newFakeBroker()
	bridge := newTestBridge(t, broker)
	answerRecognize(t, broker, models.RecognizeResponse{Detections: []models.Detection{
		{Code: 1, Confidence: 45},
		{Code: 2, Confidence: 70},
		{Code: 1, Confidence: 150},
	}})

	result, err := bridge.Recognize(context.Background(), time.Second, true)
	require.NoError(t, err)
	assert.Equal(t, models.UnknownIdentity, result.Identity)
	assert.Equal(t, []string{"Li", "Zhang"}, result.Recognized)

	msgs := broker.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "camera/A-101/recognize/request", msgs[0].topic)

	var req models.RecognizeRequest
	require.NoError(t, json.Unmarshal(msgs[0].payload, &req))
	assert.True(t, req.Silent)
	assert.Equal(t, 1.0, req.DurationSeconds)
	assert.NotEmpty(t, req.RequestID)
}

func TestCameraBridge_RecognizeWorkerErrors(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{models.WorkerErrorCameraUnavailable, camera.ErrCameraUnavailable},
		{models.WorkerErrorMissingAsset, camera.ErrMissingAsset},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			broker := newFakeBroker()
			bridge := newTestBridge(t, broker)
			answerRecognize(t, broker, models.RecognizeResponse{Error: tt.code})

			_, err := bridge.Recognize(context.Background(), time.Second, false)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCameraBridge_RecognizeMissingAsset(t *testing.T) {
	broker := newFakeBroker()
	bridge := newTestBridge(t, broker)
	require.NoError(t, os.Remove(bridge.assets.Model))

	_, err := bridge.Recognize(context.Background(), time.Second, true)
	assert.ErrorIs(t, err, camera.ErrMissingAsset)
	assert.Empty(t, broker.messages())
}

func TestCameraBridge_Disconnected(t *testing.T) {
	broker := newFakeBroker()
	broker.connected = false
	bridge := newTestBridge(t, broker)

	_, err := bridge.Recognize(context.Background(), time.Second, true)
	assert.ErrorIs(t, err, camera.ErrCameraUnavailable)

	_, err = bridge.DecodeQR(context.Background(), time.Second)
	assert.ErrorIs(t, err, camera.ErrCameraUnavailable)
}

func TestCameraBridge_NoResponse(t *testing.T) {
	broker := newFakeBroker()
	bridge := newTestBridge(t, broker)

	_, err := bridge.Recognize(context.Background(), 10*time.Millisecond, true)
	assert.ErrorIs(t, err, camera.ErrCameraUnavailable)
}

func TestCameraBridge_ContextCancelled(t *testing.T) {
	broker := newFakeBroker()
	bridge := newTestBridge(t, broker)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bridge.DecodeQR(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCameraBridge_Busy(t *testing.T) {
	broker := newFakeBroker()
	bridge := newTestBridge(t, broker)

	release, err := bridge.device.Acquire()
	require.NoError(t, err)
	defer release()

	_, err = bridge.DecodeQR(context.Background(), time.Second)
	assert.ErrorIs(t, err, camera.ErrCameraBusy)
	assert.ErrorIs(t, err, camera.ErrCameraUnavailable)
}

func TestCameraBridge_DecodeQR(t *testing.T) {
	broker := newFakeBroker()
	bridge := newTestBridge(t, broker)
	broker.onPublish = func(topic string, payload []byte) {
		var req models.QRRequest
		require.NoError(t, json.Unmarshal(payload, &req))
		assert.Equal(t, 8.0, req.TimeoutSeconds)

		body, _ := json.Marshal(models.QRResponse{RequestID: req.RequestID, Data: []byte("  Zhang\xff\n")})
		broker.deliver(testQRRespTopic, body)
	}

	data, err := bridge.DecodeQR(context.Background(), 8*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Zhang", data)
}

func TestSubscriber_DropsMalformedPayload(t *testing.T) {
	broker := newFakeBroker()
	sub := NewSubscriber(broker, SubscriberConfig{
		Room:                   "A-101",
		RecognizeResponseTopic: "camera/{room}/recognize/response",
		QRResponseTopic:        "camera/{room}/qr/response",
	}, discardLogger())
	require.NoError(t, sub.SubscribeAll())

	broker.deliver(testRecognizeRespTopic, []byte("not json"))
	assert.Empty(t, sub.RecognizeRespChan)
}
