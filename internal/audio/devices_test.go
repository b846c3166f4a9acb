package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devicesFixture() []Device {
	return []Device{
		{ID: "alsa_input.usb-headset", Description: "USB Headset", Available: true, Default: true},
		{ID: "alsa_input.webcam-mic", Description: "Webcam Microphone", Available: true},
		{ID: "alsa_input.broken-mic", Description: "Broken Microphone", Available: false},
		{ID: "alsa_input.muted-mic", Description: "Muted Microphone", Available: true, Muted: true},
	}
}

func TestPickDeviceDefault(t *testing.T) {
	sel, err := pickDevice(devicesFixture(), "default", "")
	require.NoError(t, err)
	assert.Equal(t, "alsa_input.usb-headset", sel.Device.ID)
	assert.False(t, sel.Fallback)
	assert.Empty(t, sel.Warning)
}

func TestPickDeviceByTerm(t *testing.T) {
	sel, err := pickDevice(devicesFixture(), "webcam", "")
	require.NoError(t, err)
	assert.Equal(t, "alsa_input.webcam-mic", sel.Device.ID)
}

func TestPickDeviceUnavailablePrimaryFallsBack(t *testing.T) {
	sel, err := pickDevice(devicesFixture(), "broken", "webcam")
	require.NoError(t, err)
	assert.Equal(t, "alsa_input.webcam-mic", sel.Device.ID)
	assert.True(t, sel.Fallback)
	assert.Contains(t, sel.Warning, "unavailable")
}

func TestPickDeviceMutedPrimaryFallsBackToDefault(t *testing.T) {
	sel, err := pickDevice(devicesFixture(), "muted", "")
	require.NoError(t, err)
	assert.Equal(t, "alsa_input.usb-headset", sel.Device.ID)
	assert.Contains(t, sel.Warning, "muted")
}

func TestPickDeviceNoMatch(t *testing.T) {
	_, err := pickDevice(devicesFixture(), "nonexistent", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceAccess)
}

func TestPickDeviceEmptyList(t *testing.T) {
	_, err := pickDevice(nil, "default", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceAccess)
}

func TestRecorderSlicing(t *testing.T) {
	r := NewRecorder("default", "", nil)
	r.recording = true

	// 2.5 slices worth of PCM delivered in uneven fragments.
	total := sliceBytes*2 + sliceBytes/2
	fed := 0
	for fed < total {
		n := 700
		if fed+n > total {
			n = total - fed
		}
		wrote, err := r.onPCM(make([]byte, n))
		require.NoError(t, err)
		require.Equal(t, n, wrote)
		fed += n
	}

	r.mu.Lock()
	slices := len(r.slices)
	pending := len(r.pending)
	r.mu.Unlock()

	assert.Equal(t, 2, slices, "full 100ms slices")
	assert.Equal(t, sliceBytes/2, pending, "residual partial slice")
}

func TestRecorderStopWithoutStart(t *testing.T) {
	r := NewRecorder("default", "", nil)
	_, err := r.Stop()
	require.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorderStopFinalizesPayload(t *testing.T) {
	r := NewRecorder("default", "", nil)
	r.recording = true
	_, err := r.onPCM(make([]byte, sliceBytes+100))
	require.NoError(t, err)

	payload, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", payload.MIMEType)
	assert.Len(t, payload.Data, 44+sliceBytes+100)

	// Session is finished: a second stop must fail, cleanup must be safe.
	_, err = r.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)
	r.Cleanup()
	r.Cleanup()
}

func TestRecorderCleanupDiscardsAudio(t *testing.T) {
	r := NewRecorder("default", "", nil)
	r.recording = true
	_, err := r.onPCM(make([]byte, sliceBytes))
	require.NoError(t, err)

	r.Cleanup()

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.False(t, r.recording)
	assert.Nil(t, r.slices)
	assert.Nil(t, r.pending)
}
