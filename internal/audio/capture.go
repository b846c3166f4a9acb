package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	sampleRate = 16000
	channels   = 1

	// sliceBytes is ~100ms of 16kHz mono s16 PCM per buffered fragment.
	sliceBytes = 3200
)

var (
	// ErrDeviceAccess indicates the microphone could not be acquired.
	ErrDeviceAccess = errors.New("microphone unavailable")
	// ErrNotRecording indicates Stop was called outside an active session.
	ErrNotRecording = errors.New("no recording in progress")
)

// Payload is one finalized, immutable audio artifact ready for transcription.
type Payload struct {
	Data     []byte
	MIMEType string
}

// Recorder owns the exclusive microphone hold for one recording session at a
// time. Start acquires the device and buffers ~100ms PCM slices; Stop
// finalizes them into a single WAV payload and releases the device; Cleanup
// releases the device and discards buffered audio without producing a
// payload. Cleanup is idempotent and safe from any state.
type Recorder struct {
	logger   *slog.Logger
	input    string
	fallback string

	mu        sync.Mutex
	recording bool
	client    *pulse.Client
	stream    *pulse.RecordStream
	device    Device
	slices    [][]byte
	pending   []byte
}

// NewRecorder constructs a recorder with device preferences from config.
func NewRecorder(input string, fallback string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{logger: logger, input: input, fallback: fallback}
}

// Start acquires the microphone and begins buffering audio fragments.
// At most one session may be recording per recorder.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("%w: recording already in progress", ErrDeviceAccess)
	}

	selection, err := SelectDevice(ctx, r.input, r.fallback)
	if err != nil {
		return err
	}
	if selection.Warning != "" {
		r.logger.Warn(selection.Warning)
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("mistri"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("%w: connect pulse server: %v", ErrDeviceAccess, err)
	}

	source, err := client.SourceByID(selection.Device.ID)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: resolve source %q: %v", ErrDeviceAccess, selection.Device.ID, err)
	}

	writer := pulse.NewWriter(writerFunc(r.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(sliceBytes),
		pulse.RecordMediaName("mistri voice order"),
	)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: create record stream: %v", ErrDeviceAccess, err)
	}

	r.client = client
	r.stream = stream
	r.device = selection.Device
	r.slices = nil
	r.pending = nil
	r.recording = true
	stream.Start()

	r.logger.Info("recording started", "device", selection.Device.ID)
	return nil
}

// Stop finalizes buffered fragments into one immutable WAV payload and
// releases the device. Valid only while recording.
func (r *Recorder) Stop() (Payload, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Payload{}, ErrNotRecording
	}
	// Flip the flag first so onPCM returns io.EOF once the lock is free,
	// then release the device outside the lock.
	r.recording = false
	stream, client := r.stream, r.client
	r.stream, r.client = nil, nil
	device := r.device
	r.mu.Unlock()

	release(stream, client)

	r.mu.Lock()
	size := len(r.pending)
	for _, slice := range r.slices {
		size += len(slice)
	}
	pcm := make([]byte, 0, size)
	for _, slice := range r.slices {
		pcm = append(pcm, slice...)
	}
	pcm = append(pcm, r.pending...)
	r.slices = nil
	r.pending = nil
	r.mu.Unlock()

	r.logger.Info("recording stopped", "device", device.ID, "pcm_bytes", len(pcm))
	return Payload{Data: EncodeWAV(pcm, sampleRate, channels), MIMEType: "audio/wav"}, nil
}

// Cleanup releases the device and discards buffered audio. Safe from any
// state; callers invoke it on cancellation, error, and shutdown.
func (r *Recorder) Cleanup() {
	r.mu.Lock()
	r.recording = false
	stream, client := r.stream, r.client
	r.stream, r.client = nil, nil
	r.mu.Unlock()

	release(stream, client)

	r.mu.Lock()
	r.slices = nil
	r.pending = nil
	r.mu.Unlock()
}

// Device returns capture metadata for logging and diagnostics.
func (r *Recorder) Device() Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// release stops a record stream and closes its client connection.
func release(stream *pulse.RecordStream, client *pulse.Client) {
	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}
}

// onPCM receives raw Pulse frames and slices them into sliceBytes fragments.
func (r *Recorder) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return 0, io.EOF
	}

	r.pending = append(r.pending, buffer...)
	for len(r.pending) >= sliceBytes {
		slice := make([]byte, sliceBytes)
		copy(slice, r.pending[:sliceBytes])
		r.pending = r.pending[sliceBytes:]
		r.slices = append(r.slices, slice)
	}
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
