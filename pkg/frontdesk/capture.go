package frontdesk

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// CaptureSource acquires the default microphone and emits fixed-size
// PCM16 little-endian frames through a callback. The PortAudio callback
// does O(frame) conversion work only; everything else happens on the
// caller's side of the frame handler.
type CaptureSource struct {
	config  *AudioConfig
	stream  *portaudio.Stream
	active  bool
	level   float32
	onFrame FrameHandler
	log     *Logger
	mu      sync.Mutex
}

func NewCaptureSource(config *AudioConfig) *CaptureSource {
	if config == nil {
		config = NewAudioConfig()
	}
	return &CaptureSource{
		config: config,
		log:    GetGlobalLogger().WithComponent("capture"),
	}
}

// Start acquires the microphone and begins emitting frames. Acquisition
// failure propagates as PERMISSION_DENIED or DEVICE_UNAVAILABLE; the
// source never retries on its own. Starting an active source is a no-op.
func (cs *CaptureSource) Start(onFrame FrameHandler) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.active {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return classifyDeviceError(err)
	}

	cs.onFrame = onFrame

	stream, err := cs.openStream()
	if err != nil {
		_ = portaudio.Terminate()
		return classifyDeviceError(err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return classifyDeviceError(err)
	}

	cs.stream = stream
	cs.active = true
	cs.log.Infof("Capture started at %d Hz, %d samples/frame", cs.config.CaptureSampleRate, cs.config.FrameSize)
	return nil
}

// openStream opens the configured input device, or the host default when
// no device id is set.
func (cs *CaptureSource) openStream() (*portaudio.Stream, error) {
	if cs.config.DeviceID == nil {
		return portaudio.OpenDefaultStream(
			cs.config.Channels, 0,
			float64(cs.config.CaptureSampleRate),
			cs.config.FrameSize,
			cs.processBlock,
		)
	}

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	info, err := selectInputDevice(infos, *cs.config.DeviceID, cs.config.Channels)
	if err != nil {
		return nil, err
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = cs.config.Channels
	params.SampleRate = float64(cs.config.CaptureSampleRate)
	params.FramesPerBuffer = cs.config.FrameSize
	return portaudio.OpenStream(params, cs.processBlock)
}

// selectInputDevice resolves a device id against the host device list and
// checks it can supply the requested channel count.
func selectInputDevice(infos []*portaudio.DeviceInfo, id, channels int) (*portaudio.DeviceInfo, error) {
	if id < 0 || id >= len(infos) {
		return nil, fmt.Errorf("no audio device with id %d", id)
	}
	info := infos[id]
	if info.MaxInputChannels < channels {
		return nil, fmt.Errorf("device %q has no input channels", info.Name)
	}
	return info, nil
}

// processBlock runs on the PortAudio input context.
func (cs *CaptureSource) processBlock(in []float32) {
	cs.mu.Lock()
	handler := cs.onFrame
	active := cs.active
	cs.level = meanAmplitude(in)
	cs.mu.Unlock()

	if !active || handler == nil {
		return
	}
	handler(floatToPCM16LE(in))
}

// Stop releases the device. Idempotent: stopping a stopped source is a
// no-op, never an error.
func (cs *CaptureSource) Stop() {
	cs.mu.Lock()
	if !cs.active {
		cs.mu.Unlock()
		return
	}
	cs.active = false
	cs.onFrame = nil
	stream := cs.stream
	cs.stream = nil
	cs.mu.Unlock()

	// The stream is stopped outside the lock: PortAudio waits for the
	// input callback to drain, and the callback takes the same lock.
	if stream != nil {
		if err := stream.Stop(); err != nil {
			cs.log.WithError(err).Warn("Capture stream stop failed")
		}
		if err := stream.Close(); err != nil {
			cs.log.WithError(err).Warn("Capture stream close failed")
		}
		_ = portaudio.Terminate()
	}

	cs.log.Info("Capture stopped")
}

func (cs *CaptureSource) IsActive() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.active
}

// Level reports the mean amplitude of the most recent input block.
func (cs *CaptureSource) Level() float32 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.level
}

// classifyDeviceError maps a PortAudio failure onto the capture error
// taxonomy. Host APIs report refused access in free text, so this is a
// substring check.
func classifyDeviceError(err error) *SessionError {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") {
		return NewPermissionError("Microphone access denied").AddDetail("cause", err.Error())
	}
	return NewDeviceError("Audio device unavailable").AddDetail("cause", err.Error())
}
