package frontdesk

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// frameScheduler tracks the gapless scheduling invariant: each frame
// starts at max(clock, nextStart) and nextStart advances by the frame's
// duration. The clock is injected so the arithmetic is testable without
// a device.
type frameScheduler struct {
	now       func() float64 // seconds
	nextStart float64
}

func (s *frameScheduler) schedule(duration float64) float64 {
	start := s.now()
	if s.nextStart > start {
		start = s.nextStart
	}
	s.nextStart = start + duration
	return start
}

func (s *frameScheduler) reset() {
	s.nextStart = 0
}

// PlaybackSink plays inbound PCM16 frames gaplessly and strictly in
// order. Frames are converted to float samples and appended to a FIFO
// that the PortAudio output callback drains; the FIFO realizes the
// scheduler's timeline, padding silence only when the queue runs dry.
type PlaybackSink struct {
	config       *AudioConfig
	stream       *portaudio.Stream
	sched        frameScheduler
	queue        []float32
	started      bool
	clockSamples int64 // samples consumed by the output callback, silence included
	log          *Logger
	mu           sync.Mutex
}

func NewPlaybackSink(config *AudioConfig) *PlaybackSink {
	if config == nil {
		config = NewAudioConfig()
	}
	ps := &PlaybackSink{
		config: config,
		log:    GetGlobalLogger().WithComponent("playback"),
	}
	ps.sched.now = ps.clockSeconds
	return ps
}

func (ps *PlaybackSink) clockSeconds() float64 {
	return float64(ps.clockSamples) / float64(ps.config.PlaybackSampleRate)
}

// Resume opens and starts the output stream. It must complete before the
// first Play for guaranteed gapless output; Play on a stopped sink still
// auto-resumes but the first frame may start late.
func (ps *PlaybackSink) Resume() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.resumeLocked()
}

func (ps *PlaybackSink) resumeLocked() error {
	if ps.started {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return classifyDeviceError(err)
	}

	stream, err := portaudio.OpenDefaultStream(
		0, ps.config.Channels,
		float64(ps.config.PlaybackSampleRate),
		portaudio.FramesPerBufferUnspecified,
		ps.fillOutput,
	)
	if err != nil {
		_ = portaudio.Terminate()
		return classifyDeviceError(err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		_ = portaudio.Terminate()
		return classifyDeviceError(err)
	}

	ps.stream = stream
	ps.started = true
	ps.log.Infof("Playback started at %d Hz", ps.config.PlaybackSampleRate)
	return nil
}

// fillOutput runs on the PortAudio output context.
func (ps *PlaybackSink) fillOutput(out []float32) {
	ps.mu.Lock()
	n := copy(out, ps.queue)
	ps.queue = ps.queue[n:]
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	ps.clockSamples += int64(len(out))
	ps.mu.Unlock()
}

// Play schedules one PCM16 frame for sequential playback.
func (ps *PlaybackSink) Play(frame []byte) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.started {
		if err := ps.resumeLocked(); err != nil {
			return err
		}
	}

	start := ps.sched.schedule(frameDuration(frame, ps.config.PlaybackSampleRate))
	ps.queue = append(ps.queue, pcm16LEToFloat(frame)...)

	ps.log.Debugf("Scheduled %d bytes at t=%.3fs", len(frame), start)
	return nil
}

// Stop tears the output stream down and resets the schedule so the sink
// can be restarted cleanly. Idempotent.
func (ps *PlaybackSink) Stop() {
	ps.mu.Lock()
	if !ps.started {
		ps.mu.Unlock()
		return
	}
	ps.started = false
	ps.queue = nil
	ps.clockSamples = 0
	ps.sched.reset()
	stream := ps.stream
	ps.stream = nil
	ps.mu.Unlock()

	if stream != nil {
		if err := stream.Stop(); err != nil {
			ps.log.WithError(err).Warn("Playback stream stop failed")
		}
		if err := stream.Close(); err != nil {
			ps.log.WithError(err).Warn("Playback stream close failed")
		}
		_ = portaudio.Terminate()
	}

	ps.log.Info("Playback stopped")
}

// Pending reports how many samples are queued but not yet played.
func (ps *PlaybackSink) Pending() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.queue)
}
