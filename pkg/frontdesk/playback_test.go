package frontdesk

import (
	"math"
	"testing"
)

func TestSchedulerGaplessWhenFramesArriveEarly(t *testing.T) {
	clock := 0.0
	sched := frameScheduler{now: func() float64 { return clock }}

	// Frames arrive faster than real time: each one starts exactly where
	// the previous one ends, regardless of arrival jitter.
	starts := []float64{
		sched.schedule(0.256),
		sched.schedule(0.256),
		sched.schedule(0.100),
	}

	want := []float64{0, 0.256, 0.512}
	for i := range want {
		if math.Abs(starts[i]-want[i]) > 1e-9 {
			t.Fatalf("frame %d start = %v, want %v", i, starts[i], want[i])
		}
	}
}

func TestSchedulerResumesAtClockAfterGap(t *testing.T) {
	clock := 0.0
	sched := frameScheduler{now: func() float64 { return clock }}

	sched.schedule(0.1)

	// The stream drained; the next frame arrives late and must start at
	// the clock, not in the past.
	clock = 1.0
	start := sched.schedule(0.1)
	if start != 1.0 {
		t.Fatalf("late frame start = %v, want 1.0", start)
	}
	// And the one after it chains off the late frame.
	if next := sched.schedule(0.1); math.Abs(next-1.1) > 1e-9 {
		t.Fatalf("chained start = %v, want 1.1", next)
	}
}

func TestSchedulerReset(t *testing.T) {
	clock := 0.0
	sched := frameScheduler{now: func() float64 { return clock }}

	sched.schedule(5.0)
	sched.reset()

	if start := sched.schedule(0.1); start != 0 {
		t.Fatalf("start after reset = %v, want 0", start)
	}
}

func TestPlaybackQueuePreservesOrder(t *testing.T) {
	ps := NewPlaybackSink(NewAudioConfig())
	ps.started = true // bypass device open; exercise queue arithmetic only

	ps.Play(floatToPCM16LE([]float32{0.25, 0.5}))
	ps.Play(floatToPCM16LE([]float32{-0.5}))

	if ps.Pending() != 3 {
		t.Fatalf("pending = %d, want 3", ps.Pending())
	}

	out := make([]float32, 2)
	ps.fillOutput(out)
	if math.Abs(float64(out[0])-0.25) > 1e-3 || math.Abs(float64(out[1])-0.5) > 1e-3 {
		t.Fatalf("first block = %v", out)
	}

	// Second block drains the remaining sample and pads silence.
	ps.fillOutput(out)
	if math.Abs(float64(out[0])+0.5) > 1e-3 {
		t.Fatalf("second block first sample = %v, want -0.5", out[0])
	}
	if out[1] != 0 {
		t.Fatalf("underrun must pad zeros, got %v", out[1])
	}
	if ps.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", ps.Pending())
	}
}

func TestPlaybackClockAdvancesThroughSilence(t *testing.T) {
	ps := NewPlaybackSink(NewAudioConfig())
	ps.started = true

	out := make([]float32, ps.config.PlaybackSampleRate) // one second of underrun
	ps.fillOutput(out)

	if got := ps.clockSeconds(); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("clock = %v, want 1.0", got)
	}

	// A frame arriving after the dry spell is scheduled at the clock.
	ps.Play(floatToPCM16LE(make([]float32, 240)))
	if math.Abs(ps.sched.nextStart-1.01) > 1e-9 {
		t.Fatalf("nextStart = %v, want 1.01", ps.sched.nextStart)
	}
}
