package frontdesk

import (
	"encoding/binary"
	"math"
)

// floatToPCM16LE converts floating-point samples to 16-bit signed
// little-endian PCM with saturating conversion: samples are clamped to
// [-1, 1] and scaled by 0x8000 for negative values, 0x7FFF otherwise.
func floatToPCM16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s < -1 {
			s = -1
		} else if s > 1 {
			s = 1
		}
		var v int16
		if s < 0 {
			v = int16(s * 0x8000)
		} else {
			v = int16(s * 0x7FFF)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// pcm16LEToFloat converts PCM16 little-endian bytes back to normalized
// floating-point samples. A trailing odd byte is ignored.
func pcm16LEToFloat(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		if v < 0 {
			out[i] = float32(v) / 0x8000
		} else {
			out[i] = float32(v) / 0x7FFF
		}
	}
	return out
}

// meanAmplitude is the average absolute sample value of one block,
// used for the capture level meter.
func meanAmplitude(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float32
	for _, s := range samples {
		sum += float32(math.Abs(float64(s)))
	}
	return sum / float32(len(samples))
}

// frameDuration returns the playback duration in seconds of a PCM16
// mono frame at the given sample rate.
func frameDuration(frame []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(frame)/2) / float64(sampleRate)
}
