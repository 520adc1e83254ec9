package voice

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Recognition backends that take raw PCM expect 16 kHz mono 16-bit
// little-endian (LINEAR16).
const targetSampleRate = 16000

var errNotWAV = errors.New("payload is not a RIFF/WAVE file")

// NormalizePCM decodes a WAV payload and converts it to LINEAR16 at 16 kHz
// mono: multi-channel input is downmixed by averaging, 8-bit samples are
// widened, and the rate is converted by linear interpolation.
func NormalizePCM(data []byte) ([]byte, error) {
	channels, sampleRate, bits, pcm, err := parseWAV(data)
	if err != nil {
		return nil, err
	}

	samples, err := decodeSamples(pcm, channels, bits)
	if err != nil {
		return nil, err
	}

	if sampleRate != targetSampleRate {
		samples = resampleLinear(samples, sampleRate, targetSampleRate)
	}

	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out, nil
}

func parseWAV(data []byte) (channels, sampleRate, bits int, pcm []byte, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, 0, 0, nil, errNotWAV
	}

	var haveFmt bool
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return 0, 0, 0, nil, fmt.Errorf("wav fmt chunk too short: %d bytes", chunkSize)
			}
			audioFormat := int(binary.LittleEndian.Uint16(data[body:]))
			if audioFormat != 1 {
				return 0, 0, 0, nil, fmt.Errorf("unsupported wav encoding %d, want PCM", audioFormat)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	if !haveFmt || pcm == nil {
		return 0, 0, 0, nil, errNotWAV
	}
	if channels < 1 || sampleRate <= 0 {
		return 0, 0, 0, nil, fmt.Errorf("invalid wav format: channels=%d rate=%d", channels, sampleRate)
	}
	return channels, sampleRate, bits, pcm, nil
}

func decodeSamples(pcm []byte, channels, bits int) ([]int16, error) {
	var bytesPerSample int
	switch bits {
	case 8:
		bytesPerSample = 1
	case 16:
		bytesPerSample = 2
	default:
		return nil, fmt.Errorf("unsupported wav sample width %d bits", bits)
	}

	frameSize := bytesPerSample * channels
	frames := len(pcm) / frameSize
	out := make([]int16, frames)

	for i := 0; i < frames; i++ {
		var sum int
		for ch := 0; ch < channels; ch++ {
			off := i*frameSize + ch*bytesPerSample
			var sample int
			if bits == 8 {
				// 8-bit WAV is unsigned.
				sample = (int(pcm[off]) - 128) << 8
			} else {
				sample = int(int16(binary.LittleEndian.Uint16(pcm[off:])))
			}
			sum += sample
		}
		out[i] = int16(sum / channels)
	}
	return out, nil
}

func resampleLinear(in []int16, fromRate, toRate int) []int16 {
	if len(in) == 0 || fromRate == toRate {
		return in
	}
	outLen := int(int64(len(in)) * int64(toRate) / int64(fromRate))
	if outLen == 0 {
		return nil
	}
	out := make([]int16, outLen)
	ratio := float64(fromRate) / float64(toRate)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(in[idx])
		b := float64(in[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}
