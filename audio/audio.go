// Package audio holds PCM clips read from and written to WAV files.
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/themusiclab/infant-speech-song/fileutils"
)

var (
	ErrInvalidWAV         = errors.New("audio: not a valid PCM wav file")
	ErrSampleRateMismatch = errors.New("audio: sample rate mismatch")
	ErrFormatMismatch     = errors.New("audio: channel count or bit depth mismatch")
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Clip is an interleaved integer PCM buffer. A frame holds one sample per channel.
type Clip struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Data       []int
}

func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Data) / c.Channels
}

// Duration in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// SampleIndex converts a time in seconds to a frame index, truncating toward
// zero. Rounding would shift exported boundaries by up to one frame.
func SampleIndex(t float64, sampleRate int) int {
	return int(math.Floor(t * float64(sampleRate)))
}

// Cut returns frames [floor(start*sr), floor(end*sr)) as a new clip.
// Bounds past either end of the buffer are clamped.
func (c *Clip) Cut(start, end float64) *Clip {
	n := c.Frames()
	s := clamp(SampleIndex(start, c.SampleRate), 0, n)
	e := clamp(SampleIndex(end, c.SampleRate), 0, n)
	if e < s {
		e = s
	}
	data := make([]int, (e-s)*c.Channels)
	copy(data, c.Data[s*c.Channels:e*c.Channels])
	return &Clip{SampleRate: c.SampleRate, Channels: c.Channels, BitDepth: c.BitDepth, Data: data}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Concat joins clips along the time axis. All clips must share sample rate,
// channel count and bit depth; nothing is resampled.
func Concat(clips ...*Clip) (*Clip, error) {
	if len(clips) == 0 {
		return nil, errors.New("audio: nothing to concatenate")
	}
	ref := clips[0]
	total := 0
	for i, c := range clips {
		if c.SampleRate != ref.SampleRate {
			return nil, fmt.Errorf("%w: clip %d is %d Hz, want %d Hz", ErrSampleRateMismatch, i, c.SampleRate, ref.SampleRate)
		}
		if c.Channels != ref.Channels || c.BitDepth != ref.BitDepth {
			return nil, fmt.Errorf("%w: clip %d is %dch/%dbit, want %dch/%dbit", ErrFormatMismatch, i,
				c.Channels, c.BitDepth, ref.Channels, ref.BitDepth)
		}
		total += len(c.Data)
	}
	data := make([]int, 0, total)
	for _, c := range clips {
		data = append(data, c.Data...)
	}
	return &Clip{SampleRate: ref.SampleRate, Channels: ref.Channels, BitDepth: ref.BitDepth, Data: data}, nil
}

// WithBitDepth rescales samples to bits (16, 24 or 32). 0 or the current depth
// returns c unchanged.
func (c *Clip) WithBitDepth(bits int) (*Clip, error) {
	if bits == 0 || bits == c.BitDepth {
		return c, nil
	}
	switch bits {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("audio: unsupported bit depth %d", bits)
	}
	if c.BitDepth < 16 {
		return nil, fmt.Errorf("audio: cannot convert from %d bit", c.BitDepth)
	}
	shift := bits - c.BitDepth
	data := make([]int, len(c.Data))
	for i, v := range c.Data {
		if shift > 0 {
			data[i] = v << uint(shift)
		} else {
			data[i] = v >> uint(-shift)
		}
	}
	return &Clip{SampleRate: c.SampleRate, Channels: c.Channels, BitDepth: bits, Data: data}, nil
}

// Read decodes a whole PCM wav file.
func Read(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: %s: format tag %d", ErrInvalidWAV, path, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s: missing format", ErrInvalidWAV, path)
	}
	ch := buf.Format.NumChannels
	data := buf.Data
	if rem := len(data) % ch; rem != 0 {
		data = data[:len(data)-rem]
	}
	return &Clip{
		SampleRate: buf.Format.SampleRate,
		Channels:   ch,
		BitDepth:   int(dec.BitDepth),
		Data:       data,
	}, nil
}

// Write encodes c as PCM wav at path. The file is written next to its
// destination and renamed into place, so a failed write leaves no partial file.
func Write(path string, c *Clip) error {
	if c == nil || c.Channels <= 0 || c.SampleRate <= 0 || c.BitDepth <= 0 {
		return errors.New("audio: write: incomplete clip format")
	}
	return fileutils.WriteAtomicSameDir(path, func(f *os.File) error {
		enc := wav.NewEncoder(f, c.SampleRate, c.BitDepth, c.Channels, wavFormatPCM)
		buf := &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
			Data:           c.Data,
			SourceBitDepth: c.BitDepth,
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finalize %s: %w", path, err)
		}
		return nil
	})
}
