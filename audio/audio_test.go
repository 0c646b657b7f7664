package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func ramp(frames, channels, sr int) *Clip {
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = i % 30000
	}
	return &Clip{SampleRate: sr, Channels: channels, BitDepth: 16, Data: data}
}

func TestSampleIndex_Truncates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		t    float64
		sr   int
		want int
	}{
		{0.30001, 16000, 4800},
		{0.5, 16000, 8000},
		{0.99999, 44100, 44099},
		{0, 44100, 0},
	}
	for _, tc := range cases {
		if got := SampleIndex(tc.t, tc.sr); got != tc.want {
			t.Fatalf("SampleIndex(%v, %d)=%d, want %d", tc.t, tc.sr, got, tc.want)
		}
	}
}

func TestCut(t *testing.T) {
	t.Parallel()

	c := ramp(16000, 2, 16000)
	sub := c.Cut(0.30001, 0.5)
	if sub.Frames() != 8000-4800 {
		t.Fatalf("frames=%d, want %d", sub.Frames(), 8000-4800)
	}
	if sub.Data[0] != c.Data[4800*2] || sub.Data[1] != c.Data[4800*2+1] {
		t.Fatalf("cut starts at wrong frame")
	}
	if sub.Channels != 2 || sub.SampleRate != 16000 || sub.BitDepth != 16 {
		t.Fatalf("format not carried: %+v", sub)
	}

	// past the end is clamped like a slice
	tail := c.Cut(0.9, 3)
	if tail.Frames() != 16000-14400 {
		t.Fatalf("tail frames=%d, want %d", tail.Frames(), 16000-14400)
	}
	if empty := c.Cut(2, 3); empty.Frames() != 0 {
		t.Fatalf("frames=%d, want 0", empty.Frames())
	}
}

func TestConcat(t *testing.T) {
	t.Parallel()

	a, b := ramp(10, 2, 44100), ramp(7, 2, 44100)
	out, err := Concat(a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if out.Frames() != 17 {
		t.Fatalf("frames=%d, want 17", out.Frames())
	}
	if out.Data[20] != b.Data[0] {
		t.Fatalf("second clip not appended in order")
	}

	if _, err := Concat(a, ramp(3, 2, 48000)); !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("err=%v, want ErrSampleRateMismatch", err)
	}
	if _, err := Concat(a, ramp(3, 1, 44100)); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("err=%v, want ErrFormatMismatch", err)
	}
	if _, err := Concat(); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestWithBitDepth(t *testing.T) {
	t.Parallel()

	c := &Clip{SampleRate: 8000, Channels: 1, BitDepth: 16, Data: []int{1, -2, 32767}}
	up, err := c.WithBitDepth(24)
	if err != nil {
		t.Fatalf("WithBitDepth: %v", err)
	}
	if up.Data[0] != 256 || up.Data[1] != -512 || up.BitDepth != 24 {
		t.Fatalf("up=%+v", up)
	}
	down, err := up.WithBitDepth(16)
	if err != nil {
		t.Fatalf("WithBitDepth: %v", err)
	}
	for i := range c.Data {
		if down.Data[i] != c.Data[i] {
			t.Fatalf("down[%d]=%d, want %d", i, down.Data[i], c.Data[i])
		}
	}
	if same, _ := c.WithBitDepth(0); same != c {
		t.Fatalf("expected unchanged clip for 0")
	}
	if _, err := c.WithBitDepth(12); err == nil {
		t.Fatalf("expected error for 12 bit")
	}
}

func TestReadWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "S1.wav")
	in := ramp(2205, 2, 44100)
	for i := range in.Data {
		if i%2 == 1 {
			in.Data[i] = -in.Data[i]
		}
	}
	if err := Write(path, in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out.SampleRate != 44100 || out.Channels != 2 || out.BitDepth != 16 {
		t.Fatalf("format=%d/%d/%d", out.SampleRate, out.Channels, out.BitDepth)
	}
	if len(out.Data) != len(in.Data) {
		t.Fatalf("len=%d, want %d", len(out.Data), len(in.Data))
	}
	for i := range in.Data {
		if out.Data[i] != in.Data[i] {
			t.Fatalf("sample %d=%d, want %d", i, out.Data[i], in.Data[i])
		}
	}
	if d := out.Duration(); d != 0.05 {
		t.Fatalf("Duration=%v, want 0.05", d)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected only the wav in dir, got %d entries", len(entries))
	}
}

func TestRead_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(bad, []byte("not a riff file at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(bad); !errors.Is(err, ErrInvalidWAV) {
		t.Fatalf("err=%v, want ErrInvalidWAV", err)
	}
	if _, err := Read(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v, want not-exist", err)
	}
}
