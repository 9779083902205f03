package wavio

import (
	"bytes"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/wav"
)

func TestWriteMonoThenReadMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tone.wav")
	data := make([]float32, 4410)
	for i := range data {
		data[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/44100))
	}
	if err := WriteMono(path, data, 44100); err != nil {
		t.Fatalf("WriteMono: %v", err)
	}
	got, sr, err := ReadMono(path)
	if err != nil {
		t.Fatalf("ReadMono: %v", err)
	}
	if sr != 44100 {
		t.Fatalf("sample rate = %d, want 44100", sr)
	}
	if len(got) != len(data) {
		t.Fatalf("frames = %d, want %d", len(got), len(data))
	}
	if err := WriteMono(path, data, 0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestReadMonoRejectsGarbage(t *testing.T) {
	if _, _, err := ReadMono(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResampleChangesLength(t *testing.T) {
	in := make([]float64, 48000)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 1000 * float64(i) / 48000)
	}
	same, err := Resample(in, 48000, 48000)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if &same[0] != &in[0] {
		t.Fatalf("equal rates must return the input")
	}
	out, err := Resample(in, 48000, 44100)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if math.Abs(float64(len(out))-44100) > 200 {
		t.Fatalf("resampled length %d, want about 44100", len(out))
	}
}

func TestEncodeMonoIntoBuffer(t *testing.T) {
	data := make([]float32, 1000)
	for i := range data {
		data[i] = float32(0.25 * math.Sin(2*math.Pi*100*float64(i)/8000))
	}
	var buf Buffer
	if err := EncodeMono(&buf, data, 8000); err != nil {
		t.Fatalf("EncodeMono: %v", err)
	}
	b := buf.Bytes()
	if len(b) < 44+2*len(data) {
		t.Fatalf("encoded %d bytes, want at least %d", len(b), 44+2*len(data))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q", b[:12])
	}
	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		t.Fatalf("decoder rejects encoded buffer")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if pcm.Format.SampleRate != 8000 || len(pcm.Data) != len(data) {
		t.Fatalf("decoded %d frames at %d Hz", len(pcm.Data), pcm.Format.SampleRate)
	}
}

func TestBufferSeek(t *testing.T) {
	var b Buffer
	b.Write([]byte("abcdef"))
	if _, err := b.Seek(2, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	b.Write([]byte("XY"))
	if got := string(b.Bytes()); got != "abXYef" {
		t.Fatalf("after overwrite = %q", got)
	}
	if pos, _ := b.Seek(-1, io.SeekEnd); pos != 5 {
		t.Fatalf("SeekEnd = %d, want 5", pos)
	}
	if _, err := b.Seek(-10, io.SeekCurrent); err == nil {
		t.Fatalf("expected error for negative position")
	}
}
