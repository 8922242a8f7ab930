package audio_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/openmediator/commonground/pkg/audio"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	wav := audio.EncodeWAV(pcm, 16000, 1)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("length = %d, want %d", len(wav), 44+len(pcm))
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(wav[4:8]); got != uint32(36+len(pcm)) {
		t.Errorf("riff size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Errorf("byte rate = %d, want 32000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:36]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Error("payload does not match input PCM")
	}
}

func TestSliceSeconds(t *testing.T) {
	// 1 second of 16 kHz mono 16-bit audio = 32000 bytes.
	pcm := make([]byte, 32000)

	cases := []struct {
		name       string
		start, end float64
		wantLen    int
	}{
		{"first half", 0, 0.5, 16000},
		{"second half", 0.5, 1, 16000},
		{"clamped end", 0.5, 2, 16000},
		{"beyond buffer", 2, 3, 0},
		{"inverted", 0.8, 0.2, 0},
		{"negative start clamped", -1, 0.25, 8000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := audio.SliceSeconds(pcm, 16000, tc.start, tc.end)
			if len(got) != tc.wantLen {
				t.Errorf("len = %d, want %d", len(got), tc.wantLen)
			}
			if len(got)%2 != 0 {
				t.Error("slice must be aligned to whole samples")
			}
		})
	}
}

func TestDurationSeconds(t *testing.T) {
	pcm := make([]byte, 32000)
	if got := audio.DurationSeconds(pcm, 16000); got != 1.0 {
		t.Errorf("duration = %v, want 1.0", got)
	}
	if got := audio.DurationSeconds(pcm, 0); got != 0 {
		t.Errorf("duration with invalid rate = %v, want 0", got)
	}
}
