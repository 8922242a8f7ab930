package audio

import "encoding/binary"

// BitsPerSample is fixed at 16 for the signed little-endian PCM audio used
// throughout the capture and transcription pipeline.
const BitsPerSample = 16

// EncodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container. The returned byte slice is suitable for writing to a
// temporary artifact file or including in a multipart form upload. No
// external dependencies are required.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	bps := BitsPerSample
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                 // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))   // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate)) // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))   // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign)) // block align
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bps))        // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// SliceSeconds extracts the [start, end) time range from a mono 16-bit PCM
// buffer at sampleRate Hz. Bounds are clamped to the buffer; an inverted or
// out-of-range window yields an empty slice. The returned slice aliases pcm.
func SliceSeconds(pcm []byte, sampleRate int, start, end float64) []byte {
	if sampleRate <= 0 || start < 0 {
		start = 0
	}
	bytesPerSec := sampleRate * (BitsPerSample / 8)

	lo := int(start * float64(bytesPerSec))
	hi := int(end * float64(bytesPerSec))

	// Align to whole samples.
	lo -= lo % 2
	hi -= hi % 2

	if lo < 0 {
		lo = 0
	}
	if hi > len(pcm) {
		hi = len(pcm)
	}
	if lo >= hi {
		return nil
	}
	return pcm[lo:hi]
}

// DurationSeconds returns the play time of a mono 16-bit PCM buffer at
// sampleRate Hz. Returns 0 for invalid inputs.
func DurationSeconds(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	bytesPerSec := sampleRate * (BitsPerSample / 8)
	return float64(len(pcm)) / float64(bytesPerSec)
}
