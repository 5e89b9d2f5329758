package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// WavInfo is the subset of a canonical PCM WAV header the pipeline needs to
// stitch chunk-relative timestamps back onto the original audio timeline.
type WavInfo struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
	DataBytes     uint32
	DurationS     float64
}

// ReadWavInfo parses just enough of a RIFF/WAVE header to recover sample
// rate, channel count, and duration, without loading sample data into
// memory. Used by the pipeline orchestrator to compute per-chunk offsets
// (see internal/pipeline/offsets.go) instead of re-invoking ffprobe per
// chunk.
func ReadWavInfo(path string) (WavInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WavInfo{}, fmt.Errorf("open wav %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := f.Read(header); err != nil {
		return WavInfo{}, fmt.Errorf("read riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return WavInfo{}, fmt.Errorf("%s is not a RIFF/WAVE file", path)
	}

	var info WavInfo
	chunkHeader := make([]byte, 8)
	for {
		n, err := f.Read(chunkHeader)
		if n < 8 || err != nil {
			break
		}
		id := string(chunkHeader[0:4])
		size := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch id {
		case "fmt ":
			fmtBody := make([]byte, size)
			if _, err := f.Read(fmtBody); err != nil {
				return WavInfo{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			info.Channels = binary.LittleEndian.Uint16(fmtBody[2:4])
			info.SampleRate = binary.LittleEndian.Uint32(fmtBody[4:8])
			info.BitsPerSample = binary.LittleEndian.Uint16(fmtBody[14:16])
		case "data":
			info.DataBytes = size
			if _, err := f.Seek(int64(size), 1); err != nil {
				break
			}
		default:
			if _, err := f.Seek(int64(size), 1); err != nil {
				break
			}
		}
		if size%2 == 1 {
			_, _ = f.Seek(1, 1)
		}
		if info.DataBytes != 0 && info.SampleRate != 0 {
			break
		}
	}

	if info.SampleRate == 0 || info.Channels == 0 || info.BitsPerSample == 0 {
		return WavInfo{}, fmt.Errorf("%s: missing fmt chunk", path)
	}

	bytesPerSample := info.BitsPerSample / 8
	if bytesPerSample == 0 {
		return WavInfo{}, fmt.Errorf("%s: unsupported bits per sample %d", path, info.BitsPerSample)
	}
	frameBytes := uint32(info.Channels) * uint32(bytesPerSample)
	if frameBytes == 0 {
		return WavInfo{}, fmt.Errorf("%s: invalid frame size", path)
	}
	frames := info.DataBytes / frameBytes
	info.DurationS = float64(frames) / float64(info.SampleRate)

	return info, nil
}

// WriteMonoWav writes raw 16-bit mono PCM samples as a canonical WAV file,
// used by the in-memory and microphone AudioSource variants.
func WriteMonoWav(path string, sampleRate uint32, pcm []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav %s: %w", path, err)
	}
	defer f.Close()

	dataSize := uint32(len(pcm))
	byteRate := sampleRate * 2
	blockAlign := uint16(2)

	write := func(b []byte) error {
		_, err := f.Write(b)
		return err
	}

	var u32 [4]byte
	var u16 [2]byte

	if err := write([]byte("RIFF")); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], 36+dataSize)
	if err := write(u32[:]); err != nil {
		return err
	}
	if err := write([]byte("WAVEfmt ")); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], 16)
	if err := write(u32[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(u16[:], 1) // PCM
	if err := write(u16[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(u16[:], 1) // mono
	if err := write(u16[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], sampleRate)
	if err := write(u32[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], byteRate)
	if err := write(u32[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(u16[:], blockAlign)
	if err := write(u16[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(u16[:], 16) // bits per sample
	if err := write(u16[:]); err != nil {
		return err
	}
	if err := write([]byte("data")); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(u32[:], dataSize)
	if err := write(u32[:]); err != nil {
		return err
	}
	return write(pcm)
}
