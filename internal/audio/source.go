package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Source is one audio input to the pipeline: exactly one of File,
// Microphone, or Memory is populated.
type Source struct {
	File       *FileSource
	Microphone *MicrophoneSource
	Memory     *MemorySource
}

// FileSource resolves to an existing path on disk, untouched.
type FileSource struct {
	Path string
}

// MicrophoneSource captures duration of audio from device before resolving
// to a WAV file under the work directory.
type MicrophoneSource struct {
	Duration   time.Duration
	SampleRate uint32
	Channels   uint16
	Device     Device
}

// MemorySource wraps in-memory PCM that is written to a WAV file under the
// work directory on resolve.
type MemorySource struct {
	PCM        []byte
	SampleRate uint32
	Channels   uint16
	Width      uint16
}

// NewFileSource builds a Source backed by an existing file path.
func NewFileSource(path string) Source {
	return Source{File: &FileSource{Path: path}}
}

// NewMicrophoneSource builds a Source that records from device for duration.
func NewMicrophoneSource(duration time.Duration, device Device) Source {
	return Source{Microphone: &MicrophoneSource{Duration: duration, SampleRate: 16000, Channels: 1, Device: device}}
}

// NewMemorySource builds a Source backed by already-captured PCM samples.
func NewMemorySource(pcm []byte, sampleRate uint32, channels, width uint16) Source {
	return Source{Memory: &MemorySource{PCM: pcm, SampleRate: sampleRate, Channels: channels, Width: width}}
}

// ResolveToPath produces a single existing file on disk for this source: a
// file path is returned as-is; microphone and in-memory sources are
// captured/written to a WAV under workDir.
func (s Source) ResolveToPath(ctx context.Context, workDir string) (string, error) {
	switch {
	case s.File != nil:
		if _, err := os.Stat(s.File.Path); err != nil {
			return "", fmt.Errorf("resolve file source: %w", err)
		}
		return s.File.Path, nil

	case s.Microphone != nil:
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return "", fmt.Errorf("create work dir: %w", err)
		}
		pcm, err := RecordDuration(ctx, s.Microphone.Device, s.Microphone.Duration)
		if err != nil {
			return "", fmt.Errorf("resolve microphone source: %w", err)
		}
		outPath := filepath.Join(workDir, "microphone_capture.wav")
		if err := WriteMonoWav(outPath, s.Microphone.SampleRate, pcm); err != nil {
			return "", fmt.Errorf("write microphone capture: %w", err)
		}
		return outPath, nil

	case s.Memory != nil:
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return "", fmt.Errorf("create work dir: %w", err)
		}
		outPath := filepath.Join(workDir, "memory_capture.wav")
		if err := WriteMonoWav(outPath, s.Memory.SampleRate, s.Memory.PCM); err != nil {
			return "", fmt.Errorf("write in-memory capture: %w", err)
		}
		return outPath, nil

	default:
		return "", fmt.Errorf("audio source has no variant populated")
	}
}
