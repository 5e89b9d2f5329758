package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vociferous/vociferous/internal/domainerr"
)

// AudioFileInfo is the result of probing an input file before decode.
type AudioFileInfo struct {
	DurationS   float64
	SampleRate  int
	Channels    int
	Codec       string
	BitrateKbps int
	FormatName  string
	FileSizeMB  float64
}

// Decoder turns arbitrary-format input into canonical PCM (mono, 16 kHz,
// 16-bit LE) by shelling out to ffmpeg. ffprobe/ffmpeg binaries are
// treated as opaque external collaborators.
type Decoder struct {
	FFmpegPath  string
	FFprobePath string
}

// NewDecoder returns a Decoder using the bare binary names "ffmpeg" and
// "ffprobe", which are looked up on PATH when the commands run.
func NewDecoder() *Decoder {
	return &Decoder{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

// DecodeToWav converts inputPath to canonical 16kHz mono s16 PCM at
// outputPath.
func (d *Decoder) DecodeToWav(ctx context.Context, inputPath, outputPath string) (string, error) {
	if _, err := exec.LookPath(d.FFmpegPath); err != nil {
		return "", domainerr.NewDependency("ffmpeg")
	}
	if _, err := os.Stat(inputPath); err != nil {
		return "", domainerr.New(domainerr.KindAudioDecode, fmt.Sprintf("input file not found: %s", inputPath))
	}

	cmd := exec.CommandContext(ctx, d.FFmpegPath,
		"-i", inputPath,
		"-ar", "16000",
		"-ac", "1",
		"-sample_fmt", "s16",
		"-y", outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", domainerr.NewAudioDecode(
			fmt.Sprintf("ffmpeg failed to decode %s", inputPath),
			exitCode,
			stderr.String(),
		)
	}

	return outputPath, nil
}

// ValidateAudioFile probes inputPath via ffprobe and enforces that the
// file exists, is non-empty, has at least one audio stream, and has
// positive duration/sample rate/channels.
func (d *Decoder) ValidateAudioFile(ctx context.Context, path string) (AudioFileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return AudioFileInfo{}, domainerr.New(domainerr.KindAudioDecode, fmt.Sprintf("file does not exist: %s", path))
	}
	if stat.Size() == 0 {
		return AudioFileInfo{}, domainerr.New(domainerr.KindAudioDecode, fmt.Sprintf("file is empty: %s", path))
	}

	if _, err := exec.LookPath(d.FFprobePath); err != nil {
		return AudioFileInfo{}, domainerr.NewDependency("ffprobe")
	}

	cmd := exec.CommandContext(ctx, d.FFprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels,codec_name,bit_rate:format=duration,format_name",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return AudioFileInfo{}, domainerr.New(domainerr.KindAudioDecode, fmt.Sprintf("ffprobe failed on %s: %v", path, err))
	}

	info := AudioFileInfo{FileSizeMB: float64(stat.Size()) / (1024 * 1024)}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "sample_rate":
			info.SampleRate, _ = strconv.Atoi(value)
		case "channels":
			info.Channels, _ = strconv.Atoi(value)
		case "codec_name":
			info.Codec = value
		case "bit_rate":
			if kbps, convErr := strconv.Atoi(value); convErr == nil {
				info.BitrateKbps = kbps / 1000
			}
		case "duration":
			info.DurationS, _ = strconv.ParseFloat(value, 64)
		case "format_name":
			info.FormatName = value
		}
	}

	if info.DurationS <= 0 {
		return AudioFileInfo{}, domainerr.New(domainerr.KindAudioDecode, fmt.Sprintf("%s has no positive duration (no audio stream?)", path))
	}
	if info.SampleRate <= 0 {
		return AudioFileInfo{}, domainerr.New(domainerr.KindAudioDecode, fmt.Sprintf("%s reports no sample rate", path))
	}
	if info.Channels <= 0 {
		return AudioFileInfo{}, domainerr.New(domainerr.KindAudioDecode, fmt.Sprintf("%s reports no channels", path))
	}

	return info, nil
}
