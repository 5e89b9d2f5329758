package audio

import (
	"context"
	"fmt"
	"time"
)

// RecordDuration captures fixed-duration 16kHz mono s16 PCM from the given
// device and returns the raw bytes, used by the Microphone AudioSource
// variant. It adapts Capture/StartCapture, originally a continuous
// stream, to a bounded single-shot recording.
func RecordDuration(ctx context.Context, device Device, duration time.Duration) ([]byte, error) {
	captureCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	capture, err := StartCapture(captureCtx, device)
	if err != nil {
		return nil, fmt.Errorf("start microphone capture: %w", err)
	}

	<-captureCtx.Done()
	_ = capture.Stop()

	pcm := capture.RawPCM()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio captured from device %q", device.ID)
	}
	return pcm, nil
}
