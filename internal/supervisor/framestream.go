package supervisor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tvpanel/internal/adb"
)

// Boundary separates frames on the wire. Browsers treat each part as a
// full replacement of the previous image.
const Boundary = "--frame"

// StreamContentType is the response content type for the live stream.
const StreamContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// Capturer grabs one still frame from the device. *adb.Commander
// satisfies this.
type Capturer interface {
	Screencap(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// StreamOptions tunes the capture cadence. Zero values pick the defaults.
type StreamOptions struct {
	// CaptureTimeout bounds each screencap invocation.
	CaptureTimeout time.Duration
	// FrameDelay is the pause after a successfully emitted frame.
	FrameDelay time.Duration
	// RetryDelay is the pause after a failed capture before trying again.
	RetryDelay time.Duration
}

const (
	defaultFrameDelay = 180 * time.Millisecond
	defaultRetryDelay = 400 * time.Millisecond
)

// FrameStream produces a live multipart image stream for one client.
// Captures run one at a time; a failed capture is skipped after a short
// backoff rather than ending the stream, since a TV that blocks screencap
// should stall the picture, not kill the connection. Each client gets its
// own instance; frames are never shared or buffered across clients.
type FrameStream struct {
	cap            Capturer
	log            *zap.Logger
	captureTimeout time.Duration
	frameDelay     time.Duration
	retryDelay     time.Duration
}

func NewFrameStream(cap Capturer, log *zap.Logger, opts StreamOptions) *FrameStream {
	if opts.CaptureTimeout <= 0 {
		opts.CaptureTimeout = adb.StreamCaptureTimeout
	}
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = defaultFrameDelay
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &FrameStream{
		cap:            cap,
		log:            log,
		captureTimeout: opts.CaptureTimeout,
		frameDelay:     opts.FrameDelay,
		retryDelay:     opts.RetryDelay,
	}
}

// Run captures and emits frames until ctx is cancelled (the client went
// away) or the writer fails. The returned error is the context's or the
// writer's; a capture failure is never fatal here.
func (s *FrameStream) Run(ctx context.Context, w io.Writer) error {
	flusher, _ := w.(http.Flusher)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := s.cap.Screencap(ctx, s.captureTimeout)
		if err != nil || len(data) == 0 {
			if err != nil {
				s.log.Debug("frame capture failed", zap.Error(err))
			}
			if !sleep(ctx, s.retryDelay) {
				return ctx.Err()
			}
			continue
		}
		if err := writeFrame(w, data); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		if !sleep(ctx, s.frameDelay) {
			return ctx.Err()
		}
	}
}

func writeFrame(w io.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "%s\r\nContent-Type: image/png\r\nContent-Length: %d\r\n\r\n", Boundary, len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
