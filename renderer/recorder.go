package renderer

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/richinsley/gobulge/logging"
)

// RecordOptions controls offscreen rendering to a video file.
type RecordOptions struct {
	Output     string
	FFmpegPath string
	Codec      string // h264 or hevc
	Width      int
	Height     int
	FPS        int
	Duration   float64
}

// Frame is one bottom-up RGBA frame on its way to the encoder.
type Frame struct {
	Pixels []byte
	PTS    int64
}

const frameQueue = 3

// encoderArgs builds the ffmpeg arguments for a rawvideo RGBA stream on stdin.
func encoderArgs(o RecordOptions, goos string) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", o.Width, o.Height),
		"r":       o.FPS,
	}

	outputArgs = ffmpeg.KwArgs{
		// GL rows are bottom-up.
		"vf":      "vflip",
		"pix_fmt": "yuv420p",
		"b:v":     "25M",
	}
	switch goos {
	case "darwin":
		if o.Codec == "hevc" {
			outputArgs["c:v"] = "hevc_videotoolbox"
		} else {
			outputArgs["c:v"] = "h264_videotoolbox"
		}
	default:
		if o.Codec == "hevc" {
			outputArgs["c:v"] = "libx265"
		} else {
			outputArgs["c:v"] = "libx264"
		}
	}
	if o.Codec == "hevc" && strings.HasSuffix(o.Output, ".mp4") {
		outputArgs["tag:v"] = "hvc1"
	}
	return
}

// runEncoder consumes frames until frameChan closes, then waits for ffmpeg.
func runEncoder(o RecordOptions, log logging.Logger, frameChan <-chan *Frame, doneChan chan<- error) {
	pipeReader, pipeWriter := io.Pipe()
	inputArgs, outputArgs := encoderArgs(o, runtime.GOOS)

	ffmpegCmd := ffmpeg.Input("pipe:", inputArgs).
		Output(o.Output, outputArgs).
		OverWriteOutput().WithInput(pipeReader).ErrorToStdOut()
	if o.FFmpegPath != "" {
		ffmpegCmd = ffmpegCmd.SetFfmpegPath(o.FFmpegPath)
	}

	errc := make(chan error, 1)
	go func() {
		err := ffmpegCmd.Run()
		pipeReader.CloseWithError(io.ErrClosedPipe)
		errc <- err
	}()

	var writeErr error
	for frame := range frameChan {
		if writeErr != nil {
			continue
		}
		if _, err := pipeWriter.Write(frame.Pixels); err != nil {
			writeErr = fmt.Errorf("failed to write frame %d to ffmpeg: %w", frame.PTS, err)
			log.Errorf("%v", writeErr)
		}
	}
	pipeWriter.Close()

	if err := <-errc; err != nil {
		doneChan <- fmt.Errorf("ffmpeg failed: %w", err)
		return
	}
	doneChan <- writeErr
}
