package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Canonical format required by the transcription engine.
const (
	canonicalCodec      = "pcm_s16le"
	canonicalSampleRate = "16000"
	canonicalChannels   = "1"
)

// Transcoder converts audio into the canonical transcription format.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath string) (string, error)
}

// FFmpegTranscoder shells out to ffmpeg/ffprobe for transcoding.
type FFmpegTranscoder struct {
	FFmpegPath  string
	FFprobePath string
	TempDir     string
}

// NewFFmpegTranscoder creates a transcoder using the given binary paths.
func NewFFmpegTranscoder(ffmpegPath, ffprobePath, tempDir string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpegTranscoder{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		TempDir:     tempDir,
	}
}

// Transcode converts the input to canonical mono 16 kHz s16le WAV. The
// input path is returned unchanged when it is already compliant, so the
// caller must not assume a new file was created.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, inputPath string) (string, error) {
	if strings.HasSuffix(strings.ToLower(inputPath), ".wav") && t.isCanonicalWAV(ctx, inputPath) {
		return inputPath, nil
	}

	outputPath := filepath.Join(t.TempDir, uuid.New().String()+".wav")

	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-y",
		"-i", inputPath,
		"-acodec", canonicalCodec,
		"-ar", canonicalSampleRate,
		"-ac", canonicalChannels,
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg failed to transcode audio: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	return outputPath, nil
}

// isCanonicalWAV probes the first audio stream for codec, sample rate and
// channel count. Probe failures count as non-compliant.
func (t *FFmpegTranscoder) isCanonicalWAV(ctx context.Context, inputPath string) bool {
	cmd := exec.CommandContext(ctx, t.FFprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name,sample_rate,channels",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	)

	out, err := cmd.Output()
	if err != nil {
		return false
	}

	fields := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(fields) != 3 {
		return false
	}
	return fields[0] == canonicalCodec && fields[1] == canonicalSampleRate && fields[2] == canonicalChannels
}
