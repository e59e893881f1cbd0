package audio

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"callaudit-backend/models"
)

// Engine is the process-wide transcription engine handle. The underlying
// client is expensive to stand up relative to a request, so it is created
// lazily on first use, guarded against concurrent double-initialization,
// and shared read-only by all in-flight requests. Close releases the
// handle; the next Transcribe re-initializes it.
type Engine struct {
	mu     sync.Mutex
	cfg    WhisperConfig
	client Transcriber
}

// NewEngine creates an engine handle without initializing the client.
func NewEngine(cfg WhisperConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Transcribe acquires the shared client, initializing it on first use.
func (e *Engine) Transcribe(ctx context.Context, audioPath string) ([]models.TranscriptSegment, error) {
	return e.acquire().Transcribe(ctx, audioPath)
}

func (e *Engine) acquire() Transcriber {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil {
		log.Info().Str("endpoint", e.cfg.Endpoint).Msg("initializing transcription engine")
		e.client = NewWhisperClient(e.cfg)
	}
	return e.client
}

// Close releases the shared client, e.g. on shutdown or memory pressure.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		log.Info().Msg("releasing transcription engine")
		e.client = nil
	}
}
