package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"callaudit-backend/audio"
	"callaudit-backend/events"
	"callaudit-backend/metrics"
	"callaudit-backend/models"
	"callaudit-backend/transcript"
)

// Judge evaluates one rule batch against a transcript. Implementations
// must return a slice length-aligned to the batch and must not fail:
// batch-level problems degrade to Error verdicts.
type Judge interface {
	Evaluate(ctx context.Context, transcriptText string, batch []models.RuleSpec) []models.Verdict
}

// AuditService runs the audit pipeline: transcript preparation, rule
// normalization, concurrent per-group judgment, and outcome assembly.
type AuditService struct {
	judge       Judge
	fetcher     audio.Fetcher
	transcoder  audio.Transcoder
	transcriber audio.Transcriber
	metrics     *metrics.Metrics
	events      *events.Publisher
	log         zerolog.Logger
}

// AuditServiceOption is a functional option for AuditService.
type AuditServiceOption func(*AuditService)

// WithJudge sets the judgment client.
func WithJudge(j Judge) AuditServiceOption {
	return func(s *AuditService) {
		s.judge = j
	}
}

// WithFetcher sets the audio fetcher.
func WithFetcher(f audio.Fetcher) AuditServiceOption {
	return func(s *AuditService) {
		s.fetcher = f
	}
}

// WithTranscoder sets the audio transcoder.
func WithTranscoder(t audio.Transcoder) AuditServiceOption {
	return func(s *AuditService) {
		s.transcoder = t
	}
}

// WithTranscriber sets the transcription engine handle.
func WithTranscriber(t audio.Transcriber) AuditServiceOption {
	return func(s *AuditService) {
		s.transcriber = t
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) AuditServiceOption {
	return func(s *AuditService) {
		s.metrics = m
	}
}

// WithEvents sets the audit-event publisher.
func WithEvents(p *events.Publisher) AuditServiceOption {
	return func(s *AuditService) {
		s.events = p
	}
}

// NewAuditService creates a new audit service.
func NewAuditService(opts ...AuditServiceOption) *AuditService {
	s := &AuditService{
		log: log.With().Str("component", "audit").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the audit pipeline for one request. Judgment failures are
// contained per group; any returned error is a pipeline-level failure
// (validation, download, transcode, transcription) and aborts the whole
// request. Temporary audio artifacts are removed on every exit path.
func (s *AuditService) Run(ctx context.Context, req models.AuditRequest) (*models.AuditOutcome, error) {
	if s.metrics != nil {
		s.metrics.AuditsStarted.Inc()
	}
	start := time.Now()

	janitor := NewJanitor()
	defer janitor.Cleanup()

	outcome, err := s.run(ctx, req, janitor)

	if s.metrics != nil {
		s.metrics.AuditDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.AuditsFailed.Inc()
		} else {
			s.metrics.AuditsCompleted.Inc()
		}
	}

	if err == nil && s.events != nil {
		s.events.PublishCompleted(ctx, outcome)
	}

	return outcome, err
}

func (s *AuditService) run(ctx context.Context, req models.AuditRequest, janitor *Janitor) (*models.AuditOutcome, error) {
	if len(req.Parameter) == 0 {
		return nil, ErrNoParameters
	}

	// Normalize every group before any audio work so a malformed rule
	// list fails the request without a wasted download.
	batches := make([][]models.RuleSpec, len(req.Parameter))
	for i, group := range req.Parameter {
		batch, err := NormalizeRules(group)
		if err != nil {
			return nil, err
		}
		batches[i] = batch
	}

	transcriptText, rendered, err := s.prepareTranscript(ctx, req, janitor)
	if err != nil {
		return nil, err
	}

	evaluations := s.evaluateGroups(ctx, transcriptText, req.Parameter, batches)

	return &models.AuditOutcome{
		SampleID:    req.SampleID,
		Status:      models.StatusCompleted,
		Transcript:  rendered,
		Evaluations: evaluations,
	}, nil
}

// prepareTranscript produces the transcript text handed to the oracle and
// its rendered form for the outcome payload. A non-blank caller-supplied
// transcription takes the pretranscribed path; obtaining audio is the
// fallback, never a merge.
func (s *AuditService) prepareTranscript(ctx context.Context, req models.AuditRequest, janitor *Janitor) (string, string, error) {
	if strings.TrimSpace(req.Transcription) != "" {
		cleaned := transcript.StripTimestamps(req.Transcription)
		return cleaned, cleaned, nil
	}

	rawPath, err := s.fetcher.Fetch(ctx, req.AudioURL)
	janitor.Track(rawPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	wavPath, err := s.transcoder.Transcode(ctx, rawPath)
	janitor.Track(wavPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrTranscodeFailed, err)
	}

	if s.metrics != nil {
		s.metrics.TranscriptionRequests.Inc()
	}
	transcriptionStart := time.Now()
	segments, err := s.transcriber.Transcribe(ctx, wavPath)
	if s.metrics != nil {
		s.metrics.TranscriptionDuration.Observe(time.Since(transcriptionStart).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.TranscriptionFailures.Inc()
		}
		return "", "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	return transcript.JoinSegments(segments), transcript.RenderHTML(segments), nil
}

// evaluateGroups fans out one judgment call per parameter group. All
// groups share the transcript read-only; no group's failure affects any
// other, and results land on the original group index regardless of
// completion order.
func (s *AuditService) evaluateGroups(ctx context.Context, transcriptText string, groups []models.ParameterRule, batches [][]models.RuleSpec) []models.GroupResult {
	results := make([]models.GroupResult, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	for i := range groups {
		g.Go(func() error {
			verdicts := s.judge.Evaluate(gctx, transcriptText, batches[i])
			results[i] = models.GroupResult{
				ID:       groups[i].ID,
				Name:     groups[i].Name,
				Verdicts: verdicts,
			}
			return nil
		})
	}

	// Workers never return errors; Wait is a pure join.
	_ = g.Wait()

	return results
}
