package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"callaudit-backend/metrics"
	"callaudit-backend/models"
	"callaudit-backend/oracle"
)

// JudgmentClient submits one rule batch per call to the judgment oracle
// and normalizes the response into well-formed verdicts. Every failure
// mode (transport, status, parse, structural mismatch) is contained to
// the batch: the batch degrades to Error verdicts and never produces an
// error value, so sibling batches are unaffected.
type JudgmentClient struct {
	oracle  oracle.Oracle
	timeout time.Duration
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewJudgmentClient creates a judgment client. A zero timeout defaults to
// 60 seconds; an unbounded call would stall the whole request on a hung
// oracle.
func NewJudgmentClient(o oracle.Oracle, timeout time.Duration, m *metrics.Metrics) *JudgmentClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &JudgmentClient{
		oracle:  o,
		timeout: timeout,
		metrics: m,
		log:     log.With().Str("component", "judgment").Logger(),
	}
}

// Evaluate judges every rule in the batch against the transcript. The
// returned slice is always length-aligned to batch, in batch order.
func (c *JudgmentClient) Evaluate(ctx context.Context, transcript string, batch []models.RuleSpec) []models.Verdict {
	if c.metrics != nil {
		c.metrics.JudgmentBatches.Inc()
	}

	start := time.Now()
	verdicts, err := c.evaluate(ctx, transcript, batch)
	if c.metrics != nil {
		c.metrics.JudgmentDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		c.log.Warn().Err(err).Int("rules", len(batch)).Msg("rule batch failed, downgrading to error verdicts")
		if c.metrics != nil {
			c.metrics.JudgmentBatchFailures.Inc()
		}
		return errorVerdicts(batch, err)
	}

	return verdicts
}

func (c *JudgmentClient) evaluate(ctx context.Context, transcript string, batch []models.RuleSpec) ([]models.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := buildPrompt(transcript, batch)

	raw, err := c.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parseVerdicts(raw, batch)
}

// ruleTag returns the identifier a rule carries in the prompt and in the
// oracle response: the caller-supplied ruleId when present, otherwise the
// 1-based position.
func ruleTag(rule models.RuleSpec, index int) string {
	if rule.RuleID != "" {
		return rule.RuleID.String()
	}
	return strconv.Itoa(index + 1)
}

// buildPrompt enumerates the batch into a single line-oriented prompt
// instructing the oracle to return a strict JSON array and nothing else.
func buildPrompt(transcript string, batch []models.RuleSpec) string {
	var rules strings.Builder
	for i, rule := range batch {
		rules.WriteString(fmt.Sprintf("%s. %s\n", ruleTag(rule, i), rule.Text))
	}

	return fmt.Sprintf(`You are a quality audit evaluation engine.

Your task is to analyze a call transcript and determine whether each of the provided rules is satisfied based on what was said in the call.

Instructions:
- For each rule, return:
  - "ruleId": the rule identifier exactly as listed
  - "result": "Yes" if the rule was followed, "No" if not, "Unknown" if not verifiable
  - "reason": briefly justify the answer (1-2 sentences max)
  - "confidenceScore": a number between 0.0 and 1.0 expressing how confident you are
- Use ONLY the information found in the transcript.
- Do NOT assume or hallucinate anything.
- Return only a valid JSON array (no markdown, no commentary).

Rules:
%s
Transcript:
"""%s"""

Return format (strict JSON):
[
  {
    "ruleId": "...",
    "result": "Yes" | "No" | "Unknown",
    "reason": "...",
    "confidenceScore": 0.0
  },
  ...
]`, rules.String(), transcript)
}

// oracleVerdict is one element of the oracle's JSON array. No field is
// guaranteed; this type is the sole defense against oracle misbehavior.
type oracleVerdict struct {
	RuleID          models.FlexID `json:"ruleId"`
	Rule            string        `json:"rule"`
	Result          string        `json:"result"`
	Reason          string        `json:"reason"`
	ConfidenceScore interface{}   `json:"confidenceScore"`
}

// parseVerdicts validates the oracle response against the submitted batch
// and reassembles it in batch order. Length or identifier disagreement
// fails the whole batch rather than guessing an alignment.
func parseVerdicts(raw string, batch []models.RuleSpec) ([]models.Verdict, error) {
	cleaned := stripCodeFences(raw)

	var items []oracleVerdict
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("oracle returned invalid JSON: %w", err)
	}

	if len(items) != len(batch) {
		return nil, fmt.Errorf("oracle returned %d verdicts for %d rules", len(items), len(batch))
	}

	// Align by ruleId when the oracle echoed identifiers, positionally
	// otherwise.
	byTag := make(map[string]*oracleVerdict, len(items))
	tagged := true
	for i := range items {
		if items[i].RuleID == "" {
			tagged = false
			break
		}
		byTag[items[i].RuleID.String()] = &items[i]
	}

	verdicts := make([]models.Verdict, len(batch))
	for i, rule := range batch {
		item := &items[i]
		if tagged {
			tag := ruleTag(rule, i)
			matched, ok := byTag[tag]
			if !ok {
				return nil, fmt.Errorf("oracle response missing verdict for rule %s", tag)
			}
			item = matched
		}

		verdicts[i] = models.Verdict{
			RuleID:          rule.RuleID,
			Rule:            rule.Text,
			Result:          normalizeResult(item.Result),
			Reason:          item.Reason,
			ConfidenceScore: models.ParseConfidence(item.ConfidenceScore),
		}
	}

	return verdicts, nil
}

// normalizeResult maps the oracle's result string onto the verdict enum.
// Anything unrecognized is Unknown; Error is reserved for batch failures.
func normalizeResult(result string) models.VerdictResult {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "yes":
		return models.ResultYes
	case "no":
		return models.ResultNo
	default:
		return models.ResultUnknown
	}
}

// stripCodeFences removes markdown code fences some models wrap around
// JSON output despite instructions.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// errorVerdicts downgrades every rule in the batch to an Error verdict
// carrying the underlying failure. Fail closed: never drop a rule, never
// guess a verdict.
func errorVerdicts(batch []models.RuleSpec, cause error) []models.Verdict {
	verdicts := make([]models.Verdict, len(batch))
	for i, rule := range batch {
		verdicts[i] = models.Verdict{
			RuleID:          rule.RuleID,
			Rule:            rule.Text,
			Result:          models.ResultError,
			Reason:          cause.Error(),
			ConfidenceScore: 0.0,
		}
	}
	return verdicts
}
