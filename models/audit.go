package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexID is an identifier that arrives on the wire as either a JSON string
// or a JSON number. It is stored canonically as a string.
type FlexID string

// UnmarshalJSON accepts both string and numeric identifiers.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = FlexID(n.String())
		return nil
	}

	return fmt.Errorf("id must be a string or a number, got %s", string(data))
}

// String returns the canonical string form of the identifier.
func (id FlexID) String() string {
	return string(id)
}

// RuleSpec is a single compliance rule in canonical form. RuleID is empty
// when the caller supplied the rule as a bare string.
type RuleSpec struct {
	RuleID FlexID `json:"ruleId,omitempty"`
	Text   string `json:"rule"`
}

// RuleList accepts the two wire shapes for a parameter's rule list: a JSON
// array of plain strings, or a JSON array of {ruleId, rule} objects. Both
// decode into the same ordered RuleSpec sequence, so nothing downstream
// ever sees the variant.
type RuleList []RuleSpec

// UnmarshalJSON decodes either rule-list shape, preserving element order.
func (rl *RuleList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ruleList must be an array: %w", err)
	}

	specs := make([]RuleSpec, 0, len(raw))
	for i, elem := range raw {
		var s string
		if err := json.Unmarshal(elem, &s); err == nil {
			specs = append(specs, RuleSpec{Text: s})
			continue
		}

		var spec RuleSpec
		if err := json.Unmarshal(elem, &spec); err != nil {
			return fmt.Errorf("ruleList[%d]: expected string or {ruleId, rule} object: %w", i, err)
		}
		specs = append(specs, spec)
	}

	*rl = specs
	return nil
}

// ParameterRule is one parameter group submitted for evaluation. All rules
// in the group are judged in a single oracle call.
type ParameterRule struct {
	ID       FlexID   `json:"id"`
	Name     string   `json:"name,omitempty"`
	RuleList RuleList `json:"ruleList"`
}

// AuditRequest is the request body accepted by the analyze endpoints.
// Transcription, when present and non-blank, takes precedence over
// AudioURL; the two sources are never combined.
type AuditRequest struct {
	AudioURL      string          `json:"audioUrl"`
	Transcription string          `json:"transcription,omitempty"`
	SampleID      string          `json:"sampleId,omitempty"`
	Parameter     []ParameterRule `json:"parameter"`
}

// TranscriptSegment is one timestamped span of transcribed speech.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	Text  string  `json:"text"`
}

// VerdictResult is the judgment outcome for a single rule.
type VerdictResult string

const (
	ResultYes     VerdictResult = "Yes"
	ResultNo      VerdictResult = "No"
	ResultUnknown VerdictResult = "Unknown"
	ResultError   VerdictResult = "Error"
)

// Verdict is the judged outcome of one rule. ConfidenceScore is always a
// well-formed value in [0.0, 1.0] regardless of what the oracle returned.
type Verdict struct {
	RuleID          FlexID        `json:"ruleId,omitempty"`
	Rule            string        `json:"rule"`
	Result          VerdictResult `json:"result"`
	Reason          string        `json:"reason"`
	ConfidenceScore float64       `json:"confidenceScore"`
}

// GroupResult carries the verdicts for one parameter group, aligned one to
// one with the group's rules in input order.
type GroupResult struct {
	ID       FlexID    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Verdicts []Verdict `json:"verdicts"`
}

// AuditStatus is the terminal state of an audit request.
type AuditStatus string

const (
	StatusCompleted AuditStatus = "completed"
	StatusError     AuditStatus = "error"
)

// AuditOutcome is the assembled result of one audit request. It is built
// once by the pipeline, handed to the dispatcher, and then discarded.
type AuditOutcome struct {
	SampleID    string        `json:"sampleId,omitempty"`
	Status      AuditStatus   `json:"status"`
	Transcript  string        `json:"transcript,omitempty"`
	Evaluations []GroupResult `json:"evaluations,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// SingleRuleRequest is the request body for judging one rule against a
// caller-supplied transcript.
type SingleRuleRequest struct {
	RuleID     FlexID `json:"ruleId"`
	Rule       string `json:"rule"`
	Transcript string `json:"transcript"`
}

// SingleRuleResponse is the synchronous response for a single-rule judgment.
type SingleRuleResponse struct {
	RuleID          FlexID        `json:"ruleId"`
	Rule            string        `json:"rule"`
	Result          VerdictResult `json:"result"`
	Reason          string        `json:"reason"`
	ConfidenceScore float64       `json:"confidenceScore"`
}

// ParseConfidence coerces an arbitrary JSON value to a confidence score.
// Absent or non-numeric values fall back to 0.5; everything is clamped to
// [0.0, 1.0].
func ParseConfidence(v interface{}) float64 {
	const fallback = 0.5

	var score float64
	switch n := v.(type) {
	case nil:
		return fallback
	case float64:
		score = n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return fallback
		}
		score = f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return fallback
		}
		score = f
	default:
		return fallback
	}

	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
