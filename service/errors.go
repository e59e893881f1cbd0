package service

import "errors"

// Pipeline-level failures. Any of these aborts the whole request; group
// isolation only applies to judgment batch failures, which never surface
// as errors at all.
var (
	ErrWebhookNotConfigured = errors.New("webhook URL not configured")
	ErrNoParameters         = errors.New("request has no parameter groups")
	ErrEmptyRuleList        = errors.New("rule list is empty")
	ErrBlankRule            = errors.New("rule text is blank")
	ErrDownloadFailed       = errors.New("failed to download audio")
	ErrTranscodeFailed      = errors.New("failed to transcode audio")
	ErrTranscriptionFailed  = errors.New("failed to transcribe audio")
)

// IsValidationError reports whether err is a malformed-request failure, as
// opposed to a downstream pipeline fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNoParameters) ||
		errors.Is(err, ErrEmptyRuleList) ||
		errors.Is(err, ErrBlankRule)
}
