package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks a write that would violate an immutability rule.
	ErrConflict = errors.New("conflict")
	// ErrExtraction means the reasoning service produced no usable concepts.
	ErrExtraction = errors.New("concept extraction failed")
	// ErrReasoningProvider covers transport failures and exhausted retries.
	ErrReasoningProvider = errors.New("reasoning provider error")
	// ErrResponseParsing means the provider answered with something that is not the expected JSON.
	ErrResponseParsing = errors.New("response parsing error")
	// ErrPersistence wraps storage failures.
	ErrPersistence = errors.New("persistence error")
)

const (
	CodeNotFound          = "not_found"
	CodeInvalidArgument   = "invalid_argument"
	CodeConflict          = "conflict"
	CodeExtraction        = "extraction_failed"
	CodeReasoningProvider = "reasoning_provider_error"
	CodeResponseParsing   = "response_parsing_error"
	CodePersistence       = "persistence_error"
	CodeInternal          = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrConflict, CodeConflict},
	{ErrExtraction, CodeExtraction},
	{ErrResponseParsing, CodeResponseParsing},
	{ErrReasoningProvider, CodeReasoningProvider},
	{ErrPersistence, CodePersistence},
}

// Code returns the stable failure code for err, or "" when err is nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
