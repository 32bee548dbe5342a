package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRequest(t *testing.T) {
	RequestsTotal.Reset()
	RequestDuration.Reset()

	RecordRequest("gpt-3.5-turbo", "success", 1.5)

	count := testutil.ToFloat64(RequestsTotal.WithLabelValues("gpt-3.5-turbo", "success"))
	if count != 1 {
		t.Errorf("RequestsTotal = %v, want 1", count)
	}
}

func TestRecordRequest_StatusSeparation(t *testing.T) {
	RequestsTotal.Reset()

	RecordRequest("gpt-4o", "success", 1.0)
	RecordRequest("gpt-4o", "error", 0.5)
	RecordRequest("gpt-4o", "error", 0.5)

	success := testutil.ToFloat64(RequestsTotal.WithLabelValues("gpt-4o", "success"))
	if success != 1 {
		t.Errorf("success count = %v, want 1", success)
	}

	errors := testutil.ToFloat64(RequestsTotal.WithLabelValues("gpt-4o", "error"))
	if errors != 2 {
		t.Errorf("error count = %v, want 2", errors)
	}
}

func TestRecordTokens(t *testing.T) {
	TokensTotal.Reset()

	RecordTokens("gpt-3.5-turbo", 100, 50)

	prompt := testutil.ToFloat64(TokensTotal.WithLabelValues("gpt-3.5-turbo", "prompt"))
	if prompt != 100 {
		t.Errorf("prompt tokens = %v, want 100", prompt)
	}

	completion := testutil.ToFloat64(TokensTotal.WithLabelValues("gpt-3.5-turbo", "completion"))
	if completion != 50 {
		t.Errorf("completion tokens = %v, want 50", completion)
	}
}

func TestRecordValidationFailure(t *testing.T) {
	ValidationFailures.Reset()

	RecordValidationFailure("messages")
	RecordValidationFailure("messages")
	RecordValidationFailure("max_tokens")

	messages := testutil.ToFloat64(ValidationFailures.WithLabelValues("messages"))
	if messages != 2 {
		t.Errorf("messages failures = %v, want 2", messages)
	}

	maxTokens := testutil.ToFloat64(ValidationFailures.WithLabelValues("max_tokens"))
	if maxTokens != 1 {
		t.Errorf("max_tokens failures = %v, want 1", maxTokens)
	}
}

func TestRecordUpstreamError(t *testing.T) {
	UpstreamErrors.Reset()

	RecordUpstreamError("completion")
	RecordUpstreamError("completion")

	count := testutil.ToFloat64(UpstreamErrors.WithLabelValues("completion"))
	if count != 2 {
		t.Errorf("UpstreamErrors = %v, want 2", count)
	}
}
