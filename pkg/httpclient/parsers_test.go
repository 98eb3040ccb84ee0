package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseAnthropicHeaders(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Second).UTC().Format(time.RFC3339)

	headers := http.Header{}
	headers.Set("retry-after", "12")
	headers.Set("anthropic-ratelimit-requests-reset", resetAt)
	headers.Set("anthropic-ratelimit-requests-remaining", "99")
	headers.Set("anthropic-ratelimit-input-tokens-remaining", "5000")
	headers.Set("anthropic-ratelimit-output-tokens-remaining", "2000")

	info := ParseAnthropicHeaders(headers)

	if info.RetryAfter != 12*time.Second {
		t.Errorf("RetryAfter = %v, want 12s", info.RetryAfter)
	}
	if info.ResetTime == 0 {
		t.Error("ResetTime not parsed")
	}
	if info.RequestsRemaining != 99 {
		t.Errorf("RequestsRemaining = %d, want 99", info.RequestsRemaining)
	}
	if info.InputTokensRemaining != 5000 {
		t.Errorf("InputTokensRemaining = %d, want 5000", info.InputTokensRemaining)
	}
	if info.OutputTokensRemaining != 2000 {
		t.Errorf("OutputTokensRemaining = %d, want 2000", info.OutputTokensRemaining)
	}
}

func TestParseAnthropicHeadersEmpty(t *testing.T) {
	info := ParseAnthropicHeaders(http.Header{})
	if info.RetryAfter != 0 || info.ResetTime != 0 || info.RequestsRemaining != 0 {
		t.Errorf("expected zero info for empty headers, got %+v", info)
	}
}

func TestParseOpenAIHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "5")
	headers.Set("x-ratelimit-remaining-requests", "10")
	headers.Set("x-ratelimit-remaining-tokens", "8000")

	info := ParseOpenAIHeaders(headers)

	if info.RetryAfter != 5*time.Second {
		t.Errorf("RetryAfter = %v, want 5s", info.RetryAfter)
	}
	if info.RequestsRemaining != 10 {
		t.Errorf("RequestsRemaining = %d, want 10", info.RequestsRemaining)
	}
	if info.TokensRemaining != 8000 {
		t.Errorf("TokensRemaining = %d, want 8000", info.TokensRemaining)
	}
}

func TestParseVoyageHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "3")

	info := ParseVoyageHeaders(headers)
	if info.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", info.RetryAfter)
	}

	if got := ParseVoyageHeaders(http.Header{}); got.RetryAfter != 0 {
		t.Errorf("empty headers RetryAfter = %v, want 0", got.RetryAfter)
	}
}
