package httpclient

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ParseOpenAIHeaders extracts rate limit info from OpenAI-style API headers.
func ParseOpenAIHeaders(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{}

	if retryAfter := headers.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			info.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	resetHeaders := []string{
		"x-ratelimit-reset-tokens",
		"x-ratelimit-reset-requests",
	}
	for _, header := range resetHeaders {
		if resetStr := headers.Get(header); resetStr != "" {
			if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
				info.ResetTime = resetTime
				break
			}
		}
	}

	if remaining := headers.Get("x-ratelimit-remaining-requests"); remaining != "" {
		_, _ = fmt.Sscanf(remaining, "%d", &info.RequestsRemaining)
	}
	if remaining := headers.Get("x-ratelimit-remaining-tokens"); remaining != "" {
		_, _ = fmt.Sscanf(remaining, "%d", &info.TokensRemaining)
	}

	return info
}

// ParseRetryAfterHeader extracts only the standard Retry-After header.
// Suitable for servers without vendor rate limit headers.
func ParseRetryAfterHeader(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{}

	if retryAfter := headers.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			info.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return info
}
