package providers

import (
	"errors"
	"testing"
)

func TestClassifyCoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want CoreErrorKind
	}{
		{"timeout", errors.New("context deadline exceeded"), KindConnection},
		{"rate limit", errors.New("429 too many requests"), KindAPIRequest},
		{"server error", errors.New("500 internal server error"), KindAPIRequest},
		{"decode failure", errors.New("failed to decode response body"), KindResponseParse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyCoreError(tc.err); got != tc.want {
				t.Errorf("ClassifyCoreError(%q) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
