package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAuthError(t *testing.T) {
	err := NewAuthError("test auth error")

	expected := "authentication failed: test auth error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !err.Is(NewAuthError("target")) {
		t.Error("Expected error to be auth error type")
	}

	if err.Is(NewAPIError(400, "test", "other error")) {
		t.Error("Expected error not to match different type")
	}

	if err.Is(errors.New("standard error")) {
		t.Error("Expected error not to match standard error")
	}

	if !IsAuthError(fmt.Errorf("login: %w", err)) {
		t.Error("IsAuthError should see through wrapping")
	}
}

func TestAuthError_EmptyMessage(t *testing.T) {
	err := NewAuthError("")
	if err.Error() != "authentication failed" {
		t.Errorf("Error() = %s", err.Error())
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		expect string
	}{
		{
			name:   "with status",
			err:    NewAPIError(500, "save", "save chat failed"),
			expect: "API error [500] at save: save chat failed",
		},
		{
			name:   "without status",
			err:    NewAPIError(0, "save", "save chat failed"),
			expect: "API error at save: save chat failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expect {
				t.Errorf("Error() = %s, want %s", tt.err.Error(), tt.expect)
			}
		})
	}
}

func TestNewAPIErrorWithBody_Truncates(t *testing.T) {
	err := NewAPIErrorWithBody(502, "generate", "bad gateway", strings.Repeat("x", 10000))
	if len(err.Body) != maxBodyLen {
		t.Errorf("len(Body) = %d, want %d", len(err.Body), maxBodyLen)
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkErrorWithEndpoint("generate text", "http://127.0.0.1:8000/generate_text/", cause)

	if !errors.Is(err, cause) {
		t.Error("NetworkError should unwrap to its cause")
	}
	if !IsNetworkError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsNetworkError should see through wrapping")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %s, should mention cause", err.Error())
	}

	plain := NewNetworkError("save chat", cause)
	if plain.Error() != "network error during save chat: connection refused" {
		t.Errorf("Error() = %s", plain.Error())
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("generated_text is not a string", "generated_text")

	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("ParseError should match ErrInvalidResponse")
	}
	if !IsParseError(fmt.Errorf("decode: %w", err)) {
		t.Error("IsParseError should see through wrapping")
	}
	if IsParseError(errors.New("parse error")) {
		t.Error("plain errors must not match ParseError")
	}
}

func TestIsBusy(t *testing.T) {
	if !IsBusy(fmt.Errorf("submit: %w", ErrBusy)) {
		t.Error("IsBusy should match wrapped ErrBusy")
	}
	if IsBusy(ErrClosed) {
		t.Error("IsBusy should not match ErrClosed")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"api error", NewAPIError(404, "x", "not found"), 404},
		{"wrapped api error", fmt.Errorf("outer: %w", NewAPIError(500, "x", "boom")), 500},
		{"network error", NewNetworkError("x", errors.New("eof")), 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatus(tt.err); got != tt.want {
				t.Errorf("GetHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEndpoint(t *testing.T) {
	if got := GetEndpoint(NewAPIError(500, "save", "x")); got != "save" {
		t.Errorf("GetEndpoint(api) = %q", got)
	}
	if got := GetEndpoint(NewNetworkErrorWithEndpoint("op", "gen", errors.New("x"))); got != "gen" {
		t.Errorf("GetEndpoint(network) = %q", got)
	}
	if got := GetEndpoint(errors.New("x")); got != "" {
		t.Errorf("GetEndpoint(plain) = %q", got)
	}
}
