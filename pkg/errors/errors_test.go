package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedBlock, "unterminated diagram at line %d", 12)

	if err.Code != ErrCodeMalformedBlock {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedBlock)
	}

	if err.Message != "unterminated diagram at line 12" {
		t.Errorf("Message = %v, want %v", err.Message, "unterminated diagram at line 12")
	}

	expected := "MALFORMED_BLOCK: unterminated diagram at line 12"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrCodeRenderFailed, cause, "toolchain produced no output")

	if err.Code != ErrCodeRenderFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeRenderFailed)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeMalformedBlock, "test"),
			code:     ErrCodeMalformedBlock,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeMalformedBlock, "test"),
			code:     ErrCodeRenderFailed,
			expected: false,
		},
		{
			name:     "wrapped structured error",
			err:      Wrap(ErrCodeUnparsableHeader, errors.New("inner"), "bad header"),
			code:     ErrCodeUnparsableHeader,
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if code := GetCode(New(ErrCodeReplacementMismatch, "off by one")); code != ErrCodeReplacementMismatch {
		t.Errorf("GetCode() = %v, want %v", code, ErrCodeReplacementMismatch)
	}

	if code := GetCode(errors.New("plain")); code != "" {
		t.Errorf("GetCode() for plain error = %v, want empty", code)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeRenderFailed, "diagram a1b2 failed")
	if msg := UserMessage(err); msg != "diagram a1b2 failed" {
		t.Errorf("UserMessage() = %v, want %v", msg, "diagram a1b2 failed")
	}

	plain := errors.New("plain error")
	if msg := UserMessage(plain); msg != "plain error" {
		t.Errorf("UserMessage() = %v, want %v", msg, "plain error")
	}
}
