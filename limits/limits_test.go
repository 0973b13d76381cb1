package limits

import (
	"errors"
	"strings"
	"testing"
)

// TestMaxPendingBytesIsOneMiB verifies the congestion threshold.
func TestMaxPendingBytesIsOneMiB(t *testing.T) {
	if MaxPendingBytes != 1024*1024 {
		t.Errorf("MaxPendingBytes = %d, want %d", MaxPendingBytes, 1024*1024)
	}
}

// TestValidateMessageSize tests the generic validation function
func TestValidateMessageSize(t *testing.T) {
	tests := []struct {
		name    string
		message []byte
		max     int
		wantErr error
	}{
		{"empty", nil, 10, ErrMessageEmpty},
		{"within limit", []byte("hello"), 10, nil},
		{"at limit", []byte("0123456789"), 10, nil},
		{"over limit", []byte("0123456789a"), 10, ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessageSize(tt.message, tt.max)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChatText(t *testing.T) {
	if err := ValidateChatText(""); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("empty text: got %v", err)
	}
	if err := ValidateChatText("hi"); err != nil {
		t.Errorf("short text: got %v", err)
	}
	err := ValidateChatText(strings.Repeat("x", MaxChatText+1))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("long text: got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "chat text: ") || !strings.Contains(err.Error(), "exceeds limit 2000") {
		t.Errorf("error should carry context: %v", err)
	}
}

func TestValidateSignalMessage(t *testing.T) {
	if err := ValidateSignalMessage(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("nil message: got %v", err)
	}
	if err := ValidateSignalMessage(make([]byte, MaxSignalMessage)); err != nil {
		t.Errorf("message at limit: got %v", err)
	}
	err := ValidateSignalMessage(make([]byte, MaxSignalMessage+1))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("message over limit: got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "signal message: ") || !strings.Contains(err.Error(), "exceeds limit 8388608") {
		t.Errorf("error should name the message kind and limit: %v", err)
	}
}

func TestValidateFrameSize(t *testing.T) {
	if err := ValidateFrameSize(0, 0); err != nil {
		t.Errorf("zero size should not be an error: %v", err)
	}
	if err := ValidateFrameSize(1920, 1080); err != nil {
		t.Errorf("1080p: %v", err)
	}
	if err := ValidateFrameSize(MaxFrameDimension+1, 10); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("oversized width: got %v", err)
	}
}
