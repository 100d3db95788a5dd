package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassificationSurvivesWrapping(t *testing.T) {
	base := New(SurfaceUnavailable, "tab closed")
	wrapped := fmt.Errorf("capture surface 5: %w", base)

	if KindOf(wrapped) != SurfaceUnavailable {
		t.Errorf("KindOf(wrapped) = %q, want %q", KindOf(wrapped), SurfaceUnavailable)
	}
	if !Is(wrapped, SurfaceUnavailable) {
		t.Error("Is() lost the classification through wrapping")
	}
	if UserMessage(wrapped) != "tab closed" {
		t.Errorf("UserMessage(wrapped) = %q, want the classified message", UserMessage(wrapped))
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(RecorderUnreachable, "recorder window is no longer reachable", cause)

	if !errors.Is(err, cause) {
		t.Error("Unwrap chain dropped the cause")
	}
	if UserMessage(err) != "recorder window is no longer reachable" {
		t.Errorf("UserMessage() = %q, leaked the cause into user text", UserMessage(err))
	}
}

func TestHTTPCarriesStatus(t *testing.T) {
	err := HTTP(422, "priority out of range")

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatal("HTTP() did not produce a classified error")
	}
	if fe.Status != 422 {
		t.Errorf("status = %d, want 422", fe.Status)
	}
	if fe.Kind != HTTPError {
		t.Errorf("kind = %q, want %q", fe.Kind, HTTPError)
	}
}

func TestUnclassifiedErrors(t *testing.T) {
	plain := errors.New("dial tcp: timeout")
	if KindOf(plain) != "" {
		t.Errorf("KindOf(plain) = %q, want empty", KindOf(plain))
	}
	if UserMessage(plain) != "dial tcp: timeout" {
		t.Errorf("UserMessage(plain) = %q", UserMessage(plain))
	}
	if UserMessage(nil) != "" {
		t.Error("UserMessage(nil) not empty")
	}
}
