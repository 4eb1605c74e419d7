package core

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestBackendErrorFormatting(t *testing.T) {
	cases := []struct {
		err  *BackendError
		want string
	}{
		{NewBackendError(BackendErrorCommunication, "read", io.ErrUnexpectedEOF), "communication: read: unexpected EOF"},
		{NewBackendError(BackendErrorLaunch, "", errors.New("boom")), "launch: boom"},
		{NewBackendError(BackendErrorFrame, "read", nil), "backend read failed"},
		{&BackendError{}, "backend error"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error() = %q, want %q", got, tc.want)
		}
	}
	var nilErr *BackendError
	if nilErr.Error() != "backend error" || nilErr.Unwrap() != nil {
		t.Fatalf("nil BackendError misbehaves")
	}
}

func TestBackendErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("session s1: %w", NewBackendError(BackendErrorFrame, "read", io.ErrUnexpectedEOF))
	if !IsKind(wrapped, BackendErrorFrame) {
		t.Fatalf("expected frame kind through wrapping")
	}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Fatalf("expected cause to unwrap")
	}
	fatal := map[BackendErrorKind]bool{
		BackendErrorLaunch:        true,
		BackendErrorCommunication: true,
		BackendErrorFrame:         true,
		BackendErrorNoPrompt:      false,
	}
	for kind, want := range fatal {
		if got := IsFatal(NewBackendError(kind, "op", errors.New("x"))); got != want {
			t.Fatalf("IsFatal(%s) = %v, want %v", kind, got, want)
		}
	}
	if IsFatal(errors.New("plain")) || IsKind(nil, BackendErrorLaunch) {
		t.Fatalf("plain errors have no kind")
	}
}
