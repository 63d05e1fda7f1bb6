package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseLink,
				Kind:     KindSignatureMismatch,
				Function: "host#return_err",
				Detail:   "guest expects () -> (i32)",
			},
			contains: []string{"[link]", "signature_mismatch", "host#return_err", "guest expects"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseCall,
				Kind:  KindReentrancy,
			},
			contains: []string{"[call]", "reentrancy"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindInvalidModule,
				Detail: "compile module",
				Cause:  errors.New("invalid magic number"),
			},
			contains: []string{"[compile]", "invalid_module", "caused by", "invalid magic number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Compile(cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause through chain")
	}
}

func TestError_Is(t *testing.T) {
	err := Reentrancy("return_ok")

	if !errors.Is(err, ErrReentrancy) {
		t.Error("reentrancy error should match ErrReentrancy")
	}
	if errors.Is(err, ErrStoreDiscarded) {
		t.Error("reentrancy error should not match ErrStoreDiscarded")
	}
	if !errors.Is(StoreDiscarded("x"), ErrStoreDiscarded) {
		t.Error("store discarded error should match ErrStoreDiscarded")
	}
	if !errors.Is(Closed("x"), ErrClosed) {
		t.Error("closed error should match ErrClosed")
	}

	var target *Error
	if !errors.As(Arity("add", 2, 1), &target) {
		t.Fatal("errors.As should find *Error")
	}
	if target.Kind != KindArity {
		t.Errorf("Kind = %s, want %s", target.Kind, KindArity)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseLink, KindSignatureMismatch).
		Function("host", "panic").
		Detail("want %d params", 1).
		Cause(cause).
		Build()

	if err.Function != "host#panic" {
		t.Errorf("Function = %q, want host#panic", err.Function)
	}
	if err.Detail != "want 1 params" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Cause != cause {
		t.Error("Cause not set")
	}

	noNS := New(PhaseCall, KindNotFound).Function("", "add").Build()
	if noNS.Function != "add" {
		t.Errorf("Function = %q, want add", noNS.Function)
	}
}

func TestSignatureMismatch(t *testing.T) {
	err := SignatureMismatch("host", "return_err", "() -> (i32)", "() -> ()")
	msg := err.Error()
	for _, want := range []string{"host#return_err", "() -> (i32)", "() -> ()"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestMissingImportsError(t *testing.T) {
	err := NewMissingImportsError([]string{
		"host#return_ok",
		"host#panic",
		"env#abort",
	})

	if len(err.Imports) != 3 {
		t.Fatalf("got %d imports, want 3", len(err.Imports))
	}
	if err.Imports[0].Namespace != "host" || err.Imports[0].Function != "return_ok" {
		t.Errorf("unexpected first import %+v", err.Imports[0])
	}

	msg := err.Error()
	for _, want := range []string{"missing 3 host function(s)", "host:", "- panic", "env:", "- abort"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	if !errors.Is(err, &MissingImportsError{}) {
		t.Error("should match *MissingImportsError")
	}
	if !errors.Is(err, &Error{Phase: PhaseLink, Kind: KindMissingImport}) {
		t.Error("should match link/missing_import")
	}
}

func TestMissingImportsError_Empty(t *testing.T) {
	err := &MissingImportsError{}
	if !strings.Contains(err.Error(), "no imports specified") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
