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
				Phase:  PhaseResolve,
				Kind:   KindUnknownLayer,
				Path:   []string{"Account", "Deposit"},
				Decl:   "Account.Deposit",
				Layer:  "Audit",
				Detail: "not ordered",
			},
			contains: []string{"[resolve]", "unknown_layer", "Account.Deposit", "layer Audit", " - not ordered"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseCleanup,
				Kind:  KindUnhandledKind,
			},
			contains: []string{"[cleanup]", "unhandled_kind"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidInput,
				Detail: "bad manifest",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_input", ": bad manifest", "caused by", "underlying error"},
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
	err := &Error{
		Phase: PhaseRewrite,
		Kind:  KindUnsupportedShape,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseIntroduce,
		Kind:  KindInsertionPoint,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseIntroduce, Kind: KindInsertionPoint}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseRewrite, Kind: KindInsertionPoint}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseIntroduce, Kind: KindNotFound}) {
		t.Error("Is should not match different kind")
	}

	var wrapped error = Wrap(PhaseLoad, KindInvalidInput, err, "loading")
	if !errors.Is(wrapped, &Error{Phase: PhaseIntroduce, Kind: KindInsertionPoint}) {
		t.Error("errors.Is should see through the cause chain")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseAnalyze, KindMissingChainEntry).
		Path("Account", "Deposit").
		Decl("Account.Deposit").
		Layer("Log").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "override", "nothing").
		Build()

	if err.Phase != PhaseAnalyze {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseAnalyze)
	}
	if err.Kind != KindMissingChainEntry {
		t.Errorf("Kind = %v, want %v", err.Kind, KindMissingChainEntry)
	}
	if len(err.Path) != 2 || err.Path[0] != "Account" || err.Path[1] != "Deposit" {
		t.Errorf("Path = %v, want [Account Deposit]", err.Path)
	}
	if err.Decl != "Account.Deposit" || err.Layer != "Log" {
		t.Errorf("Decl=%v Layer=%v", err.Decl, err.Layer)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected override, got nothing" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnknownLayer", func(t *testing.T) {
		err := UnknownLayer(PhaseResolve, "Ghost")
		if err.Kind != KindUnknownLayer || err.Layer != "Ghost" {
			t.Errorf("Kind=%v Layer=%v", err.Kind, err.Layer)
		}
	})

	t.Run("UnsupportedShape", func(t *testing.T) {
		err := UnsupportedShape("C.M", "call nested in expression")
		if err.Phase != PhaseRewrite || err.Kind != KindUnsupportedShape {
			t.Errorf("Phase=%v Kind=%v", err.Phase, err.Kind)
		}
	})

	t.Run("UnhandledKind", func(t *testing.T) {
		err := UnhandledKind(PhaseRewrite, "C.f", "field")
		if !strings.Contains(err.Detail, "field") {
			t.Errorf("Detail = %v, should contain kind", err.Detail)
		}
	})

	t.Run("InsertionPoint", func(t *testing.T) {
		err := InsertionPoint("Log", "C", "anchor M not found")
		if err.Phase != PhaseIntroduce || err.Kind != KindInsertionPoint {
			t.Errorf("Phase=%v Kind=%v", err.Phase, err.Kind)
		}
	})

	t.Run("Syntax", func(t *testing.T) {
		err := Syntax(12, "expected ')'")
		if err.Value != 12 || !strings.Contains(err.Error(), "line 12") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseEval, "method Run")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("MissingChainEntry", func(t *testing.T) {
		err := MissingChainEntry(PhaseAnalyze, "C.M", "no chain")
		if err.Kind != KindMissingChainEntry || err.Decl != "C.M" {
			t.Errorf("Kind=%v Decl=%v", err.Kind, err.Decl)
		}
	})
}
