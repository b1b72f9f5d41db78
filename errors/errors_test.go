package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeIO, "disk full")
	if err.Code != ErrCodeIO {
		t.Errorf("expected code %s, got %s", ErrCodeIO, err.Code)
	}
	if err.Message != "disk full" {
		t.Errorf("expected message 'disk full', got %q", err.Message)
	}
}

func TestAppError_MissingColumn_Success(t *testing.T) {
	err := MissingColumn("text")
	if err.Code != ErrCodeMissingColumn {
		t.Errorf("expected MISSING_COLUMN, got %s", err.Code)
	}
	if err.Details["column"] != "text" {
		t.Errorf("expected column=text, got %v", err.Details["column"])
	}
	if !strings.Contains(err.Error(), `"text"`) {
		t.Errorf("Error() should name the column, got %q", err.Error())
	}
}

func TestAppError_SourceNotFound_Success(t *testing.T) {
	err := SourceNotFound("docs")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", err.Code)
	}
	if err.Details["source"] != "docs" {
		t.Errorf("expected source=docs, got %v", err.Details["source"])
	}
}

func TestAppError_IO_OmitsEmptyPath(t *testing.T) {
	err := IO("spill chunk", "", fmt.Errorf("boom"))
	if _, ok := err.Details["path"]; ok {
		t.Error("expected no 'path' key in details when path is empty")
	}
	if err.Details["operation"] != "spill chunk" {
		t.Errorf("expected operation detail, got %v", err.Details["operation"])
	}
}

func TestAppError_InvalidFormat_Success(t *testing.T) {
	cause := fmt.Errorf("unexpected token")
	err := InvalidFormat("/tmp/in.jsonl", 7, cause)
	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("expected INVALID_FORMAT, got %s", err.Code)
	}
	if err.Details["line"] != 7 {
		t.Errorf("expected line=7, got %v", err.Details["line"])
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
}

func TestAppError_InvalidInput_Success(t *testing.T) {
	err := InvalidInput("n", "must be positive")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", err.Code)
	}
	if err.Details["field"] != "n" {
		t.Errorf("expected field=n, got %v", err.Details["field"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := FileNotFound("a.txt", nil).WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := MissingColumn("k").WithDetails(map[string]any{"operator": "project"})
	if err.Details["operator"] != "project" {
		t.Errorf("expected operator=project in details")
	}
	if err.Details["column"] != "k" {
		t.Errorf("original details should be preserved")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := New(ErrCodeInternal, "x")
	err.WithDetail("k", "v")
	if err.Details["k"] != "v" {
		t.Errorf("expected k=v, got %v", err.Details["k"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := New(ErrCodeNotFound, "gone")
	if err.Error() != "NOT_FOUND: gone" {
		t.Errorf("unexpected format %q", err.Error())
	}
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct match", MissingColumn("a"), ErrCodeMissingColumn, true},
		{"wrapped match", fmt.Errorf("map: %w", MissingColumn("a")), ErrCodeMissingColumn, true},
		{"other code", SourceNotFound("a"), ErrCodeMissingColumn, false},
		{"plain error", fmt.Errorf("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCode(tc.err, tc.code); got != tc.want {
				t.Errorf("IsCode() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	appErr := Internal(nil)
	wrapped := fmt.Errorf("wrap: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}

	if IsAppError(fmt.Errorf("not an app error")) {
		t.Error("expected IsAppError to return false for non-AppError")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := SourceNotFound("docs")
	if Wrap(fmt.Errorf("outer: %w", orig)) != orig {
		t.Error("Wrap should return the AppError found in the chain")
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected INTERNAL_ERROR wrapping the plain error, got %v", got)
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = MissingColumn("x")
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		t.Error("stderrors.As should work with AppError")
	}
}
