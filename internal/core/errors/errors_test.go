package errors

import (
	"errors"
	"io/fs"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "file not cached")
		if err.Error() != "[NOT_FOUND] file not cached" {
			t.Errorf("expected [NOT_FOUND] file not cached, got %s", err.Error())
		}
	})

	t.Run("Newf", func(t *testing.T) {
		err := Newf(CodeValidationError, "gas must be positive, got %d", 0)
		if err.Error() != "[VALIDATION_ERROR] gas must be positive, got 0" {
			t.Errorf("unexpected message %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected token")
		err := Wrap(original, CodeParseError, "parse failed")
		expected := "[PARSE_ERROR] parse failed: unexpected token"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("WrapNil", func(t *testing.T) {
		if err := Wrap(nil, CodeInternal, "nothing"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(New(CodeNotFound, "missing"), CtxPath, "a.py")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected DomainError")
		}
		if de.Context[CtxPath] != "a.py" {
			t.Errorf("expected path context, got %v", de.Context)
		}

		plain := AddContext(fs.ErrNotExist, CtxOperation, "read")
		if !IsCode(plain, CodeInternal) {
			t.Error("expected plain errors to be promoted to INTERNAL_ERROR")
		}
		if !errors.Is(plain, fs.ErrNotExist) {
			t.Error("expected promoted error to keep its cause")
		}
	})
}
