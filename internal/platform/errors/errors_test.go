package errors

import (
	stderrs "errors"
	"fmt"
	"testing"
)

func TestErrorBasics(t *testing.T) {
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q", nilErr.Error())
	}

	e := Newf(ErrorCodeValidation, "column %s has %d missing values", "hour_sin", 3)
	if e.Error() != "column hour_sin has 3 missing values" {
		t.Fatalf("Newf render = %q", e.Error())
	}
	if CodeOf(e) != ErrorCodeValidation || !IsCode(e, ErrorCodeValidation) {
		t.Fatalf("CodeOf = %v", CodeOf(e))
	}

	root := stderrs.New("connection reset")
	w := Wrap(root, ErrorCodeDB, "append prediction_test")
	if w.Error() != "append prediction_test: connection reset" {
		t.Fatalf("Wrap render = %q", w.Error())
	}
	if Root(w) != root {
		t.Fatalf("Root did not return the original cause")
	}
	if Root(nil) != nil {
		t.Fatalf("Root(nil) should be nil")
	}
}

func TestCodeOfForeignAndWrapped(t *testing.T) {
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatalf("foreign error should map to Unknown")
	}
	inner := MissingIdentifierf("artifact %s has no district_id", "a.json")
	outer := fmt.Errorf("load: %w", inner)
	if !IsCode(outer, ErrorCodeMissingIdentifier) {
		t.Fatalf("code should survive fmt wrapping")
	}
	if !Skippable(outer) {
		t.Fatalf("missing identifier should be skippable")
	}
	if Skippable(Validationf("nan")) {
		t.Fatalf("validation errors must not be skippable")
	}
}

func TestWithFieldAndOpAreCopyOnWrite(t *testing.T) {
	base := InvalidArgf("bad table")
	withField := WithField(base, "table")
	withOp := WithOp(withField, "export")

	b, _ := As(base)
	f, _ := As(withField)
	o, _ := As(withOp)
	if b.Field() != "" || b.Op() != "" {
		t.Fatalf("base mutated: field=%q op=%q", b.Field(), b.Op())
	}
	if f.Field() != "table" || o.Field() != "table" || o.Op() != "export" {
		t.Fatalf("unexpected field/op: %q %q %q", f.Field(), o.Field(), o.Op())
	}

	foreign := stderrs.New("x")
	if WithField(foreign, "f") != foreign || WithOp(foreign, "o") != foreign {
		t.Fatalf("foreign errors should pass through unchanged")
	}
}

func TestWrapIf(t *testing.T) {
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatalf("WrapIf(nil) should be nil")
	}
	if !IsCode(WrapIf(stderrs.New("boom"), ErrorCodeDB, "x"), ErrorCodeDB) {
		t.Fatalf("WrapIf should wrap with code")
	}
}

func TestErrorCodeString(t *testing.T) {
	if ErrorCodeValidation.String() != "validation" {
		t.Fatalf("String = %q", ErrorCodeValidation.String())
	}
	if ErrorCode(999).String() != "unknown" {
		t.Fatalf("unknown code label mismatch")
	}
}
