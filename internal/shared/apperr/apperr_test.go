package apperr

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationErrNilWhenEmpty(t *testing.T) {
	v := NewValidation()
	if v.Err() != nil {
		t.Fatalf("expected nil for empty validation")
	}
}

func TestValidationAddAndError(t *testing.T) {
	v := NewValidation()
	v.Add("title", "Expedition title is required.")
	v.Add("title", "duplicate message must not overwrite")
	v.Add("end_date", "End date must be after or equal to start date.")

	err := v.Err()
	if err == nil {
		t.Fatalf("expected error")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError")
	}
	if verr.Fields["title"] != "Expedition title is required." {
		t.Fatalf("first message must win: %q", verr.Fields["title"])
	}
	if !strings.Contains(err.Error(), "end_date") || !strings.Contains(err.Error(), "title") {
		t.Fatalf("error string must name fields: %q", err.Error())
	}
}
