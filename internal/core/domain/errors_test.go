package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err       error
		permanent bool
		transient bool
	}{
		{ErrSourceNotFound, true, false},
		{ErrWorksheetNotFound, true, false},
		{ErrAccessRevoked, true, false},
		{ErrRateLimited, false, true},
		{ErrUnavailable, false, true},
		{ErrDelivery, false, false},
		{ErrNotFound, false, false},
		{errors.New("unclassified"), false, false},
	}

	for _, tt := range tests {
		if got := IsPermanent(tt.err); got != tt.permanent {
			t.Errorf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.permanent)
		}
		if got := IsTransient(tt.err); got != tt.transient {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.transient)
		}
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("fetch worksheet: %w", fmt.Errorf("%w: status 403", ErrAccessRevoked))
	if !IsPermanent(err) {
		t.Error("wrapped permanent error lost its classification")
	}

	err = fmt.Errorf("3 attempts exhausted: %w", ErrUnavailable)
	if !IsTransient(err) {
		t.Error("wrapped transient error lost its classification")
	}
}
