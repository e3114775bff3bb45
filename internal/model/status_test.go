package model

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range AllStatuses {
		if !s.Valid() {
			t.Errorf("status %q reported invalid", s)
		}
	}
	for _, s := range []DVStatus{"", "pending", "FOR_REVIEW"} {
		if s.Valid() {
			t.Errorf("status %q reported valid", s)
		}
	}
}

func TestOriginRoundTrip(t *testing.T) {
	entryPoints := []DVStatus{StatusForReview, StatusForCashAllocation, StatusForBoxC}
	for _, s := range entryPoints {
		origin := OriginOf(s)
		if origin == OriginNone {
			t.Fatalf("OriginOf(%q) = none", s)
		}
		resume, ok := ResumeStatus(origin)
		if !ok || resume != s {
			t.Errorf("ResumeStatus(OriginOf(%q)) = %q, %v", s, resume, ok)
		}
	}
}

func TestOriginOfNonEntryPoints(t *testing.T) {
	for _, s := range []DVStatus{StatusForApproval, StatusForPayment, StatusProcessed, StatusForRTSIn} {
		if OriginOf(s) != OriginNone {
			t.Errorf("OriginOf(%q) = %q, want none", s, OriginOf(s))
		}
	}
}

func TestResumeStatusWithoutOrigin(t *testing.T) {
	if _, ok := ResumeStatus(OriginNone); ok {
		t.Error("ResumeStatus(OriginNone) reported a resume target")
	}
}
