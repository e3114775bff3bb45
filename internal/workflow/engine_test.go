package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kylabear/dv-tracking/internal/model"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func testDV(status model.DVStatus) model.DisbursementVoucher {
	return model.DisbursementVoucher{
		ID:           uuid.New(),
		DVNumber:     "2024-03-00042",
		Payee:        "Juan Dela Cruz",
		Amount:       decimal.NewFromInt(15000),
		ReceivedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:       status,
		CreatedAt:    testNow.Add(-48 * time.Hour),
	}
}

func TestIssueRTSRecordsOrigin(t *testing.T) {
	tests := []struct {
		from       model.DVStatus
		wantOrigin model.ReviewOrigin
	}{
		{model.StatusForReview, model.OriginReview},
		{model.StatusForCashAllocation, model.OriginCashAllocation},
		{model.StatusForBoxC, model.OriginBoxC},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			trans, err := IssueRTS(testDV(tt.from), "missing signature", "alice", testNow)
			if err != nil {
				t.Fatalf("IssueRTS() error = %v", err)
			}
			dv := trans.DV
			if dv.Status != model.StatusForRTSIn {
				t.Errorf("status = %q, want %q", dv.Status, model.StatusForRTSIn)
			}
			if dv.RTSOrigin != tt.wantOrigin {
				t.Errorf("rts_origin = %q, want %q", dv.RTSOrigin, tt.wantOrigin)
			}
			if dv.RTSOutDate == nil || !dv.RTSOutDate.Equal(testNow) {
				t.Errorf("rts_out_date = %v, want %v", dv.RTSOutDate, testNow)
			}
			if dv.RTSReason != "missing signature" {
				t.Errorf("rts_reason = %q", dv.RTSReason)
			}
		})
	}
}

func TestIssueResolveRoundTrip(t *testing.T) {
	origins := []model.DVStatus{
		model.StatusForReview,
		model.StatusForCashAllocation,
		model.StatusForBoxC,
	}

	for _, from := range origins {
		t.Run("rts/"+string(from), func(t *testing.T) {
			issued, err := IssueRTS(testDV(from), "incomplete attachments", "alice", testNow)
			if err != nil {
				t.Fatalf("IssueRTS() error = %v", err)
			}
			resolved, err := ResolveRTS(issued.DV, "alice", testNow.Add(24*time.Hour))
			if err != nil {
				t.Fatalf("ResolveRTS() error = %v", err)
			}
			if resolved.DV.Status != from {
				t.Errorf("status after round trip = %q, want %q", resolved.DV.Status, from)
			}
			if resolved.DV.RTSOrigin != model.OriginNone {
				t.Errorf("rts_origin not cleared: %q", resolved.DV.RTSOrigin)
			}
			if resolved.DV.RTSInDate == nil {
				t.Error("rts_in_date not stamped")
			}
		})

		t.Run("norsa/"+string(from), func(t *testing.T) {
			issued, err := IssueNORSA(testDV(from), "no ors attached", "bob", testNow)
			if err != nil {
				t.Fatalf("IssueNORSA() error = %v", err)
			}
			resolved, err := ResolveNORSA(issued.DV, "bob", testNow.Add(24*time.Hour))
			if err != nil {
				t.Fatalf("ResolveNORSA() error = %v", err)
			}
			if resolved.DV.Status != from {
				t.Errorf("status after round trip = %q, want %q", resolved.DV.Status, from)
			}
			if resolved.DV.NORSAOrigin != model.OriginNone {
				t.Errorf("norsa_origin not cleared: %q", resolved.DV.NORSAOrigin)
			}
		})
	}
}

func TestIssueRTSRejectedOutsideEntryPoints(t *testing.T) {
	illegal := []model.DVStatus{
		model.StatusForRTSIn,
		model.StatusForNORSAIn,
		model.StatusForApproval,
		model.StatusForIndexing,
		model.StatusForPayment,
		model.StatusOutToCashiering,
		model.StatusForEngas,
		model.StatusForCDJ,
		model.StatusForLDDAP,
		model.StatusProcessed,
	}
	for _, from := range illegal {
		if _, err := IssueRTS(testDV(from), "reason", "alice", testNow); !isInvalidTransition(err) {
			t.Errorf("IssueRTS from %q: got %v, want InvalidTransitionError", from, err)
		}
	}
}

func TestResolveWithoutOriginRejected(t *testing.T) {
	dv := testDV(model.StatusForRTSIn)
	if _, err := ResolveRTS(dv, "alice", testNow); !isInvalidTransition(err) {
		t.Errorf("ResolveRTS without origin: got %v, want InvalidTransitionError", err)
	}

	dv = testDV(model.StatusForNORSAIn)
	if _, err := ResolveNORSA(dv, "alice", testNow); !isInvalidTransition(err) {
		t.Errorf("ResolveNORSA without origin: got %v, want InvalidTransitionError", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	dv := testDV(model.StatusForReview)
	historyLen := len(dv.History)

	step := func(name string, trans *Transition, err error, want model.DVStatus) model.DisbursementVoucher {
		t.Helper()
		if err != nil {
			t.Fatalf("%s: error = %v", name, err)
		}
		if trans.DV.Status != want {
			t.Fatalf("%s: status = %q, want %q", name, trans.DV.Status, want)
		}
		if !trans.DV.Status.Valid() {
			t.Fatalf("%s: produced out-of-enumeration status %q", name, trans.DV.Status)
		}
		historyLen++
		if len(trans.DV.History) != historyLen {
			t.Fatalf("%s: history length = %d, want %d", name, len(trans.DV.History), historyLen)
		}
		return trans.DV
	}

	allocDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	trans, err := AllocateCash(dv, "CA-2024-001", allocDate, decimal.NewFromInt(14250), "alice", testNow)
	dv = step("AllocateCash", trans, err, model.StatusForBoxC)

	trans, err = CertifyBoxC(dv, testNow, testNow, "alice", testNow)
	dv = step("CertifyBoxC", trans, err, model.StatusForApproval)

	trans, err = SendForApproval(dv, testNow, "alice", testNow)
	dv = step("SendForApproval", trans, err, model.StatusForApproval)
	if !dv.OutForApproval() {
		t.Fatal("SendForApproval: expected derived out-for-approval sub-state")
	}

	trans, err = ReturnFromApproval(dv, testNow.Add(48*time.Hour), "approved", "alice", testNow.Add(48*time.Hour))
	dv = step("ReturnFromApproval", trans, err, model.StatusForIndexing)

	trans, err = RecordIndexing(dv, "bob", testNow, "bob", testNow)
	dv = step("RecordIndexing", trans, err, model.StatusForPayment)

	checkDate := testNow
	trans, err = SetPaymentMethod(dv, model.PaymentMethodCheck, PaymentFields{CheckNumber: "CHK-778", CheckDate: &checkDate}, "bob", testNow)
	dv = step("SetPaymentMethod", trans, err, model.StatusOutToCashiering)

	trans, err = ReturnFromCashiering(dv, "bob", testNow)
	dv = step("ReturnFromCashiering", trans, err, model.StatusForEngas)

	trans, err = RecordEngas(dv, "NGAS-5521", testNow, "carol", testNow)
	dv = step("RecordEngas", trans, err, model.StatusForCDJ)

	trans, err = RecordCDJ(dv, testNow, "carol", "carol", testNow)
	dv = step("RecordCDJ", trans, err, model.StatusForLDDAP)

	trans, err = CertifyLDDAP(dv, testNow, "dave", "dave", testNow)
	dv = step("CertifyLDDAP", trans, err, model.StatusProcessed)

	trans, err = ReallocateCash(dv, "cashiering rejected stale allocation", "dave", testNow)
	dv = step("ReallocateCash", trans, err, model.StatusForCashAllocation)
	if !dv.IsReallocated {
		t.Error("ReallocateCash: is_reallocated not set")
	}
	if dv.ReallocationDate == nil {
		t.Error("ReallocateCash: reallocation_date not stamped")
	}
}

func TestReallocateOnlyFromProcessed(t *testing.T) {
	for _, from := range model.AllStatuses {
		if from == model.StatusProcessed {
			continue
		}
		before := testDV(from)
		_, err := ReallocateCash(before, "reason", "alice", testNow)
		if !isInvalidTransition(err) {
			t.Errorf("ReallocateCash from %q: got %v, want InvalidTransitionError", from, err)
		}
	}
}

func TestSendForApprovalRejectedWhenAlreadyOut(t *testing.T) {
	dv := testDV(model.StatusForApproval)
	trans, err := SendForApproval(dv, testNow, "alice", testNow)
	if err != nil {
		t.Fatalf("first SendForApproval: %v", err)
	}
	if _, err := SendForApproval(trans.DV, testNow, "alice", testNow); !isInvalidTransition(err) {
		t.Errorf("second SendForApproval: got %v, want InvalidTransitionError", err)
	}
}

func TestReturnFromApprovalRequiresOutstandingSend(t *testing.T) {
	dv := testDV(model.StatusForApproval)
	if _, err := ReturnFromApproval(dv, testNow, "approved", "alice", testNow); !isInvalidTransition(err) {
		t.Errorf("ReturnFromApproval before send: got %v, want InvalidTransitionError", err)
	}
}

func TestTransitionFieldsMatchHistoryDetails(t *testing.T) {
	trans, err := IssueRTS(testDV(model.StatusForReview), "reason", "alice", testNow)
	if err != nil {
		t.Fatalf("IssueRTS() error = %v", err)
	}
	if len(trans.Fields) == 0 {
		t.Fatal("transition carries no fields")
	}
	for column := range trans.Fields {
		if _, ok := trans.Entry.Details[column]; !ok {
			t.Errorf("history details missing changed field %q", column)
		}
	}
}

func isInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}
