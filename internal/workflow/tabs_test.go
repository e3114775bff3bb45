package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kylabear/dv-tracking/internal/model"
)

func tabDV(status model.DVStatus, createdAgo time.Duration, now time.Time) model.DisbursementVoucher {
	return model.DisbursementVoucher{
		ID:        uuid.New(),
		DVNumber:  "2024-01-00001",
		Payee:     "Provincial Treasurer",
		Status:    status,
		CreatedAt: now.Add(-createdAgo),
	}
}

func section(t *testing.T, view TabView, label string) Section {
	t.Helper()
	for _, s := range view.Sections {
		if s.Label == label {
			return s
		}
	}
	t.Fatalf("tab %q has no section %q", view.Tab, label)
	return Section{}
}

func TestRecentsIgnoresStatusAndSortsNewestFirst(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	old := tabDV(model.StatusForPayment, 8*24*time.Hour, now)
	newer := tabDV(model.StatusProcessed, 2*24*time.Hour, now)
	newest := tabDV(model.StatusForReview, 1*24*time.Hour, now)

	view := BuildTab([]model.DisbursementVoucher{old, newer, newest}, TabRecents, "", now)
	if view.Total != 2 {
		t.Fatalf("recents total = %d, want 2", view.Total)
	}
	items := view.Sections[0].Items
	if items[0].ID != newest.ID || items[1].ID != newer.ID {
		t.Error("recents not sorted newest-first")
	}

	// The 8-day-old DV still shows under its status tab.
	payment := BuildTab([]model.DisbursementVoucher{old, newer, newest}, TabForPayment, "", now)
	if payment.Total != 1 {
		t.Errorf("for_payment total = %d, want 1", payment.Total)
	}
}

func TestForReviewAggregatesThreeStatuses(t *testing.T) {
	now := time.Now()
	dvs := []model.DisbursementVoucher{
		tabDV(model.StatusForReview, time.Hour, now),
		tabDV(model.StatusForRTSIn, time.Hour, now),
		tabDV(model.StatusForNORSAIn, time.Hour, now),
		tabDV(model.StatusForBoxC, time.Hour, now),
	}

	view := BuildTab(dvs, TabForReview, "", now)
	if view.Total != 3 {
		t.Fatalf("for_review total = %d, want 3", view.Total)
	}
	for _, label := range []string{"for_review", "for_rts_in", "for_norsa_in"} {
		if got := len(section(t, view, label).Items); got != 1 {
			t.Errorf("section %q has %d items, want 1", label, got)
		}
	}
}

func TestRTSTabSplitsByOrigin(t *testing.T) {
	now := time.Now()
	fromReview := tabDV(model.StatusForRTSIn, time.Hour, now)
	fromReview.RTSOrigin = model.OriginReview
	legacy := tabDV(model.StatusForRTSIn, time.Hour, now) // no origin recorded
	fromCash := tabDV(model.StatusForRTSIn, time.Hour, now)
	fromCash.RTSOrigin = model.OriginCashAllocation
	fromBoxC := tabDV(model.StatusForRTSIn, time.Hour, now)
	fromBoxC.RTSOrigin = model.OriginBoxC

	view := BuildTab([]model.DisbursementVoucher{fromReview, legacy, fromCash, fromBoxC}, TabForRTSIn, "", now)
	if got := len(section(t, view, "from_review").Items); got != 2 {
		t.Errorf("from_review has %d items, want 2", got)
	}
	if got := len(section(t, view, "from_cash_allocation").Items); got != 1 {
		t.Errorf("from_cash_allocation has %d items, want 1", got)
	}

	// Box C origins surface under the for_box_c tab instead.
	boxC := BuildTab([]model.DisbursementVoucher{fromReview, legacy, fromCash, fromBoxC}, TabForBoxC, "", now)
	if got := len(section(t, boxC, "in_review_cycle").Items); got != 1 {
		t.Errorf("for_box_c in_review_cycle has %d items, want 1", got)
	}
}

func TestApprovalTabSplitsBySendState(t *testing.T) {
	now := time.Now()
	awaiting := tabDV(model.StatusForApproval, time.Hour, now)
	out := tabDV(model.StatusForApproval, time.Hour, now)
	outDate := now.Add(-time.Hour)
	out.ApprovalOutDate = &outDate

	view := BuildTab([]model.DisbursementVoucher{awaiting, out}, TabForApproval, "", now)
	if got := len(section(t, view, "awaiting_send").Items); got != 1 {
		t.Errorf("awaiting_send has %d items, want 1", got)
	}
	if got := len(section(t, view, "out_for_approval").Items); got != 1 {
		t.Errorf("out_for_approval has %d items, want 1", got)
	}
}

func TestCashAllocationSplitSumsToStatusTotal(t *testing.T) {
	now := time.Now()
	var dvs []model.DisbursementVoucher
	for i := 0; i < 3; i++ {
		dvs = append(dvs, tabDV(model.StatusForCashAllocation, time.Hour, now))
	}
	realloc := tabDV(model.StatusForCashAllocation, time.Hour, now)
	realloc.IsReallocated = true
	dvs = append(dvs, realloc)
	dvs = append(dvs, tabDV(model.StatusForPayment, time.Hour, now))

	view := BuildTab(dvs, TabForCashAllocation, "", now)
	newAlloc := len(section(t, view, "new_allocations").Items)
	forRealloc := len(section(t, view, "for_reallocation").Items)
	if newAlloc != 3 || forRealloc != 1 {
		t.Errorf("split = %d/%d, want 3/1", newAlloc, forRealloc)
	}

	statusTotal := 0
	for _, dv := range dvs {
		if dv.Status == model.StatusForCashAllocation {
			statusTotal++
		}
	}
	if newAlloc+forRealloc != statusTotal {
		t.Errorf("section sum %d != status total %d", newAlloc+forRealloc, statusTotal)
	}
}

func TestPaymentTabIncludesCashiering(t *testing.T) {
	now := time.Now()
	dvs := []model.DisbursementVoucher{
		tabDV(model.StatusForPayment, time.Hour, now),
		tabDV(model.StatusOutToCashiering, time.Hour, now),
		tabDV(model.StatusForEngas, time.Hour, now),
	}
	view := BuildTab(dvs, TabForPayment, "", now)
	if view.Total != 2 {
		t.Errorf("for_payment total = %d, want 2", view.Total)
	}
}

func TestSearchMatchesOnlyFiveFields(t *testing.T) {
	now := time.Now()
	dv := tabDV(model.StatusForReview, time.Hour, now)
	dv.Particulars = "Payment for office supplies"
	dv.ORSEntries = []model.ORSEntry{{ORSNumber: "01-01234567-2024-01-000123", UACS: "50202010-02"}}

	tests := []struct {
		name   string
		search string
		want   int
	}{
		{"empty matches", "", 1},
		{"dv number", "2024-01", 1},
		{"payee case-insensitive", "provincial TREASURER", 1},
		{"particulars substring", "office supplies", 1},
		{"whitespace trimmed", "  office supplies  ", 1},
		{"uacs lives outside the searched fields", "50202010-02", 0},
		{"no match", "garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := BuildTab([]model.DisbursementVoucher{dv}, TabForReview, tt.search, now)
			if view.Total != tt.want {
				t.Errorf("total = %d, want %d", view.Total, tt.want)
			}
		})
	}
}

func TestCountsCoverEveryTab(t *testing.T) {
	now := time.Now()
	dvs := []model.DisbursementVoucher{
		tabDV(model.StatusForReview, time.Hour, now),
		tabDV(model.StatusProcessed, time.Hour, now),
	}
	counts := Counts(dvs, now)
	if len(counts) != len(AllTabs) {
		t.Fatalf("counts has %d tabs, want %d", len(counts), len(AllTabs))
	}
	if counts[TabRecents] != 2 {
		t.Errorf("recents count = %d, want 2", counts[TabRecents])
	}
	if counts[TabProcessed] != 1 {
		t.Errorf("processed count = %d, want 1", counts[TabProcessed])
	}
}
