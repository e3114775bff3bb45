package workflow

import (
	"sort"
	"strings"
	"time"

	"github.com/kylabear/dv-tracking/internal/model"
)

// Tab is a view selector. Most tabs mirror a status literal; recents,
// for_review, for_box_c, for_cash_allocation and for_payment are synthetic
// groupings over more than one status or flag.
type Tab string

const (
	TabRecents           Tab = "recents"
	TabForReview         Tab = "for_review"
	TabForRTSIn          Tab = "for_rts_in"
	TabForNORSAIn        Tab = "for_norsa_in"
	TabForBoxC           Tab = "for_box_c"
	TabForApproval       Tab = "for_approval"
	TabForCashAllocation Tab = "for_cash_allocation"
	TabForIndexing       Tab = "for_indexing"
	TabForPayment        Tab = "for_payment"
	TabForEngas          Tab = "for_engas"
	TabForCDJ            Tab = "for_cdj"
	TabForLDDAP          Tab = "for_lddap"
	TabProcessed         Tab = "processed"
)

var AllTabs = []Tab{
	TabRecents,
	TabForReview,
	TabForRTSIn,
	TabForNORSAIn,
	TabForBoxC,
	TabForApproval,
	TabForCashAllocation,
	TabForIndexing,
	TabForPayment,
	TabForEngas,
	TabForCDJ,
	TabForLDDAP,
	TabProcessed,
}

func (t Tab) Valid() bool {
	for _, known := range AllTabs {
		if t == known {
			return true
		}
	}
	return false
}

// RecentsWindow is how far back the recents tab reaches.
const RecentsWindow = 7 * 24 * time.Hour

// Section is one labeled group of DVs inside a tab.
type Section struct {
	Label string                      `json:"label"`
	Items []model.DisbursementVoucher `json:"items"`
}

// TabView is the classified, searched content of one tab.
type TabView struct {
	Tab      Tab       `json:"tab"`
	Sections []Section `json:"sections"`
	Total    int       `json:"total"`
}

// BuildTab classifies every DV into the requested tab's sections, applying
// the search term. Input records are never mutated; apart from recents, which
// sorts newest-first, store order is preserved.
func BuildTab(dvs []model.DisbursementVoucher, tab Tab, search string, now time.Time) TabView {
	term := normalize(search)

	filtered := make([]model.DisbursementVoucher, 0, len(dvs))
	for _, dv := range dvs {
		if matchesSearch(&dv, term) {
			filtered = append(filtered, dv)
		}
	}

	view := TabView{Tab: tab}
	switch tab {
	case TabRecents:
		recent := pick(filtered, func(dv *model.DisbursementVoucher) bool {
			return now.Sub(dv.CreatedAt) <= RecentsWindow
		})
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		})
		view.Sections = []Section{{Label: "recents", Items: recent}}

	case TabForReview:
		view.Sections = []Section{
			{Label: "for_review", Items: pickStatus(filtered, model.StatusForReview)},
			{Label: "for_rts_in", Items: pickStatus(filtered, model.StatusForRTSIn)},
			{Label: "for_norsa_in", Items: pickStatus(filtered, model.StatusForNORSAIn)},
		}

	case TabForRTSIn:
		view.Sections = reviewCycleSections(filtered, model.StatusForRTSIn,
			func(dv *model.DisbursementVoucher) model.ReviewOrigin { return dv.RTSOrigin })

	case TabForNORSAIn:
		view.Sections = reviewCycleSections(filtered, model.StatusForNORSAIn,
			func(dv *model.DisbursementVoucher) model.ReviewOrigin { return dv.NORSAOrigin })

	case TabForBoxC:
		view.Sections = []Section{
			{Label: "for_box_c", Items: pickStatus(filtered, model.StatusForBoxC)},
			{Label: "in_review_cycle", Items: pick(filtered, func(dv *model.DisbursementVoucher) bool {
				return (dv.Status == model.StatusForRTSIn && dv.RTSOrigin == model.OriginBoxC) ||
					(dv.Status == model.StatusForNORSAIn && dv.NORSAOrigin == model.OriginBoxC)
			})},
		}

	case TabForApproval:
		view.Sections = []Section{
			{Label: "awaiting_send", Items: pick(filtered, func(dv *model.DisbursementVoucher) bool {
				return dv.Status == model.StatusForApproval && dv.ApprovalOutDate == nil
			})},
			{Label: "out_for_approval", Items: pick(filtered, func(dv *model.DisbursementVoucher) bool {
				return dv.Status == model.StatusForApproval && dv.OutForApproval()
			})},
		}

	case TabForCashAllocation:
		view.Sections = []Section{
			{Label: "new_allocations", Items: pick(filtered, func(dv *model.DisbursementVoucher) bool {
				return dv.Status == model.StatusForCashAllocation && !dv.IsReallocated
			})},
			{Label: "for_reallocation", Items: pick(filtered, func(dv *model.DisbursementVoucher) bool {
				return dv.Status == model.StatusForCashAllocation && dv.IsReallocated
			})},
		}

	case TabForPayment:
		view.Sections = []Section{{Label: "for_payment", Items: pick(filtered, func(dv *model.DisbursementVoucher) bool {
			return dv.Status == model.StatusForPayment || dv.Status == model.StatusOutToCashiering
		})}}

	default:
		view.Sections = []Section{{Label: string(tab), Items: pickStatus(filtered, model.DVStatus(tab))}}
	}

	for _, section := range view.Sections {
		view.Total += len(section.Items)
	}
	return view
}

// Counts computes the membership count of every tab in one pass per tab.
func Counts(dvs []model.DisbursementVoucher, now time.Time) map[Tab]int {
	counts := make(map[Tab]int, len(AllTabs))
	for _, tab := range AllTabs {
		counts[tab] = BuildTab(dvs, tab, "", now).Total
	}
	return counts
}

// reviewCycleSections splits a standalone RTS/NORSA tab by the stage the
// cycle came from. Box C origins are shown under the for_box_c tab instead.
func reviewCycleSections(dvs []model.DisbursementVoucher, status model.DVStatus, originOf func(*model.DisbursementVoucher) model.ReviewOrigin) []Section {
	return []Section{
		{Label: "from_review", Items: pick(dvs, func(dv *model.DisbursementVoucher) bool {
			origin := originOf(dv)
			return dv.Status == status && (origin == model.OriginReview || origin == model.OriginNone)
		})},
		{Label: "from_cash_allocation", Items: pick(dvs, func(dv *model.DisbursementVoucher) bool {
			return dv.Status == status && originOf(dv) == model.OriginCashAllocation
		})},
	}
}

func pick(dvs []model.DisbursementVoucher, keep func(*model.DisbursementVoucher) bool) []model.DisbursementVoucher {
	out := make([]model.DisbursementVoucher, 0)
	for _, dv := range dvs {
		if keep(&dv) {
			out = append(out, dv)
		}
	}
	return out
}

func pickStatus(dvs []model.DisbursementVoucher, status model.DVStatus) []model.DisbursementVoucher {
	return pick(dvs, func(dv *model.DisbursementVoucher) bool { return dv.Status == status })
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchesSearch reports whether the normalized term is a substring of any of
// the five searched fields. An empty term matches everything.
func matchesSearch(dv *model.DisbursementVoucher, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range []string{dv.DVNumber, dv.Payee, dv.TransactionType, dv.AccountNumber, dv.Particulars} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
