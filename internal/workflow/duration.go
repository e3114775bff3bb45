package workflow

import (
	"math"
	"time"

	"github.com/kylabear/dv-tracking/internal/model"
)

// Duration is the derived processing time of a DV. A nil field means the
// value cannot be computed from the record's dates and is reported as "N/A".
type Duration struct {
	TotalDays   *int `json:"total_days"`
	OutsideDays *int `json:"outside_days"`
	InsideDays  *int `json:"inside_days"`
}

// ComputeDuration derives days-inside-accounting and total processing days
// from a DV's date fields. Durations that come out non-positive, usually from
// data-entry errors, are suppressed to N/A rather than shown as negatives.
func ComputeDuration(dv *model.DisbursementVoucher) Duration {
	if dv.LDDAPCertifiedDate == nil || dv.ReceivedDate.IsZero() {
		return Duration{}
	}

	total := ceilDays(dv.ReceivedDate, *dv.LDDAPCertifiedDate)

	outside := 0
	outside += pairDays(dv.ApprovalOutDate, dv.ApprovalInDate)
	outside += pairDays(dv.NORSAOut, dv.NORSAIn)
	outside += pairDays(dv.RTSOutDate, dv.RTSInDate)
	if dv.PaymentMethod == model.PaymentMethodPR {
		outside += pairDays(dv.PROutDate, dv.PRInDate)
	}

	inside := total - outside

	d := Duration{OutsideDays: &outside}
	if total > 0 {
		d.TotalDays = &total
	}
	if inside > 0 {
		d.InsideDays = &inside
	}
	return d
}

// pairDays counts the days between an out/in date pair. A pair missing either
// endpoint contributes nothing.
func pairDays(out, in *time.Time) int {
	if out == nil || in == nil {
		return 0
	}
	return ceilDays(*out, *in)
}

func ceilDays(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}
