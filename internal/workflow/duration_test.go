package workflow

import (
	"testing"
	"time"

	"github.com/kylabear/dv-tracking/internal/model"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeDuration(t *testing.T) {
	tests := []struct {
		name        string
		dv          model.DisbursementVoucher
		wantTotal   *int
		wantOutside *int
		wantInside  *int
	}{
		{
			name: "approval leg subtracted",
			dv: model.DisbursementVoucher{
				ReceivedDate:       *date(2024, 1, 1),
				LDDAPCertifiedDate: date(2024, 1, 11),
				ApprovalOutDate:    date(2024, 1, 3),
				ApprovalInDate:     date(2024, 1, 5),
			},
			wantTotal:   intp(10),
			wantOutside: intp(2),
			wantInside:  intp(8),
		},
		{
			name: "no certification date means no answer",
			dv: model.DisbursementVoucher{
				ReceivedDate:    *date(2024, 1, 1),
				ApprovalOutDate: date(2024, 1, 3),
				ApprovalInDate:  date(2024, 1, 5),
			},
		},
		{
			name: "open pairs contribute nothing",
			dv: model.DisbursementVoucher{
				ReceivedDate:       *date(2024, 1, 1),
				LDDAPCertifiedDate: date(2024, 1, 11),
				ApprovalOutDate:    date(2024, 1, 3),
				RTSOutDate:         date(2024, 1, 6),
			},
			wantTotal:   intp(10),
			wantOutside: intp(0),
			wantInside:  intp(10),
		},
		{
			name: "rts and norsa legs accumulate",
			dv: model.DisbursementVoucher{
				ReceivedDate:       *date(2024, 1, 1),
				LDDAPCertifiedDate: date(2024, 1, 21),
				RTSOutDate:         date(2024, 1, 2),
				RTSInDate:          date(2024, 1, 4),
				NORSAOut:           date(2024, 1, 10),
				NORSAIn:            date(2024, 1, 13),
			},
			wantTotal:   intp(20),
			wantOutside: intp(5),
			wantInside:  intp(15),
		},
		{
			name: "pr leg counted only for pr payments",
			dv: model.DisbursementVoucher{
				ReceivedDate:       *date(2024, 1, 1),
				LDDAPCertifiedDate: date(2024, 1, 11),
				PaymentMethod:      model.PaymentMethodCheck,
				PROutDate:          date(2024, 1, 2),
				PRInDate:           date(2024, 1, 4),
			},
			wantTotal:   intp(10),
			wantOutside: intp(0),
			wantInside:  intp(10),
		},
		{
			name: "pr leg counted for pr payments",
			dv: model.DisbursementVoucher{
				ReceivedDate:       *date(2024, 1, 1),
				LDDAPCertifiedDate: date(2024, 1, 11),
				PaymentMethod:      model.PaymentMethodPR,
				PROutDate:          date(2024, 1, 2),
				PRInDate:           date(2024, 1, 4),
			},
			wantTotal:   intp(10),
			wantOutside: intp(2),
			wantInside:  intp(8),
		},
		{
			name: "negative inside suppressed",
			dv: model.DisbursementVoucher{
				ReceivedDate:       *date(2024, 1, 1),
				LDDAPCertifiedDate: date(2024, 1, 3),
				ApprovalOutDate:    date(2024, 1, 1),
				ApprovalInDate:     date(2024, 1, 6),
			},
			wantTotal:   intp(2),
			wantOutside: intp(5),
			wantInside:  nil,
		},
		{
			name: "negative total suppressed",
			dv: model.DisbursementVoucher{
				ReceivedDate:       *date(2024, 1, 10),
				LDDAPCertifiedDate: date(2024, 1, 1),
			},
			wantTotal:   nil,
			wantOutside: intp(0),
			wantInside:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDuration(&tt.dv)
			assertDays(t, "total", got.TotalDays, tt.wantTotal)
			assertDays(t, "outside", got.OutsideDays, tt.wantOutside)
			assertDays(t, "inside", got.InsideDays, tt.wantInside)
		})
	}
}

func assertDays(t *testing.T, label string, got, want *int) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s days = %d, want N/A", label, *got)
	case want != nil && got == nil:
		t.Errorf("%s days = N/A, want %d", label, *want)
	case want != nil && got != nil && *got != *want:
		t.Errorf("%s days = %d, want %d", label, *got, *want)
	}
}

func intp(v int) *int { return &v }
