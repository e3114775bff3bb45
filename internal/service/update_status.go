package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kylabear/dv-tracking/internal/model"
	"github.com/kylabear/dv-tracking/internal/workflow"
)

// UpdateStatusInput is the generic status-update payload: the target status
// plus whichever status-specific extras the implied operation needs.
type UpdateStatusInput struct {
	Status model.DVStatus

	Reason string

	CashAllocationNumber string
	CashAllocationDate   *time.Time
	NetAmount            *decimal.Decimal

	BoxCDate          *time.Time
	CertificationDate *time.Time

	ApprovalInDate *time.Time
	ApprovalStatus string

	IndexedBy    string
	IndexingDate *time.Time

	PaymentMethod model.PaymentMethod
	Payment       workflow.PaymentFields

	EngasNumber string
	EngasDate   *time.Time

	CDJDate       *time.Time
	CDJRecordedBy string

	LDDAPDate        *time.Time
	LDDAPCertifiedBy string
}

// UpdateStatus maps a requested target status onto the transition that
// produces it from the DV's current status, then runs that transition. It
// exists for callers that talk in statuses rather than operations.
func (s *DVService) UpdateStatus(ctx context.Context, id uuid.UUID, in UpdateStatusInput, actor string) (*model.DisbursementVoucher, error) {
	if !in.Status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch in.Status {
	case model.StatusForRTSIn:
		return s.IssueRTS(ctx, id, in.Reason, actor)

	case model.StatusForNORSAIn:
		return s.IssueNORSA(ctx, id, in.Reason, actor)

	case model.StatusForReview:
		if resolved, ok, err := s.resolveTo(ctx, id, current, model.OriginReview, actor); ok {
			return resolved, err
		}

	case model.StatusForCashAllocation:
		if resolved, ok, err := s.resolveTo(ctx, id, current, model.OriginCashAllocation, actor); ok {
			return resolved, err
		}
		if current.Status == model.StatusProcessed {
			return s.ReallocateCash(ctx, id, in.Reason, actor)
		}

	case model.StatusForBoxC:
		if resolved, ok, err := s.resolveTo(ctx, id, current, model.OriginBoxC, actor); ok {
			return resolved, err
		}
		return s.AllocateCash(ctx, id, in.CashAllocationNumber, dateOr(in.CashAllocationDate, s.now()), decimalOr(in.NetAmount), actor)

	case model.StatusForApproval:
		return s.CertifyBoxC(ctx, id, dateOr(in.BoxCDate, s.now()), dateOr(in.CertificationDate, s.now()), actor)

	case model.StatusForIndexing:
		return s.ReturnFromApproval(ctx, id, dateOr(in.ApprovalInDate, time.Time{}), in.ApprovalStatus, actor)

	case model.StatusForPayment:
		return s.RecordIndexing(ctx, id, in.IndexedBy, dateOr(in.IndexingDate, time.Time{}), actor)

	case model.StatusOutToCashiering:
		return s.SetPaymentMethod(ctx, id, in.PaymentMethod, in.Payment, actor)

	case model.StatusForEngas:
		return s.ReturnFromCashiering(ctx, id, actor)

	case model.StatusForCDJ:
		return s.RecordEngas(ctx, id, in.EngasNumber, dateOr(in.EngasDate, time.Time{}), actor)

	case model.StatusForLDDAP:
		return s.RecordCDJ(ctx, id, dateOr(in.CDJDate, time.Time{}), in.CDJRecordedBy, actor)

	case model.StatusProcessed:
		return s.CertifyLDDAP(ctx, id, dateOr(in.LDDAPDate, time.Time{}), in.LDDAPCertifiedBy, actor)
	}

	return nil, &workflow.InvalidTransitionError{Current: current.Status, Action: "update status to " + string(in.Status)}
}

// resolveTo runs the review-cycle resolution when the current record is in an
// RTS/NORSA cycle whose origin matches the requested target. The second
// return reports whether a resolution applied.
func (s *DVService) resolveTo(ctx context.Context, id uuid.UUID, current *model.DisbursementVoucher, origin model.ReviewOrigin, actor string) (*model.DisbursementVoucher, bool, error) {
	switch {
	case current.Status == model.StatusForRTSIn && current.RTSOrigin == origin:
		dv, err := s.ResolveRTS(ctx, id, actor)
		return dv, true, err
	case current.Status == model.StatusForNORSAIn && current.NORSAOrigin == origin:
		dv, err := s.ResolveNORSA(ctx, id, actor)
		return dv, true, err
	}
	return nil, false, nil
}

func dateOr(t *time.Time, fallback time.Time) time.Time {
	if t != nil {
		return *t
	}
	return fallback
}

func decimalOr(d *decimal.Decimal) decimal.Decimal {
	if d != nil {
		return *d
	}
	return decimal.Zero
}
