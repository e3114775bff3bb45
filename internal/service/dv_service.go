package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kylabear/dv-tracking/internal/model"
	"github.com/kylabear/dv-tracking/internal/workflow"
)

// Store is the persistence contract for DV records. ApplyTransition must
// write the field set and insert the history entry in one transaction; a
// failed write leaves the record unchanged.
type Store interface {
	Create(ctx context.Context, dv *model.DisbursementVoucher) error
	List(ctx context.Context) ([]model.DisbursementVoucher, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.DisbursementVoucher, error)
	ApplyTransition(ctx context.Context, dv *model.DisbursementVoucher, fields map[string]interface{}, entry model.HistoryEntry) error
}

type DVService struct {
	store Store
	now   func() time.Time
}

func NewDVService(store Store) *DVService {
	return &DVService{store: store, now: time.Now}
}

// WithClock overrides the transition timestamp source. Tests use it to pin
// "now".
func (s *DVService) WithClock(now func() time.Time) *DVService {
	s.now = now
	return s
}

type CreateInput struct {
	DVNumber         string
	TransactionType  string
	ImplementingUnit string
	Payee            string
	AccountNumber    string
	Amount           decimal.Decimal
	Particulars      string
	ReceivedDate     time.Time
	ORSEntries       []model.ORSEntry
}

// Create registers a DV at intake. New records always start at for_review
// with one "received" history entry.
func (s *DVService) Create(ctx context.Context, in CreateInput, actor string) (*model.DisbursementVoucher, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	now := s.now()
	dv := &model.DisbursementVoucher{
		ID:               uuid.New(),
		DVNumber:         in.DVNumber,
		TransactionType:  in.TransactionType,
		ImplementingUnit: in.ImplementingUnit,
		Payee:            in.Payee,
		AccountNumber:    in.AccountNumber,
		Amount:           in.Amount,
		Particulars:      in.Particulars,
		ReceivedDate:     in.ReceivedDate,
		Status:           model.StatusForReview,
		ORSEntries:       in.ORSEntries,
		History: []model.HistoryEntry{{
			Action: "received",
			User:   actor,
			Date:   now,
			Details: map[string]interface{}{
				"status":        model.StatusForReview,
				"received_date": in.ReceivedDate,
			},
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, dv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return dv, nil
}

func (s *DVService) Get(ctx context.Context, id uuid.UUID) (*model.DisbursementVoucher, error) {
	dv, err := s.store.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dv, nil
}

func (s *DVService) List(ctx context.Context) ([]model.DisbursementVoucher, error) {
	return s.store.List(ctx)
}

// Tab classifies the full record set into the requested tab's sections,
// applying the search term.
func (s *DVService) Tab(ctx context.Context, tab workflow.Tab, search string) (*workflow.TabView, error) {
	if !tab.Valid() {
		return nil, fmt.Errorf("%w: unknown tab %q", ErrInvalidInput, tab)
	}
	dvs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	view := workflow.BuildTab(dvs, tab, search, s.now())
	return &view, nil
}

func (s *DVService) Counts(ctx context.Context) (map[workflow.Tab]int, error) {
	dvs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return workflow.Counts(dvs, s.now()), nil
}

func (s *DVService) Duration(ctx context.Context, id uuid.UUID) (*workflow.Duration, error) {
	dv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := workflow.ComputeDuration(dv)
	return &d, nil
}

func (s *DVService) History(ctx context.Context, id uuid.UUID) ([]model.HistoryEntry, error) {
	dv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dv.History, nil
}

// apply runs one engine operation against the current record and persists
// the accepted transition atomically.
func (s *DVService) apply(ctx context.Context, id uuid.UUID, op func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error)) (*model.DisbursementVoucher, error) {
	dv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := op(*dv, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplyTransition(ctx, &t.DV, t.Fields, t.Entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return &t.DV, nil
}

func (s *DVService) IssueRTS(ctx context.Context, id uuid.UUID, reason, actor string) (*model.DisbursementVoucher, error) {
	if err := validateReason("rts_reason", reason); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.IssueRTS(dv, reason, actor, now)
	})
}

func (s *DVService) IssueNORSA(ctx context.Context, id uuid.UUID, reason, actor string) (*model.DisbursementVoucher, error) {
	if err := validateReason("norsa_reason", reason); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.IssueNORSA(dv, reason, actor, now)
	})
}

func (s *DVService) ResolveRTS(ctx context.Context, id uuid.UUID, actor string) (*model.DisbursementVoucher, error) {
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.ResolveRTS(dv, actor, now)
	})
}

func (s *DVService) ResolveNORSA(ctx context.Context, id uuid.UUID, actor string) (*model.DisbursementVoucher, error) {
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.ResolveNORSA(dv, actor, now)
	})
}

func (s *DVService) AllocateCash(ctx context.Context, id uuid.UUID, number string, date time.Time, netAmount decimal.Decimal, actor string) (*model.DisbursementVoucher, error) {
	if err := validateAllocateCash(number, netAmount); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.AllocateCash(dv, number, date, netAmount, actor, now)
	})
}

func (s *DVService) CertifyBoxC(ctx context.Context, id uuid.UUID, boxCDate, certificationDate time.Time, actor string) (*model.DisbursementVoucher, error) {
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.CertifyBoxC(dv, boxCDate, certificationDate, actor, now)
	})
}

func (s *DVService) SendForApproval(ctx context.Context, id uuid.UUID, outDate time.Time, actor string) (*model.DisbursementVoucher, error) {
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		if outDate.IsZero() {
			outDate = now
		}
		return workflow.SendForApproval(dv, outDate, actor, now)
	})
}

func (s *DVService) ReturnFromApproval(ctx context.Context, id uuid.UUID, inDate time.Time, approvalStatus, actor string) (*model.DisbursementVoucher, error) {
	if err := validateReason("approval_status", approvalStatus); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		if inDate.IsZero() {
			inDate = now
		}
		return workflow.ReturnFromApproval(dv, inDate, approvalStatus, actor, now)
	})
}

func (s *DVService) RecordIndexing(ctx context.Context, id uuid.UUID, indexedBy string, date time.Time, actor string) (*model.DisbursementVoucher, error) {
	if err := validateReason("indexed_by", indexedBy); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		if date.IsZero() {
			date = now
		}
		return workflow.RecordIndexing(dv, indexedBy, date, actor, now)
	})
}

func (s *DVService) SetPaymentMethod(ctx context.Context, id uuid.UUID, method model.PaymentMethod, fields workflow.PaymentFields, actor string) (*model.DisbursementVoucher, error) {
	if err := validatePaymentFields(method, fields); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.SetPaymentMethod(dv, method, fields, actor, now)
	})
}

func (s *DVService) ReturnFromCashiering(ctx context.Context, id uuid.UUID, actor string) (*model.DisbursementVoucher, error) {
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.ReturnFromCashiering(dv, actor, now)
	})
}

func (s *DVService) RecordEngas(ctx context.Context, id uuid.UUID, number string, date time.Time, actor string) (*model.DisbursementVoucher, error) {
	if err := validateReason("engas_number", number); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		if date.IsZero() {
			date = now
		}
		return workflow.RecordEngas(dv, number, date, actor, now)
	})
}

func (s *DVService) RecordCDJ(ctx context.Context, id uuid.UUID, date time.Time, recordedBy, actor string) (*model.DisbursementVoucher, error) {
	if err := validateReason("cdj_recorded_by", recordedBy); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		if date.IsZero() {
			date = now
		}
		return workflow.RecordCDJ(dv, date, recordedBy, actor, now)
	})
}

func (s *DVService) CertifyLDDAP(ctx context.Context, id uuid.UUID, certifiedDate time.Time, certifiedBy, actor string) (*model.DisbursementVoucher, error) {
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		if certifiedDate.IsZero() {
			certifiedDate = now
		}
		return workflow.CertifyLDDAP(dv, certifiedDate, certifiedBy, actor, now)
	})
}

func (s *DVService) ReallocateCash(ctx context.Context, id uuid.UUID, reason, actor string) (*model.DisbursementVoucher, error) {
	if err := validateReason("reallocation_reason", reason); err != nil {
		return nil, err
	}
	return s.apply(ctx, id, func(dv model.DisbursementVoucher, now time.Time) (*workflow.Transition, error) {
		return workflow.ReallocateCash(dv, reason, actor, now)
	})
}
