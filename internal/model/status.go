package model

import (
	"database/sql/driver"
	"fmt"
)

type DVStatus string

const (
	StatusForReview         DVStatus = "for_review"
	StatusForRTSIn          DVStatus = "for_rts_in"
	StatusForNORSAIn        DVStatus = "for_norsa_in"
	StatusForBoxC           DVStatus = "for_box_c"
	StatusForApproval       DVStatus = "for_approval"
	StatusForCashAllocation DVStatus = "for_cash_allocation"
	StatusForIndexing       DVStatus = "for_indexing"
	StatusForPayment        DVStatus = "for_payment"
	StatusOutToCashiering   DVStatus = "out_to_cashiering"
	StatusForEngas          DVStatus = "for_engas"
	StatusForCDJ            DVStatus = "for_cdj"
	StatusForLDDAP          DVStatus = "for_lddap"
	StatusProcessed         DVStatus = "processed"
)

// AllStatuses lists the closed enumeration in canonical workflow order.
var AllStatuses = []DVStatus{
	StatusForReview,
	StatusForRTSIn,
	StatusForNORSAIn,
	StatusForBoxC,
	StatusForApproval,
	StatusForCashAllocation,
	StatusForIndexing,
	StatusForPayment,
	StatusOutToCashiering,
	StatusForEngas,
	StatusForCDJ,
	StatusForLDDAP,
	StatusProcessed,
}

func (s DVStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ReviewOrigin records which stage a DV entered an RTS/NORSA cycle from, so
// resolution can route it back to the same stage. The empty value means no
// cycle is in flight.
type ReviewOrigin string

const (
	OriginNone           ReviewOrigin = ""
	OriginReview         ReviewOrigin = "review"
	OriginCashAllocation ReviewOrigin = "cash_allocation"
	OriginBoxC           ReviewOrigin = "box_c"
)

// OriginOf maps a status that may issue an RTS/NORSA cycle to its origin tag.
// Statuses outside the three legal entry points map to OriginNone.
func OriginOf(s DVStatus) ReviewOrigin {
	switch s {
	case StatusForReview:
		return OriginReview
	case StatusForCashAllocation:
		return OriginCashAllocation
	case StatusForBoxC:
		return OriginBoxC
	default:
		return OriginNone
	}
}

// ResumeStatus maps a recorded origin back to the status a resolved cycle
// returns to. The second return is false when no origin was recorded, which
// leaves the resume target ambiguous.
func ResumeStatus(o ReviewOrigin) (DVStatus, bool) {
	switch o {
	case OriginReview:
		return StatusForReview, true
	case OriginCashAllocation:
		return StatusForCashAllocation, true
	case OriginBoxC:
		return StatusForBoxC, true
	default:
		return "", false
	}
}

// Value stores the empty origin as NULL; the database enum has no blank
// member.
func (o ReviewOrigin) Value() (driver.Value, error) {
	if o == OriginNone {
		return nil, nil
	}
	return string(o), nil
}

func (o *ReviewOrigin) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*o = OriginNone
	case string:
		*o = ReviewOrigin(v)
	case []byte:
		*o = ReviewOrigin(v)
	default:
		return fmt.Errorf("unsupported review origin value %T", value)
	}
	return nil
}

type PaymentMethod string

const (
	PaymentMethodCheck PaymentMethod = "check"
	PaymentMethodLDDAP PaymentMethod = "lddap"
	PaymentMethodPR    PaymentMethod = "pr"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCheck, PaymentMethodLDDAP, PaymentMethodPR:
		return true
	}
	return false
}

func (m PaymentMethod) Value() (driver.Value, error) {
	if m == "" {
		return nil, nil
	}
	return string(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = ""
	case string:
		*m = PaymentMethod(v)
	case []byte:
		*m = PaymentMethod(v)
	default:
		return fmt.Errorf("unsupported payment method value %T", value)
	}
	return nil
}
