package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DisbursementVoucher struct {
	ID               uuid.UUID       `json:"id" gorm:"column:id"`
	DVNumber         string          `json:"dv_number" gorm:"column:dv_number"`
	TransactionType  string          `json:"transaction_type" gorm:"column:transaction_type"`
	ImplementingUnit string          `json:"implementing_unit" gorm:"column:implementing_unit"`
	Payee            string          `json:"payee" gorm:"column:payee"`
	AccountNumber    string          `json:"account_number" gorm:"column:account_number"`
	Amount           decimal.Decimal `json:"amount" gorm:"column:amount"`
	Particulars      string          `json:"particulars" gorm:"column:particulars"`
	ReceivedDate     time.Time       `json:"received_date" gorm:"column:received_date"`

	Status      DVStatus     `json:"status" gorm:"column:status"`
	RTSOrigin   ReviewOrigin `json:"rts_origin,omitempty" gorm:"column:rts_origin"`
	NORSAOrigin ReviewOrigin `json:"norsa_origin,omitempty" gorm:"column:norsa_origin"`

	RTSOutDate  *time.Time `json:"rts_out_date,omitempty" gorm:"column:rts_out_date"`
	RTSInDate   *time.Time `json:"rts_in_date,omitempty" gorm:"column:rts_in_date"`
	RTSReason   string     `json:"rts_reason,omitempty" gorm:"column:rts_reason"`
	NORSAOut    *time.Time `json:"norsa_out_date,omitempty" gorm:"column:norsa_out_date"`
	NORSAIn     *time.Time `json:"norsa_in_date,omitempty" gorm:"column:norsa_in_date"`
	NORSAReason string     `json:"norsa_reason,omitempty" gorm:"column:norsa_reason"`

	CashAllocationNumber string              `json:"cash_allocation_number,omitempty" gorm:"column:cash_allocation_number"`
	CashAllocationDate   *time.Time          `json:"cash_allocation_date,omitempty" gorm:"column:cash_allocation_date"`
	NetAmount            decimal.NullDecimal `json:"net_amount,omitempty" gorm:"column:net_amount"`
	IsReallocated        bool                `json:"is_reallocated" gorm:"column:is_reallocated"`
	ReallocationDate     *time.Time          `json:"reallocation_date,omitempty" gorm:"column:reallocation_date"`
	ReallocationReason   string              `json:"reallocation_reason,omitempty" gorm:"column:reallocation_reason"`

	BoxCDate          *time.Time `json:"box_c_date,omitempty" gorm:"column:box_c_date"`
	CertificationDate *time.Time `json:"certification_date,omitempty" gorm:"column:certification_date"`

	ApprovalOutDate *time.Time `json:"approval_out_date,omitempty" gorm:"column:approval_out_date"`
	ApprovalInDate  *time.Time `json:"approval_in_date,omitempty" gorm:"column:approval_in_date"`
	ApprovalStatus  string     `json:"approval_status,omitempty" gorm:"column:approval_status"`

	IndexingDate *time.Time `json:"indexing_date,omitempty" gorm:"column:indexing_date"`
	IndexedBy    string     `json:"indexed_by,omitempty" gorm:"column:indexed_by"`

	PaymentMethod PaymentMethod `json:"payment_method,omitempty" gorm:"column:payment_method"`
	CheckNumber   string        `json:"check_number,omitempty" gorm:"column:check_number"`
	CheckDate     *time.Time    `json:"check_date,omitempty" gorm:"column:check_date"`
	LDDAPNumber   string        `json:"lddap_number,omitempty" gorm:"column:lddap_number"`
	LDDAPDate     *time.Time    `json:"lddap_date,omitempty" gorm:"column:lddap_date"`
	PRNumber      string        `json:"pr_number,omitempty" gorm:"column:pr_number"`
	PROutDate     *time.Time    `json:"pr_out_date,omitempty" gorm:"column:pr_out_date"`
	PRInDate      *time.Time    `json:"pr_in_date,omitempty" gorm:"column:pr_in_date"`

	EngasNumber string     `json:"engas_number,omitempty" gorm:"column:engas_number"`
	EngasDate   *time.Time `json:"engas_date,omitempty" gorm:"column:engas_date"`

	CDJDate       *time.Time `json:"cdj_date,omitempty" gorm:"column:cdj_date"`
	CDJRecordedBy string     `json:"cdj_recorded_by,omitempty" gorm:"column:cdj_recorded_by"`

	LDDAPCertifiedDate *time.Time `json:"lddap_certified_date,omitempty" gorm:"column:lddap_certified_date"`
	LDDAPCertifiedBy   string     `json:"lddap_certified_by,omitempty" gorm:"column:lddap_certified_by"`

	ORSEntries []ORSEntry     `json:"ors_entries" gorm:"-"`
	History    []HistoryEntry `json:"transaction_history" gorm:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// ORSEntry is one obligation request reference attached to a DV. Entries keep
// their insertion order and are never deduplicated by number.
type ORSEntry struct {
	ORSNumber  string `json:"ors_number" gorm:"column:ors_number"`
	FundSource string `json:"fund_source" gorm:"column:fund_source"`
	UACS       string `json:"uacs" gorm:"column:uacs"`
}

// HistoryEntry is one immutable row of a DV's audit trail. The engine appends
// exactly one per accepted transition; entries are never edited or reordered.
type HistoryEntry struct {
	Action  string                 `json:"action"`
	User    string                 `json:"user"`
	Date    time.Time              `json:"date"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// OutForApproval reports the derived sub-state of a DV that has been sent for
// approval and not yet returned. It is a classification, not a status value.
func (dv *DisbursementVoucher) OutForApproval() bool {
	return dv.ApprovalOutDate != nil && dv.ApprovalInDate == nil
}
