// Package workflow implements the DV lifecycle state machine: transition
// rules, processing-duration math, and tab classification. Everything here is
// pure; persistence happens in the service layer.
package workflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kylabear/dv-tracking/internal/model"
)

// Transition is the result of one accepted state-machine operation: the
// updated record, the single audit entry to append, and the column set the
// store must write atomically.
type Transition struct {
	DV     model.DisbursementVoucher
	Entry  model.HistoryEntry
	Fields map[string]interface{}
}

// InvalidTransitionError reports an operation that is not legal from the DV's
// current status. The record is left untouched.
type InvalidTransitionError struct {
	Current model.DVStatus
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from status %q", e.Action, e.Current)
}

func invalid(current model.DVStatus, action string) error {
	return &InvalidTransitionError{Current: current, Action: action}
}

func finish(dv model.DisbursementVoucher, action, actor string, now time.Time, fields map[string]interface{}) *Transition {
	dv.UpdatedAt = now
	entry := model.HistoryEntry{
		Action:  action,
		User:    actor,
		Date:    now,
		Details: fields,
	}
	dv.History = append(dv.History, entry)
	return &Transition{DV: dv, Entry: entry, Fields: fields}
}

// IssueRTS sends a DV back to the submitter. Legal only from the three review
// entry points; the origin tag records where to resume on resolution.
func IssueRTS(dv model.DisbursementVoucher, reason, actor string, now time.Time) (*Transition, error) {
	origin := model.OriginOf(dv.Status)
	if origin == model.OriginNone {
		return nil, invalid(dv.Status, "issue RTS")
	}
	dv.Status = model.StatusForRTSIn
	dv.RTSOrigin = origin
	dv.RTSOutDate = &now
	dv.RTSInDate = nil
	dv.RTSReason = reason
	return finish(dv, "issue_rts", actor, now, map[string]interface{}{
		"status":       dv.Status,
		"rts_origin":   origin,
		"rts_out_date": now,
		"rts_in_date":  nil,
		"rts_reason":   reason,
	}), nil
}

// IssueNORSA mirrors IssueRTS for the supporting-attachment cycle.
func IssueNORSA(dv model.DisbursementVoucher, reason, actor string, now time.Time) (*Transition, error) {
	origin := model.OriginOf(dv.Status)
	if origin == model.OriginNone {
		return nil, invalid(dv.Status, "issue NORSA")
	}
	dv.Status = model.StatusForNORSAIn
	dv.NORSAOrigin = origin
	dv.NORSAOut = &now
	dv.NORSAIn = nil
	dv.NORSAReason = reason
	return finish(dv, "issue_norsa", actor, now, map[string]interface{}{
		"status":         dv.Status,
		"norsa_origin":   origin,
		"norsa_out_date": now,
		"norsa_in_date":  nil,
		"norsa_reason":   reason,
	}), nil
}

// ResolveRTS receives a corrected DV back and resumes it at the stage that
// issued the cycle. A missing origin tag makes the resume target ambiguous,
// so it is rejected rather than guessed.
func ResolveRTS(dv model.DisbursementVoucher, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForRTSIn {
		return nil, invalid(dv.Status, "resolve RTS")
	}
	resume, ok := model.ResumeStatus(dv.RTSOrigin)
	if !ok {
		return nil, invalid(dv.Status, "resolve RTS without recorded origin")
	}
	dv.Status = resume
	dv.RTSOrigin = model.OriginNone
	dv.RTSInDate = &now
	return finish(dv, "resolve_rts", actor, now, map[string]interface{}{
		"status":      dv.Status,
		"rts_origin":  model.OriginNone,
		"rts_in_date": now,
	}), nil
}

// ResolveNORSA mirrors ResolveRTS.
func ResolveNORSA(dv model.DisbursementVoucher, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForNORSAIn {
		return nil, invalid(dv.Status, "resolve NORSA")
	}
	resume, ok := model.ResumeStatus(dv.NORSAOrigin)
	if !ok {
		return nil, invalid(dv.Status, "resolve NORSA without recorded origin")
	}
	dv.Status = resume
	dv.NORSAOrigin = model.OriginNone
	dv.NORSAIn = &now
	return finish(dv, "resolve_norsa", actor, now, map[string]interface{}{
		"status":        dv.Status,
		"norsa_origin":  model.OriginNone,
		"norsa_in_date": now,
	}), nil
}

// AllocateCash records the cash allocation and advances to Box C
// certification. Legal from for_cash_allocation or directly from for_review.
func AllocateCash(dv model.DisbursementVoucher, number string, date time.Time, netAmount decimal.Decimal, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForCashAllocation && dv.Status != model.StatusForReview {
		return nil, invalid(dv.Status, "allocate cash")
	}
	dv.Status = model.StatusForBoxC
	dv.CashAllocationNumber = number
	dv.CashAllocationDate = &date
	dv.NetAmount = decimal.NullDecimal{Decimal: netAmount, Valid: true}
	dv.IsReallocated = false
	return finish(dv, "allocate_cash", actor, now, map[string]interface{}{
		"status":                 dv.Status,
		"cash_allocation_number": number,
		"cash_allocation_date":   date,
		"net_amount":             netAmount,
		"is_reallocated":         false,
	}), nil
}

// CertifyBoxC records the Box C certification dates and advances to approval.
func CertifyBoxC(dv model.DisbursementVoucher, boxCDate, certificationDate time.Time, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForBoxC {
		return nil, invalid(dv.Status, "certify box c")
	}
	dv.Status = model.StatusForApproval
	dv.BoxCDate = &boxCDate
	dv.CertificationDate = &certificationDate
	return finish(dv, "certify_box_c", actor, now, map[string]interface{}{
		"status":             dv.Status,
		"box_c_date":         boxCDate,
		"certification_date": certificationDate,
	}), nil
}

// SendForApproval stamps the out date. The status stays for_approval; "out
// for approval" is derived from the date pair, not a status of its own.
func SendForApproval(dv model.DisbursementVoucher, outDate time.Time, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForApproval || dv.ApprovalOutDate != nil {
		return nil, invalid(dv.Status, "send for approval")
	}
	dv.ApprovalOutDate = &outDate
	return finish(dv, "send_for_approval", actor, now, map[string]interface{}{
		"approval_out_date": outDate,
	}), nil
}

// ReturnFromApproval receives the DV back from the approving authority and
// advances to indexing.
func ReturnFromApproval(dv model.DisbursementVoucher, inDate time.Time, approvalStatus, actor string, now time.Time) (*Transition, error) {
	if dv.ApprovalOutDate == nil || dv.ApprovalInDate != nil {
		return nil, invalid(dv.Status, "return from approval")
	}
	dv.Status = model.StatusForIndexing
	dv.ApprovalInDate = &inDate
	dv.ApprovalStatus = approvalStatus
	return finish(dv, "return_from_approval", actor, now, map[string]interface{}{
		"status":           dv.Status,
		"approval_in_date": inDate,
		"approval_status":  approvalStatus,
	}), nil
}

// RecordIndexing advances an indexed DV to payment.
func RecordIndexing(dv model.DisbursementVoucher, indexedBy string, date time.Time, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForIndexing {
		return nil, invalid(dv.Status, "record indexing")
	}
	dv.Status = model.StatusForPayment
	dv.IndexingDate = &date
	dv.IndexedBy = indexedBy
	return finish(dv, "record_indexing", actor, now, map[string]interface{}{
		"status":        dv.Status,
		"indexing_date": date,
		"indexed_by":    indexedBy,
	}), nil
}

// PaymentFields carries the method-specific sub-fields for SetPaymentMethod.
// Shape validation against the chosen method happens in the service layer
// before the transition is attempted.
type PaymentFields struct {
	CheckNumber string
	CheckDate   *time.Time
	LDDAPNumber string
	LDDAPDate   *time.Time
	PRNumber    string
	PROutDate   *time.Time
	PRInDate    *time.Time
}

// SetPaymentMethod records the payment instrument and hands the DV out to
// cashiering.
func SetPaymentMethod(dv model.DisbursementVoucher, method model.PaymentMethod, f PaymentFields, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForPayment {
		return nil, invalid(dv.Status, "set payment method")
	}
	dv.Status = model.StatusOutToCashiering
	dv.PaymentMethod = method
	fields := map[string]interface{}{
		"status":         dv.Status,
		"payment_method": method,
	}
	switch method {
	case model.PaymentMethodCheck:
		dv.CheckNumber = f.CheckNumber
		dv.CheckDate = f.CheckDate
		fields["check_number"] = f.CheckNumber
		fields["check_date"] = f.CheckDate
	case model.PaymentMethodLDDAP:
		dv.LDDAPNumber = f.LDDAPNumber
		dv.LDDAPDate = f.LDDAPDate
		fields["lddap_number"] = f.LDDAPNumber
		fields["lddap_date"] = f.LDDAPDate
	case model.PaymentMethodPR:
		dv.PRNumber = f.PRNumber
		dv.PROutDate = f.PROutDate
		dv.PRInDate = f.PRInDate
		fields["pr_number"] = f.PRNumber
		fields["pr_out_date"] = f.PROutDate
		fields["pr_in_date"] = f.PRInDate
	}
	return finish(dv, "set_payment_method", actor, now, fields), nil
}

// ReturnFromCashiering receives the DV back from cashiering for E-NGAS
// recording.
func ReturnFromCashiering(dv model.DisbursementVoucher, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusOutToCashiering {
		return nil, invalid(dv.Status, "return from cashiering")
	}
	dv.Status = model.StatusForEngas
	return finish(dv, "return_from_cashiering", actor, now, map[string]interface{}{
		"status": dv.Status,
	}), nil
}

// RecordEngas records the E-NGAS reference and advances to CDJ recording.
func RecordEngas(dv model.DisbursementVoucher, number string, date time.Time, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForEngas {
		return nil, invalid(dv.Status, "record engas")
	}
	dv.Status = model.StatusForCDJ
	dv.EngasNumber = number
	dv.EngasDate = &date
	return finish(dv, "record_engas", actor, now, map[string]interface{}{
		"status":       dv.Status,
		"engas_number": number,
		"engas_date":   date,
	}), nil
}

// RecordCDJ records the cash disbursement journal entry and advances to LDDAP
// certification.
func RecordCDJ(dv model.DisbursementVoucher, date time.Time, recordedBy, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForCDJ {
		return nil, invalid(dv.Status, "record cdj")
	}
	dv.Status = model.StatusForLDDAP
	dv.CDJDate = &date
	dv.CDJRecordedBy = recordedBy
	return finish(dv, "record_cdj", actor, now, map[string]interface{}{
		"status":          dv.Status,
		"cdj_date":        date,
		"cdj_recorded_by": recordedBy,
	}), nil
}

// CertifyLDDAP is the terminal transition. The record is kept for audit; the
// only way out of processed is the cash-reallocation exception path.
func CertifyLDDAP(dv model.DisbursementVoucher, certifiedDate time.Time, certifiedBy, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusForLDDAP {
		return nil, invalid(dv.Status, "certify lddap")
	}
	dv.Status = model.StatusProcessed
	dv.LDDAPCertifiedDate = &certifiedDate
	dv.LDDAPCertifiedBy = certifiedBy
	return finish(dv, "certify_lddap", actor, now, map[string]interface{}{
		"status":               dv.Status,
		"lddap_certified_date": certifiedDate,
		"lddap_certified_by":   certifiedBy,
	}), nil
}

// ReallocateCash reopens a processed DV that cashiering rejected. This is the
// single back-edge from the terminal state.
func ReallocateCash(dv model.DisbursementVoucher, reason, actor string, now time.Time) (*Transition, error) {
	if dv.Status != model.StatusProcessed {
		return nil, invalid(dv.Status, "reallocate cash")
	}
	dv.Status = model.StatusForCashAllocation
	dv.IsReallocated = true
	dv.ReallocationDate = &now
	dv.ReallocationReason = reason
	return finish(dv, "reallocate_cash", actor, now, map[string]interface{}{
		"status":              dv.Status,
		"is_reallocated":      true,
		"reallocation_date":   now,
		"reallocation_reason": reason,
	}), nil
}
