package service

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/kylabear/dv-tracking/internal/model"
	"github.com/kylabear/dv-tracking/internal/workflow"
)

// Input formats enforced before any transition is attempted. The HTTP layer
// mirrors these as binding validations, but the service check is the
// authoritative one so every transport gets the same rejections.
var (
	DVNumberPattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{5}$`)
	UACSPattern      = regexp.MustCompile(`^\d{8}-\d{2}$`)
	ORSNumberPattern = regexp.MustCompile(`^\d{2}-\d{8}-\d{4}-\d{2}-\d{6}$`)
)

type fieldErrors map[string]string

func (fe fieldErrors) add(field, msg string) {
	if _, dup := fe[field]; !dup {
		fe[field] = msg
	}
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: fe}
}

func validateCreate(in CreateInput) error {
	fe := fieldErrors{}
	if !DVNumberPattern.MatchString(in.DVNumber) {
		fe.add("dv_number", "must match YYYY-MM-NNNNN")
	}
	if in.Payee == "" {
		fe.add("payee", "is required")
	}
	if !in.Amount.IsPositive() {
		fe.add("amount", "must be greater than zero")
	}
	if in.ReceivedDate.IsZero() {
		fe.add("received_date", "is required")
	}
	for i, entry := range in.ORSEntries {
		validateORSEntry(fe, i, entry)
	}
	return fe.err()
}

func validateORSEntry(fe fieldErrors, i int, entry model.ORSEntry) {
	if !ORSNumberPattern.MatchString(entry.ORSNumber) {
		fe.add(fmt.Sprintf("ors_entries[%d].ors_number", i), "must match NN-NNNNNNNN-NNNN-NN-NNNNNN")
	}
	if !UACSPattern.MatchString(entry.UACS) {
		fe.add(fmt.Sprintf("ors_entries[%d].uacs", i), "must match NNNNNNNN-NN")
	}
}

func validateReason(field, reason string) error {
	fe := fieldErrors{}
	if reason == "" {
		fe.add(field, "is required")
	}
	return fe.err()
}

func validateAllocateCash(number string, net decimal.Decimal) error {
	fe := fieldErrors{}
	if number == "" {
		fe.add("cash_allocation_number", "is required")
	}
	if !net.IsPositive() {
		fe.add("net_amount", "must be greater than zero")
	}
	return fe.err()
}

// validatePaymentFields checks that the sub-fields match the required shape
// for the chosen method.
func validatePaymentFields(method model.PaymentMethod, f workflow.PaymentFields) error {
	fe := fieldErrors{}
	switch method {
	case model.PaymentMethodCheck:
		if f.CheckNumber == "" {
			fe.add("check_number", "is required for check payments")
		}
		if f.CheckDate == nil {
			fe.add("check_date", "is required for check payments")
		}
	case model.PaymentMethodLDDAP:
		if f.LDDAPNumber == "" {
			fe.add("lddap_number", "is required for lddap payments")
		}
		if f.LDDAPDate == nil {
			fe.add("lddap_date", "is required for lddap payments")
		}
	case model.PaymentMethodPR:
		if f.PRNumber == "" {
			fe.add("pr_number", "is required for pr payments")
		}
		if f.PROutDate == nil {
			fe.add("pr_out_date", "is required for pr payments")
		}
	default:
		fe.add("payment_method", "must be one of check, lddap, pr")
	}
	return fe.err()
}
