package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kylabear/dv-tracking/internal/model"
)

type DVRepository struct {
	db *gorm.DB
}

func NewDVRepository(db *gorm.DB) *DVRepository {
	return &DVRepository{db: db}
}

const dvColumns = `
	id,
	dv_number,
	transaction_type,
	implementing_unit,
	payee,
	account_number,
	amount,
	particulars,
	received_date,
	status,
	rts_origin,
	norsa_origin,
	rts_out_date,
	rts_in_date,
	rts_reason,
	norsa_out_date,
	norsa_in_date,
	norsa_reason,
	cash_allocation_number,
	cash_allocation_date,
	net_amount,
	is_reallocated,
	reallocation_date,
	reallocation_reason,
	box_c_date,
	certification_date,
	approval_out_date,
	approval_in_date,
	approval_status,
	indexing_date,
	indexed_by,
	payment_method,
	check_number,
	check_date,
	lddap_number,
	lddap_date,
	pr_number,
	pr_out_date,
	pr_in_date,
	engas_number,
	engas_date,
	cdj_date,
	cdj_recorded_by,
	lddap_certified_date,
	lddap_certified_by,
	created_at,
	updated_at`

func (r *DVRepository) Create(ctx context.Context, dv *model.DisbursementVoucher) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`
			INSERT INTO disbursement_vouchers (
				id,
				dv_number,
				transaction_type,
				implementing_unit,
				payee,
				account_number,
				amount,
				particulars,
				received_date,
				status,
				created_at,
				updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			dv.ID,
			dv.DVNumber,
			dv.TransactionType,
			dv.ImplementingUnit,
			dv.Payee,
			dv.AccountNumber,
			dv.Amount,
			dv.Particulars,
			dv.ReceivedDate,
			dv.Status,
			dv.CreatedAt,
			dv.UpdatedAt,
		).Error
		if err != nil {
			return err
		}

		for position, entry := range dv.ORSEntries {
			if err := tx.Exec(`
				INSERT INTO dv_ors_entries (dv_id, position, ors_number, fund_source, uacs)
				VALUES (?, ?, ?, ?, ?)
			`, dv.ID, position, entry.ORSNumber, entry.FundSource, entry.UACS).Error; err != nil {
				return err
			}
		}

		for _, entry := range dv.History {
			if err := insertHistory(tx, dv.ID, entry); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *DVRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DisbursementVoucher, error) {
	var dv model.DisbursementVoucher
	err := r.db.WithContext(ctx).Raw(
		`SELECT `+dvColumns+` FROM disbursement_vouchers WHERE id = ? LIMIT 1`, id,
	).Scan(&dv).Error
	if err != nil {
		return nil, err
	}
	if dv.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.loadChildren(ctx, []model.DisbursementVoucher{dv}, func(i int) *model.DisbursementVoucher { return &dv }); err != nil {
		return nil, err
	}
	return &dv, nil
}

func (r *DVRepository) List(ctx context.Context) ([]model.DisbursementVoucher, error) {
	var dvs []model.DisbursementVoucher
	err := r.db.WithContext(ctx).Raw(
		`SELECT ` + dvColumns + ` FROM disbursement_vouchers ORDER BY created_at ASC, dv_number ASC`,
	).Scan(&dvs).Error
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, dvs, func(i int) *model.DisbursementVoucher { return &dvs[i] }); err != nil {
		return nil, err
	}
	return dvs, nil
}

// ApplyTransition writes one transition's field set and appends its history
// entry in a single transaction, so a failed write leaves the record intact.
// Only the columns named in fields are written; the updated record is taken
// for its identity.
func (r *DVRepository) ApplyTransition(ctx context.Context, dv *model.DisbursementVoucher, fields map[string]interface{}, entry model.HistoryEntry) error {
	id := dv.ID
	columns := make([]string, 0, len(fields))
	for column := range fields {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for _, column := range columns {
		assignments = append(assignments, fmt.Sprintf("%s = ?", column))
		args = append(args, fields[column])
	}
	assignments = append(assignments, "updated_at = ?")
	args = append(args, entry.Date)
	args = append(args, id)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE disbursement_vouchers SET `+strings.Join(assignments, ", ")+` WHERE id = ?`,
			args...,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return insertHistory(tx, id, entry)
	})
}

func insertHistory(tx *gorm.DB, dvID uuid.UUID, entry model.HistoryEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	return tx.Exec(`
		INSERT INTO dv_history (dv_id, action, user_name, entry_date, details)
		VALUES (?, ?, ?, ?, ?)
	`, dvID, entry.Action, entry.User, entry.Date, details).Error
}

// loadChildren attaches ORS entries and history to the given records in two
// batched queries, preserving insertion order.
func (r *DVRepository) loadChildren(ctx context.Context, dvs []model.DisbursementVoucher, at func(i int) *model.DisbursementVoucher) error {
	if len(dvs) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(dvs))
	index := make(map[uuid.UUID]int, len(dvs))
	for i, dv := range dvs {
		ids[i] = dv.ID
		index[dv.ID] = i
	}

	var orsRows []struct {
		DVID       uuid.UUID `gorm:"column:dv_id"`
		ORSNumber  string    `gorm:"column:ors_number"`
		FundSource string    `gorm:"column:fund_source"`
		UACS       string    `gorm:"column:uacs"`
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT dv_id, ors_number, fund_source, uacs
		FROM dv_ors_entries
		WHERE dv_id IN ?
		ORDER BY dv_id, position ASC
	`, ids).Scan(&orsRows).Error
	if err != nil {
		return err
	}
	for _, row := range orsRows {
		dv := at(index[row.DVID])
		dv.ORSEntries = append(dv.ORSEntries, model.ORSEntry{
			ORSNumber:  row.ORSNumber,
			FundSource: row.FundSource,
			UACS:       row.UACS,
		})
	}

	var historyRows []struct {
		DVID      uuid.UUID `gorm:"column:dv_id"`
		Action    string    `gorm:"column:action"`
		UserName  string    `gorm:"column:user_name"`
		EntryDate time.Time `gorm:"column:entry_date"`
		Details   []byte    `gorm:"column:details"`
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT dv_id, action, user_name, entry_date, details
		FROM dv_history
		WHERE dv_id IN ?
		ORDER BY dv_id, entry_date ASC, id ASC
	`, ids).Scan(&historyRows).Error
	if err != nil {
		return err
	}
	for _, row := range historyRows {
		entry := model.HistoryEntry{
			Action: row.Action,
			User:   row.UserName,
			Date:   row.EntryDate,
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &entry.Details); err != nil {
				return err
			}
		}
		dv := at(index[row.DVID])
		dv.History = append(dv.History, entry)
	}

	return nil
}
