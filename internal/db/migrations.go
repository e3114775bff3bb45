package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'dv_status') THEN
			CREATE TYPE dv_status AS ENUM (
				'for_review',
				'for_rts_in',
				'for_norsa_in',
				'for_box_c',
				'for_approval',
				'for_cash_allocation',
				'for_indexing',
				'for_payment',
				'out_to_cashiering',
				'for_engas',
				'for_cdj',
				'for_lddap',
				'processed'
			);
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'review_origin') THEN
			CREATE TYPE review_origin AS ENUM ('review', 'cash_allocation', 'box_c');
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_method') THEN
			CREATE TYPE payment_method AS ENUM ('check', 'lddap', 'pr');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS disbursement_vouchers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		dv_number VARCHAR(16) NOT NULL,
		transaction_type VARCHAR(128) NOT NULL DEFAULT '',
		implementing_unit VARCHAR(128) NOT NULL DEFAULT '',
		payee VARCHAR(256) NOT NULL,
		account_number VARCHAR(64) NOT NULL DEFAULT '',
		amount NUMERIC(18,2) NOT NULL,
		particulars TEXT NOT NULL DEFAULT '',
		received_date TIMESTAMPTZ NOT NULL,
		status dv_status NOT NULL DEFAULT 'for_review',
		rts_origin review_origin,
		norsa_origin review_origin,
		rts_out_date TIMESTAMPTZ,
		rts_in_date TIMESTAMPTZ,
		rts_reason TEXT NOT NULL DEFAULT '',
		norsa_out_date TIMESTAMPTZ,
		norsa_in_date TIMESTAMPTZ,
		norsa_reason TEXT NOT NULL DEFAULT '',
		cash_allocation_number VARCHAR(64) NOT NULL DEFAULT '',
		cash_allocation_date TIMESTAMPTZ,
		net_amount NUMERIC(18,2),
		is_reallocated BOOLEAN NOT NULL DEFAULT FALSE,
		reallocation_date TIMESTAMPTZ,
		reallocation_reason TEXT NOT NULL DEFAULT '',
		box_c_date TIMESTAMPTZ,
		certification_date TIMESTAMPTZ,
		approval_out_date TIMESTAMPTZ,
		approval_in_date TIMESTAMPTZ,
		approval_status VARCHAR(64) NOT NULL DEFAULT '',
		indexing_date TIMESTAMPTZ,
		indexed_by VARCHAR(128) NOT NULL DEFAULT '',
		payment_method payment_method,
		check_number VARCHAR(64) NOT NULL DEFAULT '',
		check_date TIMESTAMPTZ,
		lddap_number VARCHAR(64) NOT NULL DEFAULT '',
		lddap_date TIMESTAMPTZ,
		pr_number VARCHAR(64) NOT NULL DEFAULT '',
		pr_out_date TIMESTAMPTZ,
		pr_in_date TIMESTAMPTZ,
		engas_number VARCHAR(64) NOT NULL DEFAULT '',
		engas_date TIMESTAMPTZ,
		cdj_date TIMESTAMPTZ,
		cdj_recorded_by VARCHAR(128) NOT NULL DEFAULT '',
		lddap_certified_date TIMESTAMPTZ,
		lddap_certified_by VARCHAR(128) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_dv_number ON disbursement_vouchers (dv_number);`,
	`CREATE INDEX IF NOT EXISTS idx_dv_status ON disbursement_vouchers (status);`,
	`CREATE INDEX IF NOT EXISTS idx_dv_created_at ON disbursement_vouchers (created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_dv_payee ON disbursement_vouchers (payee);`,
	`CREATE TABLE IF NOT EXISTS dv_ors_entries (
		dv_id UUID NOT NULL REFERENCES disbursement_vouchers(id) ON DELETE CASCADE,
		position INT NOT NULL,
		ors_number VARCHAR(32) NOT NULL,
		fund_source VARCHAR(128) NOT NULL DEFAULT '',
		uacs VARCHAR(16) NOT NULL,
		PRIMARY KEY (dv_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS dv_history (
		id BIGSERIAL PRIMARY KEY,
		dv_id UUID NOT NULL REFERENCES disbursement_vouchers(id) ON DELETE CASCADE,
		action VARCHAR(64) NOT NULL,
		user_name VARCHAR(128) NOT NULL,
		entry_date TIMESTAMPTZ NOT NULL,
		details JSONB
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dv_history_dv_id ON dv_history (dv_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
