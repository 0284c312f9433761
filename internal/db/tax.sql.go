package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listActiveSalesTax = `SELECT sales_tax_id, name, rate, is_active FROM sales_tax
WHERE is_active ORDER BY sales_tax_id`

func (q *Queries) ListActiveSalesTax(ctx context.Context) ([]SalesTax, error) {
	rows, err := q.db.Query(ctx, listActiveSalesTax)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SalesTax, error) {
		var (
			s    SalesTax
			rate pgtype.Numeric
		)
		if err := row.Scan(&s.SalesTaxID, &s.Name, &rate, &s.IsActive); err != nil {
			return SalesTax{}, err
		}
		s.Rate = Decimal(rate)
		return s, nil
	})
}

const getCreditCardCharge = `SELECT credit_card_charge FROM companies
WHERE is_active ORDER BY company_id LIMIT 1`

func (q *Queries) GetCreditCardCharge(ctx context.Context) (pgtype.Numeric, error) {
	var charge pgtype.Numeric
	err := q.db.QueryRow(ctx, getCreditCardCharge).Scan(&charge)
	return charge, err
}
