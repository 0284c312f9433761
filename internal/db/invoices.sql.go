package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

const advisoryXactLock = `SELECT pg_advisory_xact_lock(hashtext($1))`

// AdvisoryXactLock blocks until the transaction-scoped advisory lock for key is held.
func (q *Queries) AdvisoryXactLock(ctx context.Context, key string) error {
	_, err := q.db.Exec(ctx, advisoryXactLock, key)
	return err
}

const getInvoiceSequence = `SELECT last_code FROM invoice_sequences WHERE user_name = $1`

func (q *Queries) GetInvoiceSequence(ctx context.Context, userName string) (string, error) {
	var code string
	err := q.db.QueryRow(ctx, getInvoiceSequence, userName).Scan(&code)
	return code, err
}

const getHighestInvoiceCode = `SELECT invoice_code FROM invoices
WHERE user_name = $1 AND invoice_code LIKE $1 || '%'
ORDER BY length(invoice_code) DESC, invoice_code DESC LIMIT 1`

func (q *Queries) GetHighestInvoiceCode(ctx context.Context, userName string) (string, error) {
	var code string
	err := q.db.QueryRow(ctx, getHighestInvoiceCode, userName).Scan(&code)
	return code, err
}

const insertInvoiceSequence = `INSERT INTO invoice_sequences (user_name, last_code) VALUES ($1, $2)
ON CONFLICT (user_name) DO NOTHING`

// InsertInvoiceSequence creates the first sequence row. Zero rows affected
// means another writer got there first.
func (q *Queries) InsertInvoiceSequence(ctx context.Context, userName, code string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, insertInvoiceSequence, userName, code)
}

const advanceInvoiceSequence = `UPDATE invoice_sequences SET last_code = $2, updated_at = now()
WHERE user_name = $1 AND last_code = $3`

// AdvanceInvoiceSequence moves the sequence from prev to code. Zero rows
// affected means prev was stale.
func (q *Queries) AdvanceInvoiceSequence(ctx context.Context, userName, code, prev string) (pgconn.CommandTag, error) {
	return q.db.Exec(ctx, advanceInvoiceSequence, userName, code, prev)
}
