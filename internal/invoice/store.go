package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/omnipay-inventory/internal/db"
)

// ErrSequenceConflict is returned by Reserve when the stored sequence moved
// since it was read.
var ErrSequenceConflict = errors.New("invoice sequence changed concurrently")

// Store persists the last issued code per user name.
type Store interface {
	// LastCode returns the most recent code of userName, false when none was
	// ever issued.
	LastCode(ctx context.Context, userName string) (string, bool, error)
	// Reserve records code as issued, provided the last code is still prev.
	Reserve(ctx context.Context, userName, prev, code string) error
}

// PGStore keeps sequences in the invoice_sequences table and falls back to
// the highest existing invoice for users without a sequence row.
type PGStore struct {
	DB *db.Store
}

// LastCode implements Store.
func (s PGStore) LastCode(ctx context.Context, userName string) (string, bool, error) {
	code, err := s.DB.GetInvoiceSequence(ctx, userName)
	if err == nil {
		return code, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("get invoice sequence: %w", err)
	}
	code, err = s.DB.GetHighestInvoiceCode(ctx, userName)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get highest invoice code: %w", err)
	}
	return code, true, nil
}

// Reserve implements Store. The row is compared and swapped under a
// transaction-scoped advisory lock on the user name.
func (s PGStore) Reserve(ctx context.Context, userName, prev, code string) error {
	return s.DB.ExecTx(ctx, func(q *db.Queries) error {
		if err := q.AdvisoryXactLock(ctx, "invoice:"+userName); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		tag, err := q.AdvanceInvoiceSequence(ctx, userName, code, prev)
		if err != nil {
			return fmt.Errorf("advance invoice sequence: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		current, err := q.GetInvoiceSequence(ctx, userName)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			tag, err = q.InsertInvoiceSequence(ctx, userName, code)
			if err != nil {
				return fmt.Errorf("insert invoice sequence: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrSequenceConflict
			}
			return nil
		case err != nil:
			return fmt.Errorf("get invoice sequence: %w", err)
		default:
			return fmt.Errorf("%w: expected %q, found %q", ErrSequenceConflict, prev, current)
		}
	})
}
