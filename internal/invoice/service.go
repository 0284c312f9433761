package invoice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/lock"
	"github.com/noah-isme/omnipay-inventory/internal/obs"
)

// Locker serializes work per key. lock.Locker and lock.KeyedMutex satisfy it.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service issues sequential invoice codes.
type Service struct {
	Store  Store
	Locker Locker
	TTL    time.Duration
}

// Issue reads the last code of userName, increments it and persists the
// result while holding the per-user lock.
func (s *Service) Issue(ctx context.Context, userName string) (string, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return "", common.BadRequest("userName is required", map[string]any{"field": "userName"})
	}
	if s == nil || s.Store == nil || s.Locker == nil {
		return "", errors.New("invoice service not configured")
	}

	start := time.Now()
	var code string
	err := s.Locker.WithLock(ctx, "invoice:"+userName, s.TTL, func(ctx context.Context) error {
		last, _, err := s.Store.LastCode(ctx, userName)
		if err != nil {
			return err
		}
		next := NextCode(userName, last)
		if err := s.Store.Reserve(ctx, userName, last, next); err != nil {
			return err
		}
		code = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSequenceConflict) {
			obs.ObserveInvoiceCode("conflict", time.Since(start))
			return "", common.Conflict("INVOICE_SEQUENCE_CONFLICT", "invoice sequence changed, retry", err)
		}
		if errors.Is(err, lock.ErrNotAcquired) {
			obs.ObserveInvoiceCode("conflict", time.Since(start))
			return "", common.Conflict("INVOICE_SEQUENCE_CONFLICT", "another invoice is being issued for this user, retry", err)
		}
		obs.ObserveInvoiceCode("error", time.Since(start))
		return "", err
	}
	obs.ObserveInvoiceCode("ok", time.Since(start))
	log.Ctx(ctx).Debug().Str("user_name", userName).Str("invoice_code", code).Msg("invoice code issued")
	return code, nil
}
