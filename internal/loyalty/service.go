package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/omnipay-inventory/internal/db"
	"github.com/noah-isme/omnipay-inventory/internal/pricing"
)

// ErrNotCustomer is returned when a user code does not belong to a
// customer-role account.
var ErrNotCustomer = errors.New("user code is not a customer")

type queryProvider interface {
	GetCustomerByCode(ctx context.Context, userCode string) (db.User, error)
}

// Lookup resolves coin balances of customer accounts.
type Lookup interface {
	CustomerCoins(ctx context.Context, userCode string) (int64, bool, error)
}

var _ Lookup = (*Service)(nil)

// Customer is the loyalty view of a customer account.
type Customer struct {
	UserCode      string          `json:"userCode"`
	UserName      string          `json:"userName"`
	Name          string          `json:"name"`
	EmailID       *string         `json:"emailId"`
	MobileNo      *string         `json:"mobileNo"`
	UserRole      string          `json:"userRole"`
	Coins         int64           `json:"availableCoins"`
	CoinsDiscount decimal.Decimal `json:"coinsDiscount"`
}

// Service resolves loyalty balances.
type Service struct {
	queries queryProvider
}

// NewService constructs a loyalty Service.
func NewService(q queryProvider) *Service {
	return &Service{queries: q}
}

// Customer returns the customer behind userCode with its redeemable credit.
func (s *Service) Customer(ctx context.Context, userCode string) (Customer, error) {
	userCode = strings.TrimSpace(userCode)
	if userCode == "" {
		return Customer{}, ErrNotCustomer
	}
	u, err := s.queries.GetCustomerByCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotCustomer
		}
		return Customer{}, fmt.Errorf("get customer %q: %w", userCode, err)
	}
	return Customer{
		UserCode:      u.UserCode,
		UserName:      u.UserName,
		Name:          u.Name,
		EmailID:       u.EmailID,
		MobileNo:      u.MobileNo,
		UserRole:      u.UserRole,
		Coins:         u.AvailableCoins,
		CoinsDiscount: pricing.CoinsDiscount(u.AvailableCoins),
	}, nil
}

// CustomerCoins returns the coin balance of userCode, false when the code
// does not resolve to a customer.
func (s *Service) CustomerCoins(ctx context.Context, userCode string) (int64, bool, error) {
	c, err := s.Customer(ctx, userCode)
	if errors.Is(err, ErrNotCustomer) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return c.Coins, true, nil
}
