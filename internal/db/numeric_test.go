package db

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, in := range []string{"0", "6.625", "-12.30", "1000000.00001"} {
		d := decimal.RequireFromString(in)
		got := Decimal(Numeric(d))
		require.True(t, got.Equal(d), "%s became %s", in, got)
	}
}

func TestNullNumeric(t *testing.T) {
	require.False(t, NullNumeric(nil).Valid)
	require.Nil(t, DecimalPtr(NullNumeric(nil)))
	require.True(t, Decimal(NullNumeric(nil)).IsZero())

	charged := decimal.RequireFromString("3.45")
	back := DecimalPtr(NullNumeric(&charged))
	require.NotNil(t, back)
	require.True(t, back.Equal(charged))
}

func TestPgx5URL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@localhost:5432/pos", pgx5URL("postgres://u:p@localhost:5432/pos"))
	require.Equal(t, "pgx5://u:p@localhost/pos", pgx5URL("postgresql://u:p@localhost/pos"))
	require.Equal(t, "pgx5://already", pgx5URL("pgx5://already"))
}
