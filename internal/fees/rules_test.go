package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestMora(t *testing.T) {
	loc := time.FixedZone("GT", -6*3600)
	cases := []struct {
		name  string
		month Month
		now   time.Time
		want  string
	}{
		{"march after due date", 3, time.Date(2024, 3, 10, 9, 0, 0, 0, loc), "30"},
		{"march on due date", 3, time.Date(2024, 3, 5, 23, 59, 0, 0, loc), "0"},
		{"march before due date", 3, time.Date(2024, 3, 1, 8, 0, 0, 0, loc), "0"},
		{"january never", 1, time.Date(2024, 12, 31, 8, 0, 0, 0, loc), "0"},
		{"november never", 11, time.Date(2024, 12, 31, 8, 0, 0, 0, loc), "0"},
		{"october late", 10, time.Date(2024, 10, 6, 0, 0, 0, 0, loc), "30"},
		{"february paid in advance", 2, time.Date(2024, 1, 20, 0, 0, 0, 0, loc), "0"},
		{"past month", 4, time.Date(2024, 9, 1, 0, 0, 0, 0, loc), "30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, dec(tc.want).Equal(Mora(tc.month, tc.now)), "got %s", Mora(tc.month, tc.now))
		})
	}
}

func TestMoraIsNeverNegativeAndBounded(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 366; day += 3 {
		now := start.AddDate(0, 0, day)
		for m := Month(1); m <= 12; m++ {
			mora := Mora(m, now)
			assert.True(t, mora.Equal(decimal.Zero) || mora.Equal(LateFee))
		}
	}
}

func TestTotalWithMora(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.True(t, dec("380").Equal(TotalWithMora(dec("350"), 3, now)))
	assert.True(t, dec("350").Equal(TotalWithMora(dec("350"), 1, now)))
}

func TestRegister(t *testing.T) {
	b, err := Register(dec("500"), dec("500"))
	require.NoError(t, err)
	assert.True(t, b.Pending.IsZero())
	assert.Equal(t, StateSettled, StateOf(&b))

	b, err = Register(dec("500"), dec("300"))
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(b.Pending))
	assert.Equal(t, StatePartiallyPaid, StateOf(&b))

	b, err = Register(dec("500"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(b.Pending))

	_, err = Register(decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidTotal)
	_, err = Register(dec("500"), dec("-1"))
	assert.ErrorIs(t, err, ErrNegativeAbono)
	_, err = Register(dec("500"), dec("500.01"))
	assert.ErrorIs(t, err, ErrAbonoExceeds)
}

func TestApplyAbono(t *testing.T) {
	b, err := Register(dec("500"), dec("300"))
	require.NoError(t, err)

	_, err = ApplyAbono(b, dec("250"))
	assert.ErrorIs(t, err, ErrAbonoExceeds)
	_, err = ApplyAbono(b, decimal.Zero)
	assert.ErrorIs(t, err, ErrAbonoNotPositive)

	b, err = ApplyAbono(b, dec("200"))
	require.NoError(t, err)
	assert.True(t, b.Pending.IsZero())
	assert.True(t, dec("500").Equal(b.Paid))
	assert.True(t, b.IsSettled())

	_, err = ApplyAbono(b, dec("1"))
	assert.ErrorIs(t, err, ErrSettled)
}

func TestStateOfNil(t *testing.T) {
	assert.Equal(t, StateNoRecord, StateOf(nil))
}

func TestAvailableMonths(t *testing.T) {
	got := AvailableMonths(TuitionMonths, []Month{1, 3, 10})
	assert.Equal(t, []Month{2, 4, 5, 6, 7, 8, 9}, got)
	assert.True(t, Contains([]Month{4}, 4))
	assert.False(t, Contains(nil, 4))
}
