package service

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/enum"
	"github.com/shopspring/decimal"
)

// numericToDecimal converts pgtype.Numeric to decimal.Decimal.
// NULL and unscannable values collapse to zero; quantities in this domain
// are never negative so zero is a safe identity.
func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// decimalToNumeric converts decimal.Decimal to pgtype.Numeric.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

func validateOrderType(orderType string) error {
	switch orderType {
	case enum.OrderTypeUrgent, enum.OrderTypeRoutine, enum.OrderTypeSchedule:
		return nil
	}
	return ErrInvalidOrderType
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
