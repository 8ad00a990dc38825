package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitPiece    Unit = "UN"
	UnitKilogram Unit = "KG"
	UnitGram     Unit = "G"
	UnitBox      Unit = "CX"
)

// Measure carries the quantity rules of a unit. Discrete units count whole
// items, weighed units accept fractions.
type Measure interface {
	Normalize(q decimal.Decimal) decimal.Decimal
	Format(q decimal.Decimal) string
	Fractional() bool
}

type Discrete struct{}

func (Discrete) Normalize(q decimal.Decimal) decimal.Decimal {
	return q.Floor()
}

func (Discrete) Format(q decimal.Decimal) string {
	return q.Floor().StringFixed(0)
}

func (Discrete) Fractional() bool { return false }

type Weighed struct{}

func (Weighed) Normalize(q decimal.Decimal) decimal.Decimal {
	return q
}

func (Weighed) Format(q decimal.Decimal) string {
	return q.StringFixed(3)
}

func (Weighed) Fractional() bool { return true }

func ParseUnit(raw string) (Unit, bool) {
	u := Unit(strings.ToUpper(strings.TrimSpace(raw)))
	return u, u.Valid()
}

func (u Unit) Valid() bool {
	switch u {
	case UnitPiece, UnitKilogram, UnitGram, UnitBox:
		return true
	}
	return false
}

// Measure resolves the quantity rules for u. Unknown units are counted as
// discrete items.
func (u Unit) Measure() Measure {
	switch u {
	case UnitKilogram, UnitGram:
		return Weighed{}
	default:
		return Discrete{}
	}
}
