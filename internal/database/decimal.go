package database

import (
	"github.com/shopspring/decimal"
	"gopkg.in/inf.v0"
)

// toDec convertit vers le type attendu par gocql pour les colonnes decimal
func toDec(d decimal.Decimal) *inf.Dec {
	return inf.NewDecBig(d.Coefficient(), inf.Scale(-d.Exponent()))
}

func fromDec(d *inf.Dec) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(d.UnscaledBig(), -int32(d.Scale()))
}
