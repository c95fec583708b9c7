package model

import "fmt"

// Price is an exact currency amount in cents. Prices are kept as integers
// so the ".99" invariant survives arithmetic and storage round trips.
type Price int64

// PriceFromCents builds a Price from a cent count.
func PriceFromCents(cents int64) Price {
	return Price(cents)
}

// Cents returns the amount in cents.
func (p Price) Cents() int64 {
	return int64(p)
}

// String formats the price as dollars, e.g. "$4.99".
func (p Price) String() string {
	return fmt.Sprintf("$%d.%02d", p.Cents()/100, p.Cents()%100)
}
