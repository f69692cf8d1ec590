package shop

import "fmt"

// Money is an amount in cents.
type Money int64

// Dollars builds a Money value from whole dollars and cents.
func Dollars(dollars, cents int64) Money {
	return Money(dollars*100 + cents)
}

// String formats m as "$99.97".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
