// Package tax converts a base cost into subtotal, tax and total.
//
// All arithmetic is exact decimal; results are rounded to cents with
// round-half-away-from-zero, which for non-negative amounts is round-half-up.
package tax

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/pkg/apperr"
)

// Mode says whether a cost already contains tax.
type Mode string

const (
	ModeExclusive Mode = "exclusive" // tax added on top
	ModeInclusive Mode = "inclusive" // cost already contains tax
)

const moneyPlaces = 2

var (
	ErrNegativeCost     = apperr.Validation("invalid_cost")
	ErrNegativeRate     = apperr.Validation("invalid_tax_rate")
	ErrNegativeDiscount = apperr.Validation("invalid_discount")
	ErrDiscountTooLarge = apperr.Validation("discount_exceeds_subtotal")
)

type Input struct {
	Cost     decimal.Decimal
	Included bool
	Rate     decimal.Decimal // fraction, 0.10 is 10%
	Discount decimal.Decimal // exclusive mode only
}

type Result struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

func ModeOf(included bool) Mode {
	if included {
		return ModeInclusive
	}
	return ModeExclusive
}

// Calculate derives subtotal, tax and total.
//
// Exclusive: subtotal = cost, tax = (subtotal - discount) * rate,
// total = subtotal - discount + tax.
// Inclusive: total = cost, subtotal = total / (1 + rate), tax = total - subtotal.
// The discount is not applied in inclusive mode and Result.Discount is zero.
func Calculate(in Input) (Result, error) {
	if in.Cost.IsNegative() {
		return Result{}, ErrNegativeCost
	}
	if in.Rate.IsNegative() {
		return Result{}, ErrNegativeRate
	}
	if in.Discount.IsNegative() {
		return Result{}, ErrNegativeDiscount
	}

	cost := in.Cost.Round(moneyPlaces)
	if in.Included {
		total := cost
		subtotal := total.DivRound(decimal.NewFromInt(1).Add(in.Rate), moneyPlaces)
		return Result{
			Subtotal:  subtotal,
			TaxAmount: total.Sub(subtotal),
			Discount:  decimal.Zero,
			Total:     total,
		}, nil
	}

	discount := in.Discount.Round(moneyPlaces)
	if discount.GreaterThan(cost) {
		return Result{}, ErrDiscountTooLarge
	}
	taxable := cost.Sub(discount)
	taxAmount := taxable.Mul(in.Rate).Round(moneyPlaces)
	return Result{
		Subtotal:  cost,
		TaxAmount: taxAmount,
		Discount:  discount,
		Total:     taxable.Add(taxAmount),
	}, nil
}
