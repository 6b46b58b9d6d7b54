package services

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

// categoryPercentage is the surcharge table per service tier.
var categoryPercentage = map[models.Category]int64{
	models.CategoryCommercial: 0,
	models.CategoryMidClass:   10,
	models.CategoryFirstClass: 25,
}

// Quote is the result of pricing one trip.
type Quote struct {
	Category   models.Category
	Percentage int
	Price      float64
}

// ComputePrice prices a trip of km kilometres at pricePerKm for category.
//
// The commercial tier pays the base price. The surcharged tiers pay the
// surcharge fraction of the base (10% or 25% of it), not base plus
// surcharge; quotations already issued rely on this arithmetic.
func ComputePrice(km, pricePerKm float64, category string) (Quote, error) {
	c, ok := models.ParseCategory(category)
	if !ok {
		return Quote{}, errors.Wrapf(ErrInvalidCategory, "%q", category)
	}
	pct := categoryPercentage[c]

	base := decimal.NewFromFloat(km).Mul(decimal.NewFromFloat(pricePerKm))
	total := base
	if pct > 0 {
		total = decimal.New(pct, -2).Mul(base)
	}

	price, _ := total.Round(2).Float64()
	return Quote{Category: c, Percentage: int(pct), Price: price}, nil
}
