package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavandry/laundry-pos/internal/domain/promo"
	"github.com/lavandry/laundry-pos/internal/domain/service"
)

var evalTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func decStr(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func kgLine(serviceID string, qty, price int64) CartLine {
	return CartLine{
		ServiceID: serviceID,
		Unit:      service.UnitKg,
		Quantity:  dec(qty),
		UnitPrice: dec(price),
	}
}

func pcsLine(serviceID string, qty, price int64) CartLine {
	return CartLine{
		ServiceID: serviceID,
		Unit:      service.UnitPcs,
		Quantity:  dec(qty),
		UnitPrice: dec(price),
	}
}

func TestEvaluate(t *testing.T) {
	past := evalTime.Add(-24 * time.Hour)
	future := evalTime.Add(24 * time.Hour)

	tests := []struct {
		name         string
		lines        []CartLine
		catalog      []promo.Promotion
		voucherCode  string
		wantSubtotal decimal.Decimal
		wantDiscount decimal.Decimal
		wantTotal    decimal.Decimal
		wantApplied  []string
	}{
		{
			name:  "ten percent off at minimum weight",
			lines: []CartLine{kgLine("cuci-kiloan", 10, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-1", Name: "10% off 10kg+",
				DiscountType: promo.DiscountPercentage, Value: dec(10),
				MinWeightKg: decPtr(10), Active: true,
			}},
			wantSubtotal: dec(70000),
			wantDiscount: dec(7000),
			wantTotal:    dec(63000),
			wantApplied:  []string{"promo-1"},
		},
		{
			name:  "voucher scoped to shoe washing",
			lines: []CartLine{pcsLine("cuci-sepatu", 1, 35000)},
			catalog: []promo.Promotion{{
				ID: "promo-2", Name: "Sneaker voucher", Code: "HEBATSNEAKERS",
				ServiceID:    "cuci-sepatu",
				DiscountType: promo.DiscountFixed, Value: dec(10000),
				Active: true,
			}},
			voucherCode:  "HEBATSNEAKERS",
			wantSubtotal: dec(35000),
			wantDiscount: dec(10000),
			wantTotal:    dec(25000),
			wantApplied:  []string{"promo-2"},
		},
		{
			name:  "voucher below minimum amount is ineligible",
			lines: []CartLine{pcsLine("svc-a", 1, 5000)},
			catalog: []promo.Promotion{{
				ID: "promo-3", Name: "New member", Code: "MEMBERBARU",
				DiscountType: promo.DiscountFixed, Value: dec(5000),
				MinAmount: decPtr(30000), Active: true,
			}},
			voucherCode:  "MEMBERBARU",
			wantSubtotal: dec(5000),
			wantDiscount: dec(0),
			wantTotal:    dec(5000),
		},
		{
			name: "aggregate discount clamped to subtotal",
			lines: []CartLine{
				pcsLine("svc-a", 1, 20000),
				pcsLine("svc-b", 1, 5000),
			},
			catalog: []promo.Promotion{
				{ID: "promo-4", Name: "Big fixed", DiscountType: promo.DiscountFixed, Value: dec(18000), Active: true},
				{ID: "promo-5", Name: "Other fixed", DiscountType: promo.DiscountFixed, Value: dec(10000), Active: true},
			},
			wantSubtotal: dec(25000),
			wantDiscount: dec(25000),
			wantTotal:    dec(0),
			wantApplied:  []string{"promo-4", "promo-5"},
		},
		{
			name:  "single fixed discount may exceed its own base before the clamp",
			lines: []CartLine{pcsLine("svc-a", 1, 5000)},
			catalog: []promo.Promotion{{
				ID: "promo-6", Name: "Oversized fixed",
				DiscountType: promo.DiscountFixed, Value: dec(8000), Active: true,
			}},
			wantSubtotal: dec(5000),
			wantDiscount: dec(5000),
			wantTotal:    dec(0),
			wantApplied:  []string{"promo-6"},
		},
		{
			name:  "inactive promotion never applies",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-7", Name: "Disabled",
				DiscountType: promo.DiscountPercentage, Value: dec(50), Active: false,
			}},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			name:  "promotion outside its window never applies",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{
				{
					ID: "promo-8", Name: "Ended",
					DiscountType: promo.DiscountPercentage, Value: dec(50),
					EndDate: &past, Active: true,
				},
				{
					ID: "promo-9", Name: "Not started",
					DiscountType: promo.DiscountPercentage, Value: dec(50),
					StartDate: &future, Active: true,
				},
			},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			name:  "promotion inside its window applies",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-10", Name: "Windowed",
				DiscountType: promo.DiscountPercentage, Value: dec(10),
				StartDate: &past, EndDate: &future, Active: true,
			}},
			wantSubtotal: dec(35000),
			wantDiscount: dec(3500),
			wantTotal:    dec(31500),
			wantApplied:  []string{"promo-10"},
		},
		{
			name:  "voucher without supplied code never applies",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-11", Name: "Hidden voucher", Code: "RAHASIA",
				DiscountType: promo.DiscountPercentage, Value: dec(50), Active: true,
			}},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			name:  "voucher code matching is case-insensitive",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-12", Name: "Voucher", Code: "HEMAT10",
				DiscountType: promo.DiscountPercentage, Value: dec(10), Active: true,
			}},
			voucherCode:  "hemat10",
			wantSubtotal: dec(35000),
			wantDiscount: dec(3500),
			wantTotal:    dec(31500),
			wantApplied:  []string{"promo-12"},
		},
		{
			name:  "unknown voucher code contributes nothing",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-13", Name: "Voucher", Code: "HEMAT10",
				DiscountType: promo.DiscountPercentage, Value: dec(10), Active: true,
			}},
			voucherCode:  "SALAHKODE",
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			name: "automatic promotions stack with the voucher",
			lines: []CartLine{
				kgLine("cuci-kiloan", 10, 7000),
			},
			catalog: []promo.Promotion{
				{
					ID: "promo-14", Name: "Voucher", Code: "TAMBAHAN",
					DiscountType: promo.DiscountFixed, Value: dec(5000), Active: true,
				},
				{
					ID: "promo-15", Name: "Weight bonus",
					DiscountType: promo.DiscountPercentage, Value: dec(10),
					MinWeightKg: decPtr(10), Active: true,
				},
			},
			voucherCode:  "TAMBAHAN",
			wantSubtotal: dec(70000),
			wantDiscount: dec(12000),
			wantTotal:    dec(58000),
			wantApplied:  []string{"promo-14", "promo-15"},
		},
		{
			name: "service-scoped promotion skipped when service absent",
			lines: []CartLine{
				kgLine("cuci-kiloan", 5, 7000),
			},
			catalog: []promo.Promotion{{
				ID: "promo-16", Name: "Shoe promo", ServiceID: "cuci-sepatu",
				DiscountType: promo.DiscountPercentage, Value: dec(50), Active: true,
			}},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			name: "service-scoped percentage uses scoped base only",
			lines: []CartLine{
				kgLine("cuci-kiloan", 5, 7000),
				pcsLine("cuci-sepatu", 2, 35000),
			},
			catalog: []promo.Promotion{{
				ID: "promo-17", Name: "Shoe promo", ServiceID: "cuci-sepatu",
				DiscountType: promo.DiscountPercentage, Value: dec(20), Active: true,
			}},
			wantSubtotal: dec(105000),
			wantDiscount: dec(14000),
			wantTotal:    dec(91000),
			wantApplied:  []string{"promo-17"},
		},
		{
			name: "min weight and min amount are both required",
			lines: []CartLine{
				kgLine("cuci-kiloan", 12, 2000),
			},
			catalog: []promo.Promotion{{
				ID: "promo-18", Name: "Heavy and pricey",
				DiscountType: promo.DiscountPercentage, Value: dec(10),
				MinWeightKg: decPtr(10), MinAmount: decPtr(30000), Active: true,
			}},
			// 12kg passes the weight gate but 24000 misses the amount gate.
			wantSubtotal: dec(24000),
			wantDiscount: dec(0),
			wantTotal:    dec(24000),
		},
		{
			name:  "count-based units contribute no weight",
			lines: []CartLine{pcsLine("cuci-sepatu", 10, 35000)},
			catalog: []promo.Promotion{{
				ID: "promo-19", Name: "Weight promo",
				DiscountType: promo.DiscountPercentage, Value: dec(10),
				MinWeightKg: decPtr(5), Active: true,
			}},
			wantSubtotal: dec(350000),
			wantDiscount: dec(0),
			wantTotal:    dec(350000),
		},
		{
			name:  "negative discount value contributes zero",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-20", Name: "Corrupt row",
				DiscountType: promo.DiscountFixed, Value: dec(-5000), Active: true,
			}},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			name:  "unknown discount type contributes zero",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-21", Name: "Stale row",
				DiscountType: promo.DiscountType("bogo"), Value: dec(1), Active: true,
			}},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			// Zero-amount promotions stay off the applied list so receipts
			// only show entries that changed the price.
			name:  "eligible zero percent promotion stays off the applied list",
			lines: []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			catalog: []promo.Promotion{{
				ID: "promo-22", Name: "Placeholder campaign",
				DiscountType: promo.DiscountPercentage, Value: dec(0), Active: true,
			}},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
		{
			name:         "empty catalog yields no discount",
			lines:        []CartLine{kgLine("cuci-kiloan", 5, 7000)},
			wantSubtotal: dec(35000),
			wantDiscount: dec(0),
			wantTotal:    dec(35000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.lines, tt.catalog, tt.voucherCode, evalTime)
			require.NoError(t, err)

			assert.True(t, tt.wantSubtotal.Equal(got.Subtotal),
				"subtotal: want %s, got %s", tt.wantSubtotal, got.Subtotal)
			assert.True(t, tt.wantDiscount.Equal(got.Discount),
				"discount: want %s, got %s", tt.wantDiscount, got.Discount)
			assert.True(t, tt.wantTotal.Equal(got.Total),
				"total: want %s, got %s", tt.wantTotal, got.Total)

			appliedIDs := make([]string, len(got.Applied))
			for i, a := range got.Applied {
				appliedIDs[i] = a.PromotionID
			}
			assert.ElementsMatch(t, tt.wantApplied, appliedIDs)

			// Clamp invariant holds for every case.
			assert.False(t, got.Discount.IsNegative())
			assert.True(t, got.Discount.LessThanOrEqual(got.Subtotal))
			assert.True(t, got.Total.Equal(got.Subtotal.Sub(got.Discount)))
		})
	}
}

func TestEvaluate_EmptyCart(t *testing.T) {
	got, err := Evaluate(nil, []promo.Promotion{{
		ID: "p", Name: "Anything", DiscountType: promo.DiscountFixed, Value: dec(1000), Active: true,
	}}, "", evalTime)
	require.NoError(t, err)

	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Discount.IsZero())
	assert.True(t, got.Total.IsZero())
	assert.Empty(t, got.Applied)
}

func TestEvaluate_InvalidLines(t *testing.T) {
	tests := []struct {
		name string
		line CartLine
	}{
		{
			name: "zero quantity",
			line: CartLine{ServiceID: "svc", Unit: service.UnitKg, Quantity: dec(0), UnitPrice: dec(7000)},
		},
		{
			name: "negative quantity",
			line: CartLine{ServiceID: "svc", Unit: service.UnitKg, Quantity: dec(-1), UnitPrice: dec(7000)},
		},
		{
			name: "negative price",
			line: CartLine{ServiceID: "svc", Unit: service.UnitKg, Quantity: dec(1), UnitPrice: dec(-7000)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate([]CartLine{tt.line}, nil, "", evalTime)
			require.Error(t, err)
			assert.Nil(t, got)

			var lineErr *InvalidLineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, "svc", lineErr.ServiceID)
		})
	}
}

func TestEvaluate_FractionalWeightRounding(t *testing.T) {
	// 2.5kg at 7333/kg = 18332.5; 15% of that is 2749.875, which must be
	// rounded half-up to a whole currency unit exactly once.
	lines := []CartLine{{
		ServiceID: "cuci-kiloan",
		Unit:      service.UnitKg,
		Quantity:  decStr(t, "2.5"),
		UnitPrice: dec(7333),
	}}
	catalog := []promo.Promotion{{
		ID: "p", Name: "15% off",
		DiscountType: promo.DiscountPercentage, Value: dec(15), Active: true,
	}}

	got, err := Evaluate(lines, catalog, "", evalTime)
	require.NoError(t, err)

	assert.True(t, decStr(t, "18332.5").Equal(got.Subtotal))
	assert.True(t, dec(2750).Equal(got.Discount), "got %s", got.Discount)
	assert.True(t, decStr(t, "15582.5").Equal(got.Total))
}

func TestEvaluate_Idempotent(t *testing.T) {
	lines := []CartLine{
		kgLine("cuci-kiloan", 10, 7000),
		pcsLine("cuci-sepatu", 1, 35000),
	}
	catalog := []promo.Promotion{
		{ID: "p1", Name: "Voucher", Code: "ULANG", DiscountType: promo.DiscountFixed, Value: dec(10000), Active: true},
		{ID: "p2", Name: "Auto", DiscountType: promo.DiscountPercentage, Value: dec(5), Active: true},
	}

	first, err := Evaluate(lines, catalog, "ULANG", evalTime)
	require.NoError(t, err)
	second, err := Evaluate(lines, catalog, "ULANG", evalTime)
	require.NoError(t, err)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Discount.Equal(second.Discount))
	assert.True(t, first.Total.Equal(second.Total))
	require.Equal(t, len(first.Applied), len(second.Applied))
	for i := range first.Applied {
		assert.Equal(t, first.Applied[i].PromotionID, second.Applied[i].PromotionID)
		assert.True(t, first.Applied[i].Amount.Equal(second.Applied[i].Amount))
	}
}

func TestResult_AppliedCode(t *testing.T) {
	res := &Result{Applied: []Applied{
		{PromotionID: "p1", Code: "HEMAT10", Amount: dec(3500)},
		{PromotionID: "p2", Amount: dec(1000)},
	}}

	assert.True(t, res.AppliedCode("HEMAT10"))
	assert.True(t, res.AppliedCode("hemat10"))
	assert.False(t, res.AppliedCode("LAIN"))
	assert.False(t, res.AppliedCode(""))
}
