package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(price int64, stock int) *Product {
	return &Product{
		ID:       uuid.New(),
		TenantID: TenantOEO,
		Name:     "Product " + uuid.NewString()[:8],
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
	}
}

// Property: subtotal == price * qty and total == sum(subtotal) after every add
func TestProperty_CartTotalsStayConsistent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("cart totals are recomputed on every mutation", prop.ForAll(
		func(picks []int, qtys []int, cents []int64) bool {
			catalog := make([]*Product, len(cents))
			for i, c := range cents {
				catalog[i] = newTestProduct(0, 1000)
				catalog[i].Price = decimal.New(c, -2)
			}

			cart := NewCart(TenantOEO, time.Now())
			for i, pick := range picks {
				product := catalog[pick%len(catalog)]
				cart.Add(product, qtys[i%len(qtys)], time.Now())

				sum := decimal.Zero
				for _, item := range cart.Items {
					expected := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
					if !item.Subtotal.Equal(expected) {
						t.Logf("FAIL: subtotal %s, expected %s", item.Subtotal, expected)
						return false
					}
					sum = sum.Add(item.Subtotal)
				}
				if !cart.Total.Equal(sum) {
					t.Logf("FAIL: total %s, expected %s", cart.Total, sum)
					return false
				}
			}
			return true
		},
		gen.SliceOfN(20, gen.IntRange(0, 100)),
		gen.SliceOfN(5, gen.IntRange(1, 10)),
		gen.SliceOfN(4, gen.Int64Range(0, 999999)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: adding the same product twice never creates a duplicate line
func TestProperty_RepeatedAddMergesLine(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("re-adding a product increases quantity on one line", prop.ForAll(
		func(first int, second int) bool {
			product := newTestProduct(7, 1000)
			cart := NewCart(TenantOEO, time.Now())

			cart.Add(product, first, time.Now())
			cart.Add(product, second, time.Now())

			if len(cart.Items) != 1 {
				t.Logf("FAIL: expected 1 line, got %d", len(cart.Items))
				return false
			}
			return cart.Items[0].Quantity == first+second
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCart_AddKeepsPriceSnapshot(t *testing.T) {
	product := newTestProduct(100, 5)
	cart := NewCart(TenantOEO, time.Now())

	cart.Add(product, 2, time.Now())
	product.Price = decimal.NewFromInt(250)
	product.Name = "Renamed"
	cart.Add(product, 1, time.Now())

	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].Price.Equal(decimal.NewFromInt(100)))
	assert.NotEqual(t, "Renamed", cart.Items[0].Name)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(300)))
}

func TestCart_AddPreservesInsertionOrder(t *testing.T) {
	a := newTestProduct(1, 10)
	b := newTestProduct(2, 10)
	cart := NewCart(TenantOEO, time.Now())

	cart.Add(a, 1, time.Now())
	cart.Add(b, 1, time.Now())
	cart.Add(a, 1, time.Now())

	require.Len(t, cart.Items, 2)
	assert.Equal(t, a.ID, cart.Items[0].ProductID)
	assert.Equal(t, b.ID, cart.Items[1].ProductID)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(4)))
}

func TestCart_CloneIsIndependent(t *testing.T) {
	cart := NewCart(TenantOEO, time.Now())
	cart.Add(newTestProduct(3, 10), 1, time.Now())

	clone := cart.Clone()
	clone.Items[0].Quantity = 9
	clone.Recalculate()

	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(3)))
	assert.Nil(t, (*Cart)(nil).Clone())
}

func TestCart_IsEmpty(t *testing.T) {
	var missing *Cart
	assert.True(t, missing.IsEmpty())
	assert.True(t, NewCart(TenantOEO, time.Now()).IsEmpty())
}
