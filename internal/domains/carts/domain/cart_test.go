package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func line(sku string, qty int32, price int64) LineItem {
	return LineItem{SKU: sku, Quantity: qty, UnitPrice: decimal.NewFromInt(price), Kind: KindPhysical}
}

func TestAddLineValidates(t *testing.T) {
	cart := NewCart("shopper-1", "store")
	require.ErrorIs(t, cart.AddLine(line("", 1, 10)), ErrEmptySKU)
	require.ErrorIs(t, cart.AddLine(line("sku-1", 0, 10)), ErrInvalidQuantity)
	require.Empty(t, cart.Lines)
}

func TestAddLineMergesSameSKU(t *testing.T) {
	cart := NewCart("shopper-1", "store")
	require.NoError(t, cart.AddLine(line("sku-1", 2, 10)))
	require.NoError(t, cart.AddLine(line("sku-1", 3, 10)))
	require.Len(t, cart.Lines, 1)
	require.Equal(t, int32(5), cart.Lines[0].Quantity)
}

func TestAddLineDefaultsKindToPhysical(t *testing.T) {
	cart := NewCart("shopper-1", "store")
	require.NoError(t, cart.AddLine(LineItem{SKU: "sku-1", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}))
	require.Equal(t, KindPhysical, cart.Lines[0].Kind)
}

func TestBundleLinesNeverMerge(t *testing.T) {
	cart := NewCart("shopper-1", "store")
	bundle := line("bundle-1", 1, 30)
	bundle.Bundle = true
	bundle.Constituents = []string{"sku-1", "sku-2"}
	require.NoError(t, cart.AddLine(bundle))
	require.NoError(t, cart.AddLine(bundle))
	require.Len(t, cart.Lines, 2)

	// A plain line with the bundle's SKU stays separate too.
	require.NoError(t, cart.AddLine(line("bundle-1", 1, 30)))
	require.Len(t, cart.Lines, 3)
}

func TestMergeUnionsBySKU(t *testing.T) {
	current := NewCart("account-1", "store")
	require.NoError(t, current.AddLine(line("sku-1", 1, 10)))
	require.NoError(t, current.AddLine(line("sku-2", 1, 5)))

	previous := NewCart("anon-1", "store")
	require.NoError(t, previous.AddLine(line("sku-1", 2, 10)))
	require.NoError(t, previous.AddLine(line("sku-3", 1, 7)))

	current.Merge(previous)
	require.Len(t, current.Lines, 3)
	require.Equal(t, int32(3), current.Lines[0].Quantity)
}

func TestMergeCarriesBundlesAtomically(t *testing.T) {
	current := NewCart("account-1", "store")
	require.NoError(t, current.AddLine(line("bundle-1", 1, 30)))

	previous := NewCart("anon-1", "store")
	bundle := line("bundle-1", 1, 30)
	bundle.Bundle = true
	require.NoError(t, previous.AddLine(bundle))

	current.Merge(previous)
	require.Len(t, current.Lines, 2)
	require.True(t, current.Lines[1].Bundle)
	require.Equal(t, int32(1), current.Lines[0].Quantity)
}

func TestMergeNilPreviousIsNoop(t *testing.T) {
	current := NewCart("account-1", "store")
	require.NoError(t, current.AddLine(line("sku-1", 1, 10)))
	current.Merge(nil)
	require.Len(t, current.Lines, 1)
}

func TestTotalSumsExtendedPrices(t *testing.T) {
	cart := NewCart("shopper-1", "store")
	require.NoError(t, cart.AddLine(line("sku-1", 2, 10)))
	require.NoError(t, cart.AddLine(line("sku-2", 1, 5)))
	require.True(t, cart.Total().Equal(decimal.NewFromInt(25)))
}

func TestValidateCheckoutPreconditions(t *testing.T) {
	cart := NewCart("shopper-1", "store")
	require.ErrorIs(t, cart.Validate(), ErrEmptyCart)

	require.NoError(t, cart.AddLine(LineItem{SKU: "sku-1", Quantity: 1}))
	require.ErrorIs(t, cart.Validate(), ErrUnpricedCart)

	cart.Clear()
	require.NoError(t, cart.AddLine(line("sku-1", 1, 10)))
	require.NoError(t, cart.Validate())
}
