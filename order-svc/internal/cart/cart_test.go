package cart

import (
	"math/rand"
	"testing"

	"tableorder/order-svc/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burger() domain.MenuItem {
	return domain.MenuItem{ID: "burger", Name: "Burger", Price: 9.00, Available: true, RestaurantID: "r1"}
}

func TestCart_BurgerScenario(t *testing.T) {
	var c Cart
	require.True(t, c.IsEmpty())

	require.NoError(t, c.AddItem(burger()))
	require.NoError(t, c.AddItem(burger()))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.InDelta(t, 18.00, c.Total(), 1e-9)

	require.NoError(t, c.RemoveItem("burger"))
	assert.True(t, c.IsEmpty())
	assert.InDelta(t, 0.00, c.Total(), 1e-9)
}

func TestCart_AddItemAccumulates(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var c Cart
		added := map[string]int{}
		for i := 0; i < rng.Intn(30); i++ {
			id := ids[rng.Intn(len(ids))]
			require.NoError(t, c.AddItem(domain.MenuItem{ID: id, Name: id, Price: 1, Available: true, RestaurantID: "r1"}))
			added[id]++
		}

		assert.Len(t, c.Lines, len(added))
		for _, line := range c.Lines {
			assert.Equal(t, added[line.ItemID], line.Quantity)
		}
	}
}

func TestCart_ChangeQuantityClampsAtOne(t *testing.T) {
	var c Cart
	require.NoError(t, c.AddItem(burger()))
	require.NoError(t, c.ChangeQuantity("burger", 4))
	assert.Equal(t, 5, c.Lines[0].Quantity)

	require.NoError(t, c.ChangeQuantity("burger", -1000))
	assert.Equal(t, 1, c.Lines[0].Quantity)

	assert.ErrorIs(t, c.ChangeQuantity("missing", 1), ErrLineNotFound)
}

func TestCart_TotalUsesPriceAtAddTime(t *testing.T) {
	var c Cart
	item := burger()
	require.NoError(t, c.AddItem(item))

	item.Price = 12.50
	require.NoError(t, c.AddItem(item))

	assert.InDelta(t, 18.00, c.Total(), 1e-9)
}

func TestCart_RejectsOtherRestaurantAndUnavailable(t *testing.T) {
	var c Cart
	require.NoError(t, c.AddItem(burger()))

	other := burger()
	other.ID = "pizza"
	other.RestaurantID = "r2"
	assert.ErrorIs(t, c.AddItem(other), ErrRestaurantMismatch)

	sold := burger()
	sold.ID = "fries"
	sold.Available = false
	assert.ErrorIs(t, c.AddItem(sold), ErrItemUnavailable)

	require.NoError(t, c.RemoveItem("burger"))
	assert.NoError(t, c.AddItem(other))
	assert.Equal(t, "r2", c.RestaurantID)
}

func TestCart_ClearAndItems(t *testing.T) {
	c := Cart{Notes: "no onions", TableNumber: "4"}
	require.NoError(t, c.AddItem(burger()))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, domain.OrderItem{Name: "Burger", Quantity: 1, Price: 9.00}, items[0])

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Notes)
	assert.Empty(t, c.TableNumber)
}
