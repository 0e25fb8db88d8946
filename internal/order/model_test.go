package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"accepted", StatusAccepted, false},
		{"delivered", StatusDelivered, false},
		{"cancelled", StatusCancelled, false},
		{"canceled", StatusCancelled, false},
		// Legacy vocabulary from the old admin surface.
		{"Pending", StatusPending, false},
		{"Completed", StatusDelivered, false},
		{"Cancelled", StatusCancelled, false},
		{"completed", StatusDelivered, false},
		{" delivered ", StatusDelivered, false},
		{"paid", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseStatus(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusAccepted.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestTransitions(t *testing.T) {
	// Exactly the defined edges, nothing in or out of terminal states.
	assert.Equal(t, StatusSet{StatusPending}, Transitions[StatusAccepted])
	assert.Equal(t, StatusSet{StatusAccepted}, Transitions[StatusDelivered])
	assert.Equal(t, StatusSet{StatusPending, StatusAccepted}, Transitions[StatusCancelled])

	_, ok := Transitions[StatusPending]
	assert.False(t, ok, "nothing transitions into pending")

	for to, from := range Transitions {
		assert.False(t, from.Contains(StatusDelivered), "no edge out of delivered into %s", to)
		assert.False(t, from.Contains(StatusCancelled), "no edge out of cancelled into %s", to)
	}
}

func TestItems_Amount(t *testing.T) {
	items := Items{
		{ItemID: "a", Name: "Samosa", UnitPrice: 3000, Quantity: 2},
		{ItemID: "b", Name: "Chai", UnitPrice: 1500, Quantity: 3},
	}
	assert.Equal(t, int64(10500), items.Amount())

	assert.Equal(t, int64(0), Items{}.Amount())
}

func TestItems_ScanValue(t *testing.T) {
	items := Items{
		{ItemID: "a", Name: "Dosa", UnitPrice: 5000, Quantity: 1, Description: "plain"},
	}

	val, err := items.Value()
	assert.NoError(t, err)

	var got Items
	assert.NoError(t, got.Scan(val))
	assert.Equal(t, items, got)

	t.Run("String source", func(t *testing.T) {
		var fromStr Items
		assert.NoError(t, fromStr.Scan(`[{"item_id":"x","name":"Idli","unit_price":2000,"quantity":2}]`))
		assert.Len(t, fromStr, 1)
		assert.Equal(t, int64(4000), fromStr.Amount())
	})

	t.Run("Nil source", func(t *testing.T) {
		var fromNil Items
		assert.NoError(t, fromNil.Scan(nil))
		assert.Nil(t, fromNil)
	})

	t.Run("Unsupported source", func(t *testing.T) {
		var bad Items
		assert.Error(t, bad.Scan(42))
	})
}
