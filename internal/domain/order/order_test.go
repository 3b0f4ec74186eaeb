package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"waiting", "processing", "done", "canceled"} {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), st)
	}

	_, err := ParseStatus("shipped")
	require.Error(t, err)
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusWaiting, StatusProcessing, true},
		{StatusWaiting, StatusCanceled, true},
		{StatusWaiting, StatusDone, false},
		{StatusWaiting, StatusWaiting, false},
		{StatusProcessing, StatusDone, true},
		{StatusProcessing, StatusCanceled, true},
		{StatusProcessing, StatusWaiting, false},
		{StatusDone, StatusCanceled, false},
		{StatusDone, StatusProcessing, false},
		{StatusCanceled, StatusWaiting, false},
		{StatusCanceled, StatusDone, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestLineItemTotal(t *testing.T) {
	item := LineItem{
		ProductSlug: "gopher-mug",
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("1.50"),
	}
	assert.True(t, decimal.RequireFromString("4.50").Equal(item.Total()))
}
