package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypesCadenceOrder(t *testing.T) {
	assert.Equal(t, []SessionType{Daily, Monthly, Quarterly, Annual}, Types())
}

func TestItemsForCounts(t *testing.T) {
	counts := map[SessionType]int{
		Daily:     9,
		Monthly:   16,
		Quarterly: 1,
		Annual:    18,
	}

	for sessionType, want := range counts {
		items, err := ItemsFor(sessionType)
		require.NoError(t, err)
		assert.Len(t, items, want, "item count for %s", sessionType)
	}
}

func TestItemsForUniqueIDs(t *testing.T) {
	for _, sessionType := range Types() {
		items, err := ItemsFor(sessionType)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for _, item := range items {
			assert.False(t, seen[item.ID], "duplicate item %s in %s", item.ID, sessionType)
			seen[item.ID] = true
			assert.NotEmpty(t, item.Description, "item %s has no description", item.ID)
		}
	}
}

func TestItemsForStableOrder(t *testing.T) {
	first, err := ItemsFor(Daily)
	require.NoError(t, err)
	second, err := ItemsFor(Daily)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "DL1", first[0].ID)
}

func TestItemsForUnknownType(t *testing.T) {
	_, err := ItemsFor(SessionType("weekly"))
	assert.ErrorIs(t, err, ErrUnknownSessionType)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Daily))
	assert.True(t, Valid(Annual))
	assert.False(t, Valid(SessionType("weekly")))
	assert.False(t, Valid(SessionType("")))
}

func TestLookup(t *testing.T) {
	item, ok := Lookup(Daily, "DL1")
	require.True(t, ok)
	assert.Equal(t, "DL1", item.ID)

	_, ok = Lookup(Monthly, "DL1")
	assert.False(t, ok)

	_, ok = Lookup(SessionType("weekly"), "DL1")
	assert.False(t, ok)
}
