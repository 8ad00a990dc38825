package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdvcaixa/internal/domain"
)

func TestEncodeWritesOnlyPersistedFields(t *testing.T) {
	payload, err := Encode(domain.Snapshot{
		Products: []domain.Product{{ID: "p1", Cod: "PROD-0001", Price: decimal.NewFromInt(5), Unit: domain.UnitPiece}},
		Theme:    domain.DefaultTheme(),
	})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &raw))

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, domain.PersistedFields, keys)
	for _, transient := range domain.TransientFields {
		assert.NotContains(t, raw, transient)
	}
}

func TestDecodeIgnoresLegacyCart(t *testing.T) {
	snap, err := Decode([]byte(`{"products":[{"id":"p1","cod":"PROD-0001","name":"Café","price":"5","stock":"10","unit":"UN"}],"cart":[{"id":"p1","quantity":"2"}]}`))
	require.NoError(t, err)
	require.Len(t, snap.Products, 1)
	assert.True(t, snap.Products[0].Stock.Equal(decimal.NewFromInt(10)))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.True(t, errors.Is(err, ErrCorrupt))
}
