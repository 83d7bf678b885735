package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Args
	}{
		{"nil", nil, Args{}},
		{"empty string", "", Args{}},
		{"whitespace", "   \n", Args{}},
		{"mapping passes through", map[string]any{"sku": "SKU-001", "quantity": 5}, Args{"sku": "SKU-001", "quantity": 5}},
		{"string mapping", map[string]string{"sku": "SKU-001"}, Args{"sku": "SKU-001"}},
		{"json object", `{"sku":"SKU-001","quantity":5}`, Args{"sku": "SKU-001", "quantity": float64(5)}},
		{"json raw message", json.RawMessage(`{"day":"monday"}`), Args{"day": "monday"}},
		{"loose tokens", "sku=SKU-001 quantity=5", Args{"sku": "SKU-001", "quantity": 5}},
		{"comma separated", "sku=SKU-001,quantity=5", Args{"sku": "SKU-001", "quantity": 5}},
		{"quoted", `"sku"="SKU-001" 'unit'='boxes'`, Args{"sku": "SKU-001", "unit": "boxes"}},
		{"float value", "health=0.42", Args{"health": 0.42}},
		{"split on first equals", "expr=a=b", Args{"expr": "a=b"}},
		{"broken json falls through", `{sku=SKU-001}`, Args{"sku": "SKU-001"}},
		{"braces inside value kept", "note={urgent}", Args{"note": "{urgent}"}},
		{"stray closing brace on key", "sku}=SKU-001", Args{"sku": "SKU-001"}},
		{"bare scalar", "SKU-001", Args{"value": "SKU-001"}},
		{"bare number", "42", Args{"value": 42}},
		{"unparseable", "just some words", Args{}},
		{"unsupported type", 3.14, Args{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringMatching(`[a-z_]{1,8}`).Draw(t, "key")
		val := rapid.OneOf(
			rapid.Just[any]("text"),
			rapid.IntRange(-1000, 1000).AsAny(),
			rapid.StringMatching(`[A-Z0-9-]{1,10}`).AsAny(),
		).Draw(t, "val")

		once := Normalize(map[string]any{key: val})
		twice := Normalize(once)
		if len(once) != len(twice) || once[key] != twice[key] {
			t.Fatalf("normalize not idempotent: %v vs %v", once, twice)
		}
	})
}

func TestArgsGetters(t *testing.T) {
	a := Args{"sku": " SKU-001 ", "qty": float64(5), "half": 2.5, "text": "7", "blank": "  ", "value": "EQ-1"}

	assert.Equal(t, "SKU-001", a.String("sku"))
	assert.Equal(t, "EQ-1", a.String("equipment_id", "value"))
	assert.Equal(t, "", a.String("blank"))
	assert.Equal(t, "5", a.String("qty"))
	assert.False(t, a.Has("blank"))
	assert.False(t, a.Has("missing"))

	n, ok := a.Int("qty")
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	_, ok = a.Int("half")
	assert.False(t, ok)
	n, ok = a.Int("text")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	f, ok := a.Float("half")
	assert.True(t, ok)
	assert.InDelta(t, 2.5, f, 1e-9)
	_, ok = a.Float("sku")
	assert.False(t, ok)
}
