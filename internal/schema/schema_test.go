package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/internal/dataset"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "order date", Normalize("  Order Date "))
	assert.Equal(t, "sales", Normalize("SALES"))
	assert.Equal(t, "", Normalize("   "))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		concept Concept
		want    string
		wantOK  bool
	}{
		{
			name:    "exact match",
			columns: []string{"order_date", "sales"},
			concept: ConceptDate,
			want:    "order_date",
			wantOK:  true,
		},
		{
			name:    "case and whitespace insensitive",
			columns: []string{"  Order Date ", "Revenue"},
			concept: ConceptDate,
			want:    "  Order Date ",
			wantOK:  true,
		},
		{
			name:    "first matching column wins over later alias",
			columns: []string{"revenue", "sales"},
			concept: ConceptAmount,
			want:    "revenue",
			wantOK:  true,
		},
		{
			name:    "segment via label alias",
			columns: []string{"customer_id", "Label"},
			concept: ConceptSegment,
			want:    "Label",
			wantOK:  true,
		},
		{
			name:    "no match",
			columns: []string{"foo", "bar"},
			concept: ConceptAmount,
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := dataset.New(tt.columns, nil)
			got, ok := Resolve(ds, tt.concept)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNilDataset(t *testing.T) {
	_, ok := Resolve(nil, ConceptDate)
	assert.False(t, ok)

	_, ok = ResolveIndex(nil, ConceptDate)
	assert.False(t, ok)
}

func TestResolveIsDeterministic(t *testing.T) {
	ds := dataset.New([]string{"date", "order_date", "sales"}, nil)
	for i := 0; i < 10; i++ {
		col, ok := Resolve(ds, ConceptDate)
		require.True(t, ok)
		// "date" is first in column order even though "order date" leads
		// the alias set.
		assert.Equal(t, "date", col)
	}
}

func TestResolveIndex(t *testing.T) {
	ds := dataset.New([]string{"customer id", "Segment", "recency"}, nil)

	idx, ok := ResolveIndex(ds, ConceptRecency)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = ResolveIndex(ds, ConceptCustomerID)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestAliasesReturnsCopy(t *testing.T) {
	a := Aliases(ConceptDate)
	require.NotEmpty(t, a)
	a[0] = "mutated"

	b := Aliases(ConceptDate)
	assert.NotEqual(t, "mutated", b[0])
}
