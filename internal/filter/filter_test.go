package filter

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/internal/dataset"
)

func segmentsFixture() *dataset.Dataset {
	return dataset.New(
		[]string{"customer_id", "segment", "recency_days", "total_sales"},
		[][]string{
			{"C-100", "A", "5", "1200"},
			{"C-101", "B", "20", "430"},
			{"C-102", "A", "45", "80"},
			{"C-103", "C", "90", "9000"},
			{"C-104", "A", "60", "310"},
		},
	)
}

func ids(ds *dataset.Dataset) []string {
	out := make([]string, ds.Len())
	for i := range out {
		out[i] = ds.Cell(i, 0)
	}
	return out
}

func TestApplyEquals(t *testing.T) {
	ds := segmentsFixture()

	got := Apply(ds, []Predicate{Equals("segment", "A")})
	assert.Equal(t, []string{"C-100", "C-102", "C-104"}, ids(got))
}

func TestApplyEqualsTrimsWhitespace(t *testing.T) {
	ds := dataset.New(
		[]string{"segment"},
		[][]string{{" A "}, {"A"}, {"a"}},
	)

	got := Apply(ds, []Predicate{Equals("segment", "  A ")})
	assert.Equal(t, 2, got.Len(), "trimmed match, case sensitive")
}

func TestApplyRange(t *testing.T) {
	ds := segmentsFixture()

	got := Apply(ds, []Predicate{Range("recency_days", 10, 50)})
	assert.Equal(t, []string{"C-101", "C-102"}, ids(got))
}

func TestApplyRangeExcludesNonNumeric(t *testing.T) {
	ds := dataset.New(
		[]string{"recency_days"},
		[][]string{{"10"}, {"n/a"}, {""}, {"30"}},
	)

	got := Apply(ds, []Predicate{Range("recency_days", 0, 100)})
	assert.Equal(t, 2, got.Len())
}

func TestApplyContains(t *testing.T) {
	ds := segmentsFixture()

	got := Apply(ds, []Predicate{Contains("customer_id", "c-10")})
	assert.Equal(t, 5, got.Len(), "case-insensitive substring")

	got = Apply(ds, []Predicate{Contains("customer_id", "103")})
	assert.Equal(t, []string{"C-103"}, ids(got))
}

func TestApplyConjunction(t *testing.T) {
	ds := segmentsFixture()

	got := Apply(ds, []Predicate{
		Equals("segment", "A"),
		Range("recency_days", 10, 50),
	})
	assert.Equal(t, []string{"C-102"}, ids(got))
}

func TestApplyOrderInvariance(t *testing.T) {
	ds := segmentsFixture()
	preds := []Predicate{
		Equals("segment", "A"),
		Range("recency_days", 0, 70),
		Contains("customer_id", "C-1"),
	}

	want := Apply(ds, preds)
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]Predicate, len(preds))
		copy(shuffled, preds)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.Equal(t, want, Apply(ds, shuffled))
	}
}

func TestApplyMissingColumnIsNoOp(t *testing.T) {
	ds := segmentsFixture()

	got := Apply(ds, []Predicate{Equals("warehouse", "W1")})
	assert.Equal(t, ds.Len(), got.Len())
}

func TestApplyEmptySubstringIsNoOp(t *testing.T) {
	ds := segmentsFixture()

	got := Apply(ds, []Predicate{Contains("customer_id", "")})
	assert.Equal(t, ds.Len(), got.Len())
}

func TestApplyNoPredicates(t *testing.T) {
	ds := segmentsFixture()

	got := Apply(ds, nil)
	require.NotNil(t, got)
	assert.Equal(t, ds.Rows, got.Rows)
	assert.NotSame(t, ds, got, "apply always returns a fresh dataset")
}

func TestApplyNilDataset(t *testing.T) {
	assert.Nil(t, Apply(nil, []Predicate{Equals("a", "b")}))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	ds := segmentsFixture()
	before := ds.Len()

	Apply(ds, []Predicate{Equals("segment", "C")})
	assert.Equal(t, before, ds.Len())
}
