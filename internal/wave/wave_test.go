package wave

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartaudit/internal/aggregate"
	"cartaudit/internal/header"
	pcsv "cartaudit/internal/parser/csv"
)

var dispatchCols = Columns{Route: 0, Area: 1}

func summary(routes ...aggregate.RouteSummary) aggregate.Result {
	return aggregate.Result{Routes: routes}
}

func TestReconcileKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"A", "Dock1"}, {"B", "Dock2"}, {"A", "Dock9"}, {"C", "Dock3"}}
	got := ReconcileRows(rows, dispatchCols, aggregate.Result{})

	require.Len(t, got, 3)
	assert.Equal(t, []Row{
		{RouteCode: "A", Location: "Dock1"},
		{RouteCode: "B", Location: "Dock2"},
		{RouteCode: "C", Location: "Dock3"},
	}, got)
}

func TestReconcileJoinsSummaries(t *testing.T) {
	t.Parallel()

	rows := [][]string{{" R2 ", " Dock2 "}, {"", "Dock0"}, {"R1", "Dock1"}, {"R3"}}
	sum := summary(
		aggregate.RouteSummary{RouteCode: "R1", Carts: 2, Bags: 2, OVs: 1},
		aggregate.RouteSummary{RouteCode: "R2", Carts: 1, Bags: 1, OVs: 3},
		aggregate.RouteSummary{RouteCode: "R9", Carts: 7, Bags: 7, OVs: 7},
	)
	got := ReconcileRows(rows, dispatchCols, sum)

	assert.Equal(t, []Row{
		{RouteCode: "R2", Location: "Dock2", Carts: 1, Bags: 1, OVs: 3},
		{RouteCode: "R1", Location: "Dock1", Carts: 2, Bags: 2, OVs: 1},
		{RouteCode: "R3"},
	}, got)
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"A", "1"}, {"B", "2"}, {"A", "3"}}
	sum := summary(aggregate.RouteSummary{RouteCode: "A", Carts: 4, Bags: 1})

	first := Partition(ReconcileRows(rows, dispatchCols, sum), DefaultSize)
	second := Partition(ReconcileRows(rows, dispatchCols, sum), DefaultSize)
	assert.Equal(t, first, second)
	assert.Equal(t, Digest(first), Digest(second))
	assert.Equal(t, [][]string{{"A", "1"}, {"B", "2"}, {"A", "3"}}, rows, "input rows must not change")
}

func TestReconcileTable(t *testing.T) {
	t.Parallel()

	tbl := pcsv.Table{Rows: [][]string{
		{"routeCode", "dispatchArea"},
		{"R1", "Dock1"},
		{"R2", "Dock2"},
	}}
	got, res, err := Reconcile(tbl, header.Dispatch, aggregate.Result{})
	require.NoError(t, err)
	assert.False(t, res.UsedFallback())
	assert.Len(t, got, 2)

	fb := pcsv.Table{Rows: [][]string{
		{"time", "code", "x", "area"},
		{"t", "R1", "x", "Dock1"},
	}}
	got, res, err = Reconcile(fb, header.Dispatch, aggregate.Result{})
	require.NoError(t, err)
	assert.True(t, res.UsedFallback())
	assert.Equal(t, []Row{{RouteCode: "R1", Location: "Dock1"}}, got)

	_, _, err = Reconcile(pcsv.Table{Rows: [][]string{{"routeCode"}}}, header.Dispatch, aggregate.Result{})
	require.ErrorIs(t, err, pcsv.ErrNoData)

	strict := header.Dispatch.With(header.Field{Key: header.DispatchArea, Variants: []string{"dispatch area"}, Fallback: header.NoFallback})
	_, _, err = Reconcile(pcsv.Table{Rows: [][]string{{"routeCode", "dock"}, {"R1", "D"}}}, strict, aggregate.Result{})
	require.ErrorIs(t, err, aggregate.ErrUnresolvedColumn)
}

func rowsN(n int) []Row {
	out := make([]Row, n)
	for i := range out {
		out[i] = Row{RouteCode: fmt.Sprintf("R%03d", i)}
	}
	return out
}

func TestPartition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n, size   int
		wantWaves int
		wantLast  int
	}{
		{n: 0, size: 36, wantWaves: 0},
		{n: 1, size: 36, wantWaves: 1, wantLast: 1},
		{n: 36, size: 36, wantWaves: 1, wantLast: 36},
		{n: 37, size: 36, wantWaves: 2, wantLast: 1},
		{n: 100, size: 36, wantWaves: 3, wantLast: 28},
		{n: 10, size: 0, wantWaves: 1, wantLast: 10},
		{n: 10, size: 3, wantWaves: 4, wantLast: 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("n=%d/size=%d", tc.n, tc.size), func(t *testing.T) {
			t.Parallel()
			rows := rowsN(tc.n)
			waves := Partition(rows, tc.size)
			require.Len(t, waves, tc.wantWaves)
			for i, w := range waves {
				assert.Equal(t, i+1, w.Number)
			}
			if tc.wantWaves > 0 {
				assert.Len(t, waves[len(waves)-1].Rows, tc.wantLast)
			}
			flat := make([]Row, 0, tc.n)
			for _, w := range waves {
				flat = append(flat, w.Rows...)
			}
			assert.Equal(t, rows, flat)
			assert.Equal(t, tc.n, Count(waves))
		})
	}
}

func TestPartitionDoesNotAlias(t *testing.T) {
	t.Parallel()

	waves := Partition(rowsN(4), 2)
	waves[0].Rows = append(waves[0].Rows, Row{RouteCode: "X"})
	assert.Equal(t, "R002", waves[1].Rows[0].RouteCode)
}

func TestViews(t *testing.T) {
	t.Parallel()

	r := Row{RouteCode: "R1", Location: "Dock1", Carts: 2, Bags: 1, OVs: 2.5}

	assert.Equal(t, []string{"Route Code", "Location", "Carts"}, Buffer.Header())
	assert.Equal(t, []string{"R1", "Dock1", "2"}, Buffer.Cells(r))

	assert.Equal(t, []string{"Route Code", "Location", "Carts", "Bags", "OVs", "Departed"}, BagCount.Header())
	assert.Equal(t, []string{"R1", "Dock1", "2", "1", "2.5", ""}, BagCount.Cells(r))

	for in, want := range map[string]View{"buffer": Buffer, " BagCount": BagCount, "bag-count": BagCount} {
		v, err := ParseView(in)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	_, err := ParseView("pdf")
	assert.Error(t, err)
	assert.Equal(t, "bagcount", BagCount.String())
}

func TestDigestChangesWithContent(t *testing.T) {
	t.Parallel()

	a := Partition([]Row{{RouteCode: "R1", Carts: 1}}, DefaultSize)
	b := Partition([]Row{{RouteCode: "R1", Carts: 2}}, DefaultSize)
	c := Partition([]Row{{RouteCode: "R1", Location: "1"}}, DefaultSize)
	d := Partition([]Row{{RouteCode: "R11"}}, DefaultSize)
	assert.NotEqual(t, Digest(a), Digest(b))
	assert.NotEqual(t, Digest(c), Digest(d))
	assert.Equal(t, Digest(nil), Digest([]Wave{}))
}

func TestHighlight(t *testing.T) {
	t.Parallel()

	r1 := Row{RouteCode: "R1", Carts: 1, Bags: 2, OVs: 1}
	r2 := Row{RouteCode: "R2", Carts: 3, Bags: 1, OVs: 3}

	for _, f := range BagCount.Fields() {
		assert.Equal(t, EmphasisNone, Highlight(f, r1), "R1 %s", f)
	}
	assert.Equal(t, EmphasisBag, Highlight(FieldBags, r2))
	assert.Equal(t, EmphasisOVs, Highlight(FieldOVs, r2))
	// Carts of 1 or 3 are never flagged.
	assert.Equal(t, EmphasisNone, Highlight(FieldCarts, Row{Carts: 1}))
	assert.Equal(t, EmphasisNone, Highlight(FieldCarts, r2))
	assert.Equal(t, EmphasisNone, Highlight(FieldBags, Row{Bags: 1.5}))
}
