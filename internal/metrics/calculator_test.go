package metrics

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesops/stackranker/internal/contracts"
	"github.com/salesops/stackranker/internal/loader"
)

var asOf = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func row(owner string, stage int, amount float64) contracts.Opportunity {
	return contracts.Opportunity{
		ID:          owner + "-opp",
		Owner:       owner,
		Stage:       stage,
		Amount:      amount,
		Source:      "Inbound",
		CreatedDate: day(0),
		CloseDate:   day(60),
	}
}

func dataset(rows ...contracts.Opportunity) *contracts.Dataset {
	return &contracts.Dataset{Rows: rows, HasLateStageColumn: true}
}

func TestCompute_RepPerformanceScenario(t *testing.T) {
	// Owners [A,A,B], qualified [100,50,200], target [100,100,200]:
	// A has 150/100 = 150%, B has 200/200 = 100%; A ranks first.
	a1 := row("A", 2, 100)
	a1.QualifiedPipeQTD = 100
	a1.PipelineTargetQTD = 100
	a2 := row("A", 2, 50)
	a2.QualifiedPipeQTD = 50
	a2.PipelineTargetQTD = 100
	b := row("B", 2, 200)
	b.QualifiedPipeQTD = 200
	b.PipelineTargetQTD = 200

	snap, err := Compute(dataset(a1, a2, b), asOf)
	require.NoError(t, err)

	require.Len(t, snap.RepPerformance, 2)

	first := snap.RepPerformance[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "A", first.Owner)
	assert.Equal(t, 150.0, first.QualifiedPipeline)
	assert.Equal(t, 100.0, first.Target)
	assert.InDelta(t, 150.0, first.PercentToPlan, 1e-9)

	second := snap.RepPerformance[1]
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, "B", second.Owner)
	assert.Equal(t, 200.0, second.QualifiedPipeline)
	assert.Equal(t, 200.0, second.Target)
	assert.InDelta(t, 100.0, second.PercentToPlan, 1e-9)
}

func TestCompute_ZeroTargetYieldsZeroPercent(t *testing.T) {
	a := row("A", 2, 100)
	a.QualifiedPipeQTD = 100
	a.PipelineTargetQTD = 0

	snap, err := Compute(dataset(a), asOf)
	require.NoError(t, err)

	require.Len(t, snap.RepPerformance, 1)
	assert.Zero(t, snap.RepPerformance[0].PercentToPlan)
	assert.False(t, math.IsInf(snap.RepPerformance[0].PercentToPlan, 0))
}

func TestCompute_RepOrderingTieBreaks(t *testing.T) {
	// Equal percent-to-plan: larger qualified pipeline first, then name.
	mk := func(owner string, qualified, target float64) contracts.Opportunity {
		r := row(owner, 2, qualified)
		r.QualifiedPipeQTD = qualified
		r.PipelineTargetQTD = target
		return r
	}

	snap, err := Compute(dataset(
		mk("Zoe", 100, 100),
		mk("Amy", 100, 100),
		mk("Ben", 200, 200),
	), asOf)
	require.NoError(t, err)

	require.Len(t, snap.RepPerformance, 3)
	assert.Equal(t, "Ben", snap.RepPerformance[0].Owner) // 100%, qualified 200
	assert.Equal(t, "Amy", snap.RepPerformance[1].Owner) // 100%, qualified 100, name asc
	assert.Equal(t, "Zoe", snap.RepPerformance[2].Owner)
}

func TestCompute_OrderingStableUnderPermutation(t *testing.T) {
	base := loader.Generate(300, 11, asOf)

	want, err := Compute(base, asOf)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 5; trial++ {
		shuffled := &contracts.Dataset{
			Rows:               append([]contracts.Opportunity{}, base.Rows...),
			HasLateStageColumn: base.HasLateStageColumn,
		}
		rng.Shuffle(len(shuffled.Rows), func(i, j int) {
			shuffled.Rows[i], shuffled.Rows[j] = shuffled.Rows[j], shuffled.Rows[i]
		})

		got, err := Compute(shuffled, asOf)
		require.NoError(t, err)
		assert.Equal(t, want.RepPerformance, got.RepPerformance)
		assert.Equal(t, want.StageDistribution, got.StageDistribution)
		assert.Equal(t, want.SourceBreakdown, got.SourceBreakdown)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	ds := loader.Generate(250, 21, asOf)

	first, err := Compute(ds, asOf)
	require.NoError(t, err)
	second, err := Compute(ds, asOf)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompute_StageDistributionScenario(t *testing.T) {
	// Stage counts {0:5, 1:3, 2:0, 3:1, 4:2}.
	var rows []contracts.Opportunity
	addN := func(stage, n int, amount float64) {
		for i := 0; i < n; i++ {
			rows = append(rows, row("A", stage, amount))
		}
	}
	addN(0, 5, 1000)
	addN(1, 3, 2000)
	addN(3, 1, 4000)
	addN(4, 2, 5000)

	ds := &contracts.Dataset{Rows: rows} // no LateStageAmount column
	snap, err := Compute(ds, asOf)
	require.NoError(t, err)

	require.Len(t, snap.StageDistribution, 5)
	wantCounts := []int{5, 3, 0, 1, 2}
	total := 0
	for i, b := range snap.StageDistribution {
		assert.Equal(t, wantCounts[i], b.Count, "stage %s", b.Stage)
		total += b.Count
	}
	assert.Equal(t, ds.Len(), total)

	// total_pipeline excludes none; late stage falls back to stage 3+4 amounts.
	assert.Equal(t, 5*1000.0+3*2000.0+4000.0+2*5000.0, snap.TotalPipeline)
	assert.Equal(t, 4000.0+2*5000.0, snap.LateStageAmount)
}

func TestCompute_StageBucketsCoverAllRows(t *testing.T) {
	outlier := row("A", 9, 500)
	ds := dataset(row("A", 0, 100), row("B", 4, 200), outlier)

	snap, err := Compute(ds, asOf)
	require.NoError(t, err)

	require.Len(t, snap.StageDistribution, 6)
	unknown := snap.StageDistribution[5]
	assert.Equal(t, contracts.StageBucketUnknown, unknown.Stage)
	assert.Equal(t, 1, unknown.Count)
	assert.Equal(t, 1, snap.Diagnostics.UnknownStageRows)

	total := 0
	for _, b := range snap.StageDistribution {
		total += b.Count
	}
	assert.Equal(t, ds.Len(), total)
}

func TestCompute_WinRateExcludesUnknownStages(t *testing.T) {
	ds := dataset(row("A", 4, 100), row("B", 1, 100), row("C", 9, 100))

	snap, err := Compute(ds, asOf)
	require.NoError(t, err)

	// 1 won out of 2 rows with a determinable outcome.
	assert.InDelta(t, 0.5, snap.WinRate, 1e-9)
}

func TestCompute_EmptyAndDegenerateInput(t *testing.T) {
	snap, err := Compute(&contracts.Dataset{}, asOf)
	require.NoError(t, err)

	for _, v := range []float64{
		snap.TotalPipeline, snap.AvgDealSize, snap.WinRate,
		snap.LateStageAmount, snap.PipelineVelocity,
	} {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
		assert.Zero(t, v)
	}

	assert.GreaterOrEqual(t, snap.WinRate, 0.0)
	assert.LessOrEqual(t, snap.WinRate, 1.0)
	assert.Empty(t, snap.RepPerformance)

	// Zero-amount rows: avg deal size divides by the count of rows with
	// amount > 0, not by len(dataset).
	zeroAmounts := dataset(row("A", 1, 0), row("B", 2, 0))
	snap, err = Compute(zeroAmounts, asOf)
	require.NoError(t, err)
	assert.Zero(t, snap.AvgDealSize)
	assert.False(t, math.IsNaN(snap.AvgDealSize))
}

func TestCompute_PipelineVelocity(t *testing.T) {
	fast := row("A", 3, 100)
	fast.CreatedDate = day(0)
	fast.CloseDate = day(30)

	slow := row("B", 4, 100)
	slow.CreatedDate = day(0)
	slow.CloseDate = day(90)

	early := row("C", 1, 100) // below stage 3, excluded
	early.CreatedDate = day(0)
	early.CloseDate = day(500)

	inverted := row("D", 3, 100) // close before created: warning, excluded
	inverted.CreatedDate = day(50)
	inverted.CloseDate = day(10)

	snap, err := Compute(dataset(fast, slow, early, inverted), asOf)
	require.NoError(t, err)

	assert.InDelta(t, 60.0, snap.PipelineVelocity, 1e-9)
	assert.Equal(t, 1, snap.Diagnostics.InvertedDateRows)
}

func TestCompute_QualifiedPipelineIsPassThrough(t *testing.T) {
	// QTD figures come pre-aggregated; the calculator must sum them even
	// when they disagree with what a re-derivation from Amount would give.
	a := row("A", 0, 999999)
	a.QualifiedPipeQTD = 123
	b := row("B", 4, 1)
	b.QualifiedPipeQTD = 877

	snap, err := Compute(dataset(a, b), asOf)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, snap.QualifiedPipeline)
}

func TestCompute_SourceBreakdown(t *testing.T) {
	a := row("A", 4, 100)
	a.Source = "Inbound"
	b := row("B", 1, 200)
	b.Source = "Inbound"
	c := row("C", 2, 300)
	c.Source = "" // empty keys get their own bucket

	snap, err := Compute(dataset(a, b, c), asOf)
	require.NoError(t, err)

	require.Len(t, snap.SourceBreakdown, 2)

	inbound := snap.SourceBreakdown[0]
	assert.Equal(t, "Inbound", inbound.Name)
	assert.Equal(t, 2, inbound.Count)
	assert.Equal(t, 300.0, inbound.Amount)
	assert.InDelta(t, 0.5, inbound.WinRate, 1e-9)

	unknown := snap.SourceBreakdown[1]
	assert.Equal(t, contracts.SourceUnknown, unknown.Name)
	assert.Equal(t, 1, unknown.Count)

	total := 0
	for _, b := range snap.SourceBreakdown {
		total += b.Count
	}
	assert.Equal(t, 3, total)
}

func TestCompute_PipelineHealth(t *testing.T) {
	young := row("A", 0, 100)
	young.Stage0Age = 10

	mid := row("B", 0, 100)
	mid.Stage0Age = 45

	old := row("C", 0, 100)
	old.Stage0Age = 120

	derived := row("D", 0, 100) // no reported age: derived from asOf
	derived.Stage0Age = 0
	derived.CreatedDate = asOf.AddDate(0, 0, -70)

	later := row("E", 2, 100) // not stage 0, ignored

	snap, err := Compute(dataset(young, mid, old, derived, later), asOf)
	require.NoError(t, err)

	health := snap.PipelineHealth
	assert.Equal(t, 4, health.Stage0Count)
	assert.InDelta(t, (10+45+120+70)/4.0, health.AvgStage0Age, 1e-9)

	wantBuckets := map[string]int{"0-30": 1, "31-60": 1, "61-90": 1, "90+": 1}
	for _, b := range health.AgingBuckets {
		assert.Equal(t, wantBuckets[b.Label], b.Count, "bucket %s", b.Label)
	}
}
