package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/salesops/stackranker/internal/contracts"
)

// Aging bucket boundaries for stage-0 opportunities, in days.
var agingBands = []struct {
	label string
	max   float64 // inclusive upper bound; last band is open-ended
}{
	{"0-30", 30},
	{"31-60", 60},
	{"61-90", 90},
	{"90+", -1},
}

// Compute transforms a canonical dataset into the metrics snapshot consumed
// by every visualization and by the alert evaluator.
//
// Compute is pure: no side effects, and identical (dataset, asOf) inputs
// produce bit-identical snapshots. Runtime is O(n log n), dominated by the
// rep-performance sort. Row-level data-quality issues never fail the pass;
// they are counted in the snapshot diagnostics instead.
func Compute(ds *contracts.Dataset, asOf time.Time) (*contracts.MetricsSnapshot, error) {
	if ds == nil {
		return nil, fmt.Errorf("compute requires a dataset")
	}

	snap := &contracts.MetricsSnapshot{
		AsOf: asOf,
		Diagnostics: contracts.Diagnostics{
			MalformedRows: ds.MalformedRows,
			IssueSamples:  ds.IssueSamples,
		},
	}

	computeScalars(ds, snap)
	computeRepPerformance(ds, snap)
	computeStageDistribution(ds, snap)
	computeSourceBreakdowns(ds, snap)
	computePipelineHealth(ds, snap, asOf)

	return snap, nil
}

// computeScalars fills the scalar KPIs.
func computeScalars(ds *contracts.Dataset, snap *contracts.MetricsSnapshot) {
	var (
		totalPipeline   float64
		qualifiedPipe   float64
		lateStageField  float64
		lateStageByRow  float64
		amountCount     int
		wonCount        int
		outcomeCount    int
		velocitySumDays float64
		velocityCount   int
	)

	for i := range ds.Rows {
		row := &ds.Rows[i]

		// The feed does not encode lost deals; every row is open or won, so
		// all rows count toward the total.
		totalPipeline += row.Amount
		if row.Amount > 0 {
			amountCount++
		}

		// QTD figures are pre-aggregated upstream: reduce, never re-derive.
		qualifiedPipe += row.QualifiedPipeQTD
		lateStageField += row.LateStageAmount

		if row.HasKnownStage() {
			outcomeCount++
			if row.IsClosedWon() {
				wonCount++
			}
			if row.IsLateStage() {
				lateStageByRow += row.Amount
			}
			if row.Stage >= contracts.StageLate {
				days := row.CloseDate.Sub(row.CreatedDate).Hours() / 24
				if days < 0 {
					snap.Diagnostics.InvertedDateRows++
				} else {
					velocitySumDays += days
					velocityCount++
				}
			}
		}
	}

	snap.TotalPipeline = totalPipeline
	snap.QualifiedPipeline = qualifiedPipe

	if amountCount > 0 {
		snap.AvgDealSize = totalPipeline / float64(amountCount)
	}

	if outcomeCount > 0 {
		snap.WinRate = float64(wonCount) / float64(outcomeCount)
	}

	if ds.HasLateStageColumn {
		snap.LateStageAmount = lateStageField
	} else {
		snap.LateStageAmount = lateStageByRow
	}

	if velocityCount > 0 {
		snap.PipelineVelocity = velocitySumDays / float64(velocityCount)
	}
}

// computeRepPerformance groups rows by owner and ranks reps by
// percent-to-plan. The tie-break chain (percent desc, qualified pipeline
// desc, owner asc) keeps the ordering stable under row permutation.
func computeRepPerformance(ds *contracts.Dataset, snap *contracts.MetricsSnapshot) {
	type rollup struct {
		qualified float64
		target    float64
	}

	byOwner := make(map[string]*rollup)
	for i := range ds.Rows {
		row := &ds.Rows[i]
		owner := row.Owner
		if owner == "" {
			owner = contracts.SourceUnknown
		}

		r, ok := byOwner[owner]
		if !ok {
			r = &rollup{}
			byOwner[owner] = r
		}
		r.qualified += row.QualifiedPipeQTD

		// PipelineTargetQTD is a rep-level figure repeated on every row of
		// that rep; summing would double-count it. Rows for one owner should
		// agree, but if they don't the largest wins so the result does not
		// depend on row order.
		if row.PipelineTargetQTD > r.target {
			r.target = row.PipelineTargetQTD
		}
	}

	reps := make([]contracts.RepPerformance, 0, len(byOwner))
	for owner, r := range byOwner {
		percent := 0.0
		if r.target > 0 {
			percent = r.qualified / r.target * 100
		}
		reps = append(reps, contracts.RepPerformance{
			Owner:             owner,
			QualifiedPipeline: r.qualified,
			Target:            r.target,
			PercentToPlan:     percent,
		})
	}

	sort.Slice(reps, func(i, j int) bool {
		if reps[i].PercentToPlan != reps[j].PercentToPlan {
			return reps[i].PercentToPlan > reps[j].PercentToPlan
		}
		if reps[i].QualifiedPipeline != reps[j].QualifiedPipeline {
			return reps[i].QualifiedPipeline > reps[j].QualifiedPipeline
		}
		return reps[i].Owner < reps[j].Owner
	})

	for i := range reps {
		reps[i].Rank = i + 1
	}

	snap.RepPerformance = reps
}

// computeStageDistribution buckets every row by stage. Out-of-range stages
// go to the unknown bucket so that bucket counts always sum to the dataset
// row count.
func computeStageDistribution(ds *contracts.Dataset, snap *contracts.MetricsSnapshot) {
	counts := make(map[string]*contracts.StageBucket)

	bucketFor := func(row *contracts.Opportunity) string {
		if row.HasKnownStage() {
			return strconv.Itoa(row.Stage)
		}
		return contracts.StageBucketUnknown
	}

	for i := range ds.Rows {
		row := &ds.Rows[i]
		key := bucketFor(row)
		b, ok := counts[key]
		if !ok {
			b = &contracts.StageBucket{Stage: key}
			counts[key] = b
		}
		b.Count++
		b.Amount += row.Amount

		if key == contracts.StageBucketUnknown {
			snap.Diagnostics.UnknownStageRows++
		}
	}

	// Fixed output order: stages 0-4 always present, unknown appended only
	// when populated.
	buckets := make([]contracts.StageBucket, 0, 6)
	for stage := contracts.StageProspecting; stage <= contracts.StageClosedWon; stage++ {
		key := strconv.Itoa(stage)
		if b, ok := counts[key]; ok {
			buckets = append(buckets, *b)
		} else {
			buckets = append(buckets, contracts.StageBucket{Stage: key})
		}
	}
	if b, ok := counts[contracts.StageBucketUnknown]; ok {
		buckets = append(buckets, *b)
	}

	snap.StageDistribution = buckets
}

// computeSourceBreakdowns rolls rows up by source and by lead source
// category. Empty keys become their own "Unknown" bucket rather than being
// dropped, preserving row-count invariants.
func computeSourceBreakdowns(ds *contracts.Dataset, snap *contracts.MetricsSnapshot) {
	snap.SourceBreakdown = groupBySource(ds, func(o *contracts.Opportunity) string { return o.Source })
	snap.LeadSourceBreakdown = groupBySource(ds, func(o *contracts.Opportunity) string { return o.LeadSourceCategory })
}

func groupBySource(ds *contracts.Dataset, key func(*contracts.Opportunity) string) []contracts.SourceBucket {
	type rollup struct {
		count   int
		amount  float64
		won     int
		outcome int
	}

	byKey := make(map[string]*rollup)
	for i := range ds.Rows {
		row := &ds.Rows[i]
		name := key(row)
		if name == "" {
			name = contracts.SourceUnknown
		}

		r, ok := byKey[name]
		if !ok {
			r = &rollup{}
			byKey[name] = r
		}
		r.count++
		r.amount += row.Amount
		if row.HasKnownStage() {
			r.outcome++
			if row.IsClosedWon() {
				r.won++
			}
		}
	}

	buckets := make([]contracts.SourceBucket, 0, len(byKey))
	for name, r := range byKey {
		winRate := 0.0
		if r.outcome > 0 {
			winRate = float64(r.won) / float64(r.outcome)
		}
		buckets = append(buckets, contracts.SourceBucket{
			Name:    name,
			Count:   r.count,
			Amount:  r.amount,
			WinRate: winRate,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Name < buckets[j].Name
	})

	return buckets
}

// computePipelineHealth summarizes stage-0 staleness. When a stage-0 row
// reports no age, the age is derived from asOf and the created date.
func computePipelineHealth(ds *contracts.Dataset, snap *contracts.MetricsSnapshot, asOf time.Time) {
	health := contracts.PipelineHealth{
		AgingBuckets: make([]contracts.AgingBucket, len(agingBands)),
	}
	for i, band := range agingBands {
		health.AgingBuckets[i] = contracts.AgingBucket{Label: band.label}
	}

	var ageSum float64
	for i := range ds.Rows {
		row := &ds.Rows[i]
		if row.Stage != contracts.StageProspecting {
			continue
		}

		age := row.Stage0Age
		if age == 0 {
			age = asOf.Sub(row.CreatedDate).Hours() / 24
			if age < 0 {
				age = 0
			}
		}

		health.Stage0Count++
		ageSum += age
		health.AgingBuckets[bandIndex(age)].Count++
	}

	if health.Stage0Count > 0 {
		health.AvgStage0Age = ageSum / float64(health.Stage0Count)
	}

	snap.PipelineHealth = health
}

func bandIndex(age float64) int {
	for i, band := range agingBands {
		if band.max < 0 || age <= band.max {
			return i
		}
	}
	return len(agingBands) - 1
}
