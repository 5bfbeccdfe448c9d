package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/salesops/stackranker/internal/contracts"
)

// StructuralLoadError is fatal to the current analysis pass: the dataset
// cannot be used at all. Row-level problems never produce this error.
type StructuralLoadError struct {
	Reason string
}

func (e *StructuralLoadError) Error() string {
	return "structural load error: " + e.Reason
}

// Column names are matched case-sensitively against the CRM export.
var requiredColumns = []string{
	"OpportunityID",
	"Owner",
	"Role",
	"Region",
	"CreatedDate",
	"CloseDate",
	"Stage",
	"Amount",
	"Source",
	"LeadSourceCategory",
	"QualifiedPipeQTD",
	"AvgAge",
	"Stage0Age",
	"Stage0Count",
	"PipelineCreatedQTD",
	"PipelineTargetQTD",
}

// lateStageColumn is optional; when missing the calculator derives
// late-stage value from Amount for stage >= 3.
const lateStageColumn = "LateStageAmount"

// maxIssueSamples bounds the per-load issue sample list.
const maxIssueSamples = 10

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// LoadFile reads and validates a CSV file from disk.
func LoadFile(path string) (*contracts.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	return LoadCSV(f)
}

// LoadCSV reads a tabular opportunity export into the canonical dataset.
//
// Missing required columns and an empty dataset are structural errors.
// Malformed rows (unparseable numbers or dates, negative amounts) are
// dropped and counted; out-of-range stages are kept but flagged so the
// stage distribution can bucket them as unknown.
func LoadCSV(r io.Reader) (*contracts.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &StructuralLoadError{Reason: "dataset is empty"}
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &StructuralLoadError{
			Reason: "missing required columns: " + strings.Join(missing, ", "),
		}
	}

	_, hasLateStage := colIndex[lateStageColumn]

	ds := &contracts.Dataset{
		HasLateStageColumn: hasLateStage,
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			ds.MalformedRows++
			addIssue(ds, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		row, issue := parseRow(record, colIndex, hasLateStage)
		if issue != "" {
			ds.MalformedRows++
			addIssue(ds, fmt.Sprintf("line %d: %s", line, issue))
			continue
		}

		ds.Rows = append(ds.Rows, row)
	}

	if len(ds.Rows) == 0 {
		return nil, &StructuralLoadError{Reason: "dataset has no usable rows"}
	}

	return ds, nil
}

// parseRow coerces one CSV record into an Opportunity. A non-empty issue
// string means the row must be dropped.
func parseRow(record []string, colIndex map[string]int, hasLateStage bool) (contracts.Opportunity, string) {
	get := func(col string) string {
		idx := colIndex[col]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	row := contracts.Opportunity{
		ID:                 get("OpportunityID"),
		Owner:              get("Owner"),
		Role:               get("Role"),
		Region:             get("Region"),
		Source:             get("Source"),
		LeadSourceCategory: get("LeadSourceCategory"),
	}

	if row.ID == "" {
		return row, "OpportunityID is empty"
	}

	var err error
	if row.CreatedDate, err = parseDate(get("CreatedDate")); err != nil {
		return row, "CreatedDate: " + err.Error()
	}
	if row.CloseDate, err = parseDate(get("CloseDate")); err != nil {
		return row, "CloseDate: " + err.Error()
	}

	// Stage must be an integer but any value parses; out-of-range stages
	// stay in the dataset and surface in the unknown bucket.
	if row.Stage, err = strconv.Atoi(get("Stage")); err != nil {
		return row, "Stage is not an integer"
	}

	if row.Amount, err = parseFloat(get("Amount")); err != nil {
		return row, "Amount is not numeric"
	}
	if row.Amount < 0 {
		return row, "Amount is negative"
	}

	if row.QualifiedPipeQTD, err = parseFloat(get("QualifiedPipeQTD")); err != nil {
		return row, "QualifiedPipeQTD is not numeric"
	}
	if hasLateStage {
		if row.LateStageAmount, err = parseFloat(get(lateStageColumn)); err != nil {
			return row, "LateStageAmount is not numeric"
		}
	}
	if row.AvgAge, err = parseFloat(get("AvgAge")); err != nil {
		return row, "AvgAge is not numeric"
	}
	if row.Stage0Age, err = parseFloat(get("Stage0Age")); err != nil {
		return row, "Stage0Age is not numeric"
	}
	if row.Stage0Count, err = strconv.Atoi(get("Stage0Count")); err != nil {
		return row, "Stage0Count is not an integer"
	}
	if row.PipelineCreatedQTD, err = parseFloat(get("PipelineCreatedQTD")); err != nil {
		return row, "PipelineCreatedQTD is not numeric"
	}
	if row.PipelineTargetQTD, err = parseFloat(get("PipelineTargetQTD")); err != nil {
		return row, "PipelineTargetQTD is not numeric"
	}

	return row, ""
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

func parseFloat(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	// Tolerate currency-style thousands separators in exports.
	return strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
}

func addIssue(ds *contracts.Dataset, issue string) {
	if len(ds.IssueSamples) < maxIssueSamples {
		ds.IssueSamples = append(ds.IssueSamples, issue)
	}
}
