package reconcile

import (
	"testing"
	"time"

	"chromebook_lending/models"
)

func ts(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func device(id, tag, location, condition string) models.Device {
	return models.Device{ID: id, DeviceID: tag, Location: location, Condition: condition}
}

func counted(deviceID, method string, when time.Time) models.AuditItem {
	return models.AuditItem{DeviceID: deviceID, ScanMethod: method, CountedAt: when}
}

func TestMissingDevicesPartition(t *testing.T) {
	devices := []models.Device{
		device("d1", "CB-001", "Sala A", "good"),
		device("d2", "CB-002", "Sala A", "good"),
		device("d3", "CB-003", "Sala B", "fair"),
	}
	items := []models.AuditItem{counted("d2", models.ScanMethodQR, ts(9, 0))}

	missing := MissingDevices(items, devices)
	if len(missing) != 2 {
		t.Fatalf("missing = %d devices, want 2", len(missing))
	}
	// Kept in device order.
	if missing[0].ID != "d1" || missing[1].ID != "d3" {
		t.Errorf("missing order = %s, %s", missing[0].ID, missing[1].ID)
	}
	// Missing and counted partition the fleet.
	if len(missing)+len(items) != len(devices) {
		t.Errorf("partition broken: %d missing + %d counted != %d devices",
			len(missing), len(items), len(devices))
	}
}

func TestMissingDevicesNoneCounted(t *testing.T) {
	devices := []models.Device{device("d1", "CB-001", "", "")}
	if missing := MissingDevices(nil, devices); len(missing) != 1 {
		t.Errorf("missing = %d, want all devices", len(missing))
	}
	if missing := MissingDevices(nil, nil); len(missing) != 0 {
		t.Errorf("missing = %d for empty fleet", len(missing))
	}
}

func TestBuildReportSummary(t *testing.T) {
	started := ts(9, 0)
	audit := models.InventoryAudit{
		Status:      models.AuditCompleted,
		StartedAt:   started,
		CompletedAt: ptr(started.Add(time.Hour)),
	}
	devices := []models.Device{
		device("d1", "CB-001", "Sala A", "good"),
		device("d2", "CB-002", "Sala A", "good"),
		device("d3", "CB-003", "Sala B", "good"),
		device("d4", "CB-004", "Sala B", "good"),
		device("d5", "CB-005", "Sala B", "good"),
	}
	items := []models.AuditItem{
		counted("d1", models.ScanMethodQR, ts(9, 5)),
		counted("d2", models.ScanMethodQR, ts(9, 20)),
		counted("d3", models.ScanMethodManual, ts(9, 40)),
		counted("d4", models.ScanMethodQR, ts(9, 55)),
	}

	// The clock must be ignored once the audit is completed.
	r := BuildReport(audit, items, devices, 5, ts(15, 0))

	s := r.Summary
	if s.TotalCounted != 4 || s.TotalExpected != 5 {
		t.Errorf("counted/expected = %d/%d, want 4/5", s.TotalCounted, s.TotalExpected)
	}
	if s.CompletionRate != "80.0%" {
		t.Errorf("completion = %q, want 80.0%%", s.CompletionRate)
	}
	if s.Duration != "1h 0m" {
		t.Errorf("duration = %q, want 1h 0m", s.Duration)
	}
	if s.ItemsPerHour != 4.0 {
		t.Errorf("items/hour = %v, want 4", s.ItemsPerHour)
	}
	if s.AvgTimePerItem != "900s" {
		t.Errorf("avg/item = %q, want 900s", s.AvgTimePerItem)
	}

	if len(r.Discrepancies.Missing) != 1 || r.Discrepancies.Missing[0].DeviceID != "d5" {
		t.Errorf("missing = %+v, want only d5", r.Discrepancies.Missing)
	}
	if len(r.Discrepancies.Extra) != 0 {
		t.Errorf("extra must stay empty, got %+v", r.Discrepancies.Extra)
	}
}

func TestBuildReportOpenAuditUsesClock(t *testing.T) {
	audit := models.InventoryAudit{Status: models.AuditActive, StartedAt: ts(9, 0)}
	items := []models.AuditItem{counted("d1", models.ScanMethodQR, ts(9, 10))}

	r := BuildReport(audit, items, nil, 1, ts(9, 30))
	if r.Summary.Duration != "30m" {
		t.Errorf("duration = %q, want 30m", r.Summary.Duration)
	}
	if r.Summary.ItemsPerHour != 2.0 {
		t.Errorf("items/hour = %v, want 2", r.Summary.ItemsPerHour)
	}
}

func TestBuildReportShortElapsedKeepsRawCount(t *testing.T) {
	audit := models.InventoryAudit{
		StartedAt:   ts(9, 0),
		CompletedAt: ptr(ts(9, 0).Add(10 * time.Second)),
	}
	items := []models.AuditItem{
		counted("d1", models.ScanMethodQR, ts(9, 0)),
		counted("d2", models.ScanMethodQR, ts(9, 0)),
		counted("d3", models.ScanMethodQR, ts(9, 0)),
	}
	r := BuildReport(audit, items, nil, 3, ts(9, 0))
	if r.Summary.ItemsPerHour != 3 {
		t.Errorf("items/hour = %v, want raw count 3 under the extrapolation floor", r.Summary.ItemsPerHour)
	}
	if r.Summary.Duration != "< 1m" {
		t.Errorf("duration = %q, want < 1m", r.Summary.Duration)
	}
	if r.Summary.AvgTimePerItem != "3s" {
		t.Errorf("avg/item = %q, want 3s", r.Summary.AvgTimePerItem)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "< 1m"},
		{time.Minute, "1m"},
		{59 * time.Minute, "59m"},
		{time.Hour, "1h 0m"},
		{95 * time.Minute, "1h 35m"},
		{25 * time.Hour, "25h 0m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestDiscrepancyMismatches(t *testing.T) {
	items := []models.AuditItem{
		{DeviceID: "d1", ExpectedLocation: "Sala A", FoundLocation: "Sala B",
			ExpectedCondition: "good", FoundCondition: "good", CountedAt: ts(9, 0)},
		{DeviceID: "d2", ExpectedLocation: "Sala A", FoundLocation: "Sala A",
			ExpectedCondition: "good", FoundCondition: "damaged", CountedAt: ts(9, 0)},
		// Only one side declared counts as agreement.
		{DeviceID: "d3", ExpectedLocation: "", FoundLocation: "Sala C",
			ExpectedCondition: "good", FoundCondition: "", CountedAt: ts(9, 0)},
	}
	d := buildDiscrepancies(items, nil)

	if len(d.LocationMismatches) != 1 {
		t.Fatalf("location mismatches = %d, want 1", len(d.LocationMismatches))
	}
	lm := d.LocationMismatches[0]
	if lm.DeviceID != "d1" || lm.ExpectedLocation != "Sala A" || lm.LocationFound != "Sala B" {
		t.Errorf("location mismatch = %+v", lm)
	}

	if len(d.ConditionIssues) != 1 {
		t.Fatalf("condition issues = %d, want 1", len(d.ConditionIssues))
	}
	ci := d.ConditionIssues[0]
	if ci.DeviceID != "d2" || ci.ConditionFound != "damaged" {
		t.Errorf("condition issue = %+v", ci)
	}
}

func TestStatisticsByLocation(t *testing.T) {
	devices := []models.Device{
		device("d1", "CB-001", "Sala A", "good"),
		device("d2", "CB-002", "Sala A", "good"),
		device("d3", "CB-003", "Sala B", "good"),
		device("d4", "CB-004", "", "good"),
	}
	items := []models.AuditItem{
		{DeviceID: "d1", ExpectedLocation: "Sala A", FoundLocation: "Sala A", CountedAt: ts(9, 0), ScanMethod: models.ScanMethodQR},
		{DeviceID: "d3", ExpectedLocation: "Sala B", FoundLocation: "Sala A", CountedAt: ts(9, 5), ScanMethod: models.ScanMethodQR},
	}

	stats := buildStatistics(items, devices)

	if len(stats.ByLocation) != 3 {
		t.Fatalf("locations = %d, want Sala A, Sala B and the unknown bucket", len(stats.ByLocation))
	}

	// Sorted by counted desc, then name.
	first := stats.ByLocation[0]
	if first.Location != "Sala A" || first.Expected != 2 || first.Counted != 2 || first.Discrepancy != 0 {
		t.Errorf("Sala A = %+v", first)
	}
	for _, ls := range stats.ByLocation[1:] {
		switch ls.Location {
		case "Sala B":
			if ls.Expected != 1 || ls.Counted != 0 || ls.Discrepancy != -1 {
				t.Errorf("Sala B = %+v", ls)
			}
		case UnknownBucket:
			if ls.Expected != 1 || ls.Counted != 0 || ls.Discrepancy != -1 {
				t.Errorf("unknown bucket = %+v", ls)
			}
		default:
			t.Errorf("unexpected location %q", ls.Location)
		}
	}

	// Discrepancies across all locations sum to counted - expected.
	sum := 0
	for _, ls := range stats.ByLocation {
		sum += ls.Discrepancy
	}
	if sum != len(items)-len(devices) {
		t.Errorf("discrepancy sum = %d, want %d", sum, len(items)-len(devices))
	}
}

func TestStatisticsByMethodAndTime(t *testing.T) {
	items := []models.AuditItem{
		counted("d1", models.ScanMethodQR, ts(9, 10)),
		counted("d2", models.ScanMethodQR, ts(9, 40)),
		counted("d3", models.ScanMethodManual, ts(10, 5)),
		counted("d4", models.ScanMethodQR, ts(14, 0)),
	}
	stats := buildStatistics(items, nil)

	m := stats.ByMethod
	if m.QRCode != 3 || m.Manual != 1 {
		t.Errorf("methods = %d qr / %d manual, want 3/1", m.QRCode, m.Manual)
	}
	if m.QRCode+m.Manual != len(items) {
		t.Errorf("method counts do not cover all items")
	}
	if m.QRCodePct != 75 || m.ManualPct != 25 {
		t.Errorf("method pcts = %v/%v, want 75/25", m.QRCodePct, m.ManualPct)
	}

	if len(stats.ByTime) != 3 {
		t.Fatalf("time buckets = %d, want 3", len(stats.ByTime))
	}
	wantHours := []struct {
		hour  string
		count int
		cum   int
	}{
		{"09", 2, 2},
		{"10", 1, 3},
		{"14", 1, 4},
	}
	for i, w := range wantHours {
		got := stats.ByTime[i]
		if got.Hour != w.hour || got.Count != w.count || got.Cumulative != w.cum {
			t.Errorf("byTime[%d] = %+v, want %+v", i, got, w)
		}
	}
}

func TestStatisticsByCondition(t *testing.T) {
	items := []models.AuditItem{
		{DeviceID: "d1", FoundCondition: "good", CountedAt: ts(9, 0)},
		{DeviceID: "d2", FoundCondition: "good", CountedAt: ts(9, 0)},
		{DeviceID: "d3", ExpectedCondition: "fair", CountedAt: ts(9, 0)}, // falls back to expected
		{DeviceID: "d4", CountedAt: ts(9, 0)},                           // nothing declared
	}
	stats := buildStatistics(items, nil)

	if len(stats.ByCondition) != 3 {
		t.Fatalf("conditions = %d, want 3", len(stats.ByCondition))
	}
	top := stats.ByCondition[0]
	if top.Condition != "good" || top.Count != 2 || top.Pct != 50 {
		t.Errorf("top condition = %+v", top)
	}
	seen := map[string]bool{}
	for _, cs := range stats.ByCondition {
		seen[cs.Condition] = true
	}
	if !seen[UnknownBucket] {
		t.Errorf("undeclared condition missing the %q bucket", UnknownBucket)
	}
}

func TestBuildReportEmptyAudit(t *testing.T) {
	audit := models.InventoryAudit{StartedAt: ts(9, 0)}
	r := BuildReport(audit, nil, nil, 0, ts(9, 30))

	if r.Summary.CompletionRate != "0.0%" {
		t.Errorf("completion = %q", r.Summary.CompletionRate)
	}
	if r.Summary.AvgTimePerItem != "0s" {
		t.Errorf("avg/item = %q", r.Summary.AvgTimePerItem)
	}
	if r.Summary.ItemsPerHour != 0 {
		t.Errorf("items/hour = %v", r.Summary.ItemsPerHour)
	}
	if r.Discrepancies.Missing == nil || r.Statistics.ByLocation == nil || r.Statistics.ByTime == nil {
		t.Error("report slices must be non-nil for JSON")
	}
}
