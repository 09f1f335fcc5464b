// Package reconcile diffs a physical inventory count against the expected
// device fleet. Like availability, everything here is a pure function over
// snapshots with an explicit clock; db fetches the audit, its items and the
// device list, and this package turns them into the report the frontend
// renders.
package reconcile

import (
	"fmt"
	"math"
	"sort"
	"time"

	"chromebook_lending/models"
)

// UnknownBucket is the statistics bucket for devices or counts without a
// location/condition. Kept in Portuguese because the frontend shows the
// label verbatim.
const UnknownBucket = "Não informado"

type Report struct {
	Summary       Summary       `json:"summary"`
	Discrepancies Discrepancies `json:"discrepancies"`
	Statistics    Statistics    `json:"statistics"`
}

type Summary struct {
	TotalCounted   int     `json:"total_counted"`
	TotalExpected  int     `json:"total_expected"`
	CompletionRate string  `json:"completion_rate"`       // "80.0%"
	Duration       string  `json:"duration"`              // "1h 5m", "45m", "< 1m"
	ItemsPerHour   float64 `json:"items_per_hour"`
	AvgTimePerItem string  `json:"average_time_per_item"` // "12s"
}

type Discrepancies struct {
	Missing            []MissingEntry      `json:"missing"`
	Extra              []ExtraEntry        `json:"extra"` // schema kept for compat, never populated
	LocationMismatches []LocationMismatch  `json:"location_mismatches"`
	ConditionIssues    []ConditionMismatch `json:"condition_issues"`
}

type MissingEntry struct {
	DeviceID          string `json:"device_id"`
	Tag               string `json:"tag"`
	ExpectedLocation  string `json:"expected_location"`
	ExpectedCondition string `json:"expected_condition"`
}

type ExtraEntry struct {
	DeviceID string `json:"device_id"`
}

type LocationMismatch struct {
	DeviceID         string `json:"device_id"`
	ExpectedLocation string `json:"expected_location"`
	LocationFound    string `json:"location_found"`
}

type ConditionMismatch struct {
	DeviceID          string `json:"device_id"`
	ExpectedCondition string `json:"expected_condition"`
	ConditionFound    string `json:"condition_found"`
}

type Statistics struct {
	ByLocation  []LocationStat  `json:"by_location"`
	ByMethod    MethodStats     `json:"by_method"`
	ByCondition []ConditionStat `json:"by_condition"`
	ByTime      []TimeStat      `json:"by_time"`
}

type LocationStat struct {
	Location    string `json:"location"`
	Expected    int    `json:"expected"`
	Counted     int    `json:"counted"`
	Discrepancy int    `json:"discrepancy"` // counted - expected
}

type MethodStats struct {
	QRCode    int     `json:"qr_code"`
	Manual    int     `json:"manual"`
	QRCodePct float64 `json:"qr_code_pct"`
	ManualPct float64 `json:"manual_pct"`
}

type ConditionStat struct {
	Condition string  `json:"condition"`
	Count     int     `json:"count"`
	Pct       float64 `json:"pct"`
}

type TimeStat struct {
	Hour       string `json:"hour"` // "00".."23"
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// MissingDevices returns every device not referenced by a counted item, in
// the order the devices were given.
func MissingDevices(items []models.AuditItem, devices []models.Device) []models.Device {
	counted := make(map[string]bool, len(items))
	for _, it := range items {
		counted[it.DeviceID] = true
	}
	var missing []models.Device
	for _, d := range devices {
		if !counted[d.ID] {
			missing = append(missing, d)
		}
	}
	return missing
}

// BuildReport assembles the full discrepancy report for one audit. now is
// only consulted while the audit is still open (duration and pace are then
// measured up to the present instant).
func BuildReport(audit models.InventoryAudit, items []models.AuditItem, devices []models.Device, totalExpected int, now time.Time) Report {
	endedAt := now
	if audit.CompletedAt != nil {
		endedAt = *audit.CompletedAt
	}
	elapsed := endedAt.Sub(audit.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	return Report{
		Summary:       buildSummary(len(items), totalExpected, elapsed),
		Discrepancies: buildDiscrepancies(items, devices),
		Statistics:    buildStatistics(items, devices),
	}
}

func buildSummary(counted, expected int, elapsed time.Duration) Summary {
	completion := "0.0%"
	if expected > 0 {
		completion = fmt.Sprintf("%.1f%%", float64(counted)/float64(expected)*100)
	}

	hours := elapsed.Hours()
	perHour := float64(counted)
	if hours >= 0.01 {
		perHour = math.Round(float64(counted)/hours*10) / 10
	}

	avg := "0s"
	if counted > 0 {
		avg = fmt.Sprintf("%ds", int(elapsed.Seconds())/counted)
	}

	return Summary{
		TotalCounted:   counted,
		TotalExpected:  expected,
		CompletionRate: completion,
		Duration:       formatDuration(elapsed),
		ItemsPerHour:   perHour,
		AvgTimePerItem: avg,
	}
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	switch {
	case mins >= 60:
		return fmt.Sprintf("%dh %dm", mins/60, mins%60)
	case mins >= 1:
		return fmt.Sprintf("%dm", mins)
	default:
		return "< 1m"
	}
}

func buildDiscrepancies(items []models.AuditItem, devices []models.Device) Discrepancies {
	d := Discrepancies{
		Missing:            []MissingEntry{},
		Extra:              []ExtraEntry{},
		LocationMismatches: []LocationMismatch{},
		ConditionIssues:    []ConditionMismatch{},
	}

	for _, dev := range MissingDevices(items, devices) {
		d.Missing = append(d.Missing, MissingEntry{
			DeviceID:          dev.ID,
			Tag:               dev.DeviceID,
			ExpectedLocation:  dev.Location,
			ExpectedCondition: dev.Condition,
		})
	}

	// A mismatch needs both sides declared; an item without an expected
	// value cannot disagree with anything.
	for _, it := range items {
		if it.ExpectedLocation != "" && it.FoundLocation != "" && it.ExpectedLocation != it.FoundLocation {
			d.LocationMismatches = append(d.LocationMismatches, LocationMismatch{
				DeviceID:         it.DeviceID,
				ExpectedLocation: it.ExpectedLocation,
				LocationFound:    it.FoundLocation,
			})
		}
		if it.ExpectedCondition != "" && it.FoundCondition != "" && it.ExpectedCondition != it.FoundCondition {
			d.ConditionIssues = append(d.ConditionIssues, ConditionMismatch{
				DeviceID:          it.DeviceID,
				ExpectedCondition: it.ExpectedCondition,
				ConditionFound:    it.FoundCondition,
			})
		}
	}
	return d
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownBucket
	}
	return s
}

// itemLocation is where the counter effectively placed the device: the
// found location when reported, otherwise the expected one.
func itemLocation(it models.AuditItem) string {
	if it.FoundLocation != "" {
		return it.FoundLocation
	}
	return orUnknown(it.ExpectedLocation)
}

func itemCondition(it models.AuditItem) string {
	if it.FoundCondition != "" {
		return it.FoundCondition
	}
	return orUnknown(it.ExpectedCondition)
}

func buildStatistics(items []models.AuditItem, devices []models.Device) Statistics {
	stats := Statistics{
		ByLocation:  []LocationStat{},
		ByCondition: []ConditionStat{},
		ByTime:      []TimeStat{},
	}
	total := len(items)

	// byLocation: union of expected and observed locations.
	expected := map[string]int{}
	countedAt := map[string]int{}
	for _, d := range devices {
		expected[orUnknown(d.Location)]++
	}
	for _, it := range items {
		countedAt[itemLocation(it)]++
	}
	locs := map[string]bool{}
	for l := range expected {
		locs[l] = true
	}
	for l := range countedAt {
		locs[l] = true
	}
	for l := range locs {
		stats.ByLocation = append(stats.ByLocation, LocationStat{
			Location:    l,
			Expected:    expected[l],
			Counted:     countedAt[l],
			Discrepancy: countedAt[l] - expected[l],
		})
	}
	sort.Slice(stats.ByLocation, func(i, j int) bool {
		a, b := stats.ByLocation[i], stats.ByLocation[j]
		if a.Counted != b.Counted {
			return a.Counted > b.Counted
		}
		return a.Location < b.Location
	})

	// byMethod
	for _, it := range items {
		if it.ScanMethod == models.ScanMethodQR {
			stats.ByMethod.QRCode++
		} else {
			stats.ByMethod.Manual++
		}
	}
	if total > 0 {
		stats.ByMethod.QRCodePct = float64(stats.ByMethod.QRCode) / float64(total) * 100
		stats.ByMethod.ManualPct = float64(stats.ByMethod.Manual) / float64(total) * 100
	}

	// byCondition
	conds := map[string]int{}
	for _, it := range items {
		conds[itemCondition(it)]++
	}
	for c, n := range conds {
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total) * 100
		}
		stats.ByCondition = append(stats.ByCondition, ConditionStat{Condition: c, Count: n, Pct: pct})
	}
	sort.Slice(stats.ByCondition, func(i, j int) bool {
		a, b := stats.ByCondition[i], stats.ByCondition[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Condition < b.Condition
	})

	// byTime: counts per hour of day, ascending, with running total.
	hours := map[string]int{}
	for _, it := range items {
		hours[fmt.Sprintf("%02d", it.CountedAt.Hour())]++
	}
	labels := make([]string, 0, len(hours))
	for h := range hours {
		labels = append(labels, h)
	}
	sort.Strings(labels)
	cum := 0
	for _, h := range labels {
		cum += hours[h]
		stats.ByTime = append(stats.ByTime, TimeStat{Hour: h, Count: hours[h], Cumulative: cum})
	}

	return stats
}
