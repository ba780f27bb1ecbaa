package domain

import (
	"slices"
	"sort"
)

// MergeResult is the outcome of applying one report's readings to the feed.
type MergeResult struct {
	Records   []StationRecord
	Committed bool
	Outcome   Outcome
	BatchMax  Date
	FeedMax   Date
	Affected  []string
}

// Upsert records a dated status. An existing entry for the same date is
// replaced; otherwise the entry is inserted keeping History newest first.
// Latest is recomputed. Undated entries are ignored.
func (r *StationRecord) Upsert(e HistoryEntry) {
	if e.Date.IsZero() {
		return
	}
	i := sort.Search(len(r.History), func(i int) bool {
		return !r.History[i].Date.After(e.Date)
	})
	if i < len(r.History) && r.History[i].Date.Equal(e.Date) {
		r.History[i].Status = e.Status
	} else {
		r.History = slices.Insert(r.History, i, e)
	}
	r.refreshLatest()
}

func (r *StationRecord) refreshLatest() {
	if len(r.History) == 0 {
		r.Latest = nil
		return
	}
	latest := r.History[0]
	r.Latest = &latest
}

// NormalizeRecord restores the history invariants on a record read from a
// stored feed: newest first, one entry per date (the last one listed wins),
// Latest equal to the newest entry.
func NormalizeRecord(r StationRecord) StationRecord {
	byDate := make(map[Date]Status, len(r.History))
	for _, e := range r.History {
		if e.Date.IsZero() {
			continue
		}
		byDate[e.Date] = e.Status
	}
	if r.Latest != nil && !r.Latest.Date.IsZero() {
		if _, ok := byDate[r.Latest.Date]; !ok {
			byDate[r.Latest.Date] = r.Latest.Status
		}
	}
	history := make([]HistoryEntry, 0, len(byDate))
	for d, s := range byDate {
		history = append(history, HistoryEntry{Date: d, Status: s})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.After(history[j].Date) })
	r.History = history
	r.refreshLatest()
	return r
}

// MergeReadings folds readings into records without any recency check. A
// station seen for the first time is created. Readings are applied in order,
// so for a repeated (station, date) the later reading wins. Empty descriptive
// fields are filled from the readings and sourceURL is recorded on every
// station that received a reading. The input slice is not modified; the
// result is sorted by code.
func MergeReadings(records []StationRecord, readings []StationReading, sourceURL string) []StationRecord {
	merged, _ := mergeReadings(records, readings, sourceURL)
	return merged
}

func mergeReadings(records []StationRecord, readings []StationReading, sourceURL string) ([]StationRecord, []string) {
	out := CloneRecords(records)
	index := make(map[string]int, len(out))
	for i, r := range out {
		index[r.Code] = i
	}

	touched := make(map[string]bool)
	for _, rd := range readings {
		if rd.StationCode == "" || rd.Date.IsZero() {
			continue
		}
		i, ok := index[rd.StationCode]
		if !ok {
			out = append(out, StationRecord{Code: rd.StationCode, History: []HistoryEntry{}})
			i = len(out) - 1
			index[rd.StationCode] = i
		}
		rec := &out[i]
		fillText(&rec.Beach, rd.Beach)
		fillText(&rec.Reference, rd.Reference)
		fillText(&rec.City, rd.City)
		rec.Upsert(HistoryEntry{Date: rd.Date, Status: rd.Status})
		if sourceURL != "" {
			rec.SourceReportURL = sourceURL
		}
		touched[rd.StationCode] = true
	}

	SortRecords(out)
	affected := make([]string, 0, len(touched))
	for code := range touched {
		affected = append(affected, code)
	}
	sort.Strings(affected)
	return out, affected
}

// ApplyBatch merges one report's readings into the current feed if and only
// if the batch's newest reading is strictly newer than the feed's newest
// reading. A rejected or empty batch returns current unchanged.
func ApplyBatch(current []StationRecord, readings []StationReading, sourceURL string) MergeResult {
	res := MergeResult{
		Records:  current,
		BatchMax: MaxReadingDate(readings),
		FeedMax:  MaxLatestDate(current),
	}
	if res.BatchMax.IsZero() {
		res.Outcome = OutcomeNoNewData
		return res
	}
	if !res.FeedMax.IsZero() && !res.BatchMax.After(res.FeedMax) {
		res.Outcome = OutcomeRecencyRejected
		return res
	}
	res.Records, res.Affected = mergeReadings(current, readings, sourceURL)
	res.Committed = true
	res.Outcome = OutcomeCommitted
	return res
}

// MaxReadingDate returns the newest dated reading, or the zero Date.
func MaxReadingDate(readings []StationReading) Date {
	var newest Date
	for _, rd := range readings {
		if rd.Date.After(newest) {
			newest = rd.Date
		}
	}
	return newest
}

// MaxLatestDate returns the newest Latest date across records.
func MaxLatestDate(records []StationRecord) Date {
	var newest Date
	for _, r := range records {
		if d := r.LatestDate(); d.After(newest) {
			newest = d
		}
	}
	return newest
}

// SortRecords orders records by station code.
func SortRecords(records []StationRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Code < records[j].Code })
}

// CloneRecords deep-copies records so callers can mutate the copy freely.
func CloneRecords(records []StationRecord) []StationRecord {
	out := make([]StationRecord, len(records))
	for i, r := range records {
		c := r
		c.History = append([]HistoryEntry{}, r.History...)
		if r.Latest != nil {
			latest := *r.Latest
			c.Latest = &latest
		}
		if r.Lat != nil {
			lat := *r.Lat
			c.Lat = &lat
		}
		if r.Lng != nil {
			lng := *r.Lng
			c.Lng = &lng
		}
		out[i] = c
	}
	return out
}

// FindRecord returns the record with the given code.
func FindRecord(records []StationRecord, code string) (StationRecord, bool) {
	for _, r := range records {
		if r.Code == code {
			return r, true
		}
	}
	return StationRecord{}, false
}

func fillText(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
