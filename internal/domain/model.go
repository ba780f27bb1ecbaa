package domain

// RawRow is one tuple produced by the table extractor, before normalization.
type RawRow struct {
	Code      string
	Beach     string
	Reference string
	City      string
	Date      Date
	RawStatus string
	Page      int
}

// StationReading is a normalized observation of one station on one date.
type StationReading struct {
	StationCode string
	Beach       string
	Reference   string
	City        string
	Date        Date
	Status      Status
}

// HistoryEntry is one dated status in a station's history.
type HistoryEntry struct {
	Date   Date   `json:"date"`
	Status Status `json:"status"`
}

// StationRecord is the published state of a monitoring point.
type StationRecord struct {
	Code            string         `json:"code"`
	Beach           string         `json:"beach"`
	Reference       string         `json:"reference"`
	City            string         `json:"city"`
	Lat             *float64       `json:"lat,omitempty"`
	Lng             *float64       `json:"lng,omitempty"`
	Latest          *HistoryEntry  `json:"latest"`
	History         []HistoryEntry `json:"history"`
	SourceReportURL string         `json:"source_report_url,omitempty"`
}

// HasCoordinates reports whether both lat and lng are set.
func (r StationRecord) HasCoordinates() bool {
	return r.Lat != nil && r.Lng != nil
}

// LatestDate returns the date of the newest history entry, or the zero Date.
func (r StationRecord) LatestDate() Date {
	if r.Latest == nil {
		return Date{}
	}
	return r.Latest.Date
}
