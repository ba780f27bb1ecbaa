package domain

import "log/slog"

// Coordinates is one row of the station side table. Text fields are optional;
// when set they override the text extracted from reports.
type Coordinates struct {
	Code      string
	Beach     string
	Reference string
	City      string
	Lat       float64
	Lng       float64
}

// CoordinateSource looks up side-table rows by station code.
type CoordinateSource interface {
	Lookup(code string) (Coordinates, bool)
}

// JoinCoordinates attaches side-table coordinates to records and returns the
// updated copy plus the codes that had no entry. Records without an entry
// keep whatever coordinates they already had. A nil source is a no-op.
func JoinCoordinates(records []StationRecord, src CoordinateSource, logger *slog.Logger) ([]StationRecord, []string) {
	out := CloneRecords(records)
	if src == nil {
		return out, nil
	}

	var missing []string
	for i := range out {
		rec := &out[i]
		c, ok := src.Lookup(rec.Code)
		if !ok {
			missing = append(missing, rec.Code)
			continue
		}
		lat, lng := c.Lat, c.Lng
		rec.Lat, rec.Lng = &lat, &lng
		overrideText(&rec.Beach, c.Beach)
		overrideText(&rec.Reference, c.Reference)
		overrideText(&rec.City, c.City)
	}

	if len(missing) > 0 && logger != nil {
		logger.Info("stations without coordinates", "count", len(missing), "codes", missing)
	}
	return out, missing
}

func overrideText(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
