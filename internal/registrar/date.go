package registrar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// apiDate accepts the date shapes the registrar emits: RFC 3339,
// a zone-less timestamp, or a bare date. Zone-less values are read as UTC.
type apiDate struct {
	time.Time
}

var apiDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (d *apiDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("drop date: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("drop date: unrecognized format %q", s)
}
