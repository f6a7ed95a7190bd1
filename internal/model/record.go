package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// DefaultID is the identifier returned when nothing can be derived for an
// image. It normally has no table entry and resolves to the default record.
const DefaultID = "default"

// CopyrightRecord is the attribution metadata shown for one image.
type CopyrightRecord struct {
	// Source is where the image came from.
	Source string `json:"source"`

	// Copyright is the copyright holder.
	Copyright string `json:"copyright"`

	// License is optional; an empty licence hides the licence line.
	License string `json:"license"`

	// Year is kept as a string, exactly as supplied.
	Year string `json:"year"`
}

// RecordPatch is a partial CopyrightRecord used by shallow merges.
type RecordPatch struct {
	Source    *string `json:"source,omitempty"`
	Copyright *string `json:"copyright,omitempty"`
	License   *string `json:"license,omitempty"`
	Year      *string `json:"year,omitempty"`
}

// Merge returns r with every set field of patch applied.
func (r CopyrightRecord) Merge(patch RecordPatch) CopyrightRecord {
	if patch.Source != nil {
		r.Source = *patch.Source
	}
	if patch.Copyright != nil {
		r.Copyright = *patch.Copyright
	}
	if patch.License != nil {
		r.License = *patch.License
	}
	if patch.Year != nil {
		r.Year = *patch.Year
	}
	return r
}

// defaultRecord is computed once, when the package is loaded.
var defaultRecord = CopyrightRecord{
	Source:    "军事航空图库",
	Copyright: "Military Aircraft Gallery",
	License:   "All Rights Reserved",
	Year:      strconv.Itoa(time.Now().Year()),
}

// DefaultRecord returns the record used when an identifier has no entry.
// Its year is the calendar year at program start.
func DefaultRecord() CopyrightRecord {
	return defaultRecord
}

// Table maps image identifiers to copyright records.
type Table map[string]CopyrightRecord

// SeedTable returns the example entries every Annotator starts with.
func SeedTable() Table {
	return Table{
		"f22-001": {
			Source:    "美国空军官方",
			Copyright: "U.S. Air Force",
			License:   "Public Domain",
			Year:      "2023",
		},
		"f35-001": {
			Source:    "美国空军官方",
			Copyright: "U.S. Air Force",
			License:   "Public Domain",
			Year:      "2022",
		},
		"j20-001": {
			Source:    "中国空军官方",
			Copyright: "People's Liberation Army Air Force",
			License:   "Official Release",
			Year:      "2023",
		},
		"su57-001": {
			Source:    "俄罗斯国防部",
			Copyright: "Russian Ministry of Defense",
			License:   "Official Release",
			Year:      "2023",
		},
		"f16-001": {
			Source:    "美国空军官方",
			Copyright: "U.S. Air Force",
			License:   "Public Domain",
			Year:      "2021",
		},
		"rafale-001": {
			Source:    "法国国防部",
			Copyright: "Ministère des Armées",
			License:   "Official Release",
			Year:      "2023",
		},
	}
}

// Lookup returns the record for id, or the default record when id has no
// entry. It never fails.
func (t Table) Lookup(id string) CopyrightRecord {
	if rec, ok := t[id]; ok {
		return rec
	}
	return DefaultRecord()
}

// Has reports whether id has an entry.
func (t Table) Has(id string) bool {
	_, ok := t[id]
	return ok
}

// Merge copies every entry of other into t, replacing whole records.
func (t Table) Merge(other Table) {
	for id, rec := range other {
		t[id] = rec
	}
}

// Clone returns an independent copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for id, rec := range t {
		out[id] = rec
	}
	return out
}

// IDs returns the identifiers of t in sorted order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Export serializes t as an indented JSON object keyed by identifier.
func (t Table) Export() ([]byte, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize copyright table: %w", err)
	}
	return data, nil
}

// ParseTable parses the export format. The top level must be a JSON object;
// a literal null yields an empty table. Null entries are dropped so that
// their identifiers fall back to the default record. Unknown record fields
// are ignored.
func ParseTable(data []byte) (Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyTable
	}
	var raw map[string]*CopyrightRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}
	t := make(Table, len(raw))
	for id, rec := range raw {
		if rec != nil {
			t[id] = *rec
		}
	}
	return t, nil
}
