package extract

import (
	"sort"

	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

// Location is a place in the document: a zero-based page index and the
// marker's rectangle in PDF user space. A zero Rect means the marker could
// not be located on the page and cannot carry a link.
type Location struct {
	Page int
	Rect pdf.Rect
}

// Linkable reports whether the location has an area to attach a link to
func (l *Location) Linkable() bool {
	return l != nil && !l.Rect.IsZero()
}

// Record pairs a problem with its solution under one key
type Record struct {
	Key      string
	Problem  *Location
	Solution *Location
}

// Resolved reports whether both ends of the record are known
func (r *Record) Resolved() bool {
	return r.Problem != nil && r.Solution != nil
}

// Mapping holds the records of one document by normalized key
type Mapping map[string]*Record

// Keys returns every key in numeric order
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return lessNumeric(keys[i], keys[j])
	})
	return keys
}

// Resolved returns the records with both locations, in numeric key order
func (m Mapping) Resolved() []*Record {
	var records []*Record
	for _, k := range m.Keys() {
		if r := m[k]; r.Resolved() {
			records = append(records, r)
		}
	}
	return records
}

// Unresolved returns the records still missing a solution, in numeric key order
func (m Mapping) Unresolved() []*Record {
	var records []*Record
	for _, k := range m.Keys() {
		if r := m[k]; !r.Resolved() {
			records = append(records, r)
		}
	}
	return records
}

// lessNumeric orders normalized integer strings of any length
func lessNumeric(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
