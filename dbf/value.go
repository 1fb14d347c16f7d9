package dbf

import "time"

// Kind tags a decoded field value. The legacy format has no static schema,
// so rows are maps from field name to one of these tagged values.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDate
	KindLogical
)

// Value is one decoded field of one record
type Value struct {
	Kind   Kind
	Text   string    // decoded and trimmed source text (C, N, F, M)
	Number float64   // parsed numeric value (N, F)
	Date   time.Time // parsed date (D)
	Bool   bool      // parsed logical (L)
}

// Row maps a legacy field name (upper-case) to its decoded value
type Row map[string]Value

// IsNull reports whether the field was blank in the source record
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// StagingText renders the value as the all-text representation used by the
// staging tables: nil for null, ISO dates, and otherwise the trimmed source
// text verbatim so locale quirks survive into staging untouched.
func (v Value) StagingText() *string {
	switch v.Kind {
	case KindNull:
		return nil
	case KindDate:
		s := v.Date.Format("2006-01-02")
		return &s
	case KindLogical:
		s := "F"
		if v.Bool {
			s = "T"
		}
		return &s
	default:
		s := v.Text
		return &s
	}
}
