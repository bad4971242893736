// File: internal/portal/record.go
package portal

// Record maps canonical field names to extracted values. A nil value means
// the portal rendered the field with no content; the key is kept so the JSON
// output carries an explicit null, mirroring the portal's own shape.
type Record map[string]*string

// Set stores value under name, coercing a blank value to null.
func (r Record) Set(name, value string) {
	if value == "" {
		r[name] = nil
		return
	}
	v := value
	r[name] = &v
}

// Get returns the value for name and whether it is present and non-null.
func (r Record) Get(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Clone returns a shallow copy of the record. Values are immutable strings,
// so a shallow copy is enough.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
