// Package snapshot stores structured simulation output snapshots: per-field
// numeric series captured at the end of a case run, with a content hash for
// cheap bit-for-bit comparison.
package snapshot

// OutputSnapshot is the structured output of one case run.
type OutputSnapshot struct {
	Fields map[string][]float64 `json:"fields"` // Field name -> sampled values
	Hash   string               `json:"hash"`   // sha256:hex over canonical field data
}

// FieldNames returns the snapshot's field names. Order is unspecified.
func (s OutputSnapshot) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	return names
}
