package telemetry

// Sensitivity decides when an attribute may leave the process.
type Sensitivity int

const (
	// Always attributes are anonymous: ids, keys, counts, versions.
	Always Sensitivity = iota
	// OptIn attributes carry content and are sent only when the crew shares
	// data.
	OptIn
)

func (s Sensitivity) String() string {
	if s == OptIn {
		return "opt-in"
	}
	return "always"
}

// Field is one entry of an event's attribute schema. Source extracts the
// value from the event's data; it is only called when the field is selected.
type Field[D any] struct {
	Key         string
	Sensitivity Sensitivity
	Source      func(D) any
}

// Descriptor is an immutable catalog entry: the span name and its ordered
// attribute schema.
//
// When ShareGated is set the whole event requires the share flag, not just
// its OptIn fields; Select still reports the tiers so the policy stays
// comparable across events.
type Descriptor[D any] struct {
	Name       string
	Schema     []Field[D]
	ShareGated bool
}

// Select returns the attributes permitted for data under share.
//
// Select is pure and total. A Source that panics costs only its own field.
// For every input, the keys selected with share=false are a subset of those
// selected with share=true.
func (d Descriptor[D]) Select(share bool, data D) []Attribute {
	attrs := make([]Attribute, 0, len(d.Schema))
	for _, f := range d.Schema {
		if f.Sensitivity == OptIn && !share {
			continue
		}
		v, ok := f.value(data)
		if !ok {
			continue
		}
		attrs = append(attrs, Attribute{Key: f.Key, Value: v})
	}
	return attrs
}

// Permits reports whether an emission may happen at all under share.
func (d Descriptor[D]) Permits(share bool) bool {
	return share || !d.ShareGated
}

// Keys returns the schema keys of the given tier, in order.
func (d Descriptor[D]) Keys(s Sensitivity) []string {
	var keys []string
	for _, f := range d.Schema {
		if f.Sensitivity == s {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func (f Field[D]) value(data D) (v any, ok bool) {
	if f.Source == nil {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			v, ok = nil, false
		}
	}()
	return f.Source(data), true
}

// always and optIn build schema fields.
func always[D any](key string, src func(D) any) Field[D] {
	return Field[D]{Key: key, Sensitivity: Always, Source: src}
}

func optIn[D any](key string, src func(D) any) Field[D] {
	return Field[D]{Key: key, Sensitivity: OptIn, Source: src}
}
