package extract

// Accessors below normalize absent or mistyped keys to empty values so
// downstream code never branches on presence.

// String returns the string value at key, or "".
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// StringSlice returns the string elements of the array at key. Non-string
// elements are skipped; an absent or mistyped key yields an empty slice.
func (d Document) StringSlice(key string) []string {
	arr, _ := d[key].([]any)
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Objects returns the object elements of the array at key.
func (d Document) Objects(key string) []Document {
	arr, _ := d[key].([]any)
	out := make([]Document, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Document(m))
		}
	}
	return out
}

// FilePairs returns the path/content pairs of the array at key. Entries
// without a path are dropped.
func (d Document) FilePairs(key string) []FilePair {
	objs := d.Objects(key)
	out := make([]FilePair, 0, len(objs))
	for _, o := range objs {
		p := o.String("path")
		if p == "" {
			continue
		}
		out = append(out, FilePair{Path: p, Content: o.String("content")})
	}
	return out
}
