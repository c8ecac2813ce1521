package catalog

// Dedupe keeps the first record seen for every (title, author) key and
// preserves input order. Later duplicates are dropped.
func Dedupe(records []Record) []Record {
	seen := make(map[Key]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := r.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// Truncate returns at most n records from the front of records.
func Truncate(records []Record, n int) []Record {
	if n < 0 {
		n = 0
	}
	if len(records) > n {
		return records[:n]
	}
	return records
}
