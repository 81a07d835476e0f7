package content

// Query narrows a record list the way the list command and the JSON API
// expose it. The zero Query keeps every record.
type Query struct {
	Category string
	Featured bool
	// Limit keeps the first Limit matches; zero or less means no limit.
	Limit int
}

// Apply filters records in list order.
func (q Query) Apply(records []Record) []Record {
	if q.Category != "" {
		records = FilterCategory(records, q.Category)
	}
	if q.Featured {
		records = FilterFeatured(records, -1)
	}
	if q.Limit > 0 {
		records = Take(records, q.Limit)
	}
	return records
}
