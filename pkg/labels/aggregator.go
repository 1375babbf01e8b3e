package labels

// Group counts records per product identity. Identities appear in the order they were
// first seen, so equal inputs always produce equal output.
func Group(records []ShipmentRecord) []ProductCount {
	index := make(map[ShoeIdentity]int, len(records))
	counts := make([]ProductCount, 0)

	for _, r := range records {
		if i, seen := index[r.Product]; seen {
			counts[i].Count++
			continue
		}
		index[r.Product] = len(counts)
		counts = append(counts, ProductCount{Product: r.Product, Count: 1})
	}

	return counts
}

// TotalCount sums the counts, which equals the number of grouped records.
func TotalCount(counts []ProductCount) int {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total
}
