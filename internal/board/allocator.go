package board

// Stride is the gap between neighbouring positions in a freshly sequenced
// column. Appends and re-sequencing both land on multiples of it.
const Stride int64 = 1000

// AppendPosition returns the position for an item added to the end of a
// column holding the given positions. An empty column starts at Stride.
func AppendPosition(existing []int64) int64 {
	if len(existing) == 0 {
		return Stride
	}
	highest := existing[0]
	for _, p := range existing[1:] {
		if p > highest {
			highest = p
		}
	}
	return highest + Stride
}
