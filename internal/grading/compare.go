package grading

// bytesPerPixel is the RGBA stride of the pixel buffers produced by the
// shader renderer.
const bytesPerPixel = 4

// Compare returns the fraction of pixels that are bit-exact across all four
// RGBA channels. Grading is intentionally exact; there is no tolerance.
// A nil or length-mismatched buffer compares as a zero match.
func Compare(reference, candidate []byte) float64 {
	if len(reference) == 0 || len(reference) != len(candidate) {
		return 0
	}
	total := len(reference) / bytesPerPixel
	if total == 0 {
		return 0
	}

	matches := 0
	for i := 0; i < total; i++ {
		off := i * bytesPerPixel
		if reference[off] == candidate[off] &&
			reference[off+1] == candidate[off+1] &&
			reference[off+2] == candidate[off+2] &&
			reference[off+3] == candidate[off+3] {
			matches++
		}
	}
	return float64(matches) / float64(total)
}
