package gpio

// invert turns raw line values (index n = switch n) into a pressed bitmask.
func invert(raw []int) uint8 {
	var mask uint8
	for n, v := range raw {
		if n >= 8 {
			break
		}
		if v == 0 {
			mask |= 1 << uint(n)
		}
	}
	return mask
}
