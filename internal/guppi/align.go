package guppi

// DirectIOAlignment is the boundary headers (and optionally blocks) are
// padded to when DIRECTIO is enabled.
const DirectIOAlignment = 512

// AlignmentPadding returns the number of bytes needed to move n forward to
// the next multiple of DirectIOAlignment. An already aligned n needs none.
func AlignmentPadding(n int64) int64 {
	rem := n % DirectIOAlignment
	if rem == 0 {
		return 0
	}
	return DirectIOAlignment - rem
}
