package parallel

// Serial is an execution space that runs every chunk on the calling
// goroutine, in order. It is the reference space for debugging.
//
// A positive ChunkSize still partitions the range, which exercises the
// multi-chunk paths of Scan and Reduce deterministically.
type Serial struct {
	ChunkSize int
}

// Name returns the space name.
func (Serial) Name() string {
	return "Serial"
}

// Split partitions [0, n) into ChunkSize ranges, or one range if ChunkSize
// is not positive.
func (s Serial) Split(n int) []Range {
	if s.ChunkSize <= 0 {
		return Chunk(n, n)
	}
	return Chunk(n, s.ChunkSize)
}

// Launch runs body for every range in order.
func (Serial) Launch(ranges []Range, body func(chunk int, r Range)) {
	for c, r := range ranges {
		body(c, r)
	}
}

// Fence is a no-op: Launch never leaves work behind.
func (Serial) Fence() {}
