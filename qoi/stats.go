package qoi

// Stats summarizes the opcode stream of one frame.
type Stats struct {
	Desc   Desc
	Pixels int
	Bytes  int
	// Ops counts opcodes, not pixels, by kind.
	Ops [numOps]int
	// Slots counts cache writes per slot, which is the hash distribution of
	// every pixel that was not an INDEX or RUN.
	Slots [cacheSize]int
}

// Inspect decodes data and reports how its opcode stream is composed.
func Inspect(data []byte) (Stats, error) {
	var s Stats
	if _, _, err := decodeFrame(data, 4, &s); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// BytesPerPixel is the frame size, header and end marker included, divided by
// the pixel count.
func (s *Stats) BytesPerPixel() float64 {
	if s.Pixels == 0 {
		return 0
	}
	return float64(s.Bytes) / float64(s.Pixels)
}

func (s *Stats) countOp(op Op) {
	if s != nil {
		s.Ops[op]++
	}
}

func (s *Stats) countSlot(h uint8) {
	if s != nil {
		s.Slots[h]++
	}
}
