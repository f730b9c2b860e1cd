package qoi

// Tag bytes. The 2 bit tags live in the top bits; RGB and RGBA take two of
// the values that would otherwise be RUN opcodes of length 63 and 64.
const (
	opIndex uint8 = 0b00000000
	opDiff  uint8 = 0b01000000
	opLuma  uint8 = 0b10000000
	opRun   uint8 = 0b11000000
	opRGB   uint8 = 0b11111110
	opRGBA  uint8 = 0b11111111
)

const (
	maskOp uint8 = 0b11000000
	mask6  uint8 = 0b00111111
	mask4  uint8 = 0b00001111
	mask2  uint8 = 0b00000011
)

// Op identifies an opcode kind.
type Op int

const (
	OpIndex Op = iota
	OpDiff
	OpLuma
	OpRun
	OpRGB
	OpRGBA
	numOps
)

var opNames = [numOps]string{
	OpIndex: "index",
	OpDiff:  "diff",
	OpLuma:  "luma",
	OpRun:   "run",
	OpRGB:   "rgb",
	OpRGBA:  "rgba",
}

func (o Op) String() string {
	if o < 0 || o >= numOps {
		return "unknown"
	}
	return opNames[o]
}

// opOf classifies a tag byte.
func opOf(b uint8) Op {
	switch {
	case b == opRGB:
		return OpRGB
	case b == opRGBA:
		return OpRGBA
	case b&maskOp == opIndex:
		return OpIndex
	case b&maskOp == opDiff:
		return OpDiff
	case b&maskOp == opLuma:
		return OpLuma
	}
	return OpRun
}
