// layout.go - Container field layout.
// Six fixed-width header fields followed by the variable payload, all measured
// in three-bit pixel slots and laid out back to back from pixel (0,0).
package stego

// Field is a named run of pixel slots. Padding is the number of unused
// trailing bits (0-2) in the last slot's triplet.
type Field struct {
	Name    string
	Offset  int
	Slots   int
	Padding int
}

// Bits returns the number of payload bits the field carries.
func (f Field) Bits() int {
	if f.Slots == 0 {
		return 0
	}
	return f.Slots*3 - f.Padding
}

// End returns the first slot after the field.
func (f Field) End() int {
	return f.Offset + f.Slots
}

const (
	// flagSlots holds a 256-bit hash: 258 bits, 2 padded.
	flagSlots = 86
	// blockSlots holds one 128-bit block: 129 bits, 1 padded.
	blockSlots = 43
)

var (
	AuthFlag  = Field{Name: "auth flag", Offset: 0, Slots: flagSlots, Padding: 2}
	Extension = next("extension", AuthFlag)
	Size      = next("size", Extension)
	IvMeta    = next("meta IV", Size)
	IvFile    = next("file IV", IvMeta)
	Salt      = next("salt", IvFile)
)

// HeaderSlots is the offset of the payload field.
var HeaderSlots = Salt.End()

// Header lists the fixed fields in layout order.
var Header = []Field{AuthFlag, Extension, Size, IvMeta, IvFile, Salt}

func next(name string, prev Field) Field {
	return Field{Name: name, Offset: prev.End(), Slots: blockSlots, Padding: 1}
}

// PayloadField returns the payload field for a payload of bitLen bits.
func PayloadField(bitLen int64) Field {
	padding := int((3 - bitLen%3) % 3)
	return Field{
		Name:    "payload",
		Offset:  HeaderSlots,
		Slots:   int((bitLen + int64(padding)) / 3),
		Padding: padding,
	}
}
