package elevation

import (
	"encoding/binary"
	"io"
)

// WriteTile encodes samples in the GLOBE on-disk format: row-major
// little-endian int16.
func WriteTile(w io.Writer, samples []int16) error {
	return binary.Write(w, binary.LittleEndian, samples)
}
