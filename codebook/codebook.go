// Package codebook persists centroid sets.
//
// Layout, little-endian:
//
//	magic    [4]byte "KFCB"
//	version  uint8
//	comp     uint8   Compression of the payload
//	reserved uint16
//	dim      uint32
//	count    uint32
//	rawSize  uint32  dim*count*4
//	size     uint32  stored payload bytes
//	payload  [size]byte
//	crc      uint32  CRC32C of everything above
package codebook

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/kforest/internal/hash"
	"github.com/hupe1980/kforest/vector"
)

const (
	// Version is the format version written by Encode.
	Version = 1

	headerSize  = 24
	trailerSize = 4
)

var magic = [4]byte{'K', 'F', 'C', 'B'}

var (
	// ErrCorrupt is returned when a codebook fails its integrity checks.
	ErrCorrupt = errors.New("codebook corrupt")

	// ErrIncompatibleFormat is returned for data that is not a codebook of
	// a supported version.
	ErrIncompatibleFormat = errors.New("incompatible codebook format")
)

// Header describes an encoded codebook.
type Header struct {
	Version     uint8
	Compression Compression
	Dim         int
	Count       int
}

// Encode writes centroids to w. The requested compression is dropped in
// favor of raw storage when it does not pay off.
func Encode(w io.Writer, centroids []vector.Point, c Compression) error {
	dim, err := vector.CheckDimensions(centroids)
	if err != nil {
		return err
	}

	raw := uint64(dim) * uint64(len(centroids)) * 4
	if raw > math.MaxUint32 {
		return fmt.Errorf("codebook: %d bytes exceed the format limit", raw)
	}

	data := make([]byte, 0, raw)
	for _, p := range centroids {
		for _, v := range p {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}
	}

	payload, used, err := compress(data, c)
	if err != nil {
		return err
	}

	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	hdr[4] = Version
	hdr[5] = byte(used)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(dim))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(centroids)))
	binary.LittleEndian.PutUint32(hdr[16:], uint32(len(data)))
	binary.LittleEndian.PutUint32(hdr[20:], uint32(len(payload)))

	cw := hash.NewWriter(w)
	if _, err := cw.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := cw.Write(payload); err != nil {
		return err
	}

	var crc [trailerSize]byte
	binary.LittleEndian.PutUint32(crc[:], cw.Sum32())
	_, err = w.Write(crc[:])
	return err
}

// Decode reads a codebook written by Encode.
func Decode(r io.Reader) ([]vector.Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// Unmarshal decodes a codebook held in memory. The returned points share one
// freshly allocated backing array.
func Unmarshal(data []byte) ([]vector.Point, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	size := int(binary.LittleEndian.Uint32(data[20:]))
	if len(data) != headerSize+size+trailerSize {
		return nil, fmt.Errorf("%w: %d bytes, header promises %d", ErrCorrupt, len(data), headerSize+size+trailerSize)
	}

	body := data[:headerSize+size]
	if want, got := binary.LittleEndian.Uint32(data[headerSize+size:]), hash.CRC32C(body); want != got {
		return nil, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, got, want)
	}

	rawSize := int(binary.LittleEndian.Uint32(data[16:]))
	if rawSize != h.Dim*h.Count*4 {
		return nil, fmt.Errorf("%w: raw size %d for %d x %d", ErrCorrupt, rawSize, h.Count, h.Dim)
	}

	raw, err := decompress(body[headerSize:], h.Compression, rawSize)
	if err != nil {
		return nil, err
	}

	values := make([]float32, h.Dim*h.Count)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}

	points := make([]vector.Point, h.Count)
	for i := range points {
		points[i] = values[i*h.Dim : (i+1)*h.Dim : (i+1)*h.Dim]
	}
	return points, nil
}

// ParseHeader validates and returns the fixed-size header at the start of
// data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize+trailerSize {
		return Header{}, fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(data))
	}
	if [4]byte(data[:4]) != magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrIncompatibleFormat, data[:4])
	}

	h := Header{
		Version:     data[4],
		Compression: Compression(data[5]),
		Dim:         int(binary.LittleEndian.Uint32(data[8:])),
		Count:       int(binary.LittleEndian.Uint32(data[12:])),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: version %d", ErrIncompatibleFormat, h.Version)
	}
	return h, nil
}
