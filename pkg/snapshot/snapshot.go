// Package snapshot persists layout positions so long runs can be resumed and
// finished embeddings shared. A snapshot is a small binary envelope (magic,
// version, codec, CRC32) around a compressed payload.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a point-in-time copy of an engine's positions.
type Snapshot struct {
	RunID     uuid.UUID
	Iteration int
	CreatedAt time.Time
	Positions [][]float64
}

// Dimension returns the embedding dimension, or 0 for an empty snapshot.
func (s Snapshot) Dimension() int {
	if len(s.Positions) == 0 {
		return 0
	}
	return len(s.Positions[0])
}

var (
	ErrBadMagic    = errors.New("not a graphem snapshot")
	ErrVersion     = errors.New("unsupported snapshot version")
	ErrChecksum    = errors.New("snapshot checksum mismatch")
	ErrTruncated   = errors.New("snapshot truncated")
	ErrRaggedShape = errors.New("snapshot positions are not rectangular")
)

const (
	version = 1
	// magic(4) version(1) codec(1) flags(1) reserved(1) crc(4) rawLen(8)
	headerSize = 20
	flagStored = 1 << 0
	// runID(16) iteration(8) createdAt(8) n(4) dim(4)
	payloadHeader = 40
)

var magic = [4]byte{'G', 'E', 'M', 'S'}

// Encode serializes s with the given codec.
func Encode(s Snapshot, c Codec) ([]byte, error) {
	n, dim := len(s.Positions), s.Dimension()
	if n > 0 && dim == 0 {
		return nil, ErrRaggedShape
	}
	for _, row := range s.Positions {
		if len(row) != dim {
			return nil, ErrRaggedShape
		}
	}

	raw := make([]byte, payloadHeader+8*n*dim)
	copy(raw[0:16], s.RunID[:])
	binary.LittleEndian.PutUint64(raw[16:], uint64(s.Iteration))
	binary.LittleEndian.PutUint64(raw[24:], uint64(s.CreatedAt.UnixNano()))
	binary.LittleEndian.PutUint32(raw[32:], uint32(n))
	binary.LittleEndian.PutUint32(raw[36:], uint32(dim))
	off := payloadHeader
	for _, row := range s.Positions {
		for _, x := range row {
			binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(x))
			off += 8
		}
	}

	body, stored, err := compress(c, raw)
	if err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}

	out := make([]byte, headerSize+len(body))
	copy(out[0:4], magic[:])
	out[4] = version
	out[5] = byte(c)
	if stored {
		out[6] |= flagStored
	}
	binary.LittleEndian.PutUint32(out[8:], crc32.ChecksumIEEE(raw))
	binary.LittleEndian.PutUint64(out[12:], uint64(len(raw)))
	copy(out[headerSize:], body)
	return out, nil
}

// Decode parses data produced by Encode and verifies its checksum.
func Decode(data []byte) (Snapshot, error) {
	if len(data) < headerSize {
		return Snapshot{}, ErrTruncated
	}
	if [4]byte(data[0:4]) != magic {
		return Snapshot{}, ErrBadMagic
	}
	if data[4] != version {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrVersion, data[4])
	}
	c := Codec(data[5])
	sum := binary.LittleEndian.Uint32(data[8:])
	rawLen := binary.LittleEndian.Uint64(data[12:])
	if rawLen < payloadHeader || rawLen > math.MaxInt32 {
		return Snapshot{}, ErrTruncated
	}

	body := data[headerSize:]
	var raw []byte
	if data[6]&flagStored != 0 {
		raw = body
	} else {
		var err error
		if raw, err = decompress(c, body, int(rawLen)); err != nil {
			return Snapshot{}, fmt.Errorf("decompress snapshot: %w", err)
		}
	}
	if uint64(len(raw)) != rawLen {
		return Snapshot{}, ErrTruncated
	}
	if crc32.ChecksumIEEE(raw) != sum {
		return Snapshot{}, ErrChecksum
	}

	var s Snapshot
	copy(s.RunID[:], raw[0:16])
	s.Iteration = int(binary.LittleEndian.Uint64(raw[16:]))
	s.CreatedAt = time.Unix(0, int64(binary.LittleEndian.Uint64(raw[24:]))).UTC()
	n32 := binary.LittleEndian.Uint32(raw[32:])
	dim32 := binary.LittleEndian.Uint32(raw[36:])
	// both factors fit in 32 bits, so the product cannot wrap
	body64 := rawLen - payloadHeader
	if body64%8 != 0 || uint64(n32)*uint64(dim32) != body64/8 {
		return Snapshot{}, ErrTruncated
	}
	if n32 > 0 && dim32 == 0 {
		return Snapshot{}, ErrRaggedShape
	}
	n, dim := int(n32), int(dim32)

	flat := make([]float64, n*dim)
	for i := range flat {
		flat[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[payloadHeader+8*i:]))
	}
	s.Positions = make([][]float64, n)
	for i := range s.Positions {
		s.Positions[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return s, nil
}
