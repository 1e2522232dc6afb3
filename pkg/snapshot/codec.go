package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects how the snapshot payload is compressed.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecZstd
	CodecLZ4
)

// ErrUnknownCodec is returned for codec names or bytes this build does not know.
var ErrUnknownCodec = errors.New("unknown snapshot codec")

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// CodecNames lists the names ParseCodec accepts, one per codec.
func CodecNames() []string {
	return []string{CodecNone.String(), CodecSnappy.String(), CodecZstd.String(), CodecLZ4.String()}
}

// ParseCodec maps a configuration name to a Codec. The empty string is zstd.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "none", "raw":
		return CodecNone, nil
	case "snappy":
		return CodecSnappy, nil
	case "zstd", "":
		return CodecZstd, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress returns the encoded payload. For lz4, an incompressible payload
// is reported with stored=true and returned unchanged.
func compress(c Codec, raw []byte) (out []byte, stored bool, err error) {
	switch c {
	case CodecNone:
		return raw, true, nil
	case CodecSnappy:
		return snappy.Encode(nil, raw), false, nil
	case CodecZstd:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), false, nil
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, false, err
		}
		if n == 0 {
			return raw, true, nil
		}
		return buf[:n], false, nil
	default:
		return nil, false, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
}

func decompress(c Codec, data []byte, rawLen int) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecSnappy:
		return snappy.Decode(nil, data)
	case CodecZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		return dec.DecodeAll(data, make([]byte, 0, rawLen))
	case CodecLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		return out[:n], nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, c)
	}
}
