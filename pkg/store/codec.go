package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/user/hecvat-adk/pkg/engine"
)

// Encoder and decoder are safe for concurrent EncodeAll / DecodeAll.
var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

func encodeSnapshot(s *engine.Snapshot, compress bool) ([]byte, error) {
	data, err := s.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot %s: %w", s.ID, err)
	}
	if !compress {
		return data, nil
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

func decodeSnapshot(data []byte, compressed bool) (*engine.Snapshot, error) {
	if compressed {
		raw, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		data = raw
	}
	return engine.UnmarshalSnapshot(data)
}
