package saves

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Decode reads a save of any supported version, compressed or not,
// migrates it and validates the result.
func Decode(data []byte) (*WorldSave, error) {
	if IsCompressed(data) {
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("saves: open zstd reader: %w", err)
		}
		defer dec.Close()
		data, err = io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("saves: decompress: %w", err)
		}
	}

	doc := map[string]interface{}{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("saves: decode json: %w", err)
	}
	// a literal null unmarshals into a nil map
	if doc == nil {
		return nil, fmt.Errorf("saves: decode json: %w", ErrNullDocument)
	}
	if _, err := Migrate(doc); err != nil {
		return nil, err
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("saves: encode migrated document: %w", err)
	}
	// validate the JSON form so numbers and maps have their decoded types
	var generic interface{}
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, fmt.Errorf("saves: decode migrated document: %w", err)
	}
	if err := Validate(generic); err != nil {
		return nil, err
	}

	save := &WorldSave{}
	if err := json.Unmarshal(b, save); err != nil {
		return nil, fmt.Errorf("saves: decode world save: %w", err)
	}
	if save.Players == nil {
		save.Players = map[string]*PlayerRecord{}
	}
	return save, nil
}

// Encode writes a save as indented JSON, zstd compressed when compress is set.
func Encode(w io.Writer, save *WorldSave, compress bool) error {
	save.SchemaVersion = SchemaVersion
	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(save); err != nil {
			return fmt.Errorf("saves: encode: %w", err)
		}
		return nil
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("saves: open zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(save); err != nil {
		zw.Close()
		return fmt.Errorf("saves: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("saves: close zstd writer: %w", err)
	}
	return nil
}
