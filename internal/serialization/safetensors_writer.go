package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/mlp/internal/matrix"
)

// dtypeF32 is the only dtype written and accepted.
const dtypeF32 = "F32"

const metadataKey = "__metadata__"

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes a state dict to a SafeTensors file at path.
func WriteSafeTensors(path string, stateDict map[string]*matrix.Matrix, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := EncodeSafeTensors(file, stateDict, metadata); err != nil {
		_ = file.Close() // Best effort close
		return err
	}
	return file.Close()
}

// EncodeSafeTensors writes a state dict in SafeTensors format to w.
//
// Tensors are written in alphabetical order by name. The SHA-256 of the data
// section is added to the metadata under MetadataChecksum.
func EncodeSafeTensors(w io.Writer, stateDict map[string]*matrix.Matrix, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]interface{}, len(names)+1)

	var data []byte
	for _, name := range names {
		m := stateDict[name]
		if m.Released() {
			return fmt.Errorf("tensor %s: %w", name, matrix.ErrReleased)
		}

		start := int64(len(data))
		for _, v := range m.Data() {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
		}

		header[name] = SafeTensorHeader{
			DType:       dtypeF32,
			Shape:       []int64{int64(m.Rows()), int64(m.Cols())},
			DataOffsets: [2]int64{start, int64(len(data))},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetadataChecksum] = ComputeChecksum(data)
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	// Header size (8 bytes, little-endian uint64)
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}
