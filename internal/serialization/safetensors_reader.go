package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/mlp/internal/matrix"
)

// ReadSafeTensors reads a SafeTensors file written by WriteSafeTensors.
func ReadSafeTensors(path string) (map[string]*matrix.Matrix, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close() // Best effort close
	}()

	return DecodeSafeTensors(file)
}

// DecodeSafeTensors reads a SafeTensors stream and returns its matrices and
// metadata. Names, offsets and shapes are validated before any data is
// interpreted, and the data checksum is verified when the metadata has one.
func DecodeSafeTensors(r io.Reader) (map[string]*matrix.Matrix, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	var metadata map[string]string
	if msg, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(msg, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(raw, metadataKey)
	}

	headers := make(map[string]SafeTensorHeader, len(raw))
	metas := make([]TensorMeta, 0, len(raw))
	for name, msg := range raw {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		var h SafeTensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, nil, fmt.Errorf("failed to parse tensor %s: %w", name, err)
		}
		if err := validateTensorHeader(name, &h); err != nil {
			return nil, nil, err
		}
		headers[name] = h
		metas = append(metas, TensorMeta{
			Name:   name,
			Offset: h.DataOffsets[0],
			Size:   h.DataOffsets[1] - h.DataOffsets[0],
		})
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateTensorOffsets(metas, int64(len(data))); err != nil {
		return nil, nil, err
	}
	if sum, ok := metadata[MetadataChecksum]; ok {
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, nil, err
		}
	}

	tensors := make(map[string]*matrix.Matrix, len(headers))
	for name, h := range headers {
		rows, cols := int(h.Shape[0]), int(h.Shape[1])
		values := make([]float32, rows*cols)
		chunk := data[h.DataOffsets[0]:h.DataOffsets[1]]
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(chunk[4*i:]))
		}
		m, err := matrix.FromSlice(rows, cols, values)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		tensors[name] = m
	}

	return tensors, metadata, nil
}

// validateTensorHeader checks dtype and that the shape fits the byte range.
// A 1-D shape [n] is read as an n×1 column.
func validateTensorHeader(name string, h *SafeTensorHeader) error {
	if h.DType != dtypeF32 {
		return &ValidationError{
			Type:    "unsupported_dtype",
			Tensor:  name,
			Details: fmt.Sprintf("dtype %q, only %s is supported", h.DType, dtypeF32),
			Err:     ErrUnsupportedDType,
		}
	}

	if len(h.Shape) == 1 {
		h.Shape = []int64{h.Shape[0], 1}
	}
	if len(h.Shape) != 2 || h.Shape[0] <= 0 || h.Shape[1] <= 0 {
		return &ValidationError{
			Type:    "invalid_shape",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v is not a non-empty matrix", h.Shape),
			Err:     ErrInvalidShape,
		}
	}

	// Compare in element counts so huge dimensions cannot overflow.
	span := h.DataOffsets[1] - h.DataOffsets[0]
	elems := span / 4
	if span%4 != 0 || h.Shape[0] > elems/h.Shape[1] || h.Shape[0]*h.Shape[1] != elems {
		return &ValidationError{
			Type:    "invalid_shape",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v does not fit data_offsets span of %d bytes", h.Shape, span),
			Err:     ErrInvalidShape,
		}
	}
	return nil
}
