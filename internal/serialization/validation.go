package serialization

import (
	"fmt"
	"slices"
	"strings"
)

// Limits applied while decoding a checkpoint header.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string
	Offset int64
	Size   int64
}

func (t TensorMeta) end() int64 { return t.Offset + t.Size }

// ValidateTensorOffsets checks that every tensor lies inside a data section
// of dataSize bytes and that no two tensors share bytes.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("%d tensors, limit %d", len(tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	byOffset := slices.Clone(tensors)
	slices.SortFunc(byOffset, func(a, b TensorMeta) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})

	for i, t := range byOffset {
		switch {
		case t.Offset < 0 || t.Size < 0:
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d, size %d", t.Offset, t.Size),
				Err:     ErrNegativeOffset,
			}
		case t.end() > dataSize:
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("bytes [%d,%d) past data section of %d", t.Offset, t.end(), dataSize),
				Err:     ErrOutOfBounds,
			}
		}
		if i+1 < len(byOffset) && t.end() > byOffset[i+1].Offset {
			next := byOffset[i+1]
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  t.Name,
				Tensor2: next.Name,
				Details: fmt.Sprintf("[%d,%d) and [%d,%d)", t.Offset, t.end(), next.Offset, next.end()),
				Err:     ErrOffsetOverlap,
			}
		}
	}
	return nil
}

// ValidateTensorName accepts parameter names such as "3.weight". Empty
// names, names longer than MaxTensorNameLen, path-like names and names
// containing NUL are rejected.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name[:32] + "...",
			Details: fmt.Sprintf("length %d, limit %d", len(name), MaxTensorNameLen),
			Err:     ErrTensorNameTooLong,
		}
	}

	var problem string
	switch {
	case name == "":
		problem = "empty name"
	case strings.Contains(name, ".."):
		problem = `contains ".."`
	case strings.ContainsAny(name, `/\`):
		problem = "contains a path separator"
	case strings.ContainsRune(name, 0):
		problem = "contains a NUL byte"
	default:
		return nil
	}
	return &ValidationError{Type: "invalid_name", Tensor: name, Details: problem, Err: ErrInvalidTensorName}
}
