package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// IDX magic numbers of the MNIST distribution files.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049

	maxIDXItems     = 1 << 24
	maxIDXImageSize = 1 << 24
)

// openIDX opens path, transparently decompressing ".gz" files.
func openIDX(path string) (io.ReadCloser, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for dataset conversion
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open idx file: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}
	gz, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{gz, file}, nil
}

// ReadIDXImages reads an IDX image file:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func ReadIDXImages(r io.Reader) ([][]byte, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: idx image header: %w", ErrMalformed, err)
	}
	if header[0] != idxImagesMagic {
		return nil, fmt.Errorf("%w: invalid magic number: got %d, want %d", ErrMalformed, header[0], idxImagesMagic)
	}

	numImages, imageSize := int(header[1]), int(header[2])*int(header[3])
	switch {
	case numImages > maxIDXItems:
		return nil, fmt.Errorf("%w: %d images, limit %d", ErrMalformed, numImages, maxIDXItems)
	case imageSize <= 0 || imageSize > maxIDXImageSize:
		return nil, fmt.Errorf("%w: %dx%d images", ErrMalformed, header[2], header[3])
	}

	// Grow as images arrive so a lying header fails at the first short read.
	images := make([][]byte, 0, min(numImages, 1024))
	for i := 0; i < numImages; i++ {
		img := make([]byte, imageSize)
		if _, err := io.ReadFull(r, img); err != nil {
			return nil, fmt.Errorf("%w: failed to read image %d: %w", ErrMalformed, i, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// ReadIDXLabels reads an IDX label file:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func ReadIDXLabels(r io.Reader) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: idx label header: %w", ErrMalformed, err)
	}
	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("%w: invalid magic number: got %d, want %d", ErrMalformed, header[0], idxLabelsMagic)
	}

	n := int64(header[1])
	if n > maxIDXItems {
		return nil, fmt.Errorf("%w: %d labels, limit %d", ErrMalformed, n, maxIDXItems)
	}
	var labels bytes.Buffer
	if _, err := io.CopyN(&labels, r, n); err != nil {
		return nil, fmt.Errorf("%w: failed to read labels: %w", ErrMalformed, err)
	}
	return labels.Bytes(), nil
}

// WriteText writes samples in the format read by Read: the label followed
// by the pixel values, one sample per line.
func WriteText(w io.Writer, labels []byte, images [][]byte) error {
	if len(labels) != len(images) {
		return fmt.Errorf("%w: %d labels for %d images", ErrMalformed, len(labels), len(images))
	}
	bw := bufio.NewWriter(w)
	line := make([]byte, 0, 4096)
	for i, img := range images {
		line = strconv.AppendUint(line[:0], uint64(labels[i]), 10)
		for _, px := range img {
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(px), 10)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ConvertIDX reads an IDX image/label pair and writes it to w as text.
// It returns the number of samples written.
func ConvertIDX(imagesPath, labelsPath string, w io.Writer) (int, error) {
	imgFile, err := openIDX(imagesPath)
	if err != nil {
		return 0, err
	}
	defer imgFile.Close()
	images, err := ReadIDXImages(imgFile)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", imagesPath, err)
	}

	lblFile, err := openIDX(labelsPath)
	if err != nil {
		return 0, err
	}
	defer lblFile.Close()
	labels, err := ReadIDXLabels(lblFile)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", labelsPath, err)
	}

	if err := WriteText(w, labels, images); err != nil {
		return 0, err
	}
	return len(images), nil
}
