package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/born-ml/stick/internal/ztensor"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	Compress bool              // zstd-compress the data section
	Metadata map[string]string // Custom metadata stored in the header
}

// Writer collects tensors and writes them as one .stk container.
type Writer struct {
	opts    WriterOptions
	names   []string
	tensors []*ztensor.Tensor
}

// NewWriter creates an empty container writer.
func NewWriter(opts WriterOptions) *Writer {
	return &Writer{opts: opts}
}

// Add queues t under name. Tensors are written in the order they were added.
// Empty tensors are recorded without a buffer.
func (w *Writer) Add(name string, t *ztensor.Tensor) error {
	if err := ValidateTensorName(name); err != nil {
		return err
	}
	for _, n := range w.names {
		if n == name {
			return errors.Wrapf(ErrDuplicateTensor, "%q", name)
		}
	}
	w.names = append(w.names, name)
	w.tensors = append(w.tensors, t)
	return nil
}

// Len returns the number of queued tensors.
func (w *Writer) Len() int { return len(w.tensors) }

// WriteTo writes the container to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	header := Header{
		FormatVersion: FormatVersion,
		StickVersion:  Version,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(w.tensors)),
		Metadata:      w.opts.Metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var offset int64
	for i, t := range w.tensors {
		meta := TensorMeta{
			Name:          w.names[i],
			Pre:           descriptorMeta(t.PreTransformed()),
			Transformed:   t.Transformed().String(),
			IsTransformed: t.IsTransformed(),
			Concat:        concatMeta(t.Concat()),
			Offset:        offset,
		}
		if p, ok := t.Quantization(); ok {
			meta.Quant = &p
		}
		if t.IsTransformed() {
			meta.Size = int64(t.BufferSize())
		}
		header.Tensors = append(header.Tensors, meta)
		offset += alignData(meta.Size)
	}

	data := make([]byte, offset)
	for i, t := range w.tensors {
		if header.Tensors[i].Size > 0 {
			copy(data[header.Tensors[i].Offset:], t.Bytes())
		}
	}
	header.DataSize = offset
	header.Checksum = FormatChecksum(ComputeChecksum(data))

	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	payload := data
	if w.opts.Compress {
		flags |= FlagCompressed
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return 0, errors.Wrap(err, "failed to create zstd encoder")
		}
		payload = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return 0, errors.Wrap(err, "failed to close zstd encoder")
		}
	}

	return writeContainer(out, &header, flags, payload)
}

// Save writes the container to a new file at path.
func (w *Writer) Save(path string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for saving
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()

	bw := bufio.NewWriter(file)
	if _, err := w.WriteTo(bw); err != nil {
		return err
	}
	return errors.Wrap(bw.Flush(), "failed to flush file")
}

func writeContainer(out io.Writer, header *Header, flags uint32, payload []byte) (int64, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal header")
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[12:20], uint64(len(headerJSON)))

	pos := int64(FixedHeaderSize + len(headerJSON))
	padding := make([]byte, alignData(pos)-pos)

	var total int64
	for _, part := range []struct {
		what string
		b    []byte
	}{
		{"fixed header", fixed},
		{"header", headerJSON},
		{"padding", padding},
		{"tensor data", payload},
	} {
		n, err := out.Write(part.b)
		total += int64(n)
		if err != nil {
			return total, errors.Wrapf(err, "failed to write %s", part.what)
		}
	}
	return total, nil
}
