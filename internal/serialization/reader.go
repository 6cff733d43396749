package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/born-ml/stick/internal/config"
	"github.com/born-ml/stick/internal/ztensor"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
	Logger                 *slog.Logger    // Logger handed to loaded tensors
}

// Reader gives access to the tensors of a .stk container. The data section
// is held in memory, uncompressed.
type Reader struct {
	cfg    *config.Config
	opts   ReaderOptions
	header Header
	flags  uint32
	data   []byte
	closed bool
}

// Open reads the container at path. Tensors are rebuilt with cfg, or
// config.Default() if cfg is nil.
func Open(path string, cfg *config.Config, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for loading
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()
	return NewReader(bufio.NewReader(file), cfg, opts)
}

// NewReader reads a whole container from r.
func NewReader(r io.Reader, cfg *config.Config, opts ReaderOptions) (*Reader, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	reader := &Reader{cfg: cfg, opts: opts}

	headerSize, err := reader.parseFixedHeader(r)
	if err != nil {
		return nil, err
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}
	if err := json.Unmarshal(headerBytes, &reader.header); err != nil {
		return nil, errors.Wrap(err, "failed to parse header JSON")
	}
	if err := ValidateHeader(&reader.header, opts.ValidationLevel); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if err := ValidateDataSize(reader.header.DataSize, len(reader.header.Tensors), cfg.Limits.MaxTensorSize); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	pos := int64(FixedHeaderSize) + int64(headerSize)
	if _, err := io.CopyN(io.Discard, r, alignData(pos)-pos); err != nil {
		return nil, errors.Wrap(err, "failed to read padding")
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tensor data")
	}
	if reader.flags&FlagCompressed != 0 {
		if reader.data, err = decompress(payload, reader.header.DataSize); err != nil {
			return nil, err
		}
	} else {
		reader.data = payload
	}
	if int64(len(reader.data)) != reader.header.DataSize {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Details: fmt.Sprintf("data section is %d bytes, header says %d", len(reader.data), reader.header.DataSize),
		}
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(reader.data, reader.header.Checksum); err != nil {
			return nil, err
		}
	}
	return reader, nil
}

func (r *Reader) parseFixedHeader(in io.Reader) (uint64, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(in, fixed); err != nil {
		return 0, errors.Wrap(err, "failed to read fixed header")
	}
	if string(fixed[0:4]) != MagicBytes {
		return 0, errors.Wrapf(ErrInvalidMagic, "got %q, expected %q", fixed[0:4], MagicBytes)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return 0, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", version, FormatVersion)
	}
	r.flags = binary.LittleEndian.Uint32(fixed[8:12])

	headerSize := binary.LittleEndian.Uint64(fixed[12:20])
	if headerSize > MaxHeaderSize {
		return 0, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}
	return headerSize, nil
}

// decompress inflates payload, refusing to produce more than size bytes.
func decompress(payload []byte, size int64) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(max(size, 1))))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd decoder")
	}
	defer dec.Close()
	data, err := dec.DecodeAll(payload, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Details: fmt.Sprintf("data section inflates past data_size %d", size),
		}
	}
	return data, errors.Wrap(err, "failed to decompress tensor data")
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Compressed reports whether the data section was stored compressed.
func (r *Reader) Compressed() bool {
	return r.flags&FlagCompressed != 0
}

// Metadata returns the metadata map from the header.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns the tensor names in file order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the stored metadata of a tensor.
func (r *Reader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range r.header.Tensors {
		if r.header.Tensors[i].Name == name {
			meta := r.header.Tensors[i]
			return &meta, nil
		}
	}
	return nil, errors.Wrapf(ErrTensorNotFound, "%q", name)
}

// LoadTensor rebuilds a tensor. Its transformed descriptor is generated again
// from the stored pre-transformed one and must match what was written.
func (r *Reader) LoadTensor(name string) (*ztensor.Tensor, error) {
	if r.closed {
		return nil, ErrClosed
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	pre, err := meta.Pre.Descriptor()
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %q", name)
	}
	concat, err := meta.Concat.Concat()
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %q", name)
	}
	var opts []ztensor.Option
	if r.opts.Logger != nil {
		opts = append(opts, ztensor.WithLogger(r.opts.Logger))
	}
	if meta.Quant != nil {
		opts = append(opts, ztensor.WithQuantization(*meta.Quant))
	} else {
		opts = append(opts, ztensor.WithConcat(concat))
	}

	zt, err := ztensor.New(r.cfg, pre, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "tensor %q", name)
	}
	if got := zt.Transformed().String(); got != meta.Transformed {
		return nil, &ValidationError{
			Type:    "descriptor_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("stored %q, generated %q", meta.Transformed, got),
		}
	}

	want := int64(0)
	if meta.IsTransformed {
		want = int64(zt.BufferSize())
	}
	if meta.Size != want {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("stored size %d, expected %d", meta.Size, want),
		}
	}
	if !meta.IsTransformed {
		return zt, nil
	}
	if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(r.data)) {
		return nil, &ValidationError{
			Type:    "out_of_bounds",
			Tensor:  name,
			Details: fmt.Sprintf("offset %d + size %d > data_size %d", meta.Offset, meta.Size, len(r.data)),
		}
	}
	if err := zt.Restore(r.data[meta.Offset : meta.Offset+meta.Size]); err != nil {
		return nil, errors.Wrapf(err, "tensor %q", name)
	}
	return zt, nil
}

// ReadAll loads every tensor, keyed by name.
func (r *Reader) ReadAll() (map[string]*ztensor.Tensor, error) {
	out := make(map[string]*ztensor.Tensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		zt, err := r.LoadTensor(meta.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load tensor %s", meta.Name)
		}
		out[meta.Name] = zt
	}
	return out, nil
}

// Close releases the data section.
func (r *Reader) Close() error {
	r.closed = true
	r.data = nil
	return nil
}
