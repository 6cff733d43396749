package serialization

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/born-ml/stick/internal/config"
	"github.com/born-ml/stick/internal/parallel"
	"github.com/born-ml/stick/internal/quant"
	"github.com/born-ml/stick/internal/tensor"
	"github.com/born-ml/stick/internal/ztensor"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Parallel = parallel.Sequential()
	return cfg
}

func testOptions() ReaderOptions {
	return ReaderOptions{Logger: config.NewLogger(io.Discard, config.LevelOff)}
}

func newTensor(t *testing.T, layout tensor.Layout, shape []int, opts ...ztensor.Option) *ztensor.Tensor {
	t.Helper()
	pre, err := tensor.NewDescriptor(layout, tensor.FP32, shape...)
	require.NoError(t, err)
	zt, err := ztensor.New(testConfig(), pre, append(opts, ztensor.WithLogger(config.NewLogger(io.Discard, config.LevelOff)))...)
	require.NoError(t, err)
	return zt
}

func seq(n int, start float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)
	}
	return out
}

type fixture struct {
	names   []string
	tensors map[string]*ztensor.Tensor
}

func newFixture(t *testing.T) fixture {
	plain := newTensor(t, tensor.NHWC, []int{1, 2, 3, 5})
	require.NoError(t, ztensor.Stickify(plain, seq(30, -10)))

	lstm := newTensor(t, tensor.Layout2DS, []int{2, 3}, ztensor.WithConcat(tensor.LSTM(tensor.UsageBiases)))
	require.NoError(t, ztensor.Stickify(lstm, seq(6, 0), seq(6, 10), seq(6, 20), seq(6, 30)))

	p, err := quant.NewParams(0.5, 1)
	require.NoError(t, err)
	q := newTensor(t, tensor.Layout1D, []int{4}, ztensor.WithQuantization(p))
	require.NoError(t, ztensor.Stickify(q, []float32{1, 2, 3, 4}))

	empty := newTensor(t, tensor.Layout2D, []int{3, 3})

	return fixture{
		names:   []string{"plain", "lstm", "quant", "empty"},
		tensors: map[string]*ztensor.Tensor{"plain": plain, "lstm": lstm, "quant": q, "empty": empty},
	}
}

func (f fixture) encode(t *testing.T, opts WriterOptions) []byte {
	t.Helper()
	w := NewWriter(opts)
	for _, name := range f.names {
		require.NoError(t, w.Add(name, f.tensors[name]))
	}
	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "raw", true: "zstd"}[compress], func(t *testing.T) {
			f := newFixture(t)
			data := f.encode(t, WriterOptions{Compress: compress, Metadata: map[string]string{"model": "lstm"}})

			r, err := NewReader(bytes.NewReader(data), testConfig(), testOptions())
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, compress, r.Compressed())
			assert.Equal(t, f.names, r.TensorNames())
			assert.Equal(t, "lstm", r.Metadata()["model"])
			assert.Equal(t, Version, r.Header().StickVersion)
			assert.EqualValues(t, 0, r.Header().DataSize%DataAlignment)

			all, err := r.ReadAll()
			require.NoError(t, err)
			require.Len(t, all, len(f.names))
			for _, name := range f.names {
				want, got := f.tensors[name], all[name]
				assert.Equal(t, want.IsTransformed(), got.IsTransformed(), name)
				assert.Equal(t, want.Transformed(), got.Transformed(), name)
				assert.Equal(t, want.Concat(), got.Concat(), name)
				wq, wok := want.Quantization()
				gq, gok := got.Quantization()
				assert.Equal(t, wok, gok, name)
				assert.Equal(t, wq, gq, name)
				if want.IsTransformed() {
					assert.Equal(t, want.Bytes(), got.Bytes(), name)
				}
			}

			out := make([]float32, 30)
			require.NoError(t, ztensor.Unstickify(all["plain"], out))
			assert.Equal(t, seq(30, -10), out)

			qout := make([]float32, 4)
			require.NoError(t, ztensor.Unstickify(all["quant"], qout))
			assert.Equal(t, []float32{1, 2, 3, 4}, qout)

			require.NoError(t, ztensor.Stickify(all["empty"], seq(9, 0)))
		})
	}
}

func TestCompressionShrinksPaddedData(t *testing.T) {
	f := newFixture(t)
	raw := f.encode(t, WriterOptions{})
	packed := f.encode(t, WriterOptions{Compress: true})
	assert.Less(t, len(packed), len(raw))
}

func TestSaveOpen(t *testing.T) {
	f := newFixture(t)
	w := NewWriter(WriterOptions{Compress: true})
	for _, name := range f.names {
		require.NoError(t, w.Add(name, f.tensors[name]))
	}
	assert.Equal(t, 4, w.Len())

	path := filepath.Join(t.TempDir(), "tensors.stk")
	require.NoError(t, w.Save(path))

	r, err := Open(path, testConfig(), testOptions())
	require.NoError(t, err)
	zt, err := r.LoadTensor("lstm")
	require.NoError(t, err)
	assert.Equal(t, f.tensors["lstm"].Bytes(), zt.Bytes())

	info, err := r.TensorInfo("lstm")
	require.NoError(t, err)
	assert.Equal(t, DescriptorMeta{Layout: "2DS", DType: "FP32", Shape: []int{2, 3}}, info.Pre)
	assert.Equal(t, &ConcatMeta{Kind: "lstm", Usage: "biases"}, info.Concat)

	_, err = r.LoadTensor("missing")
	assert.True(t, errors.Is(err, ErrTensorNotFound))

	require.NoError(t, r.Close())
	_, err = r.LoadTensor("lstm")
	assert.True(t, errors.Is(err, ErrClosed))

	_, err = Open(filepath.Join(t.TempDir(), "missing.stk"), nil, ReaderOptions{})
	assert.Error(t, err)
}

func TestWriter_Add(t *testing.T) {
	zt := newTensor(t, tensor.Layout1D, []int{2})
	w := NewWriter(WriterOptions{})
	require.NoError(t, w.Add("a", zt))
	assert.True(t, errors.Is(w.Add("a", zt), ErrDuplicateTensor))
	assert.Equal(t, "invalid_name", validationType(t, w.Add("../a", zt)))
	assert.Equal(t, 1, w.Len())
}

func TestReader_Corruption(t *testing.T) {
	f := newFixture(t)
	clean := f.encode(t, WriterOptions{})
	open := func(data []byte, opts ReaderOptions) error {
		_, err := NewReader(bytes.NewReader(data), testConfig(), opts)
		return err
	}
	require.NoError(t, open(clean, ReaderOptions{}))

	corrupt := bytes.Clone(clean)
	r, err := NewReader(bytes.NewReader(clean), testConfig(), ReaderOptions{})
	require.NoError(t, err)
	dataStart := len(clean) - int(r.Header().DataSize)
	corrupt[dataStart] ^= 0xFF
	assert.True(t, errors.Is(open(corrupt, ReaderOptions{}), ErrChecksumMismatch))
	assert.NoError(t, open(corrupt, ReaderOptions{SkipChecksumValidation: true}))

	badMagic := bytes.Clone(clean)
	badMagic[0] = 'X'
	assert.True(t, errors.Is(open(badMagic, ReaderOptions{}), ErrInvalidMagic))

	badVersion := bytes.Clone(clean)
	badVersion[4] = 9
	assert.True(t, errors.Is(open(badVersion, ReaderOptions{}), ErrUnsupportedVersion))

	hugeHeader := bytes.Clone(clean)
	hugeHeader[19] = 0xFF
	assert.True(t, errors.Is(open(hugeHeader, ReaderOptions{}), ErrHeaderTooLarge))

	assert.Error(t, open(clean[:10], ReaderOptions{}))
	assert.Equal(t, "size_mismatch", validationType(t, open(clean[:len(clean)-DataAlignment], ReaderOptions{})))
}

func TestReader_RegeneratesDescriptors(t *testing.T) {
	data := make([]byte, 2*DataAlignment)
	header := func(tfrmd string, size int64) []byte {
		h := Header{
			FormatVersion: FormatVersion,
			StickVersion:  Version,
			DataSize:      int64(len(data)),
			Checksum:      FormatChecksum(ComputeChecksum(data)),
			Tensors: []TensorMeta{{
				Name:          "x",
				Pre:           DescriptorMeta{Layout: "NHWC", DType: "FP32", Shape: []int{1, 1, 1, 2}},
				Transformed:   tfrmd,
				IsTransformed: true,
				Size:          size,
			}},
		}
		var buf bytes.Buffer
		_, err := writeContainer(&buf, &h, 0, data)
		require.NoError(t, err)
		return buf.Bytes()
	}
	load := func(b []byte) error {
		r, err := NewReader(bytes.NewReader(b), testConfig(), testOptions())
		require.NoError(t, err)
		_, err = r.LoadTensor("x")
		return err
	}

	require.NoError(t, load(header("NHWC 4D-FEATURE DLFLOAT16 [1 1 1 64]", DataAlignment)))
	assert.Equal(t, "descriptor_mismatch", validationType(t, load(header("NHWC 4D-FEATURE DLFLOAT16 [1 1 1 128]", DataAlignment))))
	assert.Equal(t, "size_mismatch", validationType(t, load(header("NHWC 4D-FEATURE DLFLOAT16 [1 1 1 64]", 2*DataAlignment))))
}

func TestReader_DataSizeBounds(t *testing.T) {
	compressed := func(t *testing.T, h Header, data []byte) []byte {
		t.Helper()
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		payload := enc.EncodeAll(data, nil)
		require.NoError(t, enc.Close())
		var buf bytes.Buffer
		_, err = writeContainer(&buf, &h, FlagCompressed, payload)
		require.NoError(t, err)
		return buf.Bytes()
	}
	open := func(b []byte, level ValidationLevel) error {
		_, err := NewReader(bytes.NewReader(b), testConfig(), ReaderOptions{ValidationLevel: level})
		return err
	}

	huge := compressed(t, Header{FormatVersion: FormatVersion, DataSize: 1 << 60}, nil)
	for _, level := range []ValidationLevel{ValidationStrict, ValidationNormal, ValidationNone} {
		assert.Equal(t, "data_too_large", validationType(t, open(huge, level)))
	}

	negative := compressed(t, Header{FormatVersion: FormatVersion, DataSize: -DataAlignment}, nil)
	assert.Equal(t, "data_too_large", validationType(t, open(negative, ValidationNone)))

	// The header claims one page but the payload inflates to two.
	data := bytes.Repeat([]byte{1}, 2*DataAlignment)
	bomb := compressed(t, Header{
		FormatVersion: FormatVersion,
		DataSize:      DataAlignment,
		Tensors:       []TensorMeta{{Name: "x", Size: DataAlignment}},
	}, data)
	assert.Equal(t, "size_mismatch", validationType(t, open(bomb, ValidationStrict)))
}
