package base

import (
	"io"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/pierrec/lz4/v4"
)

var LogCompression = NewLogCategory("Compression")

type CompressedReader interface {
	io.ReadCloser
}
type CompressedWriter interface {
	Flush() error
	io.WriteCloser
}

type CompressionOptions struct {
	Format CompressionFormat
	Level  CompressionLevel
}

type CompressionOptionFunc func(*CompressionOptions)

func CompressionOptionFormat(fmt CompressionFormat) CompressionOptionFunc {
	return func(co *CompressionOptions) {
		co.Format = fmt
	}
}
func CompressionOptionLevel(lvl CompressionLevel) CompressionOptionFunc {
	return func(co *CompressionOptions) {
		co.Level = lvl
	}
}

func NewCompressionOptions(options ...CompressionOptionFunc) (result CompressionOptions) {
	result.Format = COMPRESSION_FORMAT_LZ4
	result.Level = COMPRESSION_LEVEL_FAST

	for _, opt := range options {
		opt(&result)
	}
	return
}

func NewCompressedReader(reader io.Reader, options ...CompressionOptionFunc) (CompressedReader, error) {
	co := NewCompressionOptions(options...)
	switch co.Format {
	case COMPRESSION_FORMAT_LZ4:
		return NewLz4Reader(reader)
	case COMPRESSION_FORMAT_ZSTD:
		return zstd.NewReader(reader), nil
	default:
		return nil, MakeUnexpectedValueError(co.Format, co.Format)
	}
}

func NewCompressedWriter(writer io.Writer, options ...CompressionOptionFunc) (CompressedWriter, error) {
	co := NewCompressionOptions(options...)
	switch co.Format {
	case COMPRESSION_FORMAT_LZ4:
		return NewLz4Writer(writer, co.Level)
	case COMPRESSION_FORMAT_ZSTD:
		result := zstd.NewWriterLevel(writer, getZStdCompressionLevel(co.Level))
		result.SetNbWorkers(1)
		return result, nil
	default:
		return nil, MakeUnexpectedValueError(co.Format, co.Format)
	}
}

/***************************************
 * LZ4
 ***************************************/

type lz4Reader struct {
	*lz4.Reader
}

func (x lz4Reader) Close() error { return nil }

func NewLz4Reader(reader io.Reader) (CompressedReader, error) {
	r := lz4.NewReader(reader)
	if err := r.Apply(lz4.ConcurrencyOption(1)); err != nil {
		return nil, err
	}
	return lz4Reader{r}, nil
}

func NewLz4Writer(writer io.Writer, lvl CompressionLevel) (CompressedWriter, error) {
	level := lz4.Fast
	switch lvl {
	case COMPRESSION_LEVEL_BALANCED:
		level = lz4.Level3
	case COMPRESSION_LEVEL_BEST:
		level = lz4.Level7
	}

	w := lz4.NewWriter(writer)
	if err := w.Apply(
		lz4.CompressionLevelOption(level),
		lz4.ConcurrencyOption(1),
		lz4.ChecksumOption(false)); err != nil {
		return nil, err
	}
	return w, nil
}

/***************************************
 * ZSTD
 ***************************************/

func getZStdCompressionLevel(lvl CompressionLevel) int {
	switch lvl {
	case COMPRESSION_LEVEL_FAST:
		return zstd.BestSpeed
	case COMPRESSION_LEVEL_BEST:
		return zstd.BestCompression
	default:
		return zstd.DefaultCompression
	}
}

/***************************************
 * CompressionLevel
 ***************************************/

type CompressionLevel int32

const (
	COMPRESSION_LEVEL_FAST CompressionLevel = iota
	COMPRESSION_LEVEL_BALANCED
	COMPRESSION_LEVEL_BEST
)

func (x CompressionLevel) String() string {
	switch x {
	case COMPRESSION_LEVEL_FAST:
		return "FAST"
	case COMPRESSION_LEVEL_BALANCED:
		return "BALANCED"
	case COMPRESSION_LEVEL_BEST:
		return "BEST"
	default:
		return "INVALID"
	}
}
func (x *CompressionLevel) Set(in string) error {
	switch strings.ToUpper(in) {
	case COMPRESSION_LEVEL_FAST.String():
		*x = COMPRESSION_LEVEL_FAST
	case COMPRESSION_LEVEL_BALANCED.String():
		*x = COMPRESSION_LEVEL_BALANCED
	case COMPRESSION_LEVEL_BEST.String():
		*x = COMPRESSION_LEVEL_BEST
	default:
		return MakeUnexpectedValueError(x, in)
	}
	return nil
}
func (x CompressionLevel) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}
func (x *CompressionLevel) UnmarshalText(data []byte) error {
	return x.Set(string(data))
}

/***************************************
 * CompressionFormat
 ***************************************/

type CompressionFormat int32

const (
	COMPRESSION_FORMAT_LZ4 CompressionFormat = iota
	COMPRESSION_FORMAT_ZSTD
)

func (x CompressionFormat) String() string {
	switch x {
	case COMPRESSION_FORMAT_LZ4:
		return "LZ4"
	case COMPRESSION_FORMAT_ZSTD:
		return "ZSTD"
	default:
		return "INVALID"
	}
}
func (x CompressionFormat) Extname() string {
	switch x {
	case COMPRESSION_FORMAT_ZSTD:
		return ".zst"
	default:
		return ".lz4"
	}
}
func (x *CompressionFormat) Set(in string) error {
	switch strings.ToUpper(in) {
	case COMPRESSION_FORMAT_LZ4.String():
		*x = COMPRESSION_FORMAT_LZ4
	case COMPRESSION_FORMAT_ZSTD.String(), "ZST":
		*x = COMPRESSION_FORMAT_ZSTD
	default:
		return MakeUnexpectedValueError(x, in)
	}
	return nil
}
func (x CompressionFormat) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}
func (x *CompressionFormat) UnmarshalText(data []byte) error {
	return x.Set(string(data))
}
