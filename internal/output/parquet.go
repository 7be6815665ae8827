package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/chrisdamba/brewqueue/internal/cloudwriter"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

const (
	parquetParallelism  = 4
	parquetRowGroupSize = 8 * 1024 * 1024
)

type parquetPartition struct {
	file   source.ParquetFile
	writer *writer.ParquetWriter
}

// ParquetOutput writes one snappy-compressed data.parquet per topic/hour
// partition. Only topics with a registered record type are accepted.
type ParquetOutput struct {
	mu         sync.Mutex
	partitions map[string]*parquetPartition

	basePath string

	factory cloudwriter.CloudWriterFactory
	bucket  string
	folder  string
}

// NewParquetOutput writes under basePath, removing any .parquet files left
// there by a previous run.
func NewParquetOutput(basePath string) *ParquetOutput {
	p := &ParquetOutput{basePath: basePath, partitions: map[string]*parquetPartition{}}
	p.removeStale()
	return p
}

func NewCloudParquetOutput(factory cloudwriter.CloudWriterFactory, bucket, folder string) *ParquetOutput {
	return &ParquetOutput{
		partitions: map[string]*parquetPartition{},
		factory:    factory,
		bucket:     bucket,
		folder:     folder,
	}
}

func (p *ParquetOutput) WriteMessage(topic string, msg []byte) error {
	_, hour, err := decodeEvent(msg)
	if err != nil {
		return err
	}
	rec, err := newRecord(topic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(msg, rec); err != nil {
		return fmt.Errorf("decode %s record: %w", topic, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := path.Join(topic, hour, "data.parquet")
	part, ok := p.partitions[key]
	if !ok {
		if part, err = p.openPartition(key, topic); err != nil {
			return err
		}
		p.partitions[key] = part
	}
	if err := part.writer.Write(reflect.ValueOf(rec).Elem().Interface()); err != nil {
		return fmt.Errorf("write %s row: %w", topic, err)
	}
	return nil
}

func (p *ParquetOutput) openFile(key string) (source.ParquetFile, error) {
	if p.factory != nil {
		w, err := p.factory.NewWriter(p.bucket, path.Join(p.folder, key))
		if err != nil {
			return nil, fmt.Errorf("open object %s: %w", key, err)
		}
		return &objectFile{w: w}, nil
	}
	full := filepath.Join(p.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := local.NewLocalFileWriter(full)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", full, err)
	}
	return f, nil
}

func (p *ParquetOutput) openPartition(key, topic string) (*parquetPartition, error) {
	f, err := p.openFile(key)
	if err != nil {
		return nil, err
	}
	schema, err := newRecord(topic)
	if err != nil {
		f.Close()
		return nil, err
	}
	pw, err := writer.NewParquetWriter(f, schema, parquetParallelism)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parquet schema for %s: %w", topic, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	pw.RowGroupSize = parquetRowGroupSize
	return &parquetPartition{file: f, writer: pw}, nil
}

func (p *ParquetOutput) removeStale() {
	if p.basePath == "" {
		return
	}
	_ = filepath.WalkDir(p.basePath, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(name) == ".parquet" {
			return os.Remove(name)
		}
		return nil
	})
}

// Close writes each partition's footer and closes its file. Every partition
// is closed even when an earlier one fails.
func (p *ParquetOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for key, part := range p.partitions {
		if err := part.writer.WriteStop(); err != nil {
			errs = append(errs, fmt.Errorf("finish %s: %w", key, err))
		}
		if err := part.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
		delete(p.partitions, key)
	}
	return errors.Join(errs...)
}

// objectFile is a write-only source.ParquetFile over a CloudWriter. The
// parquet writer only seeks to learn the current offset.
type objectFile struct {
	w   cloudwriter.CloudWriter
	off int64
}

func (o *objectFile) Create(string) (source.ParquetFile, error) { return o, nil }
func (o *objectFile) Open(string) (source.ParquetFile, error)   { return o, nil }

func (o *objectFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		o.off = offset
	case io.SeekCurrent:
		o.off += offset
	default:
		return 0, errors.New("objectFile: seek relative to end")
	}
	return o.off, nil
}

func (o *objectFile) Read([]byte) (int, error) {
	return 0, errors.New("objectFile: write-only")
}

func (o *objectFile) Write(b []byte) (int, error) {
	n, err := o.w.Write(b)
	o.off += int64(n)
	return n, err
}

func (o *objectFile) Close() error { return o.w.Close() }
