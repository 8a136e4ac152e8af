package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Showmax/go-fqdn"
	"github.com/djherbis/times"
	json "github.com/goccy/go-json"
	"github.com/kamrann/build2-vs/internal/base"
	internal_io "github.com/kamrann/build2-vs/internal/io"
)

var LogIndex = base.NewLogCategory("Index")

const (
	// TypeIdBuildConfiguration records hold the build configurations a manifest is initialized in.
	TypeIdBuildConfiguration = "build2.BuildConfiguration"

	indexFileMagic   = "B2VSIDX"
	indexFileVersion = 1
)

var ErrIndexVersion = errors.New("incompatible index file")

/***************************************
 * IndexRecord
 ***************************************/

// IndexRecord stores values of one type for one file path, addressed by MakeKey(path, typeId).
type IndexRecord struct {
	Key       base.Fingerprint  `json:"key"`
	Path      string            `json:"path"`
	TypeId    string            `json:"typeId"`
	Values    []json.RawMessage `json:"values"`
	IndexedAt time.Time         `json:"indexedAt"`
}

func MakeKey(path, typeId string) base.Fingerprint {
	return base.StringsFingerprint(filepath.Clean(path), typeId)
}

// Stale is true when the indexed file changed after it was indexed, or disappeared.
func (x *IndexRecord) Stale() bool {
	ts, err := times.Stat(x.Path)
	if err != nil {
		return true
	}
	modified := ts.ModTime()
	if ts.HasChangeTime() && ts.ChangeTime().After(modified) {
		modified = ts.ChangeTime()
	}
	return modified.After(x.IndexedAt)
}

type indexFile struct {
	Magic     string        `json:"magic"`
	Version   int           `json:"version"`
	Host      string        `json:"host"`
	WrittenAt time.Time     `json:"writtenAt"`
	Records   []IndexRecord `json:"records"`
}

/***************************************
 * Store
 ***************************************/

// Store is an in-memory index, optionally persisted to a compressed file. Safe for concurrent use.
type Store struct {
	Path        string
	Compression base.CompressionFormat

	barrier sync.RWMutex
	records map[base.Fingerprint]*IndexRecord
	dirty   bool
}

// NewStore creates an empty store, an empty path disables persistence.
func NewStore(path string, compression base.CompressionFormat) *Store {
	return &Store{
		Path:        path,
		Compression: compression,
		records:     make(map[base.Fingerprint]*IndexRecord),
	}
}

// OpenStore creates a store and loads it from path when the file exists.
func OpenStore(ctx context.Context, path string, compression base.CompressionFormat) (*Store, error) {
	store := NewStore(path, compression)
	if err := store.Load(ctx); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return store, nil
}

func (x *Store) lockPath() string { return x.Path + ".lock" }

func (x *Store) Len() int {
	x.barrier.RLock()
	defer x.barrier.RUnlock()
	return len(x.records)
}

func (x *Store) Dirty() bool {
	x.barrier.RLock()
	defer x.barrier.RUnlock()
	return x.dirty
}

func (x *Store) Get(path, typeId string) (IndexRecord, bool) {
	x.barrier.RLock()
	defer x.barrier.RUnlock()
	if record, ok := x.records[MakeKey(path, typeId)]; ok {
		return *record, true
	}
	return IndexRecord{}, false
}

// Values returns the raw values stored for (path, typeId), nil when nothing was indexed.
func (x *Store) Values(path, typeId string) []json.RawMessage {
	record, ok := x.Get(path, typeId)
	if !ok {
		return nil
	}
	if record.Stale() {
		base.LogWarningOnce(LogIndex, "index record for %q is older than the file, run the indexer again", record.Path)
	}
	return base.CopySlice(record.Values...)
}

// Put replaces the values stored for (path, typeId).
func Put[T any](x *Store, path, typeId string, values ...T) error {
	raw := make([]json.RawMessage, len(values))
	for i, it := range values {
		data, err := base.JsonMarshal(it)
		if err != nil {
			return fmt.Errorf("index %q: %w", path, err)
		}
		raw[i] = data
	}

	record := &IndexRecord{
		Key:       MakeKey(path, typeId),
		Path:      filepath.Clean(path),
		TypeId:    typeId,
		Values:    raw,
		IndexedAt: time.Now(),
	}

	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.records[record.Key] = record
	x.dirty = true
	base.LogTrace(LogIndex, "put %d %s values for %q", len(raw), typeId, path)
	return nil
}

// Decode unmarshals the values stored for (path, typeId).
func Decode[T any](x *Store, path, typeId string) ([]T, error) {
	raw := x.Values(path, typeId)
	result := make([]T, 0, len(raw))
	for _, it := range raw {
		var value T
		if err := base.JsonUnmarshal(it, &value); err != nil {
			return nil, fmt.Errorf("index %q: %w", path, err)
		}
		result = append(result, value)
	}
	return result, nil
}

func (x *Store) Remove(path, typeId string) bool {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	key := MakeKey(path, typeId)
	if _, ok := x.records[key]; ok {
		delete(x.records, key)
		x.dirty = true
		return true
	}
	return false
}

func (x *Store) Clear() {
	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.records = make(map[base.Fingerprint]*IndexRecord)
	x.dirty = true
}

/***************************************
 * Persistence
 ***************************************/

func (x *Store) Load(ctx context.Context) error {
	if len(x.Path) == 0 {
		return nil
	}
	defer base.LogBenchmark(LogIndex, "load %q", x.Path).Close()

	var file indexFile
	err := internal_io.WithLock(ctx, x.lockPath(), func() error {
		return internal_io.OpenFile(x.Path, func(f *os.File) error {
			return x.readFile(f, &file)
		})
	})
	if err != nil {
		return err
	}

	if host := currentHost(); len(file.Host) > 0 && file.Host != host {
		base.LogWarning(LogIndex, "index %q was written on %q, paths may not match on %q", x.Path, file.Host, host)
	}

	records := make(map[base.Fingerprint]*IndexRecord, len(file.Records))
	for i := range file.Records {
		record := &file.Records[i]
		if record.Key != MakeKey(record.Path, record.TypeId) {
			base.LogWarning(LogIndex, "dropping index record for %q with a mismatching key", record.Path)
			continue
		}
		records[record.Key] = record
	}

	x.barrier.Lock()
	defer x.barrier.Unlock()
	x.records = records
	x.dirty = false

	base.LogVerbose(LogIndex, "loaded %d records from %q", len(records), x.Path)
	return nil
}

func (x *Store) readFile(rd io.Reader, file *indexFile) error {
	compressed, err := base.NewCompressedReader(rd, base.CompressionOptionFormat(x.Compression))
	if err != nil {
		return err
	}
	defer compressed.Close()

	if err := base.JsonDeserialize(file, compressed); err != nil {
		return fmt.Errorf("index %q: %w", x.Path, err)
	}
	if file.Magic != indexFileMagic || file.Version != indexFileVersion {
		return fmt.Errorf("%w %q: %s v%d", ErrIndexVersion, x.Path, file.Magic, file.Version)
	}
	return nil
}

func (x *Store) Save(ctx context.Context) error {
	if len(x.Path) == 0 {
		return nil
	}
	defer base.LogBenchmark(LogIndex, "save %q", x.Path).Close()

	x.barrier.RLock()
	file := indexFile{
		Magic:     indexFileMagic,
		Version:   indexFileVersion,
		Host:      currentHost(),
		WrittenAt: time.Now(),
		Records:   make([]IndexRecord, 0, len(x.records)),
	}
	for _, it := range x.records {
		file.Records = append(file.Records, *it)
	}
	x.barrier.RUnlock()

	sort.Slice(file.Records, func(i, j int) bool {
		if file.Records[i].Path != file.Records[j].Path {
			return file.Records[i].Path < file.Records[j].Path
		}
		return file.Records[i].TypeId < file.Records[j].TypeId
	})

	err := internal_io.WithLock(ctx, x.lockPath(), func() error {
		return internal_io.SafeCreate(x.Path, func(w io.Writer) error {
			compressed, err := base.NewCompressedWriter(w,
				base.CompressionOptionFormat(x.Compression),
				base.CompressionOptionLevel(base.COMPRESSION_LEVEL_BALANCED))
			if err != nil {
				return err
			}
			if err := base.JsonSerialize(&file, compressed); err != nil {
				compressed.Close()
				return err
			}
			return compressed.Close()
		})
	})
	if err != nil {
		return err
	}

	x.barrier.Lock()
	x.dirty = false
	x.barrier.Unlock()

	base.LogVerbose(LogIndex, "saved %d records to %q", len(file.Records), x.Path)
	return nil
}

var currentHost = func() string {
	if host, err := fqdn.FqdnHostname(); err == nil {
		return host
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "localhost"
}
