package checkpoint

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/symbol"
)

// ErrNotFound is returned when no snapshot matches a query.
var ErrNotFound = errors.New("checkpoint not found")

// ErrInvalidRunID is returned for run ids that are empty or contain '/'.
var ErrInvalidRunID = errors.New("invalid run id")

// Config configures a Store.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path     string
	InMemory bool
	// Logger receives badger's internal logs. Nil disables them.
	Logger *slog.Logger
}

// Store keeps snapshots in a badger database.
type Store struct {
	db *badger.DB
}

// badgerLogger adapts slog to badger's logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates a store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent checkpoint store")
	}
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create checkpoint directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckRunID reports whether runID can name a run. A '/' would let the key
// prefix of one run cover the keys of another.
func CheckRunID(runID string) error {
	if runID == "" || strings.Contains(runID, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}

func runPrefix(runID string) []byte {
	return []byte("ckpt/" + runID + "/")
}

// key appends an order-preserving encoding of t to the run prefix.
func key(runID string, t float64) []byte {
	bits := math.Float64bits(t)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	return binary.BigEndian.AppendUint64(runPrefix(runID), bits)
}

func timeOf(k []byte) float64 {
	bits := binary.BigEndian.Uint64(k[len(k)-8:])
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// Save captures root and stores it under (runID, t). A snapshot already
// stored at the same time is replaced.
func (s *Store) Save(ctx context.Context, runID string, t float64, root *symbol.Scope) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if err := CheckRunID(runID); err != nil {
		return err
	}
	snap, err := Capture(runID, t, root)
	if err != nil {
		return fmt.Errorf("capture checkpoint: %w", err)
	}
	return s.Put(ctx, snap)
}

// Put stores an already captured snapshot.
func (s *Store) Put(ctx context.Context, snap *Snapshot) error {
	if err := CheckRunID(snap.RunID); err != nil {
		return err
	}
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(snap.RunID, snap.Time), data)
	})
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Checkpoint stored.", "run_id", snap.RunID, "time", snap.Time, "bytes", len(data))
	return nil
}

func decodeItem(item *badger.Item) (*Snapshot, error) {
	var snap Snapshot
	err := item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &snap)
	})
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &snap, nil
}

// Load returns the snapshot stored at exactly t.
func (s *Store) Load(ctx context.Context, runID string, t float64) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if err := CheckRunID(runID); err != nil {
		return nil, err
	}
	var snap *Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(runID, t))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: run %s at t=%g", ErrNotFound, runID, t)
		}
		if err != nil {
			return err
		}
		snap, err = decodeItem(item)
		return err
	})
	return snap, err
}

// Latest returns the snapshot with the greatest time of a run.
func (s *Store) Latest(ctx context.Context, runID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if err := CheckRunID(runID); err != nil {
		return nil, err
	}
	prefix := runPrefix(runID)
	var snap *Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff))
		if !it.ValidForPrefix(prefix) {
			return fmt.Errorf("%w: run %s has no checkpoints", ErrNotFound, runID)
		}
		var err error
		snap, err = decodeItem(it.Item())
		return err
	})
	return snap, err
}

// Times lists the checkpoint times of a run in ascending order.
func (s *Store) Times(ctx context.Context, runID string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}
	if err := CheckRunID(runID); err != nil {
		return nil, err
	}
	prefix := runPrefix(runID)
	var out []float64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, timeOf(it.Item().Key()))
		}
		return nil
	})
	return out, err
}
