package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
)

// #region qstore
// QStore owns the in-memory value table and hyperparameters and mirrors them
// to a Backend. The in-memory copy is authoritative; save failures never
// invalidate it. QStore is not safe for concurrent use; the engine serializes access.
type QStore struct {
	backend Backend
	key     string
	logger  *zap.Logger

	table  qtable.ValueTable
	config Config
}

// Open loads the record under key, falling back to defaults when it is absent
// or malformed. It never fails. backend may be nil (memory only).
func Open(backend Backend, key string, defaults Config, logger *zap.Logger) *QStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = DefaultRecordKey
	}
	q := &QStore{backend: backend, key: key, logger: logger}
	q.load(defaults)
	return q
}

// #endregion qstore

// #region load
func (q *QStore) load(defaults Config) {
	q.table = qtable.ValueTable{}
	q.config = defaults

	if q.backend == nil {
		return
	}
	payload, err := q.backend.Get(q.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			q.logger.Warn("qstore load failed, using defaults", zap.String("key", q.key), zap.Error(err))
		} else {
			q.logger.Debug("qstore empty, using defaults", zap.String("key", q.key))
		}
		return
	}

	b, err := decodeBundle(payload)
	if err != nil {
		q.logger.Debug("qstore record malformed, using defaults", zap.String("key", q.key), zap.Error(err))
		return
	}
	q.table = b.ValueTable
	q.config = b.Config
	q.logger.Debug("qstore loaded",
		zap.String("key", q.key),
		zap.Int("states", len(q.table)),
		zap.Float64("epsilon", q.config.Epsilon),
	)
}

// decodeBundle parses and validates a persisted record. Entries for actions
// outside the fixed set are dropped.
func decodeBundle(payload []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(payload, &b); err != nil {
		return Bundle{}, fmt.Errorf("unmarshal bundle: %w", err)
	}
	if !b.Config.Valid() {
		return Bundle{}, fmt.Errorf("invalid config %+v", b.Config)
	}
	tbl := qtable.ValueTable{}
	for state, row := range b.ValueTable {
		for a, v := range row {
			if a.Valid() {
				tbl.Set(state, a, v)
			}
		}
	}
	b.ValueTable = tbl
	return b, nil
}

// #endregion load

// #region accessors
// Table returns the live value table.
func (q *QStore) Table() qtable.ValueTable {
	return q.table
}

// Config returns a copy of the current hyperparameters.
func (q *QStore) Config() Config {
	return q.config
}

// SetEpsilon overwrites the exploration rate.
func (q *QStore) SetEpsilon(eps float64) {
	q.config.Epsilon = eps
}

// SetVerbose toggles verbose step tracing.
func (q *QStore) SetVerbose(v bool) {
	q.config.Verbose = v
}

// Key returns the record key.
func (q *QStore) Key() string {
	return q.key
}

// #endregion accessors

// #region save
// Save persists {valueTable, config}. Errors (including panics raised by the
// backend) are returned, never propagated as panics.
func (q *QStore) Save() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("save panicked: %v", r)
		}
	}()
	if q.backend == nil {
		return errors.New("no storage backend")
	}
	payload, err := json.Marshal(Bundle{ValueTable: q.table, Config: q.config})
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := q.backend.Put(q.key, payload); err != nil {
		return fmt.Errorf("put bundle: %w", err)
	}
	return nil
}

// #endregion save

// #region reset-export
// Reset clears the value table in place. Hyperparameters are kept.
func (q *QStore) Reset() {
	q.table.Clear()
}

// Export returns a deep copy of {valueTable, config}.
func (q *QStore) Export() Bundle {
	return Bundle{ValueTable: q.table.Clone(), Config: q.config}
}

// Restore replaces the table and config with a deep copy of b.
// The live table map is reused so existing references stay valid.
func (q *QStore) Restore(b Bundle) error {
	if !b.Config.Valid() {
		return fmt.Errorf("invalid config %+v", b.Config)
	}
	q.table.Clear()
	for state, row := range b.ValueTable {
		for a, v := range row {
			if a.Valid() {
				q.table.Set(state, a, v)
			}
		}
	}
	q.config = b.Config
	return nil
}

// #endregion reset-export
