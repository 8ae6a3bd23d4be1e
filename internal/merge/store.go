package merge

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/darianrosebrook/deduper/internal/api"
	"github.com/sirupsen/logrus"
)

var transactionsBucket = []byte("transactions")

// Store is a BoltDB-backed transaction log. Every merge is durably
// recorded here before and after its side effects, so a crash mid-merge
// can be detected and resolved on the next startup.
type Store struct {
	db     *bolt.DB
	logger *logrus.Logger
}

// NewStore opens (creating if necessary) a transaction log at dbPath.
func NewStore(dbPath string, logger *logrus.Logger) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	s := &Store{db: db, logger: logger}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(transactionsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init transaction log bucket: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put persists (or overwrites) tx.
func (s *Store) Put(txn api.MergeTransaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(transactionsBucket).Put([]byte(txn.ID), data)
	})
}

// Get retrieves a transaction by id.
func (s *Store) Get(id string) (api.MergeTransaction, error) {
	var txn api.MergeTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(transactionsBucket).Get([]byte(id))
		if data == nil {
			return api.ErrNotFound
		}
		return json.Unmarshal(data, &txn)
	})
	return txn, err
}

// All returns every recorded transaction, most recently created first.
func (s *Store) All() ([]api.MergeTransaction, error) {
	var out []api.MergeTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(transactionsBucket).ForEach(func(k, v []byte) error {
			var txn api.MergeTransaction
			if err := json.Unmarshal(v, &txn); err != nil {
				s.logger.WithError(err).WithField("transaction_id", string(k)).Warn("skipping corrupt transaction record")
				return nil
			}
			out = append(out, txn)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Pending returns transactions whose state is neither committed, failed,
// nor undone — candidates for detect_incomplete_transactions. A transaction
// that Undoer has already reversed has reached a terminal state just as
// surely as a committed or failed one, and re-verifying it would find its
// trash tokens gone (Trash.Restore already moved those files back) and
// report a permanent mismatch.
func (s *Store) Pending() ([]api.MergeTransaction, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var pending []api.MergeTransaction
	for _, t := range all {
		if t.State != api.TxCommitted && t.State != api.TxFailed && t.State != api.TxUndone {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// Last returns the most recently created transaction eligible for undo
// (committed and not yet undone), or api.ErrUndoNotAvailable if none exist.
func (s *Store) Last() (api.MergeTransaction, error) {
	all, err := s.All()
	if err != nil {
		return api.MergeTransaction{}, err
	}
	for _, t := range all {
		if t.State == api.TxCommitted && t.UndoneAt == nil {
			return t, nil
		}
	}
	return api.MergeTransaction{}, api.ErrUndoNotAvailable
}
