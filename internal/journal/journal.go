// Package journal persists reconciliation snapshots in a local pebble
// store, so accumulated diffs survive restarts and can be inspected
// offline.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/LeJamon/goXRPLtrade/internal/reconcile"
)

var (
	ErrClosed   = errors.New("journal: store is closed")
	ErrNotFound = errors.New("journal: snapshot not found")
)

const offerPrefix = "offer/"

// Store is a pebble-backed snapshot journal. Safe for concurrent use;
// pebble provides its own synchronization.
type Store struct {
	db *pebble.DB
}

// Open opens or creates the journal at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying store.
func (s *Store) Close() error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// snapshotKey orders entries by account, then sequence. The sequence is
// big-endian so byte order matches numeric order under prefix iteration.
func snapshotKey(account string, sequence uint32) []byte {
	key := make([]byte, 0, len(offerPrefix)+len(account)+5)
	key = append(key, offerPrefix...)
	key = append(key, account...)
	key = append(key, '/')
	key = binary.BigEndian.AppendUint32(key, sequence)
	return key
}

// Save writes one snapshot, overwriting any previous state for the same
// offer.
func (s *Store) Save(snap reconcile.Snapshot) error {
	if s.db == nil {
		return ErrClosed
	}
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("journal: encode %s:%d: %w", snap.Account, snap.Sequence, err)
	}
	return s.db.Set(snapshotKey(snap.Account, snap.Sequence), value, pebble.Sync)
}

// SaveAll writes a batch of snapshots atomically.
func (s *Store) SaveAll(snaps []reconcile.Snapshot) error {
	if s.db == nil {
		return ErrClosed
	}
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, snap := range snaps {
		value, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("journal: encode %s:%d: %w", snap.Account, snap.Sequence, err)
		}
		if err := batch.Set(snapshotKey(snap.Account, snap.Sequence), value, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// Load reads the snapshot for one offer.
func (s *Store) Load(account string, sequence uint32) (reconcile.Snapshot, error) {
	if s.db == nil {
		return reconcile.Snapshot{}, ErrClosed
	}
	value, closer, err := s.db.Get(snapshotKey(account, sequence))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return reconcile.Snapshot{}, ErrNotFound
		}
		return reconcile.Snapshot{}, err
	}
	defer closer.Close()

	var snap reconcile.Snapshot
	if err := json.Unmarshal(value, &snap); err != nil {
		return reconcile.Snapshot{}, fmt.Errorf("journal: decode %s:%d: %w", account, sequence, err)
	}
	return snap, nil
}

// Delete removes the snapshot for one offer. Deleting a missing snapshot is
// not an error.
func (s *Store) Delete(account string, sequence uint32) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Delete(snapshotKey(account, sequence), pebble.Sync)
}

// ListAccount returns every stored snapshot for one account in sequence
// order.
func (s *Store) ListAccount(account string) ([]reconcile.Snapshot, error) {
	prefix := offerPrefix + account + "/"
	return s.list([]byte(prefix))
}

// List returns every stored snapshot, ordered by account then sequence.
func (s *Store) List() ([]reconcile.Snapshot, error) {
	return s.list([]byte(offerPrefix))
}

func (s *Store) list(prefix []byte) ([]reconcile.Snapshot, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []reconcile.Snapshot
	for iter.First(); iter.Valid(); iter.Next() {
		var snap reconcile.Snapshot
		if err := json.Unmarshal(iter.Value(), &snap); err != nil {
			return nil, fmt.Errorf("journal: decode %q: %w", iter.Key(), err)
		}
		out = append(out, snap)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// upperBound is the smallest key strictly greater than every key carrying
// the prefix.
func upperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
