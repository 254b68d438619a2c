package speakerid

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned by Store.Get when the identity has no stored
// print, and by Store.Put when the identity does not exist.
var ErrNotFound = errors.New("speakerid: voice-print not found")

// Store owns voice-print persistence, one print per identity. Put
// overwrites any prior print; writes for the same identity are serialized.
// Vector shape is not validated here.
type Store interface {
	Get(ctx context.Context, identityID uuid.UUID) (VoicePrint, error)
	Put(ctx context.Context, identityID uuid.UUID, vp VoicePrint) error
	All(ctx context.Context) (map[uuid.UUID]VoicePrint, error)
	Close() error
}

// IdentityChecker verifies an identity exists before a print is written
// for it. Usually backed by the relational store.
type IdentityChecker interface {
	IdentityExists(ctx context.Context, id uuid.UUID) (bool, error)
}

const printKeyPrefix = "voiceprint:"

// BadgerStore keeps msgpack-encoded prints in a BadgerDB keyed by identity
// ID.
type BadgerStore struct {
	db      *badger.DB
	checker IdentityChecker

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// BadgerStoreOptions configures a BadgerStore.
type BadgerStoreOptions struct {
	// Dir is the badger data directory. Required unless InMemory.
	Dir string
	// InMemory skips disk persistence. Used in tests.
	InMemory bool
	// Checker, when set, makes Put fail with ErrNotFound for identities
	// that do not exist.
	Checker IdentityChecker
}

func NewBadgerStore(opts BadgerStoreOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("speakerid: BadgerStoreOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("speakerid: open badger: %w", err)
	}
	return &BadgerStore{
		db:      db,
		checker: opts.Checker,
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

func printKey(id uuid.UUID) []byte {
	return []byte(printKeyPrefix + id.String())
}

func (s *BadgerStore) identityLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *BadgerStore) Get(ctx context.Context, identityID uuid.UUID) (VoicePrint, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(printKey(identityID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("speakerid: get %s: %w", identityID, err)
	}
	var vp VoicePrint
	if err := msgpack.Unmarshal(raw, &vp); err != nil {
		return nil, fmt.Errorf("speakerid: decode %s: %w", identityID, err)
	}
	return vp, nil
}

func (s *BadgerStore) Put(ctx context.Context, identityID uuid.UUID, vp VoicePrint) error {
	if s.checker != nil {
		ok, err := s.checker.IdentityExists(ctx, identityID)
		if err != nil {
			return fmt.Errorf("speakerid: check identity %s: %w", identityID, err)
		}
		if !ok {
			return fmt.Errorf("speakerid: put %s: %w", identityID, ErrNotFound)
		}
	}

	l := s.identityLock(identityID)
	l.Lock()
	defer l.Unlock()

	raw, err := msgpack.Marshal(vp)
	if err != nil {
		return fmt.Errorf("speakerid: encode %s: %w", identityID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(printKey(identityID), raw)
	})
	if err != nil {
		return fmt.Errorf("speakerid: put %s: %w", identityID, err)
	}
	return nil
}

func (s *BadgerStore) All(ctx context.Context) (map[uuid.UUID]VoicePrint, error) {
	out := make(map[uuid.UUID]VoicePrint)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(printKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, err := uuid.Parse(string(item.Key()[len(prefix):]))
			if err != nil {
				continue // not one of ours
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var vp VoicePrint
			if err := msgpack.Unmarshal(raw, &vp); err != nil {
				continue // skip malformed entries
			}
			out[id] = vp
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("speakerid: list prints: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
