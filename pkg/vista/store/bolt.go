// Package store persists navigation stack snapshots in a bbolt database so a
// session can be restored after a restart.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/BrandonKowalski/vista/pkg/vista/router"
)

const (
	bucketSessions = "sessions"
	bucketSaves    = "saves"
)

// DefaultSession is used when Open is given no session name.
const DefaultSession = "default"

// ErrNoSession is returned by Snapshot when nothing was saved under a name.
var ErrNoSession = errors.New("store: no such session")

var initDB = map[string]func(*bolt.Tx) error{
	"initialize session table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSessions))
		return err
	},
	"initialize save counter table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSaves))
		return err
	},
}

// Bolt is a router.Persister writing one snapshot per session name.
type Bolt struct {
	db      *bolt.DB
	session string
}

// Open opens or creates the database at path and returns a persister for
// session.
func Open(path, session string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initDB {
			if err := fn(tx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	if session == "" {
		session = DefaultSession
	}
	return &Bolt{db: db, session: session}, nil
}

// Session returns a persister for another session sharing the database.
func (b *Bolt) Session(name string) *Bolt {
	return &Bolt{db: b.db, session: name}
}

// Save implements router.Persister.
func (b *Bolt) Save(snap router.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bucketSessions)).Put([]byte(b.session), data); err != nil {
			return err
		}
		saves := tx.Bucket([]byte(bucketSaves))
		n := decodeCount(saves.Get([]byte(b.session))) + 1
		return saves.Put([]byte(b.session), encodeCount(n))
	})
}

// Load implements router.Persister.
func (b *Bolt) Load() (router.Snapshot, bool, error) {
	snap, err := b.Snapshot(b.session)
	if errors.Is(err, ErrNoSession) {
		return router.Snapshot{}, false, nil
	}
	if err != nil {
		return router.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Snapshot returns the snapshot saved under name.
func (b *Bolt) Snapshot(name string) (router.Snapshot, error) {
	var snap router.Snapshot
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSessions)).Get([]byte(name))
		if v == nil {
			return ErrNoSession
		}
		return json.Unmarshal(v, &snap)
	})
	if err != nil && !errors.Is(err, ErrNoSession) {
		return router.Snapshot{}, fmt.Errorf("store: decode session %q: %w", name, err)
	}
	return snap, err
}

// Saves returns how many times the session was saved.
func (b *Bolt) Saves() (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		n = decodeCount(tx.Bucket([]byte(bucketSaves)).Get([]byte(b.session)))
		return nil
	})
	return n, err
}

// Sessions lists the saved session names in key order.
func (b *Bolt) Sessions() ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSessions)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Delete forgets the session.
func (b *Bolt) Delete() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bucketSessions)).Delete([]byte(b.session)); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketSaves)).Delete([]byte(b.session))
	})
}

// Close closes the database. Every session sharing it becomes unusable.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func encodeCount(n int) []byte {
	return []byte(strconv.Itoa(n))
}

func decodeCount(data []byte) int {
	n, _ := strconv.Atoi(string(data))
	return n
}
