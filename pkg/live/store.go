package live

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// Store persists session state across preview server restarts.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) the session database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("live: open session store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("live: init session store: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveSession writes a session's remembered state.
func (st *Store) SaveSession(id string, state map[string]string) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return st.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(id), data)
	})
}

// LoadSession reads a session's remembered state; a session never seen
// returns nil with no error.
func (st *Store) LoadSession(id string) (map[string]string, error) {
	var state map[string]string
	err := st.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &state)
	})
	return state, err
}

// DeleteSession drops a session's state.
func (st *Store) DeleteSession(id string) error {
	return st.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

// SessionIDs lists every persisted session.
func (st *Store) SessionIDs() ([]string, error) {
	var ids []string
	err := st.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

// Close closes the database.
func (st *Store) Close() error {
	return st.db.Close()
}
