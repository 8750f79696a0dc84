package object

import (
	"bytes"

	"github.com/spaolacci/murmur3"
)

type entry struct {
	key *Value
	val *Value
}

// DB maps string keys to values. Keys are matched by content: entries are
// bucketed by the murmur3 hash of the key bytes and compared byte-for-byte
// inside a bucket.
//
// DB is not safe for concurrent use.
type DB struct {
	buckets map[uint64][]entry
	size    int
}

// NewDB creates an empty database.
func NewDB() *DB {
	return &DB{buckets: make(map[uint64][]entry)}
}

func hashKey(key []byte) uint64 {
	return murmur3.Sum64(key)
}

func (db *DB) find(key []byte) (uint64, int) {
	h := hashKey(key)
	for i, e := range db.buckets[h] {
		if bytes.Equal(e.key.str, key) {
			return h, i
		}
	}
	return h, -1
}

// Lookup returns the value stored under key.
func (db *DB) Lookup(key *Value) (*Value, bool) {
	h, i := db.find(key.Bytes())
	if i < 0 {
		return nil, false
	}
	return db.buckets[h][i].val, true
}

// Set stores val under key. The database takes over one reference to val,
// so callers that keep using val must IncrRef it first. An existing value
// under the same key is released.
func (db *DB) Set(key, val *Value) {
	h, i := db.find(key.Bytes())
	if i >= 0 {
		old := db.buckets[h][i].val
		db.buckets[h][i].val = val
		old.DecrRef()
		return
	}

	// The key is copied: the caller's key object belongs to a transient
	// argument vector.
	k := make([]byte, key.Len())
	copy(k, key.Bytes())
	db.buckets[h] = append(db.buckets[h], entry{key: NewString(k), val: val})
	db.size++
}

// Delete removes key and releases its value. It reports whether the key existed.
func (db *DB) Delete(key *Value) bool {
	h, i := db.find(key.Bytes())
	if i < 0 {
		return false
	}
	bucket := db.buckets[h]
	e := bucket[i]
	bucket[i] = bucket[len(bucket)-1]
	bucket[len(bucket)-1] = entry{}
	bucket = bucket[:len(bucket)-1]
	if len(bucket) == 0 {
		delete(db.buckets, h)
	} else {
		db.buckets[h] = bucket
	}
	db.size--

	e.key.DecrRef()
	e.val.DecrRef()
	return true
}

// Len returns the number of keys.
func (db *DB) Len() int {
	return db.size
}

// Flush releases every entry.
func (db *DB) Flush() {
	for h, bucket := range db.buckets {
		for _, e := range bucket {
			e.key.DecrRef()
			e.val.DecrRef()
		}
		delete(db.buckets, h)
	}
	db.size = 0
}
