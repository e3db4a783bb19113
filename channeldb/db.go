package channeldb

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

const (
	dbName           = "channel.db"
	dbFilePermission = 0600
)

var (
	// channelStateBucket indexes the latest persisted FSM snapshot for
	// every channel this node knows about, keyed by channel id (or, prior
	// to FundingCreated, by temporary channel id).
	channelStateBucket = []byte("channel-state")

	// htlcInfoBucket indexes the HTLC set riding on the most recently
	// signed commitment for every channel, keyed the same way as
	// channelStateBucket.
	htlcInfoBucket = []byte("htlc-infos")

	// metaBucket stores the single Meta record describing the schema
	// version currently on disk.
	metaBucket = []byte("meta")

	metaKey = []byte("meta")
)

// migration mutates the bucket structure of a prior database version to
// arrive at the next one.
type migration func(tx *bbolt.Tx) error

type version struct {
	number    uint32
	migration migration
}

// dbVersions lists every schema version this package knows how to migrate
// to, in order. The base version requires no migration.
var dbVersions = []version{
	{number: 0, migration: nil},
}

// Meta holds metadata about the database itself, separate from the channel
// state it stores.
type Meta struct {
	DbVersionNumber uint32
}

// DB is the crash-safe store backing the channel state machine: for every
// channel, it holds the most recently persisted FSM state so the node can
// resume exactly where it left off after a restart, per spec.md's
// `StoreState` action.
type DB struct {
	*bbolt.DB
	dbPath string
}

// Open opens an existing channeldb, creating and migrating it first if
// necessary.
func Open(dbPath string) (*DB, error) {
	path := filepath.Join(dbPath, dbName)

	if !fileExists(path) {
		if err := createChannelDB(dbPath); err != nil {
			return nil, err
		}
	}

	bdb, err := bbolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return nil, err
	}

	chanDB := &DB{DB: bdb, dbPath: dbPath}

	if err := chanDB.syncVersions(dbVersions); err != nil {
		bdb.Close()
		return nil, err
	}

	return chanDB, nil
}

func createChannelDB(dbPath string) error {
	if !fileExists(dbPath) {
		if err := os.MkdirAll(dbPath, 0700); err != nil {
			return err
		}
	}

	path := filepath.Join(dbPath, dbName)
	bdb, err := bbolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return err
	}

	err = bdb.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucket(channelStateBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(htlcInfoBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(metaBucket); err != nil {
			return err
		}

		meta := &Meta{DbVersionNumber: getLatestDBVersion(dbVersions)}
		return putMeta(meta, tx)
	})
	if err != nil {
		bdb.Close()
		return fmt.Errorf("unable to create new channeldb: %w", err)
	}

	return bdb.Close()
}

func fileExists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// StoreState persists the FSM snapshot for the channel identified by key
// (a temporary or permanent channel id), overwriting any prior snapshot.
// stateTag names the sum-type constructor the payload was serialized from,
// so LoadState can report a meaningful error on a corrupt or
// version-skewed record without needing to decode payload first.
func (d *DB) StoreState(key []byte, stateTag string, payload []byte) error {
	return d.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(channelStateBucket)
		if bucket == nil {
			return ErrNoChanDBExists
		}

		record := encodeStateRecord(stateTag, payload)
		return bucket.Put(key, record)
	})
}

// LoadState returns the most recently persisted FSM snapshot for key, along
// with the sum-type tag it was stored under.
func (d *DB) LoadState(key []byte) (string, []byte, error) {
	var tag string
	var payload []byte

	err := d.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(channelStateBucket)
		if bucket == nil {
			return ErrNoChanDBExists
		}

		record := bucket.Get(key)
		if record == nil {
			return ErrChannelNoExist
		}

		var err error
		tag, payload, err = decodeStateRecord(record)
		return err
	})

	return tag, payload, err
}

// StoreHtlcInfos persists the HTLC set riding on the most recently signed
// commitment for the channel identified by key, overwriting any prior set.
// payload is an opaque, already-serialized blob; this package doesn't know
// or care about the HTLC type it encodes.
func (d *DB) StoreHtlcInfos(key []byte, payload []byte) error {
	return d.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(htlcInfoBucket)
		if bucket == nil {
			return ErrNoChanDBExists
		}
		return bucket.Put(key, payload)
	})
}

// LoadHtlcInfos returns the most recently persisted HTLC set for key.
func (d *DB) LoadHtlcInfos(key []byte) ([]byte, error) {
	var payload []byte

	err := d.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(htlcInfoBucket)
		if bucket == nil {
			return ErrNoChanDBExists
		}

		record := bucket.Get(key)
		if record == nil {
			return ErrChannelNoExist
		}
		payload = append([]byte(nil), record...)
		return nil
	})

	return payload, err
}

// DeleteState removes any persisted snapshot for key, along with any
// persisted HTLC info, e.g. once a channel has fully closed and no longer
// needs to be resumed.
func (d *DB) DeleteState(key []byte) error {
	return d.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(channelStateBucket)
		if bucket == nil {
			return ErrNoChanDBExists
		}
		if err := bucket.Delete(key); err != nil {
			return err
		}

		htlcBucket := tx.Bucket(htlcInfoBucket)
		if htlcBucket == nil {
			return ErrNoChanDBExists
		}
		return htlcBucket.Delete(key)
	})
}

// ForEachState invokes cb for every persisted channel snapshot, stopping
// early if cb returns an error; used at startup to resume every channel
// the node was mid-negotiation or mid-life on.
func (d *DB) ForEachState(cb func(key []byte, stateTag string, payload []byte) error) error {
	return d.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(channelStateBucket)
		if bucket == nil {
			return ErrNoChanDBExists
		}

		return bucket.ForEach(func(k, v []byte) error {
			tag, payload, err := decodeStateRecord(v)
			if err != nil {
				return err
			}
			return cb(k, tag, payload)
		})
	})
}

func (d *DB) syncVersions(versions []version) error {
	meta, err := d.fetchMeta()
	if err != nil {
		if err == ErrMetaNotFound {
			meta = &Meta{}
		} else {
			return err
		}
	}

	latestVersion := getLatestDBVersion(versions)
	log.Infof("Checking for schema update: latest_version=%v, "+
		"db_version=%v", latestVersion, meta.DbVersionNumber)
	if meta.DbVersionNumber == latestVersion {
		return nil
	}

	log.Infof("Performing database schema migration")

	migrations, migrationVersions := getMigrationsToApply(versions, meta.DbVersionNumber)
	return d.Update(func(tx *bbolt.Tx) error {
		for i, m := range migrations {
			if m == nil {
				continue
			}
			log.Infof("Applying migration #%v", migrationVersions[i])
			if err := m(tx); err != nil {
				log.Infof("Unable to apply migration #%v", migrationVersions[i])
				return err
			}
		}

		meta.DbVersionNumber = latestVersion
		return putMeta(meta, tx)
	})
}

func (d *DB) fetchMeta() (*Meta, error) {
	var meta *Meta
	err := d.View(func(tx *bbolt.Tx) error {
		var err error
		meta, err = fetchMeta(tx)
		return err
	})
	return meta, err
}

func fetchMeta(tx *bbolt.Tx) (*Meta, error) {
	bucket := tx.Bucket(metaBucket)
	if bucket == nil {
		return nil, ErrMetaNotFound
	}

	data := bucket.Get(metaKey)
	if data == nil || len(data) < 4 {
		return nil, ErrMetaNotFound
	}

	return &Meta{DbVersionNumber: byteOrder.Uint32(data)}, nil
}

func putMeta(meta *Meta, tx *bbolt.Tx) error {
	bucket := tx.Bucket(metaBucket)
	if bucket == nil {
		return ErrMetaNotFound
	}

	var buf [4]byte
	byteOrder.PutUint32(buf[:], meta.DbVersionNumber)
	return bucket.Put(metaKey, buf[:])
}

func getLatestDBVersion(versions []version) uint32 {
	return versions[len(versions)-1].number
}

func getMigrationsToApply(versions []version, version uint32) ([]migration, []uint32) {
	migrations := make([]migration, 0, len(versions))
	migrationVersions := make([]uint32, 0, len(versions))

	for _, v := range versions {
		if v.number > version {
			migrations = append(migrations, v.migration)
			migrationVersions = append(migrationVersions, v.number)
		}
	}

	return migrations, migrationVersions
}
