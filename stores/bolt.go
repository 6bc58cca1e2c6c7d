package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/9seconds/geolocator/geolib"
	"go.etcd.io/bbolt"
)

const (
	// boltBucket is the name of the bucket with geolocation records.
	boltBucket = "geolocations"

	boltFilePerm    = os.FileMode(0o600)
	boltOpenTimeout = 5 * time.Second
)

// Bolt is a BoltDB-based store. Records are stored as JSON documents
// keyed by IP. BoltDB serializes write transactions so concurrent
// upserts of the same IP never produce duplicates.
type Bolt struct {
	db *bbolt.DB
}

func (b *Bolt) Find(ctx context.Context, ip string) (*geolib.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := &geolib.Record{}

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucket)).Get([]byte(ip))
		if data == nil {
			return fmt.Errorf("%w: %s", geolib.ErrNotFound, ip)
		}

		if err := json.Unmarshal(data, record); err != nil {
			return fmt.Errorf("cannot decode record: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (b *Bolt) Upsert(ctx context.Context, ip string, data geolib.Payload) (*geolib.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := &geolib.Record{}
	now := time.Now().UTC()

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucket))

		if current := bucket.Get([]byte(ip)); current != nil {
			if err := json.Unmarshal(current, record); err != nil {
				return fmt.Errorf("cannot decode record: %w", err)
			}
		} else {
			record.IP = ip
			record.CreatedAt = now
		}

		record.Data = data
		record.UpdatedAt = now

		encoded, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("cannot encode record: %w", err)
		}

		return bucket.Put([]byte(ip), encoded)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (b *Bolt) Delete(ctx context.Context, ip string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucket))

		if bucket.Get([]byte(ip)) == nil {
			return fmt.Errorf("%w: %s", geolib.ErrNotFound, ip)
		}

		return bucket.Delete([]byte(ip))
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

// NewBolt opens and initializes the BoltDB file.
func NewBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, boltFilePerm, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))

		return err
	})
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("cannot initialize %s: %w", path, err)
	}

	return &Bolt{
		db: db,
	}, nil
}

// type check
var _ geolib.Store = (*Bolt)(nil)
