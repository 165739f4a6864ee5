package audit

import (
	"context"
	"encoding/json"
	"path/filepath"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger keeps the trail in an embedded badger database, one JSON list
// per token. Appends to one token are serialized by the workflow, so
// read-modify-write inside a single transaction is safe here.
type Badger struct {
	db *badger.DB
}

func NewBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(filepath.Clean(path))
	opts.Logger = nil
	opts = opts.WithValueLogFileSize(1 << 20)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

func auditKey(token string) []byte {
	return []byte("audit:" + token)
}

func (b *Badger) Append(_ context.Context, e Entry) error {
	return b.db.Update(func(txn *badger.Txn) error {
		var list []Entry
		item, err := txn.Get(auditKey(e.Token))
		switch {
		case err == badger.ErrKeyNotFound:
		case err != nil:
			return err
		default:
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &list) }); err != nil {
				return err
			}
		}
		list = append(list, e)
		data, err := json.Marshal(list)
		if err != nil {
			return err
		}
		return txn.Set(auditKey(e.Token), data)
	})
}

func (b *Badger) ListByToken(_ context.Context, token string) ([]Entry, error) {
	var list []Entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(auditKey(token))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &list) })
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (b *Badger) Close() error { return b.db.Close() }
