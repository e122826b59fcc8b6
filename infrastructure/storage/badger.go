package storage

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes of every record kept in the store.
const (
	QuizPrefix    = "quiz:"
	ScorePrefix   = "score:"
	FilePrefix    = "file:"
	AccountPrefix = "account:"
)

// OpenBadger opens the store at path, or an in-memory one when path is empty.
func OpenBadger(path string, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.WARNING).
		WithValueLogFileSize(64 << 20)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	log.Info("Badger store opened", "path", path, "in_memory", path == "")
	return db, nil
}

// keysWithPrefix iterates keys only, values are not prefetched.
func keysWithPrefix(txn *badger.Txn, prefix string, fn func(key []byte, item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		if err := fn(item.KeyCopy(nil), item); err != nil {
			return err
		}
	}
	return nil
}
