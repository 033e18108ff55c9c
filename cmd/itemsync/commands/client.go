package commands

import (
	"log/slog"
	"time"

	"bazaar-items/cmd/itemsync/globals"
	"bazaar-items/lib/restyutil"
	"bazaar-items/lib/wiki"

	"github.com/dgraph-io/badger/v4"
)

// newWikiClient builds the wiki client from the loaded config. The returned
// close func releases the page cache and must always be called.
func newWikiClient(value *globals.Value) (*wiki.Client, func(), error) {
	cfg := value.Config
	opts := cfg.Wiki.ClientOptions()

	closer := func() {}
	if cfg.Cache.Dir != "" {
		db, err := badger.Open(badger.DefaultOptions(cfg.Cache.Dir).WithLogger(nil))
		if err != nil {
			return nil, closer, err
		}
		closer = func() {
			err := db.Close()
			if err != nil {
				slog.Warn("failed to close page cache", "err", err)
			}
		}
		opts.Cache = db
		opts.CacheTTL = time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	}

	if value.Debug && cfg.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			closer()
			return nil, func() {}, err
		}
		opts.Dump = output
	}

	client, err := wiki.NewClient(opts)
	if err != nil {
		closer()
		return nil, func() {}, err
	}
	return client, closer, nil
}
