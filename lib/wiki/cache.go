package wiki

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errPageNotCached = badger.ErrKeyNotFound

type cachedPage struct {
	Contents  []byte
	ExpiresAt int64
}

// pageCache stores successful responses in badger, keyed by their
// normalized url.
type pageCache struct {
	db      *badger.DB
	baseUrl *url.URL
	ttl     time.Duration
	now     func() time.Time
}

func (c pageCache) key(endpoint string) (string, error) {
	full, err := c.baseUrl.Parse(endpoint)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		full,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return "page:" + normalized, nil
}

func (c pageCache) get(ctx context.Context, endpoint string) ([]byte, error) {
	_, span := tracer.Start(ctx, "cache:get")
	defer span.End()

	key, err := c.key(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	var serialized []byte
	err = c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errPageNotCached
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}

	var cached cachedPage
	err = gob.NewDecoder(bytes.NewReader(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}

	if c.now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))
		err = c.db.Update(func(tx *badger.Txn) error {
			return tx.Delete([]byte(key))
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return nil, errPageNotCached
	}

	span.AddEvent("cache hit", trace.WithAttributes(
		attribute.Int("contentlength", len(cached.Contents)),
	))
	return cached.Contents, nil
}

func (c pageCache) set(ctx context.Context, endpoint string, contents []byte) error {
	_, span := tracer.Start(ctx, "cache:set")
	defer span.End()

	key, err := c.key(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(cachedPage{
		Contents:  contents,
		ExpiresAt: c.now().Add(c.ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	err = c.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}
