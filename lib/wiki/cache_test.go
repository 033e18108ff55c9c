package wiki

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openMemoryDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestCacheKey(t *testing.T) {
	baseUrl, err := url.Parse("https://brightershoreswiki.org")
	if err != nil {
		t.Fatal(err)
	}
	cache := pageCache{baseUrl: baseUrl}

	testCases := []struct {
		endpoint string
		expect   string
	}{
		{endpoint: "/w/index.php", expect: "page:https://brightershoreswiki.org/w/"},
		{endpoint: "/w/Special:Ask?b=2&a=1#top", expect: "page:https://brightershoreswiki.org/w/Special:Ask/?a=1&b=2"},
		{endpoint: "https://example.com", expect: "page:https://example.com/"},
	}
	for _, test := range testCases {
		res, err := cache.key(test.endpoint)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, test.expect, res)
	}
}

func TestCache(t *testing.T) {
	baseUrl, err := url.Parse("https://brightershoreswiki.org")
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 11, 6, 12, 0, 0, 0, time.UTC)
	cache := pageCache{
		db:      openMemoryDB(t),
		baseUrl: baseUrl,
		ttl:     time.Hour,
		now:     func() time.Time { return now },
	}
	ctx := context.Background()

	_, err = cache.get(ctx, "/w/Special:Ask")
	require.Equal(t, errPageNotCached, err)

	err = cache.set(ctx, "/w/Special:Ask", []byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatal(err)
	}

	contents, err := cache.get(ctx, "/w/Special:Ask")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "a,b\n1,2\n", string(contents))

	now = now.Add(2 * time.Hour)
	_, err = cache.get(ctx, "/w/Special:Ask")
	require.Equal(t, errPageNotCached, err)

	// expired entries are removed, so moving the clock back does not
	// resurrect them
	now = now.Add(-2 * time.Hour)
	_, err = cache.get(ctx, "/w/Special:Ask")
	require.Equal(t, errPageNotCached, err)
}
