package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const filePage = `<html><body>
<div class="fullImageLink" id="file"><a href="/images/5/5a/Moss_Rock.png"><img src="/images/thumb/5/5a/Moss_Rock.png/300px-Moss_Rock.png"></a></div>
<div class="fullMedia"><p><a href="/images/5/5a/Moss_Rock.png" class="internal" title="Moss Rock.png">Original file</a></p></div>
</body></html>`

func newTestWiki(t *testing.T) (*httptest.Server, *atomic.Int32) {
	var askRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/w/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case DefaultItemQuery().Path():
			askRequests.Add(1)
			if r.URL.Query().Get("downloadformat") != "csv" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(",Image\nFire Beetle,File:Fire Beetle.png\n"))
		case DefaultItemQuery().Page(1).Path():
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/w/Special:Redirect/file/Fire_Beetle.png":
			http.Redirect(w, r, "/images/f/f1/Fire_Beetle.png", http.StatusFound)
		case "/w/Special:Redirect/file/Moss_Rock.png":
			http.NotFound(w, r)
		case "/w/File:Moss_Rock.png":
			w.Write([]byte(filePage))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/images/f/f1/Fire_Beetle.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("beetle-png"))
	})
	mux.HandleFunc("/images/5/5a/Moss_Rock.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moss-png"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &askRequests
}

func TestAskCSV(t *testing.T) {
	srv, askRequests := newTestWiki(t)
	client, err := NewClient(ClientOptions{
		BaseUrl:  srv.URL,
		Timeout:  5 * time.Second,
		Cache:    openMemoryDB(t),
		CacheTTL: time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	body, status, err := client.AskCSV(ctx, DefaultItemQuery())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, ",Image\nFire Beetle,File:Fire Beetle.png\n", string(body))

	// second request is served from the cache
	body, status, err = client.AskCSV(ctx, DefaultItemQuery())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body)
	require.Equal(t, int32(1), askRequests.Load())

	body, status, err = client.AskCSV(ctx, DefaultItemQuery().Page(1))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Nil(t, body)
}

func TestImageURL(t *testing.T) {
	client, err := NewClient(ClientOptions{BaseUrl: "https://brightershoreswiki.org/"})
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		input  string
		expect string
	}{
		{input: "/assets/items/Fire_Beetle.png", expect: "https://brightershoreswiki.org/w/Special:Redirect/file/Fire_Beetle.png"},
		{input: "assets/items/Fire_Beetle.png", expect: "https://brightershoreswiki.org/w/Special:Redirect/file/Fire_Beetle.png"},
		{input: "File:Fire Beetle.png", expect: "https://brightershoreswiki.org/w/Special:Redirect/file/Fire%20Beetle.png"},
		{input: "/assets/items/Cr%C3%A8me.png", expect: "https://brightershoreswiki.org/w/Special:Redirect/file/Cr%C3%A8me.png"},
		{input: "https://cdn.example.com/a.png", expect: "https://cdn.example.com/a.png"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expect, client.ImageURL(test.input))
	}

	require.Equal(
		t,
		"https://brightershoreswiki.org/w/File:Fire_Beetle.png",
		client.FilePageURL("/assets/items/Fire_Beetle.png"),
	)
}

func TestFetchImage(t *testing.T) {
	srv, _ := newTestWiki(t)
	client, err := NewClient(ClientOptions{BaseUrl: srv.URL, RateLimit: 100})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	contents, err := client.FetchImage(ctx, "/assets/items/Fire_Beetle.png")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "beetle-png", string(contents))

	contents, err = client.FetchImage(ctx, "/assets/items/Moss_Rock.png")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "moss-png", string(contents))

	_, err = client.FetchImage(ctx, "/assets/items/Nothing.png")
	require.True(t, errors.Is(err, ErrImageUnavailable))
}

func TestResolveFileMedia(t *testing.T) {
	client, err := NewClient(ClientOptions{BaseUrl: "https://brightershoreswiki.org"})
	if err != nil {
		t.Fatal(err)
	}

	media, err := ResolveFileMedia(context.Background(), []byte(filePage), client.BaseUrl)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "https://brightershoreswiki.org/images/5/5a/Moss_Rock.png", media)

	_, err = ResolveFileMedia(context.Background(), []byte("<html></html>"), client.BaseUrl)
	require.Equal(t, ErrMediaNotFound, err)
}

type dumpOutput map[string]string

func (d dumpOutput) Write(id, contents string) {
	d[id] = contents
}

func TestClientDump(t *testing.T) {
	srv, _ := newTestWiki(t)
	dumps := dumpOutput{}
	client, err := NewClient(ClientOptions{BaseUrl: srv.URL, Dump: dumps})
	if err != nil {
		t.Fatal(err)
	}

	body, status, err := client.AskCSV(context.Background(), DefaultItemQuery())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body), "Fire Beetle")

	image, err := client.FetchImage(context.Background(), "/assets/items/Fire_Beetle.png")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "beetle-png", string(image))

	require.Len(t, dumps, 2)
	require.Contains(t, dumps["1"], "GET "+srv.URL+"/w/Special:Ask")
	require.Contains(t, dumps["2"], "beetle-png")
}
