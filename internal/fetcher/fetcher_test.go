package fetcher

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"bazaar-items/lib/wiki"

	"github.com/stretchr/testify/require"
)

type page struct {
	body   string
	status int
	err    error
}

// fakeSource serves pages by offset.
type fakeSource struct {
	pages    map[int]page
	requests []int
}

func (s *fakeSource) AskCSV(_ context.Context, q wiki.AskQuery) ([]byte, int, error) {
	s.requests = append(s.requests, q.Offset)
	p, ok := s.pages[q.Offset]
	if !ok {
		return []byte(",Image\n"), http.StatusOK, nil
	}
	if p.err != nil {
		return nil, 0, p.err
	}
	if p.status != http.StatusOK {
		return nil, p.status, nil
	}
	return []byte(p.body), p.status, nil
}

func testQuery() wiki.AskQuery {
	q := wiki.DefaultItemQuery()
	q.Limit = 2
	return q
}

func TestFetch(t *testing.T) {
	src := &fakeSource{pages: map[int]page{
		0: {body: ",Image\nA,File:A.png\nB,File:B.png\n", status: http.StatusOK},
		2: {status: http.StatusBadGateway},
		4: {err: errors.New("connection reset")},
		6: {body: ",Image\nC,File:C.png\n", status: http.StatusOK},
	}}
	dir := t.TempDir()

	result, err := Fetch(context.Background(), src, Options{
		WorkDir: dir,
		Query:   testQuery(),
		Pages:   5,
	})
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, []string{PartPath(dir, 1), PartPath(dir, 4)}, result.Parts)
	require.Equal(t, 3, result.Rows)
	require.Equal(t, 2, result.Skipped)
	// page 5 has no rows and ends the run
	require.Equal(t, []int{0, 2, 4, 6, 8}, src.requests)

	contents, err := os.ReadFile(PartPath(dir, 4))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, ",Image\nC,File:C.png\n", string(contents))

	_, err = os.Stat(PartPath(dir, 2))
	require.True(t, os.IsNotExist(err))
}

func TestFetchStopsAtEmptyPage(t *testing.T) {
	src := &fakeSource{pages: map[int]page{
		0: {body: ",Image\nA,File:A.png\n", status: http.StatusOK},
	}}

	result, err := Fetch(context.Background(), src, Options{
		WorkDir: t.TempDir(),
		Query:   testQuery(),
		Pages:   5,
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, result.Parts, 1)
	require.Equal(t, []int{0, 2}, src.requests)
}

func TestFetchNoPages(t *testing.T) {
	src := &fakeSource{pages: map[int]page{
		0: {status: http.StatusForbidden},
		2: {status: http.StatusForbidden},
	}}

	_, err := Fetch(context.Background(), src, Options{
		WorkDir: t.TempDir(),
		Query:   testQuery(),
		Pages:   2,
	})
	require.True(t, errors.Is(err, ErrNoPages))
	require.Contains(t, err.Error(), "status 403")
}
