package wiki

import (
	"bytes"
	"context"
	"errors"
	"net/url"

	"bazaar-items/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var ErrMediaNotFound = errors.New("no media link on file page")

// links to the original upload on a File: description page, in order of
// preference
var mediaSelectors = []string{
	"div.fullMedia a.internal",
	"div.fullImageLink a",
	"a.internal[href*='/images/']",
}

// ResolveFileMedia returns the absolute url of the full resolution upload
// linked from a File: description page.
func ResolveFileMedia(ctx context.Context, page []byte, base *url.URL) (string, error) {
	ctx, span := tracer.Start(ctx, "ResolveFileMedia")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	for _, selector := range mediaSelectors {
		anchors := htmlutil.GetAnchors(ctx, doc.Find(selector), base)
		if len(anchors) > 0 {
			return anchors[0].Href, nil
		}
	}
	return "", ErrMediaNotFound
}
