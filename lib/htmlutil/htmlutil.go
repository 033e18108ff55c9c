package htmlutil

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("bazaar/lib/htmlutil")

// GetText concatenates every text node under node.
func GetText(node *html.Node) string {
	var sb strings.Builder
	getTextRecursive(node, &sb)
	return sb.String()
}

func getTextRecursive(node *html.Node, sb *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		sb.WriteString(node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, sb)
	}
}

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText drops non-printable runes and collapses whitespace.
func CleanText(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) {
			sb.WriteRune(c)
		}
	}
	return innerWhitespace.ReplaceAllString(strings.TrimSpace(sb.String()), " ")
}

// GetAnchors returns every anchor in sel with an href, resolved against
// base when base is not nil. Anchors with unparseable hrefs are skipped.
func GetAnchors(ctx context.Context, sel *goquery.Selection, base *url.URL) []Anchor {
	_, span := tracer.Start(ctx, "GetAnchors")
	defer span.End()

	var anchors []Anchor
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		if href == "" {
			continue
		}

		link, err := url.Parse(href)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "got error while parsing url")
			continue
		}
		if base != nil {
			link = base.ResolveReference(link)
		}

		name := CleanText(GetText(n))
		linkStr := link.String()
		anchors = append(anchors, Anchor{
			Name: name,
			Href: linkStr,
		})
		span.AddEvent("anchor", trace.WithAttributes(
			attribute.String("name", name),
			attribute.String("url", linkStr),
		))
	}
	return anchors
}
