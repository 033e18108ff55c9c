package wiki

import (
	"fmt"
	"strconv"
	"strings"
)

// AskQuery is a Semantic MediaWiki Special:Ask query exported as csv.
type AskQuery struct {
	// e.g. "[[Infobox::Item]]"
	Condition string `json:"condition"`
	// property printouts without the leading "?", "" prints the page name
	Printouts []string `json:"printouts"`
	Sort      string   `json:"sort"`
	Order     string   `json:"order"`
	Offset    int      `json:"offset"`
	Limit     int      `json:"limit"`
}

// DefaultItemQuery returns the query for the first page of the item table.
func DefaultItemQuery() AskQuery {
	return AskQuery{
		Condition: "[[Infobox::Item]]",
		Printouts: []string{
			"",
			"Image#-",
			"Episode",
			"Variant of",
			"Profession A",
			"Profession Level A",
			"Profession B",
			"Profession Level B",
			"Tradeable",
		},
		Sort:   "Profession Level A",
		Order:  "asc",
		Offset: 0,
		Limit:  500,
	}
}

// Page returns a copy of q positioned at the n-th page (zero based) of
// q.Limit rows.
func (q AskQuery) Page(n int) AskQuery {
	q.Offset = n * q.Limit
	return q
}

// encodeAskValue escapes s the way Special:Ask encodes its path segments:
// everything but letters, digits, ":", "_" and "." becomes "-" followed by
// two hex digits.
func encodeAskValue(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == ':', c == '_', c == '.':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "-%02X", c)
		}
	}
	return sb.String()
}

func askParam(key, value string) string {
	return key + "%3D" + encodeAskValue(value)
}

// Path returns the request path of the csv export, relative to the wiki
// root.
func (q AskQuery) Path() string {
	segments := []string{
		"/w/Special:Ask",
		askParam("format", "csv"),
		askParam("link", "all"),
		askParam("headers", "show"),
		askParam("searchlabel", "CSV"),
		askParam("class", "sortable wikitable smwtable"),
		askParam("prefix", "none"),
	}
	if q.Sort != "" {
		segments = append(segments, askParam("sort", q.Sort))
	}
	if q.Order != "" {
		segments = append(segments, askParam("order", q.Order))
	}
	segments = append(
		segments,
		askParam("offset", strconv.Itoa(q.Offset)),
		askParam("limit", strconv.Itoa(q.Limit)),
		encodeAskValue(q.Condition),
	)
	for _, p := range q.Printouts {
		segments = append(segments, encodeAskValue("?"+p))
	}
	segments = append(
		segments,
		askParam("mainlabel", ""),
		askParam("prettyprint", "true"),
		askParam("unescape", "true"),
	)
	return strings.Join(segments, "/")
}
