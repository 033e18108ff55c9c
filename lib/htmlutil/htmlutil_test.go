package htmlutil

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "Fire Beetle.png", CleanText("  Fire \n\t Beetle.png\u0000 "))
	require.Equal(t, "", CleanText(" \n "))
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<a href="/images/a/ab/Fire_Beetle.png"><b>Original</b>  file</a>
			<a>no href</a>
			<a href="https://cdn.example.com/Iron_Bar.png">Iron Bar</a>
		</div>`))
	if err != nil {
		t.Fatal(err)
	}
	base, err := url.Parse("https://wiki.example.com/w/File:Fire_Beetle.png")
	if err != nil {
		t.Fatal(err)
	}

	anchors := GetAnchors(context.Background(), doc.Find("a"), base)
	require.Equal(t, []Anchor{
		{Name: "Original file", Href: "https://wiki.example.com/images/a/ab/Fire_Beetle.png"},
		{Name: "Iron Bar", Href: "https://cdn.example.com/Iron_Bar.png"},
	}, anchors)

	anchors = GetAnchors(context.Background(), doc.Find("a"), nil)
	require.Equal(t, "/images/a/ab/Fire_Beetle.png", anchors[0].Href)
}
