package common

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func renderNode(t *testing.T, c templ.Component) (*html.Node, string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := html.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return doc, buf.String()
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func TestComponents(t *testing.T) {
	tests := []struct {
		name      string
		component templ.Component
		tag       string
		attrs     map[string]string
		text      string
	}{
		{
			name:      "flash",
			component: Flash("members-flash", "Approved", false),
			tag:       "p",
			attrs:     map[string]string{"id": "members-flash", "class": "flash", "role": "status"},
			text:      "Approved",
		},
		{
			name:      "flash error",
			component: Flash("members-flash", "Not found", true),
			tag:       "p",
			attrs:     map[string]string{"class": "flash flash-error"},
			text:      "Not found",
		},
		{
			name:      "badge",
			component: Badge("paid"),
			tag:       "span",
			attrs:     map[string]string{"class": "badge badge-paid"},
			text:      "paid",
		},
		{
			name:      "mono escapes",
			component: Mono("<ORD-1>"),
			tag:       "code",
			text:      "<ORD-1>",
		},
		{
			name:      "export all",
			component: exportButton("/orders", 0),
			tag:       "button",
			attrs:     map[string]string{"data-on:click": "@post('/orders/export')"},
			text:      "Export all",
		},
		{
			name:      "export selected",
			component: exportButton("/orders", 3),
			tag:       "button",
			text:      "Export 3 selected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := renderNode(t, tt.component)
			el := findElement(doc, tt.tag)
			require.NotNil(t, el)
			for k, v := range tt.attrs {
				assert.Equal(t, v, attrOf(el, k), "attribute %s", k)
			}
			require.NotNil(t, el.FirstChild)
			assert.Equal(t, tt.text, el.FirstChild.Data)
		})
	}
}

func TestPage(t *testing.T) {
	tests := []struct {
		name    string
		data    PageData
		stream  string
		current string
	}{
		{
			name:    "members",
			data:    PageData{Title: "Members", CurrentPath: "/members", UpdatesURL: "/members/updates"},
			stream:  "@get('/members/updates', {openWhenHidden: true})",
			current: "/members",
		},
		{
			name: "no updates",
			data: PageData{Title: "Home", CurrentPath: "/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, raw := renderNode(t, Page(tt.data, Mono("body")))

			assert.Contains(t, raw, "<title>"+tt.data.Title+" - Backoffice</title>")
			assert.Contains(t, raw, "<code>body</code>")

			var streams, active []string
			var walk func(*html.Node)
			walk = func(n *html.Node) {
				if n.Type == html.ElementNode {
					if v := attrOf(n, "data-init"); v != "" && n.Data == "div" {
						streams = append(streams, v)
					}
					if attrOf(n, "aria-current") == "page" {
						active = append(active, attrOf(n, "href"))
						assert.Equal(t, "active", attrOf(n, "class"))
					}
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
			}
			walk(doc)

			if tt.stream == "" {
				assert.Empty(t, streams)
			} else {
				assert.Equal(t, []string{tt.stream}, streams)
			}
			if tt.current == "" {
				assert.Empty(t, active)
			} else {
				assert.Equal(t, []string{tt.current}, active)
			}
		})
	}
}
