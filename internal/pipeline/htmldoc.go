package pipeline

import (
	"fmt"
	"html"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// WrapDocument embeds an HTML fragment in a standalone HTML5 document.
func WrapDocument(fragment, title string) string {
	if strings.TrimSpace(title) == "" {
		title = "Document"
	}
	return fmt.Sprintf(documentTemplate, html.EscapeString(title), fragment)
}

// parseHTML parses a full document or a body fragment. Fragments are
// gathered under a document node so both shapes are walked the same way.
func parseHTML(content string) (root *nethtml.Node, fragment bool, err error) {
	lower := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		root, err = nethtml.Parse(strings.NewReader(content))
		return root, false, err
	}

	body := &nethtml.Node{Type: nethtml.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := nethtml.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}
	root = &nethtml.Node{Type: nethtml.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, true, nil
}

// renderHTML serializes root. A fragment is rendered child by child so no
// html or body wrapper is added.
func renderHTML(root *nethtml.Node, fragment bool) (string, error) {
	var b strings.Builder
	if !fragment {
		if err := nethtml.Render(&b, root); err != nil {
			return "", err
		}
		return b.String(), nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := nethtml.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
