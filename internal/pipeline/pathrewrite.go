package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	nethtml "golang.org/x/net/html"
)

// RewriteRelativePaths turns relative img[src] and a[href] paths into
// absolute file:// URLs under sourceDir, so an HTML file written elsewhere
// still finds the images next to its Markdown source. URLs, anchors,
// absolute paths and paths escaping sourceDir are left alone. An empty
// sourceDir returns the HTML unchanged.
func RewriteRelativePaths(htmlContent, sourceDir string) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}
	dir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}

	root, fragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}
	rewriteNode(root, dir)
	return renderHTML(root, fragment)
}

func rewriteNode(n *nethtml.Node, dir string) {
	if n.Type == nethtml.ElementNode {
		switch n.Data {
		case "img":
			rewriteAttr(n, "src", dir)
		case "a":
			rewriteAttr(n, "href", dir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, dir)
	}
}

func rewriteAttr(n *nethtml.Node, key, dir string) {
	for i, a := range n.Attr {
		if a.Key != key || !isRelativePath(a.Val) {
			continue
		}
		abs := filepath.Join(dir, a.Val)
		if !isPathUnderDir(abs, dir) {
			continue
		}
		n.Attr[i].Val = (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
}

var urlPrefixes = []string{"http://", "https://", "file://", "data:", "mailto:", "//", "#"}

func isRelativePath(p string) bool {
	if p == "" || filepath.IsAbs(p) {
		return false
	}
	lower := strings.ToLower(p)
	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

func isPathUnderDir(abs, dir string) bool {
	dir = filepath.Clean(dir)
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(abs)+string(filepath.Separator), dir)
}
