package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// ErrSanitize indicates HTML could not be parsed for sanitizing.
var ErrSanitize = errors.New("HTML sanitizing failed")

// Elements removed with their content.
const unsafeElements = "script, iframe, object, embed"

// Attributes holding URLs.
var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"xlink:href": true,
}

// Sanitize removes script-capable content from HTML: script, iframe, object
// and embed elements, on* event handler attributes, and javascript: or
// vbscript: URLs. Everything else, inline styles and MathML included, is
// kept.
func Sanitize(htmlContent string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return htmlContent, nil
	}

	root, fragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSanitize, err)
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find(unsafeElements).Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			n.Attr = safeAttributes(n.Attr)
		}
	})

	out, err := renderHTML(root, fragment)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSanitize, err)
	}
	return out, nil
}

func safeAttributes(attrs []nethtml.Attribute) []nethtml.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" {
			key = strings.ToLower(a.Namespace) + ":" + key
		}
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if urlAttributes[key] && isScriptURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// isScriptURL reports whether a URL runs script when followed. Browsers
// ignore embedded whitespace and control characters in the scheme.
func isScriptURL(v string) bool {
	v = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, v)
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:")
}
