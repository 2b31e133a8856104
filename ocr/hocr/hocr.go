// Package hocr parses Tesseract hOCR output into OCR tokens. hOCR is an HTML
// microformat: each recognized word is an ocrx_word span whose title
// attribute carries the bounding box and word confidence, e.g.
//
//	<span class='ocrx_word' title='bbox 653 25 713 48; x_wconf 92'>123</span>
//
// Parsing saved hOCR allows scans to be replayed and tested without the
// native Tesseract library installed.
package hocr

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/shardscan/ocr"
)

// Parse reads an hOCR document and returns the word tokens it contains.
// Words with empty text are dropped; words without a parseable bbox are an
// error, since silently skipping them would hide truncated documents.
func Parse(r io.Reader) ([]ocr.Token, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}
	var tokens []ocr.Token
	if err := walk(doc, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func walk(n *html.Node, tokens *[]ocr.Token) error {
	if n.Type == html.ElementNode && n.DataAtom == atom.Span && hasClass(n, "ocrx_word") {
		tok, ok, err := wordToken(n)
		if err != nil {
			return err
		}
		if ok {
			*tokens = append(*tokens, tok)
		}
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := walk(c, tokens); err != nil {
			return err
		}
	}
	return nil
}

func wordToken(n *html.Node) (ocr.Token, bool, error) {
	text := strings.TrimSpace(extractText(n))
	if text == "" {
		return ocr.Token{}, false, nil
	}
	title := attr(n, "title")
	box, conf, err := parseTitle(title)
	if err != nil {
		return ocr.Token{}, false, fmt.Errorf("word %q: %w", text, err)
	}
	box.Text = text
	box.Confidence = conf
	return box, true, nil
}

// parseTitle decodes an hOCR title attribute of the form
// "bbox x0 y0 x1 y1; x_wconf NN". The confidence property is optional.
func parseTitle(title string) (ocr.Token, float64, error) {
	var tok ocr.Token
	haveBox := false
	conf := 0.0
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "bbox":
			if len(fields) != 5 {
				return ocr.Token{}, 0, fmt.Errorf("malformed bbox %q", prop)
			}
			coords := make([]int, 4)
			for i, f := range fields[1:] {
				v, err := strconv.Atoi(f)
				if err != nil {
					return ocr.Token{}, 0, fmt.Errorf("malformed bbox %q: %w", prop, err)
				}
				coords[i] = v
			}
			tok.Left = coords[0]
			tok.Top = coords[1]
			tok.Width = coords[2] - coords[0]
			tok.Height = coords[3] - coords[1]
			haveBox = true
		case "x_wconf":
			if len(fields) != 2 {
				return ocr.Token{}, 0, fmt.Errorf("malformed x_wconf %q", prop)
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return ocr.Token{}, 0, fmt.Errorf("malformed x_wconf %q: %w", prop, err)
			}
			conf = v
		}
	}
	if !haveBox {
		return ocr.Token{}, 0, fmt.Errorf("title %q has no bbox", title)
	}
	return tok, conf, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(extractText(c))
	}
	return sb.String()
}
