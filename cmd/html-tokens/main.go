package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// tokenJSON matches the pipeline's JSONL input format. The lemma and
// pos fields stay absent: this tool produces a smoke-test corpus, not
// a linguistic annotation.
type tokenJSON struct {
	Doc     string `json:"doc"`
	Par     int    `json:"par"`
	Sent    int    `json:"sent"`
	Pos     int    `json:"pos"`
	Surface string `json:"surface"`
}

func main() {
	out := flag.String("out", "tokens.jsonl", "Output JSONL file")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: html-tokens [--out file] <file.html> ...")
	}

	outFile, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer outFile.Close()

	encoder := json.NewEncoder(outFile)
	total := 0

	for _, path := range flag.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("skip %s: %v", path, err)
			continue
		}

		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		paragraphs := extractParagraphs(string(raw))

		pos := 0
		sent := 0
		for par, text := range paragraphs {
			for _, sentence := range splitSentences(text) {
				for _, word := range tokenize(sentence) {
					rec := tokenJSON{
						Doc:     docID,
						Par:     par,
						Sent:    sent,
						Pos:     pos,
						Surface: word,
					}
					if err := encoder.Encode(rec); err != nil {
						log.Fatalf("encode token: %v", err)
					}
					pos++
					total++
				}
				sent++
			}
		}
	}

	log.Printf("wrote %d tokens to %s", total, *out)
}

// extractParagraphs pulls the text content of each block-level element
// of the document, falling back to the whole text when no paragraph
// structure exists.
func extractParagraphs(s string) []string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return []string{s}
	}

	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "p", "li", "h1", "h2", "h3", "h4", "blockquote":
				if text := strings.TrimSpace(nodeText(n)); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(paragraphs) == 0 {
		if text := strings.TrimSpace(nodeText(doc)); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

// splitSentences breaks on terminal punctuation. Crude, but the
// sentence ids only need to be consistent, not linguistically exact.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func tokenize(s string) []string {
	var words []string
	var current strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}
