// Package search ranks free-text survey comments against a query.
//
// An Index is built once from a snapshot of comments and is read-only
// afterwards, so it is safe for concurrent use. Text is lowercased and
// accent folded before tokenizing, which lets "formacion" match "formación".
// Documents are scored with the Jaccard similarity of their term sets:
// |Q ∩ D| / |Q ∪ D|.
package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultK is used when TopK gets k <= 0.
const DefaultK = 5

// Document is one indexed text with the caller's identifier.
type Document struct {
	ID   string
	Text string
}

// Result is a ranked document with its similarity score in (0, 1].
type Result struct {
	ID    string
	Text  string
	Score float64
}

// Index answers ranked queries over a fixed document set.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

type Option func(*options)

type options struct {
	minRunes int
	stop     map[string]struct{}
	maxDocs  int
}

// WithMinRunes skips documents shorter than n runes after whitespace
// collapsing. Negative values are ignored.
func WithMinRunes(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.minRunes = n
		}
	}
}

// WithStopwords drops the given words from documents and queries.
func WithStopwords(words []string) Option {
	return func(o *options) {
		for _, w := range words {
			w = fold(strings.ToLower(strings.TrimSpace(w)))
			if w == "" {
				continue
			}
			if o.stop == nil {
				o.stop = make(map[string]struct{}, len(words))
			}
			o.stop[w] = struct{}{}
		}
	}
}

// WithMaxDocs indexes at most n documents, in input order.
func WithMaxDocs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDocs = n
		}
	}
}

type entry struct {
	id    string
	text  string
	runes int
	terms int
}

type index struct {
	opts     options
	entries  []entry
	postings map[string][]int
}

// New indexes docs. Documents without any searchable term are skipped.
func New(docs []Document, opts ...Option) Index {
	o := options{minRunes: 1}
	for _, fn := range opts {
		fn(&o)
	}
	ix := &index{opts: o, postings: make(map[string][]int)}
	for _, d := range docs {
		if o.maxDocs > 0 && len(ix.entries) == o.maxDocs {
			break
		}
		text := strings.Join(strings.Fields(d.Text), " ")
		n := utf8.RuneCountInString(text)
		if n == 0 || n < o.minRunes {
			continue
		}
		ts := terms(text, o.stop)
		if len(ts) == 0 {
			continue
		}
		pos := len(ix.entries)
		ix.entries = append(ix.entries, entry{id: d.ID, text: text, runes: n, terms: len(ts)})
		for _, t := range ts {
			ix.postings[t] = append(ix.postings[t], pos)
		}
	}
	return ix
}

func (ix *index) Len() int { return len(ix.entries) }

// TopK returns up to k documents sharing at least one term with query, best
// first. Equal scores rank the shorter text first, then the smaller id.
func (ix *index) TopK(query string, k int) []Result {
	q := terms(query, ix.opts.stop)
	if len(q) == 0 || len(ix.entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}

	shared := make(map[int]int)
	for _, t := range q {
		for _, pos := range ix.postings[t] {
			shared[pos]++
		}
	}
	if len(shared) == 0 {
		return nil
	}

	type hit struct {
		e     *entry
		score float64
	}
	hits := make([]hit, 0, len(shared))
	for pos, n := range shared {
		e := &ix.entries[pos]
		hits = append(hits, hit{e: e, score: float64(n) / float64(len(q)+e.terms-n)})
	}
	slices.SortFunc(hits, func(a, b hit) int {
		return cmp.Or(
			cmp.Compare(b.score, a.score),
			cmp.Compare(a.e.runes, b.e.runes),
			cmp.Compare(a.e.id, b.e.id),
		)
	})

	hits = hits[:min(k, len(hits))]
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, Result{ID: h.e.id, Text: h.e.text, Score: h.score})
	}
	return out
}

// terms returns the distinct folded words of s in first-seen order.
func terms(s string, stop map[string]struct{}) []string {
	words := strings.FieldsFunc(fold(strings.ToLower(s)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// fold removes combining marks so accented and plain spellings compare equal.
func fold(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), s)
	if err != nil {
		return s
	}
	return out
}
