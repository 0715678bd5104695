// Package retriever implements a TF-IDF index over a fixed set of knowledge
// base passages. Each passage is treated as one document; queries are ranked
// by cosine similarity against the question.
package retriever

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// ErrIndexNotBuilt is returned when an index is queried before Build.
// This is a setup error and should abort the run.
var ErrIndexNotBuilt = errors.New("retriever: index not built")

// Hit is one retrieved passage with its cosine similarity to the query.
type Hit struct {
	Passage string  `json:"passage"`
	Score   float64 `json:"score"`
}

// Index holds the TF-IDF vectors for a knowledge base. It is immutable after
// Build and safe for concurrent queries.
type Index struct {
	passages []string
	vocab    map[string]int
	idf      []float64
	// vectors[d] maps term id to the L2-normalized tf-idf weight in passage d.
	vectors []map[int]float64
}

// Build constructs a TF-IDF index over the given passages. The inverse
// document frequency uses the smoothed formula log((1+N)/(1+df)) + 1, and
// every passage vector is L2-normalized so that cosine similarity reduces to
// a dot product. An empty knowledge base yields an empty index whose queries
// always return no hits.
func Build(passages []string) *Index {
	ix := &Index{
		passages: append([]string(nil), passages...),
		vocab:    make(map[string]int),
	}

	counts := make([]map[int]float64, len(passages))
	for d, passage := range passages {
		counts[d] = make(map[int]float64)
		for _, term := range tokenize(passage) {
			id, ok := ix.vocab[term]
			if !ok {
				id = len(ix.vocab)
				ix.vocab[term] = id
			}
			counts[d][id]++
		}
	}

	df := make([]int, len(ix.vocab))
	for _, tf := range counts {
		for id := range tf {
			df[id]++
		}
	}

	n := float64(len(passages))
	ix.idf = make([]float64, len(ix.vocab))
	for id, d := range df {
		ix.idf[id] = math.Log((1+n)/(1+float64(d))) + 1
	}

	ix.vectors = make([]map[int]float64, len(passages))
	for d, tf := range counts {
		vec := make(map[int]float64, len(tf))
		for id, freq := range tf {
			vec[id] = freq * ix.idf[id]
		}
		normalize(vec)
		ix.vectors[d] = vec
	}

	return ix
}

// Query returns up to topK passages ranked by descending cosine similarity to
// the question. Only passages with a strictly positive score are returned;
// ties keep the original passage order. An empty or entirely out-of-vocabulary
// question yields an empty result without error.
func (ix *Index) Query(question string, topK int) ([]Hit, error) {
	if ix == nil || ix.vocab == nil {
		return nil, ErrIndexNotBuilt
	}
	if topK <= 0 || len(ix.passages) == 0 {
		return nil, nil
	}

	query := make(map[int]float64)
	for _, term := range tokenize(question) {
		if id, ok := ix.vocab[term]; ok {
			query[id]++
		}
	}
	if len(query) == 0 {
		return nil, nil
	}
	for id := range query {
		query[id] *= ix.idf[id]
	}
	normalize(query)

	var hits []Hit
	for d, vec := range ix.vectors {
		score := dot(query, vec)
		if score > 0 {
			hits = append(hits, Hit{Passage: ix.passages[d], Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Size returns the number of indexed passages.
func (ix *Index) Size() int {
	if ix == nil {
		return 0
	}
	return len(ix.passages)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec map[int]float64) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for id := range vec {
		vec[id] /= norm
	}
}

func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for id, w := range a {
		sum += w * b[id]
	}
	return sum
}
