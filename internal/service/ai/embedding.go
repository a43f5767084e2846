package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const embeddingDims = 512

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "i": {}, "my": {}, "me": {}, "do": {}, "does": {}, "to": {}, "is": {},
	"are": {}, "how": {}, "what": {}, "can": {}, "of": {}, "on": {}, "in": {}, "for": {}, "it": {},
	"and": {}, "or": {}, "with": {}, "be": {}, "you": {}, "your": {}, "should": {}, "where": {}, "when": {},
	"please": {}, "get": {}, "need": {}, "want": {}, "there": {},
}

// Embed is a local hashed bag-of-words embedding. It needs no model server,
// which keeps the backend double self-contained. Index 0 carries a small
// constant so a text without known words still has a non-zero vector.
func Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDims)
	vec[0] = 0.05

	for _, token := range Tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[1+int(h.Sum32()%(embeddingDims-1))] += 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// Tokenize lowercases text, drops stop words and strips a plural "s".
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, skip := stopWords[field]; skip {
			continue
		}
		if len(field) > 3 && strings.HasSuffix(field, "s") && !strings.HasSuffix(field, "ss") {
			field = strings.TrimSuffix(field, "s")
		}
		tokens = append(tokens, field)
	}
	return tokens
}
