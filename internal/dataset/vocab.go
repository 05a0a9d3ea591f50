package dataset

import (
	"sort"
	"strings"
	"unicode"
)

// UnknownToken is stored at id 0 of every vocabulary.
const UnknownToken = "[UNK]"

// Tokenize lowercases s and splits it on anything that is not a letter or a digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Vocab maps words to dense ids. It is immutable once built.
type Vocab struct {
	words []string
	index map[string]int
}

// BuildVocab counts words over texts and keeps the maxSize-1 most frequent,
// ties broken lexicographically, behind [UNK].
func BuildVocab(maxSize int, texts []string) *Vocab {
	counts := map[string]int{}
	for _, t := range texts {
		for _, w := range Tokenize(t) {
			counts[w]++
		}
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		ci, cj := counts[words[i]], counts[words[j]]
		if ci != cj {
			return ci > cj
		}
		return words[i] < words[j]
	})
	if maxSize < 1 {
		maxSize = 1
	}
	if len(words) > maxSize-1 {
		words = words[:maxSize-1]
	}
	return NewVocab(append([]string{UnknownToken}, words...))
}

// NewVocab rebuilds a vocabulary from its word list, e.g. from a checkpoint.
// words[0] is expected to be UnknownToken.
func NewVocab(words []string) *Vocab {
	v := &Vocab{words: append([]string(nil), words...), index: make(map[string]int, len(words))}
	for i, w := range v.words {
		if _, dup := v.index[w]; !dup {
			v.index[w] = i
		}
	}
	return v
}

// Size is the number of ids including [UNK].
func (v *Vocab) Size() int { return len(v.words) }

// Words returns a copy of the id-ordered word list.
func (v *Vocab) Words() []string { return append([]string(nil), v.words...) }

// ID returns the id of w, 0 when unknown.
func (v *Vocab) ID(w string) int { return v.index[w] }

// Encode tokenizes s into at most maxTokens ids. An empty sentence encodes
// as a single [UNK] so that every example has a non-empty mean.
func (v *Vocab) Encode(s string, maxTokens int) []int {
	toks := Tokenize(s)
	if maxTokens > 0 && len(toks) > maxTokens {
		toks = toks[:maxTokens]
	}
	if len(toks) == 0 {
		return []int{0}
	}
	ids := make([]int, len(toks))
	for i, t := range toks {
		ids[i] = v.index[t]
	}
	return ids
}

// EncodedSentence is a Sentence after tokenization.
type EncodedSentence struct {
	ID     string
	Tokens []int
	Label  int
}

// EncodedPair is a Pair after tokenization.
type EncodedPair struct {
	ID      string
	Tokens1 []int
	Tokens2 []int
	Label   float64
}

// EncodeSentences tokenizes every example.
func (v *Vocab) EncodeSentences(xs []Sentence, maxTokens int) []EncodedSentence {
	out := make([]EncodedSentence, len(xs))
	for i, x := range xs {
		out[i] = EncodedSentence{ID: x.ID, Tokens: v.Encode(x.Text, maxTokens), Label: x.Label}
	}
	return out
}

// EncodePairs tokenizes both sides of every example.
func (v *Vocab) EncodePairs(xs []Pair, maxTokens int) []EncodedPair {
	out := make([]EncodedPair, len(xs))
	for i, x := range xs {
		out[i] = EncodedPair{ID: x.ID, Tokens1: v.Encode(x.Text1, maxTokens), Tokens2: v.Encode(x.Text2, maxTokens), Label: x.Label}
	}
	return out
}

// Texts collects every sentence of the given examples, for vocabulary building.
func Texts(sst []Sentence, pairs ...[]Pair) []string {
	var out []string
	for _, s := range sst {
		out = append(out, s.Text)
	}
	for _, ps := range pairs {
		for _, p := range ps {
			out = append(out, p.Text1, p.Text2)
		}
	}
	return out
}
