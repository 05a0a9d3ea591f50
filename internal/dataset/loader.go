// Package dataset reads the tab-separated task files used by the runner and
// turns sentences into token id sequences.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// NumSentimentLabels is the number of sentiment classes (0 very negative .. 4 very positive).
const NumSentimentLabels = 5

// Split tells a loader whether label columns are expected.
type Split string

const (
	Train Split = "train"
	Dev   Split = "dev"
	Test  Split = "test"
)

func (s Split) labeled() bool { return s != Test }

// Sentence is one sst example. Label is -1 on the test split.
type Sentence struct {
	ID    string
	Text  string
	Label int
}

// Pair is one para or sts example. Label is 0/1 for para and a 0-5 score for
// sts; it is 0 on the test split.
type Pair struct {
	ID    string
	Text1 string
	Text2 string
	Label float64
}

// LoadSentiment reads an sst file with columns id, sentence and (unless
// split is Test) sentiment.
func LoadSentiment(path string, split Split) ([]Sentence, error) {
	want := []string{"id", "sentence"}
	if split.labeled() {
		want = append(want, "sentiment")
	}
	var out []Sentence
	err := readTSV(path, want, func(line int, f map[string]string) error {
		s := Sentence{ID: f["id"], Text: f["sentence"], Label: -1}
		if split.labeled() {
			v, err := strconv.Atoi(f["sentiment"])
			if err != nil || v < 0 || v >= NumSentimentLabels {
				return fmt.Errorf("%s:%d: sentiment %q is not a label in [0,%d)", path, line, f["sentiment"], NumSentimentLabels)
			}
			s.Label = v
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// LoadParaphrase reads a para file with columns id, sentence1, sentence2 and
// is_duplicate. Incomplete rows are skipped; the source data contains some.
func LoadParaphrase(path string, split Split) ([]Pair, error) {
	want := []string{"id", "sentence1", "sentence2"}
	if split.labeled() {
		want = append(want, "is_duplicate")
	}
	var out []Pair
	err := readTSV(path, want, func(line int, f map[string]string) error {
		if f["sentence1"] == "" || f["sentence2"] == "" {
			return nil
		}
		p := Pair{ID: f["id"], Text1: f["sentence1"], Text2: f["sentence2"]}
		if split.labeled() {
			v, err := strconv.ParseFloat(f["is_duplicate"], 64)
			if err != nil {
				return nil
			}
			if v >= 0.5 {
				p.Label = 1
			}
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// LoadSimilarity reads an sts file with columns id, sentence1, sentence2 and
// similarity.
func LoadSimilarity(path string, split Split) ([]Pair, error) {
	want := []string{"id", "sentence1", "sentence2"}
	if split.labeled() {
		want = append(want, "similarity")
	}
	var out []Pair
	err := readTSV(path, want, func(line int, f map[string]string) error {
		p := Pair{ID: f["id"], Text1: f["sentence1"], Text2: f["sentence2"]}
		if split.labeled() {
			v, err := strconv.ParseFloat(f["similarity"], 64)
			if err != nil {
				return fmt.Errorf("%s:%d: similarity %q: %w", path, line, f["similarity"], err)
			}
			p.Label = v
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// readTSV calls fn for every data row with the wanted columns picked out by
// header name. Columns not listed in want are ignored.
func readTSV(path string, want []string, fn func(line int, fields map[string]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty file", path)
		}
		return fmt.Errorf("%s: read header: %w", path, err)
	}
	col := make(map[string]int, len(want))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, w := range want {
		if _, ok := col[w]; !ok {
			return fmt.Errorf("%s: missing column %q", path, w)
		}
	}

	fields := make(map[string]string, len(want))
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		for _, w := range want {
			i := col[w]
			if i < len(rec) {
				fields[w] = strings.TrimSpace(rec[i])
			} else {
				fields[w] = ""
			}
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
}
