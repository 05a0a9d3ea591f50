package dataset

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("It's a GREAT movie -- 10/10!")
	want := []string{"it", "s", "a", "great", "movie", "10", "10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if len(Tokenize(" ... ")) != 0 {
		t.Fatalf("punctuation-only input should have no tokens")
	}
}

func TestBuildVocabOrderAndCap(t *testing.T) {
	v := BuildVocab(4, []string{"b a", "a c", "c d", "a"})
	// a:3, c:2, b:1, d:1 -> keep a, c, b (tie b<d)
	want := []string{UnknownToken, "a", "c", "b"}
	if !reflect.DeepEqual(v.Words(), want) {
		t.Fatalf("got %v want %v", v.Words(), want)
	}
	if v.ID("d") != 0 || v.ID("c") != 2 {
		t.Fatalf("unexpected ids")
	}
}

func TestEncode(t *testing.T) {
	v := NewVocab([]string{UnknownToken, "good", "film"})
	if got := v.Encode("Good film, good!", 3); !reflect.DeepEqual(got, []int{1, 2, 1}) {
		t.Fatalf("got %v", got)
	}
	if got := v.Encode("unseen words", 0); !reflect.DeepEqual(got, []int{0, 0}) {
		t.Fatalf("got %v", got)
	}
	if got := v.Encode("", 5); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("empty sentence should encode to [UNK], got %v", got)
	}
}

func TestEncodePairsAndTexts(t *testing.T) {
	sst := []Sentence{{ID: "s", Text: "x y", Label: 2}}
	pairs := []Pair{{ID: "p", Text1: "x", Text2: "z", Label: 1}}
	texts := Texts(sst, pairs)
	if !reflect.DeepEqual(texts, []string{"x y", "x", "z"}) {
		t.Fatalf("got %v", texts)
	}
	v := BuildVocab(10, texts)
	enc := v.EncodePairs(pairs, 8)
	if enc[0].ID != "p" || enc[0].Label != 1 || len(enc[0].Tokens1) != 1 || enc[0].Tokens2[0] == 0 {
		t.Fatalf("unexpected encoding: %+v", enc[0])
	}
	es := v.EncodeSentences(sst, 8)
	if es[0].Label != 2 || len(es[0].Tokens) != 2 {
		t.Fatalf("unexpected encoding: %+v", es[0])
	}
}

func TestBatchesCoverEveryIndexOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bs := Batches(10, 4, rng)
	if len(bs) != 3 || len(bs[2]) != 2 {
		t.Fatalf("unexpected batch shapes: %v", bs)
	}
	seen := map[int]bool{}
	for _, b := range bs {
		for _, i := range b {
			if seen[i] {
				t.Fatalf("index %d repeated", i)
			}
			seen[i] = true
		}
	}
	if len(seen) != 10 {
		t.Fatalf("missing indices: %v", seen)
	}
}

func TestSamplerDeterministicAndDistinct(t *testing.T) {
	a := NewSampler(5, 3, rand.New(rand.NewSource(7)))
	b := NewSampler(5, 3, rand.New(rand.NewSource(7)))
	for step := 0; step < 6; step++ {
		x, y := a.Next(), b.Next()
		if !reflect.DeepEqual(x, y) {
			t.Fatalf("step %d: same seed diverged %v vs %v", step, x, y)
		}
		if len(x) != 3 {
			t.Fatalf("batch size %d", len(x))
		}
		seen := map[int]bool{}
		for _, i := range x {
			if seen[i] || i < 0 || i >= 5 {
				t.Fatalf("bad batch %v", x)
			}
			seen[i] = true
		}
	}
	small := NewSampler(2, 8, rand.New(rand.NewSource(1)))
	if got := small.Next(); len(got) != 2 {
		t.Fatalf("batch should be capped at dataset size, got %v", got)
	}
	if NewSampler(0, 4, rand.New(rand.NewSource(1))).Next() != nil {
		t.Fatalf("empty dataset should yield nil")
	}
}
