package trainer

import (
	"fmt"

	"mtexp/internal/dataset"
)

// rawSplit is one split of the three tasks before tokenization.
type rawSplit struct {
	sst  []dataset.Sentence
	para []dataset.Pair
	sts  []dataset.Pair
}

// taskData is one split after tokenization.
type taskData struct {
	sst  []dataset.EncodedSentence
	para []dataset.EncodedPair
	sts  []dataset.EncodedPair
}

func loadSplit(sstPath, paraPath, stsPath string, split dataset.Split) (rawSplit, error) {
	var s rawSplit
	var err error
	if s.sst, err = dataset.LoadSentiment(sstPath, split); err != nil {
		return s, err
	}
	if s.para, err = dataset.LoadParaphrase(paraPath, split); err != nil {
		return s, err
	}
	if s.sts, err = dataset.LoadSimilarity(stsPath, split); err != nil {
		return s, err
	}
	for _, c := range []struct {
		path string
		n    int
	}{{sstPath, len(s.sst)}, {paraPath, len(s.para)}, {stsPath, len(s.sts)}} {
		if c.n == 0 {
			return s, fmt.Errorf("%s: no %s examples", c.path, split)
		}
	}
	return s, nil
}

func (s rawSplit) texts() []string { return dataset.Texts(s.sst, s.para, s.sts) }

func (s rawSplit) encode(v *dataset.Vocab, maxTokens int) *taskData {
	return &taskData{
		sst:  v.EncodeSentences(s.sst, maxTokens),
		para: v.EncodePairs(s.para, maxTokens),
		sts:  v.EncodePairs(s.sts, maxTokens),
	}
}
