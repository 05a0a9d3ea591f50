package trainer

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"mtexp/internal/common/fsutil"
	"mtexp/internal/dataset"
	"mtexp/internal/model"
	"mtexp/pkg/types"
)

// Column headers of the prediction files. The similarity header keeps its
// historical spelling because downstream graders match on it.
const (
	headerSentiment  = "Predicted_Sentiment"
	headerParaphrase = "Predicted_Is_Paraphrase"
	headerSimilarity = "Predicted_Similiary"
)

// Prediction artifact kinds, in the order they are written.
const (
	KindSSTDev   = "sst-dev"
	KindSSTTest  = "sst-test"
	KindParaDev  = "para-dev"
	KindParaTest = "para-test"
	KindSTSDev   = "sts-dev"
	KindSTSTest  = "sts-test"
)

// test reloads the saved checkpoint from disk, scores the dev sets and writes
// dev and test predictions for the three tasks.
func (rn *run) test(ctx context.Context) error {
	cfg := rn.cfg
	path := rn.man.Checkpoint.Path
	ck, err := model.LoadCheckpoint(path)
	if err != nil {
		return fmt.Errorf("reload checkpoint: %w", err)
	}
	m, err := ck.Restore()
	if err != nil {
		return fmt.Errorf("reload checkpoint: %w", err)
	}
	rn.log.Info().Str("path", path).Str("phase", ck.Phase).Int("epoch", ck.Epoch).Msg("loaded model to test")

	vocab := dataset.NewVocab(ck.Vocab)
	testRaw, err := loadSplit(cfg.Data.SSTTest, cfg.Data.ParaTest, cfg.Data.STSTest, dataset.Test)
	if err != nil {
		return err
	}
	dev := rn.devRaw.encode(vocab, cfg.MaxTokens)
	tst := testRaw.encode(vocab, cfg.MaxTokens)

	sstDev := predictSentiment(rn.dev, m, dev.sst)
	paraDev := predictParaphrase(rn.dev, m, dev.para)
	stsDev := predictSimilarity(rn.dev, m, dev.sts)
	metrics := &types.DevMetrics{
		SentimentAccuracy:  sentimentAccuracy(sstDev, dev.sst),
		ParaphraseAccuracy: paraphraseAccuracy(paraDev, dev.para),
		SimilarityCorr:     similarityCorrelation(stsDev, dev.sts),
	}
	rn.man.Dev = metrics
	rn.log.Info().
		Float64("sentiment_acc", metrics.SentimentAccuracy).
		Float64("paraphrase_acc", metrics.ParaphraseAccuracy).
		Float64("sts_corr", metrics.SimilarityCorr).
		Msg("dev scores")
	if err := checkCanceled(ctx); err != nil {
		return err
	}

	files := []struct {
		kind, path, header string
		ids, values        []string
	}{
		{KindSSTDev, cfg.Predictions.SSTDev, headerSentiment, sentenceIDs(dev.sst), ints(sstDev)},
		{KindSSTTest, cfg.Predictions.SSTTest, headerSentiment, sentenceIDs(tst.sst), ints(predictSentiment(rn.dev, m, tst.sst))},
		{KindParaDev, cfg.Predictions.ParaDev, headerParaphrase, pairIDs(dev.para), ints(paraDev)},
		{KindParaTest, cfg.Predictions.ParaTest, headerParaphrase, pairIDs(tst.para), ints(predictParaphrase(rn.dev, m, tst.para))},
		{KindSTSDev, cfg.Predictions.STSDev, headerSimilarity, pairIDs(dev.sts), floats(stsDev)},
		{KindSTSTest, cfg.Predictions.STSTest, headerSimilarity, pairIDs(tst.sts), floats(predictSimilarity(rn.dev, m, tst.sts))},
	}
	rn.man.Predictions = rn.man.Predictions[:0]
	for _, f := range files {
		if err := writePredictions(f.path, f.header, f.ids, f.values); err != nil {
			return err
		}
		sum, err := fsutil.SHA256File(f.path)
		if err != nil {
			return err
		}
		rn.man.Predictions = append(rn.man.Predictions, types.Artifact{Kind: f.kind, Path: f.path, SHA256: sum})
	}
	sum, err := fsutil.SHA256File(path)
	if err != nil {
		return err
	}
	rn.man.Checkpoint.SHA256 = sum
	rn.r.publish(EventPredictionsWritten, rn.man.Name, map[string]any{"files": len(files)})
	return nil
}

// writePredictions writes one prediction file: a header line followed by
// "{id} , {value} " rows.
func writePredictions(path, header string, ids, values []string) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "id \t %s \n", header)
	for i := range ids {
		fmt.Fprintf(&b, "%s , %s \n", ids[i], values[i])
	}
	if err := fsutil.WriteFileAtomic(path, b.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write predictions %s: %w", path, err)
	}
	return nil
}

func sentenceIDs(xs []dataset.EncodedSentence) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.ID
	}
	return out
}

func pairIDs(xs []dataset.EncodedPair) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.ID
	}
	return out
}

func ints(xs []int) []string {
	out := make([]string, len(xs))
	for i, v := range xs {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func floats(xs []float64) []string {
	out := make([]string, len(xs))
	for i, v := range xs {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}
