package main

import (
	"flag"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	bilm "github.com/feiga/bilm-tf"
	"github.com/feiga/bilm-tf/types"
	"github.com/lwch/logging"
)

// BatchesIterator yields batches until it returns nil.
type BatchesIterator func() (types.Batch, error)

// tokenKeys returns the token_ids keys of a batch, primary direction first.
func tokenKeys(batch types.Batch) []string {
	keys := make([]string, 0, len(batch))
	for key := range batch {
		if strings.HasPrefix(key, types.KeyTokenIDs) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// WriteBatches writes the token_ids tensors of up to maxBatches batches to
// outPath as little-endian uint32, one direction after another. A
// non-positive maxBatches writes until the iterator ends. It returns the
// number of batches and tokens written.
func WriteBatches(outPath string, nextBatch BatchesIterator,
	maxBatches int) (int, int, error) {
	outFile, err := os.OpenFile(outPath, os.O_TRUNC|os.O_RDWR|os.O_CREATE,
		0644)
	if err != nil {
		return 0, 0, err
	}
	defer outFile.Close()

	type result struct {
		batch types.Batch
		err   error
	}
	batches := make(chan result, 2)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(batches)
		for count := 0; maxBatches <= 0 || count < maxBatches; count++ {
			batch, err := nextBatch()
			if err == nil && batch == nil {
				return
			}
			select {
			case batches <- result{batch: batch, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	totalBatches, totalTokens := 0, 0
	for next := range batches {
		if next.err != nil {
			return totalBatches, totalTokens, next.err
		}
		for _, key := range tokenKeys(next.batch) {
			bin, err := next.batch[key].ToBin(true)
			if err != nil {
				return totalBatches, totalTokens, err
			}
			if _, err := outFile.Write(*bin); err != nil {
				return totalBatches, totalTokens, err
			}
			totalTokens += next.batch[key].Size()
		}
		totalBatches++
	}
	return totalBatches, totalTokens, nil
}

func fatal(format string, args ...interface{}) {
	logging.Error(format, args...)
	os.Exit(1)
}

func main() {
	configFile := flag.String("config", "",
		"JSON dataset config; flags below override it when set")
	trainPrefix := flag.String("train_prefix", "",
		"shard glob, local (** supported) or s3://bucket/prefix*")
	vocabFile := flag.String("vocab", "", "vocabulary file")
	maxChars := flag.Int("max_chars", -1,
		"characters per token, 0 for word ids only")
	permuteNumber := flag.Int("permute_number", 0,
		"number of reading directions [2, 4, 6, 8]")
	batchSize := flag.Int("batch_size", 0, "rows per batch")
	unrollSteps := flag.Int("unroll_steps", 0, "steps per batch")
	testMode := flag.Bool("test", false,
		"read every shard once and stop")
	seed := flag.Int64("seed", 0, "shuffling seed, 0 for time-based")
	maxBatches := flag.Int("max_batches", 0,
		"batches to write, required unless -test")
	outputFile := flag.String("output", "batches.bin",
		"output file for uint32 token ids")
	flag.Parse()

	config := bilm.NewDatasetConfig()
	if *configFile != "" {
		var err error
		if config, err = bilm.LoadDatasetConfig(*configFile); err != nil {
			fatal("%v", err)
		}
	}
	if *trainPrefix != "" {
		config.TrainPrefix = *trainPrefix
	}
	if *vocabFile != "" {
		config.VocabFile = *vocabFile
	}
	if *maxChars >= 0 {
		config.MaxCharactersPerToken = *maxChars
	}
	if *permuteNumber > 0 {
		config.PermuteNumber = *permuteNumber
	}
	if *batchSize > 0 {
		config.BatchSize = *batchSize
	}
	if *unrollSteps > 0 {
		config.UnrollSteps = *unrollSteps
	}
	if *testMode {
		config.Test = true
	}
	if *seed != 0 {
		config.Seed = *seed
	}
	if !config.Test && *maxBatches <= 0 {
		flag.Usage()
		fatal("Must provide -max_batches when not in -test mode")
	}

	_, dataset, err := config.Open(bilm.DatasetOptions{})
	if err != nil {
		fatal("%v", err)
	}
	batches, err := dataset.IterBatches(config.BatchSize, config.UnrollSteps)
	if err != nil {
		fatal("%v", err)
	}

	logging.Info("Dataset: %s, %d directions, %dx%d batches",
		config.TrainPrefix, config.PermuteNumber, config.BatchSize,
		config.UnrollSteps)
	begin := time.Now()
	written, tokens, err := WriteBatches(*outputFile, batches.Next,
		*maxBatches)
	if err != nil {
		fatal("%v", err)
	}
	duration := time.Since(begin).Seconds()
	logging.Info("%d batches, %s tokens in %0.2fs, %s tokens/s to %s",
		written, humanize.Comma(int64(tokens)), duration,
		humanize.Comma(int64(float64(tokens)/duration)), *outputFile)
}
