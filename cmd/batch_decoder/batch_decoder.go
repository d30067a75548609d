package main

import (
	"bufio"
	"flag"
	"io"
	"os"

	bilm "github.com/feiga/bilm-tf"
	"github.com/feiga/bilm-tf/types"
	"github.com/lwch/logging"
	"github.com/pkg/errors"
)

// DecodeRows writes every row of steps ids as one line of words.
func DecodeRows(w io.Writer, vocab *bilm.Vocabulary, ids []int64,
	steps int) (int, error) {
	if steps <= 0 {
		return 0, errors.Wrapf(bilm.ErrInvalidConfig, "steps %d", steps)
	}
	if len(ids)%steps != 0 {
		return 0, errors.Errorf("%d ids do not divide into rows of %d",
			len(ids), steps)
	}
	rows := 0
	row := make(types.Tokens, steps)
	for start := 0; start < len(ids); start += steps {
		for k, id := range ids[start : start+steps] {
			if id < 0 || id >= int64(vocab.Size()) {
				return rows, errors.Wrapf(bilm.ErrIDOutOfRange, "%d", id)
			}
			row[k] = types.Token(id)
		}
		line, err := vocab.Decode(row)
		if err != nil {
			return rows, err
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}

func main() {
	vocabFile := flag.String("vocab", "", "vocabulary file")
	inputFile := flag.String("input", "batches.bin",
		"uint32 batch dump to decode")
	steps := flag.Int("steps", 20, "ids per row (unroll_steps of the dump)")
	flag.Parse()

	if *vocabFile == "" {
		flag.Usage()
		logging.Error("Must provide -vocab")
		os.Exit(1)
	}
	vocab, err := bilm.NewVocabulary(*vocabFile, false)
	if err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
	data, err := os.ReadFile(*inputFile)
	if err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}

	// A trailing partial value fails the size check.
	ids, err := types.TensorFromBin(&data, true, len(data)/4)
	if err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	rows, err := DecodeRows(out, vocab, ids.Data, *steps)
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
	logging.Info("Decoded %d rows from %s", rows, *inputFile)
}
