package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	bilm "github.com/feiga/bilm-tf"
	"github.com/lwch/logging"
	"github.com/pkg/errors"
)

// A REPL showing how a sentence is read in every direction.

// SelectDirections returns the named direction when name is set, and the
// first fanOut directions otherwise.
func SelectDirections(name string, fanOut int) ([]bilm.Permutation, error) {
	if name != "" {
		p, err := bilm.ParsePermutation(name)
		if err != nil {
			return nil, err
		}
		return []bilm.Permutation{p}, nil
	}
	if fanOut < 1 || !bilm.Permutation(fanOut-1).Valid() {
		return nil, errors.Wrapf(bilm.ErrUnsupportedFanOut, "%d", fanOut)
	}
	directions := make([]bilm.Permutation, fanOut)
	for k := range directions {
		directions[k] = bilm.Permutation(k)
	}
	return directions, nil
}

// PrintDirections writes the encoded ids and markers of sentence for each
// direction.
func PrintDirections(w io.Writer, vocab *bilm.CharsVocabulary,
	sentence string, directions []bilm.Permutation) error {
	tokens := strings.Fields(sentence)
	for _, p := range directions {
		permuted, err := bilm.Permute(tokens, p)
		if err != nil {
			return err
		}
		ids, err := vocab.EncodeTokens(permuted, p)
		if err != nil {
			return err
		}
		decoded, err := vocab.Decode(ids)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-14s %v\n", p, ids)
		fmt.Fprintf(w, "%-14s %s\n", "", decoded)
	}
	return nil
}

func main() {
	vocabFile := flag.String("vocab", "", "vocabulary file")
	fanOut := flag.Int("directions", 8, "number of directions to show")
	direction := flag.String("direction", "",
		"show only this direction (forward, reverse, inward, ...)")
	maxChars := flag.Int("max_chars", 50, "characters per token")
	flag.Parse()

	if *vocabFile == "" {
		flag.Usage()
		logging.Error("Must provide -vocab")
		os.Exit(1)
	}
	directions, err := SelectDirections(*direction, *fanOut)
	if err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
	vocab, err := bilm.NewCharsVocabulary(*vocabFile, *maxChars, false)
	if err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(">>> ")
		input, err := reader.ReadString('\n')
		if err == io.EOF {
			fmt.Println()
			return
		} else if err != nil {
			logging.Error("%v", err)
			os.Exit(1)
		}
		if err := PrintDirections(os.Stdout, vocab, input, directions); err != nil {
			logging.Error("%v", err)
		}
		for _, token := range strings.Fields(input) {
			fmt.Printf("|%s", bilm.DecodeCharIDs(vocab.WordToCharIDs(token)))
		}
		fmt.Printf("|\n")
	}
}
