package bilm

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// DatasetConfig describes a training or evaluation dataset.
type DatasetConfig struct {
	TrainPrefix           string `json:"train_prefix"`
	VocabFile             string `json:"vocab_file"`
	MaxCharactersPerToken int    `json:"max_characters_per_token"`
	PermuteNumber         int    `json:"permute_number"`
	BatchSize             int    `json:"batch_size"`
	UnrollSteps           int    `json:"unroll_steps"`
	Test                  bool   `json:"test"`
	ShuffleOnLoad         bool   `json:"shuffle_on_load"`
	ValidateVocab         bool   `json:"validate_vocab"`
	Seed                  int64  `json:"seed,omitempty"`
}

// NewDatasetConfig returns the training defaults. A zero
// MaxCharactersPerToken disables character inputs.
func NewDatasetConfig() *DatasetConfig {
	return &DatasetConfig{
		MaxCharactersPerToken: 50,
		PermuteNumber:         4,
		BatchSize:             128,
		UnrollSteps:           20,
		ShuffleOnLoad:         true,
		ValidateVocab:         true,
	}
}

// LoadDatasetConfig reads a JSON config. Absent fields keep their defaults.
func LoadDatasetConfig(path string) (*DatasetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	config := NewDatasetConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling `%s`", path)
	}
	return config, nil
}

func (config *DatasetConfig) Validate() error {
	switch {
	case config.TrainPrefix == "":
		return errors.Wrap(ErrInvalidConfig, "train_prefix is empty")
	case config.VocabFile == "":
		return errors.Wrap(ErrInvalidConfig, "vocab_file is empty")
	case config.BatchSize <= 0:
		return errors.Wrapf(ErrInvalidConfig, "batch_size %d",
			config.BatchSize)
	case config.UnrollSteps <= 0:
		return errors.Wrapf(ErrInvalidConfig, "unroll_steps %d",
			config.UnrollSteps)
	case config.MaxCharactersPerToken < 0 ||
		config.MaxCharactersPerToken > 0 && config.MaxCharactersPerToken < 3:
		return errors.Wrapf(ErrInvalidConfig, "max_characters_per_token %d",
			config.MaxCharactersPerToken)
	}
	_, err := directionsForFanOut(config.PermuteNumber)
	return err
}

// LoadVocab loads the configured vocabulary, with character rows when
// MaxCharactersPerToken is set.
func (config *DatasetConfig) LoadVocab() (SentenceEncoder, error) {
	if config.MaxCharactersPerToken > 0 {
		chars, err := NewCharsVocabulary(config.VocabFile,
			config.MaxCharactersPerToken, config.ValidateVocab)
		if err != nil {
			return nil, err
		}
		return chars, nil
	}
	vocab, err := NewVocabulary(config.VocabFile, config.ValidateVocab)
	if err != nil {
		return nil, err
	}
	return vocab, nil
}

// Open validates the config, then loads the vocabulary and builds the
// dataset. opts.Test, opts.ShuffleOnLoad and opts.Seed are taken from the
// config; opts.Source is kept.
func (config *DatasetConfig) Open(opts DatasetOptions) (SentenceEncoder,
	*MultidirectionalDataset, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	vocab, err := config.LoadVocab()
	if err != nil {
		return nil, nil, err
	}
	opts.Test = config.Test
	opts.ShuffleOnLoad = config.ShuffleOnLoad
	opts.Seed = config.Seed
	dataset, err := NewMultidirectionalDataset(config.TrainPrefix, vocab,
		config.PermuteNumber, opts)
	if err != nil {
		return nil, nil, err
	}
	return vocab, dataset, nil
}
