package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
	"github.com/cognicore/lexiclass/pkg/lexiclass/model/neural"
)

var validate = validator.New()

// Options is the file form of classifier configuration.
type Options struct {
	HiddenLayers   []int   `yaml:"hidden_layers" validate:"omitempty,max=8,dive,gt=0,lte=4096"`
	Iterations     int     `yaml:"iterations" validate:"gte=0,lte=10000000"`
	LearningRate   float64 `yaml:"learning_rate" validate:"gte=0,lte=10"`
	Momentum       float64 `yaml:"momentum" validate:"gte=0,lt=1"`
	ErrorThreshold float64 `yaml:"error_threshold" validate:"gte=0,lt=1"`
	Seed           int64   `yaml:"seed"`

	// Stopwords selects filtering; nil keeps the process-wide default.
	Stopwords *bool  `yaml:"stopwords"`
	Stoplist  string `yaml:"stoplist"`
	Stem      bool   `yaml:"stem"`
	Lexicon   string `yaml:"lexicon"`
	MinLen    int    `yaml:"min_token_len" validate:"gte=0,lte=64"`
}

// Default returns options matching neural.DefaultConfig.
func Default() Options {
	d := neural.DefaultConfig()
	return Options{
		Iterations:     d.Iterations,
		LearningRate:   d.LearningRate,
		Momentum:       d.Momentum,
		ErrorThreshold: d.ErrorThreshold,
		Seed:           d.Seed,
	}
}

// Validate checks field ranges.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// Network converts the options into a network configuration.
func (o Options) Network() neural.Config {
	return neural.Config{
		HiddenLayers:   append([]int(nil), o.HiddenLayers...),
		Iterations:     o.Iterations,
		LearningRate:   o.LearningRate,
		Momentum:       o.Momentum,
		ErrorThreshold: o.ErrorThreshold,
		Seed:           o.Seed,
	}
}

// LoadOptions reads options from a YAML file. Fields absent from the file
// keep their Default values.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}

	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
