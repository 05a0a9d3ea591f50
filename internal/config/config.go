package config

// FineTuneMode selects which parameters are updated during training.
type FineTuneMode string

const (
	// LastLinearLayer freezes the encoder and trains only the task heads.
	LastLinearLayer FineTuneMode = "last-linear-layer"
	// FullModel trains encoder and heads.
	FullModel FineTuneMode = "full-model"
)

// TrainType selects how the three task losses are combined.
type TrainType string

const (
	// Sequential trains sst, then para, then sts, one task at a time. It is the
	// behaviour when --train_type is omitted.
	Sequential   TrainType = ""
	Simultaneous TrainType = "simultaneous"
	PCGrad       TrainType = "pcgrad"
)

// sequentialAlias is accepted in config files and on the command line as an
// explicit spelling of the default.
const sequentialAlias = "sequential"

// Defaults applied by Default().
const (
	DefaultSeed          int64 = 11711
	DefaultEpochs              = 10
	DefaultLR                  = 1e-5
	DefaultSSTBatchSize        = 8
	DefaultParaBatchSize       = 64
	DefaultSTSBatchSize        = 8
	DefaultDropout             = 0.3
	DefaultHiddenSize          = 64
	DefaultMaxVocab            = 10000
	DefaultMaxTokens           = 64
	DefaultStepsPerEpoch       = 1000
	DefaultStateDir            = ".mtexp"
)

// RunConfig is the full description of one training run. It is assembled from
// defaults, an optional config file and command-line flags, validated once, and
// not modified after the run starts.
type RunConfig struct {
	FineTuneMode FineTuneMode `json:"fine_tune_mode" yaml:"fine_tune_mode" toml:"fine_tune_mode"`
	FilePrefix   string       `json:"file_prefix" yaml:"file_prefix" toml:"file_prefix"`
	Epochs       int          `json:"epochs" yaml:"epochs" toml:"epochs"`
	LR           float64      `json:"lr" yaml:"lr" toml:"lr"`
	UseGPU       bool         `json:"use_gpu" yaml:"use_gpu" toml:"use_gpu"`
	TrainType    TrainType    `json:"train_type" yaml:"train_type" toml:"train_type"`
	Seed         int64        `json:"seed" yaml:"seed" toml:"seed"`
	ModelPath    string       `json:"model_path" yaml:"model_path" toml:"model_path"`

	SSTBatchSize  int `json:"sst_batch_size" yaml:"sst_batch_size" toml:"sst_batch_size"`
	ParaBatchSize int `json:"para_batch_size" yaml:"para_batch_size" toml:"para_batch_size"`
	STSBatchSize  int `json:"sts_batch_size" yaml:"sts_batch_size" toml:"sts_batch_size"`

	HiddenDropoutProb float64 `json:"hidden_dropout_prob" yaml:"hidden_dropout_prob" toml:"hidden_dropout_prob"`
	HiddenSize        int     `json:"hidden_size" yaml:"hidden_size" toml:"hidden_size"`
	MaxVocab          int     `json:"max_vocab" yaml:"max_vocab" toml:"max_vocab"`
	MaxTokens         int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	StepsPerEpoch     int     `json:"steps_per_epoch" yaml:"steps_per_epoch" toml:"steps_per_epoch"`
	WeightDecay       float64 `json:"weight_decay" yaml:"weight_decay" toml:"weight_decay"`
	Workers           int     `json:"workers" yaml:"workers" toml:"workers"`

	Data        DataPaths   `json:"data" yaml:"data" toml:"data"`
	Predictions OutputPaths `json:"predictions" yaml:"predictions" toml:"predictions"`

	StateDir string `json:"state_dir" yaml:"state_dir" toml:"state_dir"`
}

// DataPaths locates the train/dev/test files of the three tasks.
type DataPaths struct {
	SSTTrain  string `json:"sst_train" yaml:"sst_train" toml:"sst_train"`
	SSTDev    string `json:"sst_dev" yaml:"sst_dev" toml:"sst_dev"`
	SSTTest   string `json:"sst_test" yaml:"sst_test" toml:"sst_test"`
	ParaTrain string `json:"para_train" yaml:"para_train" toml:"para_train"`
	ParaDev   string `json:"para_dev" yaml:"para_dev" toml:"para_dev"`
	ParaTest  string `json:"para_test" yaml:"para_test" toml:"para_test"`
	STSTrain  string `json:"sts_train" yaml:"sts_train" toml:"sts_train"`
	STSDev    string `json:"sts_dev" yaml:"sts_dev" toml:"sts_dev"`
	STSTest   string `json:"sts_test" yaml:"sts_test" toml:"sts_test"`
}

// OutputPaths locates the prediction files written after training.
type OutputPaths struct {
	SSTDev   string `json:"sst_dev_out" yaml:"sst_dev_out" toml:"sst_dev_out"`
	SSTTest  string `json:"sst_test_out" yaml:"sst_test_out" toml:"sst_test_out"`
	ParaDev  string `json:"para_dev_out" yaml:"para_dev_out" toml:"para_dev_out"`
	ParaTest string `json:"para_test_out" yaml:"para_test_out" toml:"para_test_out"`
	STSDev   string `json:"sts_dev_out" yaml:"sts_dev_out" toml:"sts_dev_out"`
	STSTest  string `json:"sts_test_out" yaml:"sts_test_out" toml:"sts_test_out"`
}

// Default returns a RunConfig populated with the standard defaults.
func Default() RunConfig {
	return RunConfig{
		FineTuneMode:      LastLinearLayer,
		Epochs:            DefaultEpochs,
		LR:                DefaultLR,
		Seed:              DefaultSeed,
		SSTBatchSize:      DefaultSSTBatchSize,
		ParaBatchSize:     DefaultParaBatchSize,
		STSBatchSize:      DefaultSTSBatchSize,
		HiddenDropoutProb: DefaultDropout,
		HiddenSize:        DefaultHiddenSize,
		MaxVocab:          DefaultMaxVocab,
		MaxTokens:         DefaultMaxTokens,
		StepsPerEpoch:     DefaultStepsPerEpoch,
		Data: DataPaths{
			SSTTrain:  "data/ids-sst-train.csv",
			SSTDev:    "data/ids-sst-dev.csv",
			SSTTest:   "data/ids-sst-test-student.csv",
			ParaTrain: "data/quora-train.csv",
			ParaDev:   "data/quora-dev.csv",
			ParaTest:  "data/quora-test-student.csv",
			STSTrain:  "data/sts-train.csv",
			STSDev:    "data/sts-dev.csv",
			STSTest:   "data/sts-test-student.csv",
		},
		Predictions: OutputPaths{
			SSTDev:   "predictions/sst-dev-output.csv",
			SSTTest:  "predictions/sst-test-output.csv",
			ParaDev:  "predictions/para-dev-output.csv",
			ParaTest: "predictions/para-test-output.csv",
			STSDev:   "predictions/sts-dev-output.csv",
			STSTest:  "predictions/sts-test-output.csv",
		},
		StateDir: DefaultStateDir,
	}
}

// Normalize folds accepted aliases into their canonical values.
func (c RunConfig) Normalize() RunConfig {
	if c.TrainType == sequentialAlias {
		c.TrainType = Sequential
	}
	return c
}

// StrategyName is the human-readable training strategy.
func (c RunConfig) StrategyName() string {
	if c.TrainType == Sequential {
		return sequentialAlias
	}
	return string(c.TrainType)
}
