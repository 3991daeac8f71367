package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvEnvFile         = "ENV_FILE"
	EnvPort            = "PORT"
	EnvModelPath       = "MODEL_PATH"
	EnvDataPath        = "DATA_PATH"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvGinMode         = "GIN_MODE"
	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvMaxBatchSize    = "MAX_BATCH_SIZE"
	EnvBatchParallel   = "BATCH_PARALLEL"
)

// Configuration defaults
const (
	DefaultPort             = 8000
	DefaultModelPath        = "models/exoplanet_classifier.json"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultGinMode          = "release"
	DefaultMaxBatchSize     = 64
	DefaultBatchParallel    = 4
	DefaultRequestTimeoutS  = 5
	DefaultReadTimeoutS     = 10
	DefaultWriteTimeoutS    = 10
	DefaultShutdownTimeoutS = 10
)

// Validation constants
const (
	MinPort          = 1024
	MaxPort          = 65535
	MaxBatchSizeCap  = 1000
	MaxBatchParallel = 64
)

// Disposition labels. The index of each label is the classifier's class index.
const (
	LabelFalsePositive = "FALSE POSITIVE"
	LabelConfirmed     = "CONFIRMED"
)

// Dataset tags echoed by the raw ingestion endpoints.
const (
	DatasetTESS   = "TESS"
	DatasetKepler = "Kepler"
	DatasetK2     = "K2"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"
