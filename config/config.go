package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Environment string

const (
	Development Environment = "dev"
	Production  Environment = "production"
)

type AppConfig struct {
	Env         Environment
	LogLevel    string
	ServerPort  string
	HTTPTimeout time.Duration
}

type NormalizerConfig struct {
	StopwordsFile   string
	DropShortTokens bool
}

type ModelConfig struct {
	Dir            string
	VectorizerPath string
	HugotModelPath string
	RemoteEndpoint string
	RemoteHealth   string
	OpenAIKey      string
	OpenAIModel    string
}

type DatasetConfig struct {
	Path     string
	PageSize int
}

type CacheConfig struct {
	Address  string
	Password string
	TLS      bool
	TTL      time.Duration
}

type HistoryConfig struct {
	Enabled       bool
	Endpoint      string
	Region        string
	Table         string
	TTL           time.Duration
	FlushInterval time.Duration
}

type KafkaConfig struct {
	Broker          string
	GroupID         string
	PredictionTopic string
	RequestTopic    string
	ResultTopic     string
}

type TwitterConfig struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
}

type Config struct {
	App        AppConfig
	Normalizer NormalizerConfig
	Models     ModelConfig
	Dataset    DatasetConfig
	Cache      CacheConfig
	History    HistoryConfig
	Kafka      KafkaConfig
	Twitter    TwitterConfig
}

// Load reads configuration from the environment. Call LoadEnv first to pick
// up the env file for APP_ENV.
func Load() (*Config, error) {
	env := parseEnvironment(getEnv("APP_ENV", string(Development)))

	modelDir := getEnv("MODEL_DIR", filepath.Join("resources", "models"))

	cfg := &Config{
		App: AppConfig{
			Env:         env,
			LogLevel:    getLogLevel(env),
			ServerPort:  getEnv("APP_SERVER_PORT", "8080"),
			HTTPTimeout: getEnvDuration("APP_HTTP_TIMEOUT", 30*time.Second),
		},
		Normalizer: NormalizerConfig{
			StopwordsFile:   getEnv("NORMALIZER_STOPWORDS_FILE", ""),
			DropShortTokens: getEnvBool("NORMALIZER_DROP_SHORT_TOKENS", false),
		},
		Models: ModelConfig{
			Dir:            modelDir,
			VectorizerPath: getEnv("VECTORIZER_PATH", filepath.Join(modelDir, "tfidfvect.json")),
			HugotModelPath: getEnv("HUGOT_MODEL_PATH", ""),
			RemoteEndpoint: getEnv("REMOTE_CLASSIFIER_ENDPOINT", ""),
			RemoteHealth:   getEnv("REMOTE_CLASSIFIER_HEALTH_ENDPOINT", ""),
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Dataset: DatasetConfig{
			Path:     getEnv("DATASET_PATH", filepath.Join("resources", "train.csv")),
			PageSize: getEnvInt("DATASET_PAGE_SIZE", 50),
		},
		Cache: CacheConfig{
			Address:  getEnv("VALKEY_INIT_ADDRESS", ""),
			Password: getEnv("VALKEY_PASSWORD", ""),
			TLS:      getEnvBool("VALKEY_TLS", false),
			TTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),
		},
		History: HistoryConfig{
			Enabled:       getEnvBool("HISTORY_ENABLED", false),
			Endpoint:      getEnv("AWS_ENDPOINT", ""),
			Region:        getEnv("AWS_REGION", "us-west-2"),
			Table:         getEnv("HISTORY_TABLE", "TweetPredictions"),
			TTL:           getEnvDuration("HISTORY_TTL", 0),
			FlushInterval: getEnvDuration("HISTORY_FLUSH_INTERVAL", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Broker:          getEnv("KAFKA_BROKER", ""),
			GroupID:         getEnv("KAFKA_CONSUMER_GROUP_ID", "tweetclassifier-worker"),
			PredictionTopic: getEnv("KAFKA_PREDICTION_TOPIC", "tweet-predictions"),
			RequestTopic:    getEnv("KAFKA_REQUEST_TOPIC", "classification-requests"),
			ResultTopic:     getEnv("KAFKA_RESULT_TOPIC", "classification-results"),
		},
		Twitter: TwitterConfig{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
			APIURL:       getEnv("TWITTER_API_URL", "https://api.twitter.com/2"),
			TokenURL:     getEnv("TWITTER_TOKEN_URL", "https://api.twitter.com/oauth2/token"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.ServerPort == "" {
		return fmt.Errorf("APP_SERVER_PORT must not be empty")
	}
	if _, err := strconv.Atoi(c.App.ServerPort); err != nil {
		return fmt.Errorf("APP_SERVER_PORT must be numeric: %q", c.App.ServerPort)
	}
	if c.Dataset.PageSize <= 0 {
		return fmt.Errorf("DATASET_PAGE_SIZE must be positive")
	}
	if c.History.Enabled && c.History.Table == "" {
		return fmt.Errorf("HISTORY_TABLE is required when HISTORY_ENABLED=true")
	}
	if (c.Twitter.ClientID == "") != (c.Twitter.ClientSecret == "") {
		return fmt.Errorf("TWITTER_CLIENT_ID and TWITTER_CLIENT_SECRET must be set together")
	}
	return nil
}

func (c *Config) CacheEnabled() bool {
	return c.Cache.Address != ""
}

func (c *Config) KafkaEnabled() bool {
	return c.Kafka.Broker != ""
}

func (c *Config) TwitterEnabled() bool {
	return c.Twitter.ClientID != "" && c.Twitter.ClientSecret != ""
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func getLogLevel(env Environment) string {
	if env == Production {
		return getEnv("APP_LOG_LEVEL", "info")
	}

	return getEnv("APP_LOG_LEVEL", "debug")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
