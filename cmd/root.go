package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/careermatch/internal/clustering"
	"github.com/spigell/careermatch/internal/jsearch"
)

const (
	app = "careermatch"
)

type Config struct {
	Skills      SkillsConfig     `mapstructure:"skills"`
	Search      SearchConfig     `mapstructure:"search"`
	Matching    MatchingConfig   `mapstructure:"matching"`
	Clustering  ClusteringConfig `mapstructure:"clustering"`
	Embedding   EmbeddingConfig  `mapstructure:"embedding"`
	Assistant   AssistantConfig  `mapstructure:"assistant"`
	Timeouts    TimeoutsConfig   `mapstructure:"timeouts"`
	MetricsFile string           `mapstructure:"metrics-file"`
}

type SkillsConfig struct {
	Vocabulary     []string `mapstructure:"vocabulary"`
	VocabularyFile string   `mapstructure:"vocabulary-file"`
	Match          string   `mapstructure:"match"`
}

type SearchConfig struct {
	APIKey           string        `mapstructure:"api-key" json:"-"`
	APIKeyFile       string        `mapstructure:"api-key-file"`
	UserAgent        string        `mapstructure:"user-agent"`
	MaxQueries       int           `mapstructure:"max-queries"`
	Pages            int           `mapstructure:"pages"`
	Delay            time.Duration `mapstructure:"delay"`
	Seed             uint64        `mapstructure:"seed"`
	ExcludeCompanies []string      `mapstructure:"exclude-companies"`
	ExcludeFile      string        `mapstructure:"exclude-file"`
}

type MatchingConfig struct {
	TopNGap int `mapstructure:"top-n-gap"`
}

type ClusteringConfig struct {
	K             int    `mapstructure:"k"`
	Seed          uint64 `mapstructure:"seed"`
	Restarts      int    `mapstructure:"restarts"`
	MaxIterations int    `mapstructure:"max-iterations"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	BaseURL    string `mapstructure:"base-url"`
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Cache      bool   `mapstructure:"cache"`
}

type AssistantConfig struct {
	Providers []string     `mapstructure:"providers"`
	OpenAI    OpenAIConfig `mapstructure:"openai"`
	Gemini    GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api-key" json:"-"`
	APIKeyFile  string  `mapstructure:"api-key-file"`
	BaseURL     string  `mapstructure:"base-url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max-tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key" json:"-"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type TimeoutsConfig struct {
	Fetch    time.Duration `mapstructure:"fetch"`
	Embed    time.Duration `mapstructure:"embed"`
	Generate time.Duration `mapstructure:"generate"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "careermatch ranks and clusters job postings against your resume",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is careermatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("skills.vocabulary", []string{})
	viper.SetDefault("skills.vocabulary-file", "")
	viper.SetDefault("skills.match", "substring")

	viper.SetDefault("search.api-key", "")
	viper.SetDefault("search.api-key-file", "")
	viper.SetDefault("search.user-agent", "")
	viper.SetDefault("search.max-queries", jsearch.DefaultMaxQueries)
	viper.SetDefault("search.pages", jsearch.DefaultPages)
	viper.SetDefault("search.delay", jsearch.DefaultDelay)
	viper.SetDefault("search.seed", 0)
	viper.SetDefault("search.exclude-companies", []string{})
	viper.SetDefault("search.exclude-file", "")

	viper.SetDefault("matching.top-n-gap", 5)

	viper.SetDefault("clustering.k", 3)
	viper.SetDefault("clustering.seed", clustering.DefaultSeed)
	viper.SetDefault("clustering.restarts", clustering.DefaultRestarts)
	viper.SetDefault("clustering.max-iterations", clustering.DefaultMaxIterations)

	viper.SetDefault("embedding.provider", "local")
	viper.SetDefault("embedding.model", "")
	viper.SetDefault("embedding.dimensions", 0)
	viper.SetDefault("embedding.base-url", "")
	viper.SetDefault("embedding.api-key", "")
	viper.SetDefault("embedding.api-key-file", "")
	viper.SetDefault("embedding.cache", true)

	viper.SetDefault("assistant.providers", []string{"openai", "gemini"})
	viper.SetDefault("assistant.openai.api-key", "")
	viper.SetDefault("assistant.openai.api-key-file", "")
	viper.SetDefault("assistant.openai.base-url", "")
	viper.SetDefault("assistant.openai.model", "gpt-4o-mini")
	viper.SetDefault("assistant.openai.max-tokens", 500)
	viper.SetDefault("assistant.openai.temperature", 0.7)
	viper.SetDefault("assistant.gemini.api-key", "")
	viper.SetDefault("assistant.gemini.api-key-file", "")
	viper.SetDefault("assistant.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("assistant.gemini.max-retries", 3)

	viper.SetDefault("timeouts.fetch", "60s")
	viper.SetDefault("timeouts.embed", "2m")
	viper.SetDefault("timeouts.generate", "1m")

	viper.SetDefault("metrics-file", "")
}

func initConfig() {
	// Version needs neither config nor environment.
	if versionCmd.CalledAs() != "" {
		return
	}

	// A missing .env is fine; variables may come from the shell.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(app)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Defaults are enough to run without a config file unless one was requested.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
