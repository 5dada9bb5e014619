package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Vector  VectorConfig  `mapstructure:"vector"`
	Offline OfflineConfig `mapstructure:"offline"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AppConfig holds application settings
type AppConfig struct {
	Name            string `mapstructure:"name"`
	Version         string `mapstructure:"version"`
	DefaultLanguage string `mapstructure:"default_language"`
	DefaultState    string `mapstructure:"default_state"`
	DefaultLocation string `mapstructure:"default_location"`
}

// LLMConfig holds language-model provider settings
type LLMConfig struct {
	Primary   string         `mapstructure:"primary"`
	Fallbacks []string       `mapstructure:"fallbacks"`
	Groq      ProviderConfig `mapstructure:"groq"`
	OpenAI    ProviderConfig `mapstructure:"openai"`
}

// ProviderConfig holds provider-specific settings
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

// ToolsConfig holds external data-tool settings
type ToolsConfig struct {
	OpenWeatherKey    string `mapstructure:"openweather_key"`
	WeatherURL        string `mapstructure:"weather_url"`
	DiseaseAPIURL     string `mapstructure:"disease_api_url"`
	ForecastAPIURL    string `mapstructure:"forecast_api_url"`
	DataGovAPIKey     string `mapstructure:"data_gov_api_key"`
	DataGovURL        string `mapstructure:"data_gov_url"`
	KeepAliveInterval string `mapstructure:"keep_alive_interval"`
	PriceCacheTTL     string `mapstructure:"price_cache_ttl"`
	PriceCachePath    string `mapstructure:"price_cache_path"`
}

// VectorConfig holds knowledge-index settings
type VectorConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Collection string `mapstructure:"collection"`
	Dimension  int    `mapstructure:"dimension"`
}

// OfflineConfig holds offline answer-engine settings
type OfflineConfig struct {
	CorpusPath string `mapstructure:"corpus_path"`
	CachePath  string `mapstructure:"cache_path"`
}

// ServerConfig holds REST server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	EnableLog bool   `mapstructure:"enable_log"`
	LogDir    string `mapstructure:"log_dir"`
}

// Load loads configuration from environment and files
func Load() (*Config, error) {
	// .env first so viper's env binding can see the keys
	_ = godotenv.Load()

	// Set defaults
	viper.SetDefault("app.name", "KrishiMitra Assistant")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.default_language", "en")
	viper.SetDefault("app.default_state", "Punjab")
	viper.SetDefault("app.default_location", "Delhi")

	viper.SetDefault("llm.primary", "groq")
	viper.SetDefault("llm.fallbacks", []string{"openai"})
	viper.SetDefault("llm.groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.groq.model", "llama-3.1-8b-instant")
	viper.SetDefault("llm.groq.max_tokens", 800)
	viper.SetDefault("llm.groq.temperature", 0.2)
	viper.SetDefault("llm.groq.timeout", "30s")
	viper.SetDefault("llm.openai.model", "gpt-3.5-turbo")
	viper.SetDefault("llm.openai.max_tokens", 800)
	viper.SetDefault("llm.openai.temperature", 0.2)
	viper.SetDefault("llm.openai.timeout", "30s")

	viper.SetDefault("tools.weather_url", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("tools.disease_api_url", "https://plant-disease-api-yt7l.onrender.com/predict")
	viper.SetDefault("tools.forecast_api_url", "https://agri-price-forecast.onrender.com/api/predict")
	viper.SetDefault("tools.data_gov_url", "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070")
	viper.SetDefault("tools.keep_alive_interval", "14m")
	viper.SetDefault("tools.price_cache_ttl", "30m")
	viper.SetDefault("tools.price_cache_path", "storage/prices.db")

	viper.SetDefault("vector.host", "localhost")
	viper.SetDefault("vector.port", 6334)
	viper.SetDefault("vector.collection", "agri_knowledge")
	viper.SetDefault("vector.dimension", 1536)

	viper.SetDefault("offline.corpus_path", "data/offline_qa.json")
	viper.SetDefault("offline.cache_path", "storage/offline_cache.db")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.enable_log", true)
	viper.SetDefault("logging.log_dir", "./logs")

	// Bind environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from environment
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		viper.Set("llm.groq.api_key", apiKey)
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("llm.openai.api_key", apiKey)
	}
	if apiKey := os.Getenv("OPENWEATHER_API_KEY"); apiKey != "" {
		viper.Set("tools.openweather_key", apiKey)
	}
	if apiKey := os.Getenv("DATA_GOV_API_KEY"); apiKey != "" {
		viper.Set("tools.data_gov_api_key", apiKey)
	}

	// Try to read config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Duration parses a duration string with a fallback
func Duration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

// KeepAliveInterval returns the collaborator ping interval
func (c *Config) KeepAliveInterval() time.Duration {
	return Duration(c.Tools.KeepAliveInterval, 14*time.Minute)
}

// PriceCacheTTL returns the mandi price cache time-to-live
func (c *Config) PriceCacheTTL() time.Duration {
	return Duration(c.Tools.PriceCacheTTL, 30*time.Minute)
}
