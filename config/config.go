package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		ExternalAPI struct {
			Port      string `mapstructure:"port"`
			CertFile  string `mapstructure:"certFile"`
			KeyFile   string `mapstructure:"keyFile"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"externalAPI"`
		Prometheus struct {
			Port    string `mapstructure:"port"`
			Enabled bool   `mapstructure:"enabled"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			URL     string `mapstructure:"url"`
			Enabled bool   `mapstructure:"enabled"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort     string        `mapstructure:"HTTPPort"`
		Timeout      time.Duration `mapstructure:"HTTPTimeout"`
		WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey string `mapstructure:"secretKey"`
		Issuer    string `mapstructure:"issuer"`
		Audience  string `mapstructure:"audience"`
	} `mapstructure:"jwt"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Places    PlacesConfig    `mapstructure:"places"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ChatConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedUserIDs   []string `mapstructure:"allowedUserIDs"`
	DailyLimit       int      `mapstructure:"dailyLimit"`
	MinuteLimit      int      `mapstructure:"minuteLimit"`
	GlobalDailyLimit int      `mapstructure:"globalDailyLimit"`
	MaxMessageLength int      `mapstructure:"maxMessageLength"`
	HistoryLimit     int      `mapstructure:"historyLimit"`
	UsageStore       string   `mapstructure:"usageStore"` // postgres | redis
}

type PlacesConfig struct {
	APIKey                   string        `mapstructure:"apiKey"`
	Language                 string        `mapstructure:"language"`
	Region                   string        `mapstructure:"region"`
	Timeout                  time.Duration `mapstructure:"timeout"`
	CacheSize                int           `mapstructure:"cacheSize"`
	CacheTTL                 time.Duration `mapstructure:"cacheTTL"`
	ValidationConcurrency    int           `mapstructure:"validationConcurrency"`
	DuplicateThresholdMeters float64       `mapstructure:"duplicateThresholdMeters"`
}

type LLMConfig struct {
	APIKey        string  `mapstructure:"apiKey"`
	Model         string  `mapstructure:"model"`
	Temperature   float32 `mapstructure:"temperature"`
	MaxToolRounds int     `mapstructure:"maxToolRounds"`
}

type RateLimitConfig struct {
	IP struct {
		RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
		Burst             int     `mapstructure:"burst"`
	} `mapstructure:"ip"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
