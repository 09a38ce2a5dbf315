package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Discovery struct {
		Queries       []string `yaml:"queries"`
		LookbackHours int      `yaml:"lookback_hours"`
		MaxVideos     int      `yaml:"max_videos"`
		Language      string   `yaml:"language"`
	} `yaml:"discovery"`
	Transcript struct {
		Language       string `yaml:"language"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"transcript"`
	Chunking struct {
		WindowSeconds float64 `yaml:"window_seconds"`
	} `yaml:"chunking"`
	LLM struct {
		Provider    string  `yaml:"provider"` // OPENAI or NOOP
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
	Embedding struct {
		Enabled   bool   `yaml:"enabled"`
		Model     string `yaml:"model"`
		Dimension int    `yaml:"dimension"`
	} `yaml:"embedding"`
	Budget struct {
		AggregateChars    int `yaml:"aggregate_chars"`
		VideoSummaryChars int `yaml:"video_summary_chars"`
		DailySummaryChars int `yaml:"daily_summary_chars"`
	} `yaml:"budget"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Daily struct {
		MarketTimezone string `yaml:"market_timezone"`
	} `yaml:"daily"`
	API struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"api"`
	RunLog struct {
		Dir string `yaml:"dir"`
	} `yaml:"runlog"`
}

func (c *Config) Validate() error {
	if c.Chunking.WindowSeconds <= 0 {
		return fmt.Errorf("chunking.window_seconds must be positive, got %v", c.Chunking.WindowSeconds)
	}
	if c.LLM.Provider != "OPENAI" && c.LLM.Provider != "NOOP" {
		return fmt.Errorf("llm.provider must be 'OPENAI' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	if c.Discovery.MaxVideos <= 0 {
		return fmt.Errorf("discovery.max_videos must be positive, got %d", c.Discovery.MaxVideos)
	}
	if len(c.Discovery.Queries) == 0 {
		return fmt.Errorf("discovery.queries cannot be empty")
	}
	if c.Budget.AggregateChars <= 0 || c.Budget.VideoSummaryChars <= 0 || c.Budget.DailySummaryChars <= 0 {
		return fmt.Errorf("budget character caps must all be positive")
	}
	if _, err := time.LoadLocation(c.Daily.MarketTimezone); err != nil {
		return fmt.Errorf("daily.market_timezone '%s' is not a valid time zone: %w", c.Daily.MarketTimezone, err)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Discovery.LookbackHours == 0 {
		c.Discovery.LookbackHours = 36
	}
	if c.Discovery.MaxVideos == 0 {
		c.Discovery.MaxVideos = 10
	}
	if c.Discovery.Language == "" {
		c.Discovery.Language = "en"
	}
	if len(c.Discovery.Queries) == 0 {
		c.Discovery.Queries = []string{"stock market"}
	}
	if c.Transcript.Language == "" {
		c.Transcript.Language = c.Discovery.Language
	}
	if c.Transcript.TimeoutSeconds == 0 {
		c.Transcript.TimeoutSeconds = 30
	}
	if c.Chunking.WindowSeconds == 0 {
		c.Chunking.WindowSeconds = 300
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4.1-mini"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1500
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 384
	}
	if c.Budget.AggregateChars == 0 {
		c.Budget.AggregateChars = 20000
	}
	if c.Budget.VideoSummaryChars == 0 {
		c.Budget.VideoSummaryChars = 24000
	}
	if c.Budget.DailySummaryChars == 0 {
		c.Budget.DailySummaryChars = 24000
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/digest.db"
	}
	if c.Daily.MarketTimezone == "" {
		c.Daily.MarketTimezone = "America/New_York"
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8090"
	}
	if c.RunLog.Dir == "" {
		c.RunLog.Dir = "logs"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
