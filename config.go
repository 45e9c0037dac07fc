package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"
)

// AppConfig holds all server configuration.
// Priority (lowest → highest): defaults < env vars < JSON config file < CLI flags.
type AppConfig struct {
	// Server
	DB   string `json:"db"`   // database connection string
	Dev  bool   `json:"dev"`  // dev mode: verbose logging
	Addr string `json:"addr"` // HTTP listen address

	// Game pacing (seconds)
	NightLimit int `json:"night_limit"` // night ends at this deadline even if actors are missing
	DayLimit   int `json:"day_limit"`   // day switches to plurality rules at this deadline
	HurryLimit int `json:"hurry_limit"` // grace period after the hurry call

	// Rules
	RevealRoles bool `json:"reveal_roles"` // announce roles of the dead

	// Logging (extended diagnostics, off by default)
	LogOutputDir string `json:"log_output_dir"`
	LogWS        bool   `json:"log_ws"`
	LogGame      bool   `json:"log_game"`
	LogDebug     bool   `json:"log_debug"`

	// AI Storyteller
	StorytellerProvider    string `json:"storyteller_provider"`    // ollama | openai | claude | gemini | openai-compatible
	StorytellerModel       string `json:"storyteller_model"`       // model name
	StorytellerOllamaURL   string `json:"storyteller_ollama_url"`  // Ollama server URL
	StorytellerURL         string `json:"storyteller_url"`         // base URL for openai-compatible
	StorytellerAPIKey      string `json:"storyteller_api_key"`     // API key
	StorytellerTemperature string `json:"storyteller_temperature"` // float 0-1 as string
}

func (cfg AppConfig) toLogConfig() LogConfig {
	return LogConfig{
		OutputDir: cfg.LogOutputDir,
		LogWS:     cfg.LogWS,
		LogGame:   cfg.LogGame,
		Debug:     cfg.LogDebug,
	}
}

func (cfg AppConfig) nightTimeout() time.Duration {
	return time.Duration(cfg.NightLimit) * time.Second
}

func (cfg AppConfig) dayTimeout() time.Duration {
	return time.Duration(cfg.DayLimit) * time.Second
}

func (cfg AppConfig) hurryTimeout() time.Duration {
	return time.Duration(cfg.HurryLimit) * time.Second
}

func defaultConfig() AppConfig {
	return AppConfig{
		DB:                   "file::memory:?cache=shared",
		Addr:                 ":8080",
		NightLimit:           120,
		DayLimit:             600,
		HurryLimit:           60,
		RevealRoles:          true,
		StorytellerOllamaURL: "http://localhost:11434",
	}
}

// loadConfig builds a config by layering: defaults → env vars → JSON config file.
// CLI flag overrides are applied separately by flagValues.applyTo after flag.Parse.
func loadConfig(configPath string) AppConfig {
	cfg := defaultConfig()

	// Layer 1: env vars
	envStr := os.Getenv
	envBool := func(key string) (val bool, set bool) {
		v := os.Getenv(key)
		if v == "" {
			return false, false
		}
		return v == "1" || v == "true" || v == "yes", true
	}
	envInt := func(key string) (val int, set bool) {
		v := os.Getenv(key)
		if v == "" {
			return 0, false
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("Config: invalid %s=%q, ignoring", key, v)
			return 0, false
		}
		return n, true
	}

	if v := envStr("DB"); v != "" {
		cfg.DB = v
	}
	if v, ok := envBool("DEV"); ok {
		cfg.Dev = v
	}
	if v := envStr("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v, ok := envInt("NIGHT_LIMIT"); ok {
		cfg.NightLimit = v
	}
	if v, ok := envInt("DAY_LIMIT"); ok {
		cfg.DayLimit = v
	}
	if v, ok := envInt("HURRY_LIMIT"); ok {
		cfg.HurryLimit = v
	}
	if v, ok := envBool("REVEAL_ROLES"); ok {
		cfg.RevealRoles = v
	}
	if v := envStr("LOG_OUTPUT_DIR"); v != "" {
		cfg.LogOutputDir = v
	}
	if v, ok := envBool("LOG_WS"); ok {
		cfg.LogWS = v
	}
	if v, ok := envBool("LOG_GAME"); ok {
		cfg.LogGame = v
	}
	if v, ok := envBool("LOG_DEBUG"); ok {
		cfg.LogDebug = v
	}
	if v := envStr("STORYTELLER_PROVIDER"); v != "" {
		cfg.StorytellerProvider = v
	}
	if v := envStr("STORYTELLER_MODEL"); v != "" {
		cfg.StorytellerModel = v
	}
	if v := envStr("STORYTELLER_OLLAMA_URL"); v != "" {
		cfg.StorytellerOllamaURL = v
	}
	if v := envStr("STORYTELLER_URL"); v != "" {
		cfg.StorytellerURL = v
	}
	if v := envStr("STORYTELLER_API_KEY"); v != "" {
		cfg.StorytellerAPIKey = v
	}
	if v := envStr("STORYTELLER_TEMPERATURE"); v != "" {
		cfg.StorytellerTemperature = v
	}

	// Layer 2: JSON config file; only fields present in the file override env vars
	if data, err := os.ReadFile(configPath); err == nil {
		var overlay map[string]json.RawMessage
		if err := json.Unmarshal(data, &overlay); err != nil {
			log.Printf("Config: failed to parse %s: %v", configPath, err)
		} else {
			applyJSONOverlay(&cfg, overlay)
			log.Printf("Config: loaded from %s", configPath)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Config: failed to read %s: %v", configPath, err)
	}

	return cfg
}

// applyJSONOverlay only sets fields that are explicitly present in the JSON map.
func applyJSONOverlay(cfg *AppConfig, m map[string]json.RawMessage) {
	str := func(key string, dst *string) {
		if v, ok := m[key]; ok {
			json.Unmarshal(v, dst)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := m[key]; ok {
			json.Unmarshal(v, dst)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := m[key]; ok {
			json.Unmarshal(v, dst)
		}
	}
	str("db", &cfg.DB)
	boolean("dev", &cfg.Dev)
	str("addr", &cfg.Addr)
	integer("night_limit", &cfg.NightLimit)
	integer("day_limit", &cfg.DayLimit)
	integer("hurry_limit", &cfg.HurryLimit)
	boolean("reveal_roles", &cfg.RevealRoles)
	str("log_output_dir", &cfg.LogOutputDir)
	boolean("log_ws", &cfg.LogWS)
	boolean("log_game", &cfg.LogGame)
	boolean("log_debug", &cfg.LogDebug)
	str("storyteller_provider", &cfg.StorytellerProvider)
	str("storyteller_model", &cfg.StorytellerModel)
	str("storyteller_ollama_url", &cfg.StorytellerOllamaURL)
	str("storyteller_url", &cfg.StorytellerURL)
	str("storyteller_api_key", &cfg.StorytellerAPIKey)
	str("storyteller_temperature", &cfg.StorytellerTemperature)
}

// flagValues holds pointers to all registered CLI flags.
type flagValues struct {
	configPath             *string
	db                     *string
	dev                    *bool
	addr                   *string
	nightLimit             *int
	dayLimit               *int
	hurryLimit             *int
	revealRoles            *bool
	logOutputDir           *string
	logWS                  *bool
	logGame                *bool
	logDebug               *bool
	storytellerProvider    *string
	storytellerModel       *string
	storytellerOllamaURL   *string
	storytellerURL         *string
	storytellerAPIKey      *string
	storytellerTemperature *string
}

// registerFlags registers all CLI flags and returns pointers to their values.
// Call flag.Parse() after this, then applyTo to layer them over the loaded config.
func registerFlags() flagValues {
	return flagValues{
		configPath:             flag.String("config", "config.json", "path to JSON config file"),
		db:                     flag.String("db", "", "database connection string"),
		dev:                    flag.Bool("dev", false, "enable development mode (verbose logging)"),
		addr:                   flag.String("addr", "", "HTTP listen address (e.g. :8080)"),
		nightLimit:             flag.Int("night-limit", 0, "night phase deadline in seconds"),
		dayLimit:               flag.Int("day-limit", 0, "day phase deadline in seconds"),
		hurryLimit:             flag.Int("hurry-limit", 0, "grace period after the hurry call in seconds"),
		revealRoles:            flag.Bool("reveal-roles", true, "announce roles of the dead"),
		logOutputDir:           flag.String("log-output-dir", "", "directory for extended log files"),
		logWS:                  flag.Bool("log-ws", false, "log WebSocket messages"),
		logGame:                flag.Bool("log-game", false, "log game events"),
		logDebug:               flag.Bool("log-debug", false, "enable debug logging"),
		storytellerProvider:    flag.String("storyteller-provider", "", "AI storyteller provider (ollama|openai|claude|gemini|openai-compatible)"),
		storytellerModel:       flag.String("storyteller-model", "", "AI storyteller model name"),
		storytellerOllamaURL:   flag.String("storyteller-ollama-url", "", "Ollama server URL"),
		storytellerURL:         flag.String("storyteller-url", "", "base URL for openai-compatible provider"),
		storytellerAPIKey:      flag.String("storyteller-api-key", "", "API key for storyteller provider"),
		storytellerTemperature: flag.String("storyteller-temperature", "", "sampling temperature 0-1"),
	}
}

// applyTo overlays any CLI flags that were explicitly set onto cfg.
// Flags that were not passed on the command line are ignored (env/JSON values win).
func (fv flagValues) applyTo(cfg *AppConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = *fv.db
		case "dev":
			cfg.Dev = *fv.dev
		case "addr":
			cfg.Addr = *fv.addr
		case "night-limit":
			cfg.NightLimit = *fv.nightLimit
		case "day-limit":
			cfg.DayLimit = *fv.dayLimit
		case "hurry-limit":
			cfg.HurryLimit = *fv.hurryLimit
		case "reveal-roles":
			cfg.RevealRoles = *fv.revealRoles
		case "log-output-dir":
			cfg.LogOutputDir = *fv.logOutputDir
		case "log-ws":
			cfg.LogWS = *fv.logWS
		case "log-game":
			cfg.LogGame = *fv.logGame
		case "log-debug":
			cfg.LogDebug = *fv.logDebug
		case "storyteller-provider":
			cfg.StorytellerProvider = *fv.storytellerProvider
		case "storyteller-model":
			cfg.StorytellerModel = *fv.storytellerModel
		case "storyteller-ollama-url":
			cfg.StorytellerOllamaURL = *fv.storytellerOllamaURL
		case "storyteller-url":
			cfg.StorytellerURL = *fv.storytellerURL
		case "storyteller-api-key":
			cfg.StorytellerAPIKey = *fv.storytellerAPIKey
		case "storyteller-temperature":
			cfg.StorytellerTemperature = *fv.storytellerTemperature
		}
	})
}
