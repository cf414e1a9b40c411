package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 60
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}
	if cfg.Parser.Type == "" {
		cfg.Parser.Type = "http"
	}
	if cfg.Parser.URL == "" && cfg.Parser.Type == "http" {
		cfg.Parser.URL = "http://localhost:8000"
	}
	if cfg.Parser.TimeoutSeconds == 0 {
		cfg.Parser.TimeoutSeconds = 30
	}
	if cfg.Parser.CacheSize == 0 {
		cfg.Parser.CacheSize = 1000
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "./data/output"
	}
	if cfg.Export.Corpus == "" {
		cfg.Export.Corpus = "default"
	}
	if cfg.Export.Schema == "" {
		cfg.Export.Schema = "extended"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.PhraseBoost == 0 {
		cfg.Search.PhraseBoost = 2
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = 2
	}
	if cfg.Search.SuggestMaxDistance == 0 {
		cfg.Search.SuggestMaxDistance = 2
	}
	if cfg.Search.SuggestMinFrequency == 0 {
		cfg.Search.SuggestMinFrequency = 1
	}
}

// Default returns a fully defaulted config for use when no file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
