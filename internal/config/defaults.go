package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Index.Source == "" {
		cfg.Index.Source = "./public/index.json"
	}
	if cfg.Index.BodyFormat == "" {
		cfg.Index.BodyFormat = "html"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 2
	}
	if cfg.Search.Fuzzy == 0 {
		cfg.Search.Fuzzy = 0.2
	}
	if cfg.Search.CombineWith == "" {
		cfg.Search.CombineWith = "AND"
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 256
	}
	if cfg.Teaser.MaxWords == 0 {
		cfg.Teaser.MaxWords = 30
	}
	if cfg.Teaser.TermWeight == 0 {
		cfg.Teaser.TermWeight = 40
	}
	if cfg.Teaser.FirstWordWeight == 0 {
		cfg.Teaser.FirstWordWeight = 8
	}
	if cfg.Teaser.WordWeight == 0 {
		cfg.Teaser.WordWeight = 2
	}
	if cfg.Teaser.EmphasisOpen == "" && cfg.Teaser.EmphasisClose == "" {
		cfg.Teaser.EmphasisOpen = "<b>"
		cfg.Teaser.EmphasisClose = "</b>"
	}
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
