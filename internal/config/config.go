package config

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Bias     BiasConfig     `mapstructure:"bias"`
	Market   MarketConfig   `mapstructure:"market"`
	Binance  BinanceConfig  `mapstructure:"binance"`
	Poll     PollConfig     `mapstructure:"poll"`
	ETF      ETFConfig      `mapstructure:"etf"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type BiasConfig struct {
	LogPath string `mapstructure:"log_path"`
	DataDir string `mapstructure:"data_dir"`
}

type MarketConfig struct {
	Coins                 []string `mapstructure:"coins"`
	WhaleTradeMinNotional float64  `mapstructure:"whale_trade_min_notional"`
}

type BinanceConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Requests int    `mapstructure:"requests"`
	Duration string `mapstructure:"duration"`
}

type PollConfig struct {
	Timeout string `mapstructure:"timeout"`
	Stagger string `mapstructure:"stagger"`
}

type ETFConfig struct {
	Tickers  []string `mapstructure:"tickers"`
	Interval string   `mapstructure:"interval"`
}

type NotifyConfig struct {
	Channels map[string]int64 `mapstructure:"channels"`
	Cooldown string           `mapstructure:"cooldown"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}
