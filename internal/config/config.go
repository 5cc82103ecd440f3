package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Game        GameConfig        `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type LeaderboardConfig struct {
	Backend  string `mapstructure:"backend"` // db, file, redis
	FilePath string `mapstructure:"filePath"`
	RedisKey string `mapstructure:"redisKey"`
	Capacity int    `mapstructure:"capacity"`
}

// GameConfig holds the engine timings. Delays are milliseconds, the reshuffle
// interval is seconds.
type GameConfig struct {
	MatchDelayMs         int `mapstructure:"matchDelayMs"`
	MismatchDelayMs      int `mapstructure:"mismatchDelayMs"`
	ClueDurationMs       int `mapstructure:"clueDurationMs"`
	ReshuffleIntervalSec int `mapstructure:"reshuffleIntervalSec"`
	ReshuffleRetryMs     int `mapstructure:"reshuffleRetryMs"`
	ShuffleDisplayMs     int `mapstructure:"shuffleDisplayMs"`
	ClockTickMs          int `mapstructure:"clockTickMs"`
	InitialClues         int `mapstructure:"initialClues"`
}

var GlobalConfig *Config

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080", Mode: "debug"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "memory.db"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		JWT:      JWTConfig{Secret: "change-me", Expire: 72},
		Leaderboard: LeaderboardConfig{
			Backend:  "db",
			FilePath: "data/scores.json",
			RedisKey: "leaderboard:scores",
			Capacity: 100,
		},
		Game: GameConfig{
			MatchDelayMs:         500,
			MismatchDelayMs:      1000,
			ClueDurationMs:       1000,
			ReshuffleIntervalSec: 60,
			ReshuffleRetryMs:     1000,
			ShuffleDisplayMs:     1000,
			ClockTickMs:          1000,
			InitialClues:         1,
		},
	}
}

func LoadConfig(path string) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	def := Default()
	viper.SetDefault("server.port", def.Server.Port)
	viper.SetDefault("server.mode", def.Server.Mode)
	viper.SetDefault("database.driver", def.Database.Driver)
	viper.SetDefault("database.dsn", def.Database.DSN)
	viper.SetDefault("redis.addr", def.Redis.Addr)
	viper.SetDefault("jwt.secret", def.JWT.Secret)
	viper.SetDefault("jwt.expire", def.JWT.Expire)
	viper.SetDefault("leaderboard.backend", def.Leaderboard.Backend)
	viper.SetDefault("leaderboard.filePath", def.Leaderboard.FilePath)
	viper.SetDefault("leaderboard.redisKey", def.Leaderboard.RedisKey)
	viper.SetDefault("leaderboard.capacity", def.Leaderboard.Capacity)
	viper.SetDefault("game.matchDelayMs", def.Game.MatchDelayMs)
	viper.SetDefault("game.mismatchDelayMs", def.Game.MismatchDelayMs)
	viper.SetDefault("game.clueDurationMs", def.Game.ClueDurationMs)
	viper.SetDefault("game.reshuffleIntervalSec", def.Game.ReshuffleIntervalSec)
	viper.SetDefault("game.reshuffleRetryMs", def.Game.ReshuffleRetryMs)
	viper.SetDefault("game.shuffleDisplayMs", def.Game.ShuffleDisplayMs)
	viper.SetDefault("game.clockTickMs", def.Game.ClockTickMs)
	viper.SetDefault("game.initialClues", def.Game.InitialClues)

	viper.SetEnvPrefix("memory")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
