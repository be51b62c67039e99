package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MonitorAddress string `mapstructure:"monitor_address"`
}

// GameConfig carries the fixed catalogs and the simulation tuning values.
// Rooms receive this at construction and treat it as immutable.
type GameConfig struct {
	MapDir          string   `mapstructure:"map_dir"`
	Maps            []string `mapstructure:"maps"`
	Modes           []string `mapstructure:"modes"`
	Characters      []string `mapstructure:"characters"`
	MaxClients      int      `mapstructure:"max_clients"`
	DisposeDelaySec int      `mapstructure:"dispose_delay_sec"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "gorm" or "postgres"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":3001")
	viper.SetDefault("server.rpc_address", ":3002")
	viper.SetDefault("server.monitor_address", ":9100")
	viper.SetDefault("game.map_dir", "maps")
	viper.SetDefault("game.maps", []string{"lobby", "arena"})
	viper.SetDefault("game.modes", []string{"classic", "tag"})
	viper.SetDefault("game.characters", []string{"bear", "duck", "dog", "mage"})
	viper.SetDefault("game.max_clients", 16)
	viper.SetDefault("game.dispose_delay_sec", 30)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.driver", "gorm")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
