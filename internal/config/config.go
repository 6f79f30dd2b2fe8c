package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("sessionName", "tapswap")
	viper.SetDefault("answersFile", "missions.csv")

	viper.SetDefault("api.baseUrl", "https://api.tapswap.club")
	viper.SetDefault("api.authToken", "")
	viper.SetDefault("api.initData", "")

	viper.SetDefault("delays.courtesy", "5s")
	viper.SetDefault("delays.backoff", "3s")

	viper.SetDefault("missions.maxVisible", 4)
	viper.SetDefault("missions.cinemaMinOrdinal", 1000)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "tapswap-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetConfigName("tapswap.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
