// Package testsupport loads the live-backend credentials used by the
// integration-style tests (currently TestLiveGetSiteDevices in httpapi).
// These tests skip themselves when no config is available; normal unit
// tests never touch this package.
package testsupport

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the connection details for a real broker/API instance used
// by integration tests. Every test that needs one calls Load and skips
// itself on error.
type Config struct {
	MQTTBroker string `mapstructure:"mqtt_broker"`
	AMQPURI    string `mapstructure:"amqp_uri"`
	Company    string `mapstructure:"company"`
	HTTPServer string `mapstructure:"http_server"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
}

// Load reads the integration test config from ./testconfig.yaml relative to
// the working directory via viper; APPLINK_TEST_-prefixed environment
// variables override the keys the file sets. It returns an error (never
// panics) when no config file is found so callers can t.Skip cleanly.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("testconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("applink_test")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("testsupport: no integration config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("testsupport: decode config: %w", err)
	}
	return cfg, nil
}
