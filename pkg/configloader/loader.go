package configloader

import (
	"bytes"
	"strings"

	"github.com/hyp3rd/ewrap"
	"github.com/spf13/viper"

	"github.com/hyp3rd/transitlog"
)

const defaultEnvPrefix = "TRANSITLOG"

// FromEnv loads configuration sourced from environment variables using the provided prefix.
// Environment keys are normalized by uppercasing and replacing dots with underscores.
func FromEnv(prefix string) (*transitlog.Config, error) {
	viperInstance := viper.New()

	err := bindEnvironment(viperInstance, normalizePrefix(prefix))
	if err != nil {
		return nil, err
	}

	return fromViper(viperInstance)
}

// FromYAML loads configuration from a YAML document provided as bytes.
func FromYAML(data []byte) (*transitlog.Config, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to read YAML configuration")
	}

	return fromViper(viperInstance)
}

// FromFile loads configuration from a YAML file and merges environment overrides using the default prefix.
func FromFile(path string) (*transitlog.Config, error) {
	viperInstance := viper.New()

	err := bindEnvironment(viperInstance, defaultEnvPrefix)
	if err != nil {
		return nil, err
	}

	viperInstance.SetConfigFile(path)

	err = viperInstance.ReadInConfig()
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to read configuration file").
			WithMetadata("path", path)
	}

	return fromViper(viperInstance)
}

func fromViper(viperInstance *viper.Viper) (*transitlog.Config, error) {
	settings, err := newSettings()
	if err != nil {
		return nil, err
	}

	// Viper only unmarshals keys it considers set; materialize bound
	// environment values so they survive the decode below.
	for _, key := range allKeys() {
		if !viperInstance.IsSet(key) {
			continue
		}

		viperInstance.Set(key, viperInstance.Get(key))
	}

	err = viperInstance.Unmarshal(&settings)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to decode configuration")
	}

	err = settings.validate()
	if err != nil {
		return nil, err
	}

	return settings.Build()
}

func bindEnvironment(viperInstance *viper.Viper, prefix string) error {
	replacer := strings.NewReplacer(".", "_")
	viperInstance.SetEnvKeyReplacer(replacer)

	if prefix != "" {
		viperInstance.SetEnvPrefix(prefix)
	}

	viperInstance.AutomaticEnv()

	errorGroup := ewrap.NewErrorGroup()

	for _, key := range allKeys() {
		err := viperInstance.BindEnv(key)
		if err != nil {
			errorGroup.Add(ewrap.Wrap(err, "failed to bind environment key").
				WithMetadata("key", key).
				WithMetadata("prefix", prefix))
		}
	}

	if errorGroup.HasErrors() {
		return errorGroup
	}

	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultEnvPrefix
	}

	prefix = strings.TrimSuffix(prefix, "_")
	prefix = strings.ReplaceAll(prefix, "-", "_")

	return strings.ToUpper(prefix)
}
