package config

import (
	"bytes"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Setup reads the YAML config file into s and prepares the zap logger that
// the rest of the program uses as its global writer. The logger is returned
// even on error so the caller can still report the failure through it.
func Setup(configFile string, s interface{}) (*zap.Logger, error) {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), // pipe to multiple writer
		zapcore.DebugLevel,
	)

	log := zap.New(core)

	fileContent, err := os.ReadFile(configFile)
	if err != nil {
		return log, fmt.Errorf("error read file config %s: %w", configFile, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(fileContent))
	err = dec.Decode(s) // not pointer because when calling setup must be pointer
	return log, err
}

// Persist writes the config back to disk, used by the config update endpoint.
func Persist(configFile string, c *Config) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	err = os.WriteFile(configFile, out, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file %s: %w", configFile, err)
	}

	return nil
}
