// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config carries defaults for flags that are tedious to repeat.
type Config struct {
	Key      string `yaml:"key"`      // Path of the server private key
	Password string `yaml:"password"` // Private key password
	Suite    string `yaml:"suite"`    // Default cipher suite id, e.g. 0x002F
}

// loadConfig reads a YAML config file. An empty path yields an empty config.
func loadConfig(path string) (*Config, error) {
	config_obj := &Config{}
	if path == "" {
		return config_obj, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, config_obj); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	return config_obj, nil
}

// loadConfigOrDie loads the config named by the global flag.
func loadConfigOrDie() *Config {
	config_obj, err := loadConfig(*config_path)
	if err != nil {
		logger.WithError(err).Fatal("Unable to load config")
	}
	return config_obj
}

// pick returns the flag value if set and the config value otherwise.
func pick(flag, config string) string {
	if flag != "" {
		return flag
	}
	return config
}

// parseHex decodes a hex flag, tolerating spaces and colons.
func parseHex(name, value string) ([]byte, error) {
	value = strings.NewReplacer(" ", "", ":", "").Replace(value)
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex in --%s", name)
	}
	return data, nil
}

// parseSuite decodes a cipher suite id in decimal or 0x prefixed hex.
func parseSuite(value string) (uint16, error) {
	if value == "" {
		return 0, errors.New("no cipher suite given")
	}
	id, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid cipher suite %q", value)
	}
	return uint16(id), nil
}
