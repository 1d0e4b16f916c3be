package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/joho/godotenv"
)

// Keys returns the environment variable names the config file may set,
// derived from the Config struct tags.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("env"); tag != "" {
			keys = append(keys, tag)
		}
	}
	sort.Strings(keys)
	return keys
}

func validKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// ReadFile returns the persisted key/value pairs from the config file. A
// missing file is an empty config, not an error.
func ReadFile() (map[string]string, error) {
	values, err := godotenv.Read(File())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return values, nil
}

// Set persists one key into the config file, creating it if needed.
func Set(key, value string) error {
	if !validKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	values, err := ReadFile()
	if err != nil {
		return err
	}
	values[key] = value

	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := godotenv.Write(values, File()); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Get returns the persisted value for key, or empty when unset.
func Get(key string) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	values, err := ReadFile()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

// Unset removes a key from the config file.
func Unset(key string) error {
	values, err := ReadFile()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return godotenv.Write(values, File())
}
