// Package config loads the application configuration shared by the office binaries.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	GeminiAPIKey  string `json:"gemini_api_key"`
	StateBackend  string `json:"state_backend"`
	StateEndpoint string `json:"state_endpoint"`
}

// Load reads the configuration from path and fills empty fields from the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("Config file not found at %s, checking environment variables", path)
	case err != nil:
		return nil, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&config.GeminiAPIKey, "GEMINI_API_KEY")
	applyEnv(&config.StateBackend, "STATE_BACKEND")
	applyEnv(&config.StateEndpoint, "STATE_ENDPOINT")
	return config, nil
}

func applyEnv(field *string, name string) {
	if *field != "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		log.Printf("Loaded %s from environment variable", name)
		*field = v
	}
}

// DefaultPath returns config.json next to the running executable
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		log.Printf("Warning: Could not determine executable path: %v", err)
		return "config.json"
	}
	return filepath.Join(filepath.Dir(execPath), "config.json")
}

// SaveDefault creates an empty config file at path if none exists
func SaveDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(&Config{}); err != nil {
		return err
	}

	log.Printf("Created default config file at %s", path)
	log.Printf("Add your Gemini API key to the 'gemini_api_key' field or set GEMINI_API_KEY")
	return nil
}
