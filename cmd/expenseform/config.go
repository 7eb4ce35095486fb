package main

import (
	"os"

	"github.com/bytedance/sonic"

	"github.com/tbxark/expenseform/attachment"
)

type Config struct {
	ServerURL string `json:"server_url"`
	// Forms is a YAML file with form schemas. The built-in forms are used when empty.
	Forms    string `json:"forms"`
	FormType string `json:"form_type"`

	MaxFileSizeMB  int64 `json:"max_file_size_mb"`
	MaxTotalSizeMB int64 `json:"max_total_size_mb"`
	TimeoutSeconds int   `json:"timeout_seconds"`

	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`

	Debug bool `json:"debug"`
}

func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := Config{
		ServerURL:      "http://localhost:3000",
		TimeoutSeconds: 60,
	}
	if err := sonic.Unmarshal(file, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) attachmentPolicy() attachment.Policy {
	p := attachment.DefaultPolicy()
	if c.MaxFileSizeMB > 0 {
		p.MaxFileSize = c.MaxFileSizeMB * attachment.MiB
	}
	if c.MaxTotalSizeMB > 0 {
		p.MaxTotalSize = c.MaxTotalSizeMB * attachment.MiB
	}
	return p
}
