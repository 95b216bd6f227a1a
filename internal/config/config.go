package config

import (
	"errors"
	"os"
	"strings"
)

// Source is one owner's set of deck/collection URLs. Older config files used
// a single "url" key; both shapes are accepted and folded by AllURLs.
type Source struct {
	Owner string   `mapstructure:"owner" json:"owner"`
	URL   string   `mapstructure:"url" json:"url,omitempty"`
	URLs  []string `mapstructure:"urls" json:"urls,omitempty"`
}

// AllURLs returns the legacy single URL (if any) followed by the urls list.
func (s Source) AllURLs() []string {
	var urls []string
	if s.URL != "" {
		urls = append(urls, s.URL)
	}
	urls = append(urls, s.URLs...)
	return urls
}

type Config struct {
	Sources []Source `mapstructure:"sources" json:"sources"`
	// PhoneSecretNames maps an owner name to the environment variable
	// holding that owner's phone number. Never store the numbers themselves
	// in the config file.
	PhoneSecretNames map[string]string `mapstructure:"phoneSecretNames" json:"phoneSecretNames"`
}

// PhoneFor resolves an owner's phone number from the environment. An owner
// without a mapping, or with an unset variable, gets an empty string.
// Matching is case-insensitive because viper lowercases config map keys.
func (c *Config) PhoneFor(owner string) string {
	if name, ok := c.PhoneSecretNames[owner]; ok {
		return os.Getenv(name)
	}
	for name, envVar := range c.PhoneSecretNames {
		if strings.EqualFold(name, owner) {
			return os.Getenv(envVar)
		}
	}
	return ""
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("config has no sources")
	}
	for _, s := range c.Sources {
		if s.Owner == "" {
			return errors.New("config source is missing an owner name")
		}
	}
	return nil
}
