/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config reads and writes the notesync configuration file
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/orchestrator"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Retry configures how queued note changes are retried
type Retry struct {
	MaxAttempts int           `yaml:"maxAttempts,omitempty"`
	BaseDelay   time.Duration `yaml:"baseDelay,omitempty"`
	MaxDelay    time.Duration `yaml:"maxDelay,omitempty"`
	Interval    time.Duration `yaml:"interval,omitempty"`
}

// Config holds notesync configuration
type Config struct {
	Editor         string        `yaml:"editor"`
	APIEndpoint    string        `yaml:"apiEndpoint"`
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`
	ProbeInterval  time.Duration `yaml:"probeInterval,omitempty"`
	ReplayPolicy   string        `yaml:"replayPolicy,omitempty"`
	Retry          Retry         `yaml:"retry,omitempty"`
}

const (
	// DefaultRequestTimeout bounds a single request to the server
	DefaultRequestTimeout = 10 * time.Second
	// DefaultProbeInterval is how often the server is probed while watching
	DefaultProbeInterval = 30 * time.Second
)

// GetPath returns the path to the notesync config file
func GetPath(ctx context.NotesyncCtx) string {
	return filepath.Join(ctx.Paths.Config, consts.NotesyncDirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.NotesyncCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	if err := ret.Validate(); err != nil {
		return ret, errors.Wrapf(err, "invalid config at %s", configPath)
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.NotesyncCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}

// Validate checks the values that cannot be defaulted
func (c Config) Validate() error {
	switch orchestrator.ReplayPolicy(c.ReplayPolicy) {
	case "", orchestrator.ReplayRetain, orchestrator.ReplayDiscard:
	default:
		return errors.Errorf("unknown replayPolicy '%s'", c.ReplayPolicy)
	}

	if c.RequestTimeout < 0 || c.ProbeInterval < 0 {
		return errors.New("durations must not be negative")
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.New("retry.maxAttempts must not be negative")
	}

	return nil
}

// GetRequestTimeout returns the request timeout, or the default if unset
func (c Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeout == 0 {
		return DefaultRequestTimeout
	}

	return c.RequestTimeout
}

// GetProbeInterval returns the probe interval, or the default if unset
func (c Config) GetProbeInterval() time.Duration {
	if c.ProbeInterval == 0 {
		return DefaultProbeInterval
	}

	return c.ProbeInterval
}

// RetryPolicy returns the retry policy of the engine. Zero values fall back
// to the engine defaults.
func (c Config) RetryPolicy() orchestrator.RetryPolicy {
	return orchestrator.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
		Interval:    c.Retry.Interval,
	}
}
