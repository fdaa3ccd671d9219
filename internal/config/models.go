// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for model management and resolution.
var (
	ErrNoActiveModel = errors.New("no model selected: add one with 'cliff config add' and set it as default")
	ErrModelNotFound = errors.New("model not found")
	ErrModelExists   = errors.New("model already exists")
)

// Source records which rule selected a model.
type Source string

const (
	SourceOverride Source = "override"
	SourceCurrent  Source = "current"
	SourceDefault  Source = "default"
)

// ResolvedModel is the model definition chosen for one invocation.
type ResolvedModel struct {
	ModelConfig
	Source Source
}

// ModelNames returns the defined model names in sorted order.
func (c *Config) ModelNames() []string {
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model returns the named definition.
func (c *Config) Model(name string) (ModelConfig, error) {
	m, ok := c.Models[name]
	if !ok {
		return ModelConfig{}, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	m.Name = name
	return m, nil
}

// Resolve picks the model for this invocation: override (falling back to
// CLIFF_MODEL), then the current model, then the default model.
func (c *Config) Resolve(override string) (ResolvedModel, error) {
	if override == "" {
		override = c.ModelOverride
	}

	var (
		name   string
		source Source
	)
	switch {
	case override != "":
		name, source = override, SourceOverride
	case c.CurrentModel != "":
		name, source = c.CurrentModel, SourceCurrent
	case c.DefaultModel != "":
		name, source = c.DefaultModel, SourceDefault
	default:
		return ResolvedModel{}, ErrNoActiveModel
	}

	m, err := c.Model(name)
	if err != nil {
		return ResolvedModel{}, fmt.Errorf("%s model: %w", source, err)
	}
	if err := m.Validate(); err != nil {
		return ResolvedModel{}, fmt.Errorf("model %q: %w", name, err)
	}
	return ResolvedModel{ModelConfig: m, Source: source}, nil
}

// AddModel stores a definition under m.Name. An existing definition is only
// replaced when replace is true. The first model added becomes the default.
func (c *Config) AddModel(m ModelConfig, replace bool) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := m.Validate(); err != nil {
		return err
	}
	if c.Models == nil {
		c.Models = make(map[string]ModelConfig)
	}
	if _, exists := c.Models[m.Name]; exists && !replace {
		return fmt.Errorf("%w: %q", ErrModelExists, m.Name)
	}
	c.Models[m.Name] = m
	if c.DefaultModel == "" {
		c.DefaultModel = m.Name
	}
	return nil
}

// DeleteModel removes a definition and clears default/current references
// to it.
func (c *Config) DeleteModel(name string) error {
	if _, ok := c.Models[name]; !ok {
		return fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	delete(c.Models, name)
	if c.DefaultModel == name {
		c.DefaultModel = ""
	}
	if c.CurrentModel == name {
		c.CurrentModel = ""
	}
	return nil
}

// SetDefault makes name the default model.
func (c *Config) SetDefault(name string) error {
	if _, ok := c.Models[name]; !ok {
		return fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	c.DefaultModel = name
	return nil
}

// SetCurrent selects name until ClearCurrent is called.
func (c *Config) SetCurrent(name string) error {
	if _, ok := c.Models[name]; !ok {
		return fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	c.CurrentModel = name
	return nil
}

// ClearCurrent drops the persisted selection so the default applies again.
func (c *Config) ClearCurrent() {
	c.CurrentModel = ""
}
