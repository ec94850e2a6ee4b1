// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"encoding/json"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Render renders c as a config file. Keys follow the schema names.
func (c Config) Render() ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, oops.Code("CONFIG_RENDER_FAILED").Wrap(err)
	}
	return out, nil
}
