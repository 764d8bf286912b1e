// Package configs provides embedded configuration templates for sitesearch.
//
// Templates are embedded at build time so that every distribution of the
// binary can write them:
//   - cmd/sitesearch/cmd/config.go → `sitesearch config init` writes the user
//     config at ~/.config/sitesearch/config.yaml
//   - `sitesearch config init --project` writes .sitesearch.yaml
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/sitesearch/config.yaml)
//  3. Project config (.sitesearch.yaml)
//  4. Environment variables (SITESEARCH_*)
//
// Every value in the templates must parse with config.LoadFile.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Contains: fetch limits, locale and log level.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for site-level configuration.
// Contains: default language, base path markers and ranking settings.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
