// Package profile loads and holds the declarative broadcaster rule
// profiles.
//
// Thresholds live in embedded TOML data so new markets are added as
// configuration rather than evaluator branches. The registry validates
// internal consistency at load time and is immutable afterwards.
package profile
