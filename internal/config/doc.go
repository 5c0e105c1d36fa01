// Package config loads and writes the commitgen configuration file.
//
// The file lives at $XDG_CONFIG_HOME/commitgen/config.json (or
// $HOME/.config/commitgen/config.json) and is created with defaults on first
// run by [Bootstrap]. [Load] merges, lowest to highest:
//  1. Built-in defaults
//  2. Config file
//  3. Environment variables (COMMITGEN_API_KEY, ANTHROPIC_API_KEY, COMMITGEN_MODEL)
//
// Writes go through a temp file and rename so the file is always valid JSON.
// [Configure] rewrites only api_key and keeps every other key in the file.
package config
