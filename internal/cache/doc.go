// Package cache stores generated commit messages keyed by the staged diff.
//
// The key is the hex SHA-256 of the diff text ([Key]). The [File] store keeps
// one plain-text file per key under $CONFIG_DIR/cache and decides freshness
// from the file modification time: an entry at least [DefaultTTL] old is a
// miss but is not removed. [Memory] implements the same [Store] interface
// with an injectable clock.
package cache
