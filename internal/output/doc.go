// Package output renders generated commit messages and command data.
//
// Messages are written as plain text (the message only, suitable for piping
// into git commit -F -) or as a JSON object. [Encode] renders arbitrary
// values such as the config or cache stats as JSON or YAML.
package output
