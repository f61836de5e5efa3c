// Package file keeps settings and prompt templates on disk.
//
// ConfigStore reads and writes config.toml with go-toml. PromptStore
// serves the chat prompt templates, writing the built-in defaults on
// first use so that users can edit them.
package file
