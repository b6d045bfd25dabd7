package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StoreConfig holds everything needed to open a store from the command line
type StoreConfig struct {
	// DataDir is the directory the store lives in
	DataDir string
	// Name of the store, the engine appends its extension
	Name string
	// Engine and Codec implementation names
	Engine string
	Codec  string

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// StoreName returns the name of the store including its data directory
func (c *StoreConfig) StoreName() string {
	if c.DataDir == "" {
		return c.Name
	}
	return filepath.Join(c.DataDir, c.Name)
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Store")
	addField("Data Directory", c.DataDir)
	addField("Name", c.Name)
	addField("Engine", c.Engine)
	addField("Codec", c.Codec)

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Log Format", c.LogFormat)

	return sb.String()
}
