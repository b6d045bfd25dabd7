package util

import (
	"strings"

	"github.com/ValentinKolb/stones/lib/codec"
	"github.com/ValentinKolb/stones/lib/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var lines []string
	var line strings.Builder

	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}

	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// SetupStoreFlags adds the flags needed to open a store to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "data-dir"
	cmd.PersistentFlags().String(key, ".", WrapString("Directory the store is located in"))

	key = "name"
	cmd.PersistentFlags().String(key, "stones", WrapString("Name of the store, the engine appends its file extension (e.g. stones.pebble)"))

	key = "engine"
	cmd.PersistentFlags().String(key, "pebble", WrapString("Storage engine to use (pebble, leveldb, bolt, memory)"))

	key = "codec"
	cmd.PersistentFlags().String(key, string(codec.Default), WrapString("Codec for values (raw, cbor, binary, json). With raw, values are stored as given, otherwise they are parsed as JSON"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error)"))

	key = "log-format"
	cmd.PersistentFlags().String(key, "console", WrapString("Log format (console, json)"))
}

// InitConfig loads .env files and prepares viper to read STONES_ environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("stones")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() *common.StoreConfig {
	return &common.StoreConfig{
		DataDir:   viper.GetString("data-dir"),
		Name:      viper.GetString("name"),
		Engine:    viper.GetString("engine"),
		Codec:     viper.GetString("codec"),
		LogLevel:  viper.GetString("log-level"),
		LogFormat: viper.GetString("log-format"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
