/*
Package common contains the ambient pieces shared by the stones library and CLI.

# Logging

All packages obtain their logger through dragonboat's logger package:

	var log = logger.GetLogger("store")

InitLoggers installs CreateLogger as the logger factory. The created loggers write
through zerolog, either as human readable console lines or as JSON:

	2025-01-01T12:00:00Z | INFO  | opened store data/users.pebble component=store

# Configuration

StoreConfig collects the settings the CLI needs to open a store (data directory,
name, engine, codec) together with the logging settings. Its String method renders
a sectioned overview that is printed in debug mode.
*/
package common
