package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/stones/cmd/kv"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "stones",
		Short: "dictionary-like access to persistent key-value stores",
		Long: fmt.Sprintf(`stones (v%s)

A dictionary-like facade over persistent, ordered key-value stores
(pebble, leveldb, bolt or in-memory) with pluggable value codecs.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of stones",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stones v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
