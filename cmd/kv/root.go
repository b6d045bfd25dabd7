package kv

import (
	"github.com/ValentinKolb/stones/cmd/util"
	"github.com/ValentinKolb/stones/lib/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	log = logger.GetLogger("cli")

	kvStore util.TextStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform operations on a local store",
		PersistentPreRunE: setupStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)
	cobra.OnFinalize(closeStore)

	// Add store flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(lenCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(itemsCmd)
	KeyValueCommands.AddCommand(loadCmd)
	KeyValueCommands.AddCommand(clearCmd)
	KeyValueCommands.AddCommand(destroyCmd)
	KeyValueCommands.AddCommand(statsCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupStore initializes logging and opens the configured store
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetStoreConfig()
	if err := common.InitLoggers(*config); err != nil {
		return err
	}
	log.Debugf("configuration:%s", config.String())

	var err error
	kvStore, err = util.OpenStore(config)
	return err
}

// closeStore closes the store if a command left it open
func closeStore() {
	if kvStore == nil {
		return
	}
	if err := kvStore.Close(); err != nil {
		log.Debugf("close store: %v", err)
	}
	kvStore = nil
}
