package kv

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ValentinKolb/stones/cmd/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key, replacing any existing value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvStore.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [key] [value]",
		Short: "Sets the value for a key only if the key has no value yet (unless --overwrite is given)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			if err := kvStore.Put(args[0], args[1], overwrite); err != nil {
				return err
			}
			fmt.Println("put successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			var value string
			var err error
			if cmd.Flags().Changed("default") {
				def, _ := cmd.Flags().GetString("default")
				value, err = kvStore.GetOr(key, def)
			} else {
				value, err = kvStore.Get(key)
			}
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvStore.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key has a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := kvStore.Has(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", args[0], found)
			return nil
		},
	}
	lenCmd = &cobra.Command{
		Use:   "len",
		Short: "Prints the number of keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := kvStore.Len()
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := kvStore.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
	itemsCmd = &cobra.Command{
		Use:   "items",
		Short: "Lists all key value pairs in key order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := kvStore.Items()
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Printf("%s=%s\n", item.Key, item.Value)
			}
			return nil
		},
	}
	loadCmd = &cobra.Command{
		Use:   "load [file]",
		Short: "Writes all entries of a JSON object file in one batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var entries map[string]json.RawMessage
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("%s must contain a JSON object: %w", args[0], err)
			}
			if err := kvStore.Load(entries); err != nil {
				return err
			}
			fmt.Printf("loaded %d entries\n", len(entries))
			return nil
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Removes all entries of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvStore.Clear(); err != nil {
				return err
			}
			fmt.Println("clear successfully")
			return nil
		},
	}
	destroyCmd = &cobra.Command{
		Use:   "destroy",
		Short: "Irrecoverably deletes the store (requires --yes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, _ := cmd.Flags().GetBool("yes")
			if err := kvStore.Destroy(confirmed); err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("not destroyed, pass --yes to confirm")
				return nil
			}
			fmt.Println("destroy successfully")
			return nil
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints store information and metrics in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvStore.Info()
			if err != nil {
				return err
			}
			n, err := kvStore.Len()
			if err != nil {
				return err
			}
			metrics.GetOrCreateGauge(fmt.Sprintf(`stones_store_keys{path=%q,engine=%q}`, info.Path, info.DbType), func() float64 {
				return float64(n)
			})
			metrics.WritePrometheus(os.Stdout, false)
			return nil
		},
	}
)

func init() {
	putCmd.Flags().Bool("overwrite", false, util.WrapString("Replace an existing value"))
	getCmd.Flags().String("default", "", util.WrapString("Value to print if the key has no value, instead of failing"))
	destroyCmd.Flags().Bool("yes", false, util.WrapString("Confirm that the store should be deleted"))
}
