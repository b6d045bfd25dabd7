package kv

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/stones/cmd/util"
	"github.com/ValentinKolb/stones/lib/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for a local store",
		Long:    "Runs benchmarks against the configured store. Benchmark keys use the prefix __perf and are removed afterwards.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

// perfCase is one benchmark. prepare runs before the timer starts, op runs once per iteration.
type perfCase struct {
	name    string
	prepare bool
	op      func(key string, counter int) error
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU used for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func perfCases() []perfCase {
	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)

	return []perfCase{
		{name: "set", op: func(key string, _ int) error {
			return kvStore.Set(key, "test")
		}},
		{name: "set-large", op: func(key string, _ int) error {
			return kvStore.Set(key, largeValue)
		}},
		{name: "put", prepare: true, op: func(key string, _ int) error {
			return kvStore.Put(key, "test", false)
		}},
		{name: "get", prepare: true, op: func(key string, _ int) error {
			_, err := kvStore.Get(key)
			return err
		}},
		{name: "has", prepare: true, op: func(key string, _ int) error {
			_, err := kvStore.Has(key)
			return err
		}},
		{name: "has-not", op: func(key string, _ int) error {
			_, err := kvStore.Has(key)
			return err
		}},
		{name: "delete", prepare: true, op: func(key string, _ int) error {
			return kvStore.Delete(key)
		}},
		{name: "mixed", prepare: true, op: func(key string, counter int) error {
			var err error
			switch counter % 4 {
			case 0:
				err = kvStore.Set(key, "test")
			case 1:
				_, err = kvStore.GetOr(key, "")
			case 2:
				err = kvStore.Delete(key)
			case 3:
				_, err = kvStore.Has(key)
			}
			return err
		}},
	}
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for stones")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetStoreConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)
	for _, pc := range perfCases() {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(pc.name) {
				return
			}

			keys := getKeys(pc.name)
			if pc.prepare {
				for _, k := range keys {
					if err := kvStore.Set(k, "test"); err != nil {
						log.Errorf("(%s) - error setting key: %v", pc.name, err)
					}
				}
			}
			b.Cleanup(func() {
				for _, k := range keys {
					if err := kvStore.Delete(k); err != nil {
						log.Errorf("(%s) - error deleting key: %v", pc.name, err)
					}
				}
			})

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					if err := pc.op(keys[counter%len(keys)], counter); err != nil {
						log.Errorf("(%s) - error: %v", pc.name, err)
					}
					counter++
				}
			})
		})

		results[pc.name] = result
		printResult(pc.name, result)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetStoreConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// getKeys creates the benchmark keys for a test
func getKeys(test string) []string {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, test, i)
	}
	return keys
}

// opsPerSec converts a benchmark result, skipped benchmarks report zero
func opsPerSec(result testing.BenchmarkResult) (nsPerOp, perSec float64, skipped bool) {
	if result.NsPerOp() == 0 {
		return 0, 0, true
	}
	nsPerOp = math.Max(float64(result.NsPerOp()), 1)
	return nsPerOp, 1.0 / (nsPerOp / 1e9), false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	nsPerOp, perSec, skipped := opsPerSec(result)
	if skipped {
		fmt.Printf("%-20sskipped\n", test)
		return
	}
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), perSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.StoreConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Engine", "Codec", "Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for test, result := range results {
		nsPerOp, perSec, skipped := opsPerSec(result)
		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", perSec),
			strconv.FormatBool(skipped),
			config.Engine,
			config.Codec,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
