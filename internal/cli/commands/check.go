// Copyright 2026 FaultFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"faultfs/internal/daemon"
	"faultfs/internal/errno"
)

var checkConfig string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print the fault table",
	Long: `Loads the configuration file, compiles the inject directives and prints
the resulting operation-to-errno bindings. Bindings committed before a bad
directive token are listed even when validation fails, mirroring how the
directives would have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := checkConfig
		if configPath == "" {
			configPath = daemon.DefaultConfigPath()
		}

		cfg, err := daemon.Load(configPath)
		if err != nil {
			return err
		}

		table, buildErr := cfg.BuildTable()

		fmt.Printf("config:  %s\n", configPath)
		fmt.Printf("export:  %s\n", cfg.Export)
		fmt.Printf("listen:  %s\n", cfg.Listen)
		fmt.Printf("engine:  %v\n", cfg.FaultEngine)
		fmt.Printf("faults:  %d\n", table.Count())
		for _, b := range table.Bindings() {
			name, err := errno.Name(b.Code)
			if err != nil {
				name = "?"
			}
			fmt.Printf("  %-10s -> %s (%d)\n", b.Op, name, int(b.Code))
		}

		if buildErr != nil {
			return buildErr
		}
		fmt.Println("configuration OK")
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkConfig, "config", "", "config file (default: $FAULTFS_CONFIG_DIR/config.yaml)")
	rootCmd.AddCommand(checkCmd)
}
