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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"faultfs/internal/daemon"
	"faultfs/internal/util"
)

var (
	serveConfig     string
	serveForeground bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the export directory over NFS",
	Long: `Starts the fault-injecting NFS server using the configuration file.
By default the server is started as a background daemon; use --foreground
to keep it attached to the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := serveConfig
		if configPath == "" {
			configPath = daemon.DefaultConfigPath()
		}

		// Validate up front so a bad config fails in the caller's terminal,
		// not silently in the detached process.
		cfg, err := daemon.Load(configPath)
		if err != nil {
			return err
		}
		if _, err := cfg.BuildTable(); err != nil {
			return err
		}

		if serveForeground {
			d := daemon.New(configPath)
			d.Foreground = true
			return d.Run()
		}

		if daemon.IsRunning() {
			return fmt.Errorf("daemon is already running (PID file: %s)", daemon.PidPath())
		}

		err = util.StartBackgroundIfNeeded(context.Background(), util.DefaultPollConfig(),
			daemon.IsRunning, []string{"serve", "--foreground", "--config", configPath})
		if err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}

		pid, _ := daemon.GetPID()
		fmt.Printf("Daemon started (PID %d), exporting %s\n", pid, cfg.Export)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "config file (default: $FAULTFS_CONFIG_DIR/config.yaml)")
	serveCmd.Flags().BoolVar(&serveForeground, "foreground", false, "run in the foreground, logging to stderr")
	rootCmd.AddCommand(serveCmd)
}
