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
	"time"

	"github.com/spf13/cobra"

	"faultfs/internal/daemon"
	"faultfs/internal/util"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := daemon.GetPID()
		if err != nil || !util.IsProcessRunning(pid) {
			fmt.Println("Daemon is not running")
			return nil
		}

		if err := util.StopProcess(pid, 10*time.Second, daemon.IsRunning); err != nil {
			return err
		}
		fmt.Println("Daemon stopped")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := daemon.GetPID()
		if err != nil || !util.IsProcessRunning(pid) {
			fmt.Println("Daemon is not running")
			return nil
		}
		fmt.Printf("Daemon is running (PID %d)\n", pid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}
