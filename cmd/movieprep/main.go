// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command movieprep prepares the movie success feature tables: it cleans the
// raw IMDb and TMDb dumps, builds the encoded feature table, scores the
// scripts and optionally publishes the run to Google Cloud.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	flags := rootCmd.PersistentFlags()
	flags.String(flagConfigDir, "", "configuration directory (default: $"+envConfigDir+" or the working directory)")
	flags.String(flagRuntime, "", "configuration runtime, selects .env.<runtime>.toml (default: $"+envRuntime+" or local)")
	flags.Bool(flagProgress, false, "show a progress bar while scoring scripts (terminals only)")
	runCmd.Flags().Bool(flagNoPublish, false, "skip publication even when [sink] is enabled")

	rootCmd.AddCommand(&runCmd, &tablesCmd, &scriptsCmd, &tokenizeCmd)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = cobra.Command{
	Use:           "movieprep",
	Short:         "Prepare movie success features from IMDb, TMDb and script data",
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var runCmd = cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: datasets, feature table, script features, publication",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		noPublish, err := cmd.Flags().GetBool(flagNoPublish)
		if err != nil {
			return err
		}
		return runPipeline(cmd, stages{tables: true, scripts: true, publish: !noPublish})
	},
}

var tablesCmd = cobra.Command{
	Use:   "tables",
	Short: "Clean the datasets and build the feature table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd, stages{tables: true})
	},
}

var scriptsCmd = cobra.Command{
	Use:   "scripts",
	Short: "Build the script feature table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipeline(cmd, stages{scripts: true})
	},
}

var tokenizeCmd = cobra.Command{
	Use:   "tokenize FILE",
	Short: "Print the fixed-length token sequence of one document",
	Args:  cobra.ExactArgs(1),
	RunE:  tokenizeE,
}
