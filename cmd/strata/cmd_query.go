// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/teradata-labs/strata/pkg/engine"
)

var (
	queryNoCache bool
	queryForce   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Resolve a natural-language question into rows",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		result, err := eng.Resolve(cmd.Context(), strings.Join(args, " "), engine.ResolveOptions{
			BypassCache:    queryNoCache,
			ForceNewSchema: queryForce,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <question>",
	Short: "Show the intent and SQL for a question without executing it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		explanation, err := eng.Explain(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(explanation)
	},
}

func init() {
	queryCmd.Flags().BoolVar(&queryNoCache, "no-cache", false, "bypass the exact and semantic caches")
	queryCmd.Flags().BoolVar(&queryForce, "force", false, "regenerate even on a cache hit (caches still updated)")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(explainCmd)
}
