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
	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Inspect and manage cached query schemas",
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cached query schemas",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		entries, err := eng.ListSchemas(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var schemasGetCmd = &cobra.Command{
	Use:   "get <fingerprint>",
	Short: "Show one cached query schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()

		entry, err := eng.GetSchema(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(entry)
	},
}

var schemasDeleteCmd = &cobra.Command{
	Use:   "delete <fingerprint>",
	Short: "Delete a cached query schema (fails when pinned)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()
		return eng.DeleteSchema(cmd.Context(), args[0])
	},
}

var schemasPinCmd = &cobra.Command{
	Use:   "pin <fingerprint>",
	Short: "Protect a cached query schema from eviction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()
		return eng.PinSchema(cmd.Context(), args[0])
	},
}

var schemasUnpinCmd = &cobra.Command{
	Use:   "unpin <fingerprint>",
	Short: "Lift the eviction protection from a cached query schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()
		return eng.UnpinSchema(cmd.Context(), args[0])
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics and estimated cost savings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer eng.Close()
		return printJSON(eng.CacheStats(cmd.Context()))
	},
}

func init() {
	schemasCmd.AddCommand(schemasListCmd, schemasGetCmd, schemasDeleteCmd, schemasPinCmd, schemasUnpinCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(statsCmd)
}
