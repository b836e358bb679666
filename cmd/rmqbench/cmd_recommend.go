// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/AleutianAI/rmq"
	"github.com/spf13/cobra"
)

var (
	recommendSize    int
	recommendQueries int
	recommendUpdates bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend an engine for a workload",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if recommendSize <= 0 {
			return fmt.Errorf("--size must be positive, got %d", recommendSize)
		}

		kind := rmq.Recommend(recommendSize, recommendQueries, recommendUpdates)
		c := rmq.Description(kind)

		fmt.Printf("recommended: %s\n", kind)
		fmt.Printf("description: %s\n", c)
		fmt.Printf("updates:     %v\n", rmq.SupportsFeature(kind, "update"))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every engine with its complexity profile",
	RunE: func(_ *cobra.Command, _ []string) error {
		for _, kind := range rmq.Kinds() {
			engine, err := rmq.New(kind, rmq.Config{})
			if err != nil {
				return err
			}
			c := engine.Complexity()
			fmt.Printf("%-14s %s\n", kind, rmq.Description(kind))
			fmt.Printf("               preprocess %s time / %s space, query %s time, total %s space\n",
				c.PreprocessingTime, c.PreprocessingSpace, c.QueryTime, c.TotalSpace)
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().IntVar(&recommendSize, "size", 0, "array size")
	recommendCmd.Flags().IntVar(&recommendQueries, "queries", 0, "expected query count")
	recommendCmd.Flags().BoolVar(&recommendUpdates, "updates", false, "whether point updates are required")
	_ = recommendCmd.MarkFlagRequired("size")
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(listCmd)
}
