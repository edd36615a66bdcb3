package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-guardian"
	"github.com/anatolykoptev/go-guardian/internal/audit"
)

var (
	policyPath string
	auditDB    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "guardian",
		Short: "Child content-safety gating: evaluate media items against an age tier",
	}

	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "policy JSON file (default: built-in policy)")
	rootCmd.PersistentFlags().StringVar(&auditDB, "audit-db", "", "SQLite database recording blocked attempts")

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(filterCmd())
	rootCmd.AddCommand(tiersCmd())
	rootCmd.AddCommand(policyCmd())
	rootCmd.AddCommand(blockedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadEngine() (*guardian.Engine, error) {
	policy := guardian.DefaultPolicy()
	if policyPath != "" {
		f, err := os.Open(policyPath)
		if err != nil {
			return nil, fmt.Errorf("open policy: %w", err)
		}
		defer f.Close()
		policy, err = guardian.LoadPolicy(f)
		if err != nil {
			return nil, err
		}
	}
	return guardian.NewEngine(guardian.Config{Policy: policy})
}

// readJSON decodes a JSON file, with "-" meaning stdin.
func readJSON(path string, dest any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dest); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func recordIfBlocked(item guardian.ContentItem, v guardian.Verdict) error {
	if v.Allowed || auditDB == "" {
		return nil
	}
	store, err := audit.Open(auditDB)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.RecordBlock(item, v)
	return err
}

func evaluateCmd() *cobra.Command {
	var tierName string

	cmd := &cobra.Command{
		Use:   "evaluate [file]",
		Short: "Evaluate one content item (JSON) against an age tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := guardian.ParseAgeTier(tierName)
			if err != nil {
				return err
			}
			var item guardian.ContentItem
			if err := readJSON(args[0], &item); err != nil {
				return err
			}
			engine, err := loadEngine()
			if err != nil {
				return err
			}

			verdict := engine.Evaluate(item, tier)
			if err := recordIfBlocked(item, verdict); err != nil {
				return err
			}
			return printJSON(verdict)
		},
	}

	cmd.Flags().StringVar(&tierName, "tier", "UNDER_13", "target age tier (e.g. ALL, UNDER_8)")
	return cmd
}

func filterCmd() *cobra.Command {
	var tierName string
	var rank bool

	cmd := &cobra.Command{
		Use:   "filter [file]",
		Short: "Filter a JSON array of content items, keeping only allowed ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := guardian.ParseAgeTier(tierName)
			if err != nil {
				return err
			}
			var items []guardian.ContentItem
			if err := readJSON(args[0], &items); err != nil {
				return err
			}
			engine, err := loadEngine()
			if err != nil {
				return err
			}

			if rank {
				return printJSON(engine.FilterAndRank(items, tier))
			}
			return printJSON(engine.Filter(items, tier))
		},
	}

	cmd.Flags().StringVar(&tierName, "tier", "UNDER_13", "target age tier (e.g. ALL, UNDER_8)")
	cmd.Flags().BoolVar(&rank, "rank", false, "sort allowed items by score descending, with verdicts")
	return cmd
}

func tiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Print the fine age tiers and their coarse-tier mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("tier map version: %s\n", guardian.TierMapVersion)
			for _, t := range guardian.AllTiers {
				fmt.Printf("%-10s strictness=%d coarse=%s\n", t, t.Strictness(), guardian.ToCoarseTier(t))
			}
			return nil
		},
	}
}

func policyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective policy as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine()
			if err != nil {
				return err
			}
			return printJSON(engine.Policy())
		},
	}
}

func blockedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "List recently recorded blocked attempts from the audit database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if auditDB == "" {
				return fmt.Errorf("--audit-db is required")
			}
			store, err := audit.Open(auditDB)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(limit)
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to list")
	return cmd
}
