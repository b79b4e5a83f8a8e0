package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/litmesh/litmesh/internal/search"
	"github.com/litmesh/litmesh/internal/source"
	"github.com/litmesh/litmesh/internal/ui"
)

func newSearchCmd() *cobra.Command {
	var (
		target     int
		category   string
		yearFrom   int
		yearTo     int
		fullText   bool
		openAccess bool
		autoYes    bool
		jsonOut    bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search academic literature with tiered quality escalation",
		Long: `Search fans the query out across all configured sources and the local
index, deduplicates and scores the results, and returns the best
articles. If the top quality tier cannot fill the target count, litmesh
asks before escalating to lower tiers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg, true)
			if err != nil {
				return err
			}
			defer p.close()

			filters := source.Filters{
				RequireFullText: fullText,
				YearFrom:        yearFrom,
				YearTo:          yearTo,
				OpenAccessOnly:  openAccess,
			}
			strategy, err := search.NewStrategy(p.expander, query, target, filters, category, cfg.Search.Strategy)
			if err != nil {
				return err
			}

			render := ui.NewRenderer(cmd.OutOrStdout())

			opts := []search.ControllerOption{
				search.WithApproval(approver(cmd, autoYes)),
			}
			if !jsonOut {
				opts = append(opts, search.WithProgressSink(func(pr search.Progress) {
					if verbose {
						render.Progress(pr)
					}
				}))
			}

			result, err := p.controller(opts...).Run(cmd.Context(), strategy)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			render.Result(result, verbose)
			return nil
		},
	}

	cmd.Flags().IntVarP(&target, "target", "n", 0, "Target article count (default from config)")
	cmd.Flags().StringVar(&category, "category", "", "Cache category (e.g. background, methods)")
	cmd.Flags().IntVar(&yearFrom, "year-from", 0, "Earliest publication year")
	cmd.Flags().IntVar(&yearTo, "year-to", 0, "Latest publication year")
	cmd.Flags().BoolVar(&fullText, "full-text", false, "Require full text or a PDF")
	cmd.Flags().BoolVar(&openAccess, "open-access", false, "Require open access")
	cmd.Flags().BoolVarP(&autoYes, "yes", "y", false, "Escalate to lower tiers without asking")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show score reasons and progress")
	return cmd
}

// approver prompts on the terminal before degrading quality; with --yes
// or a non-interactive stdin it continues automatically.
func approver(cmd *cobra.Command, autoYes bool) search.ApprovalFunc {
	return func(cp search.Checkpoint) bool {
		if autoYes {
			return true
		}
		if f, ok := cmd.InOrStdin().(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
			return true
		}

		fmt.Fprintf(cmd.OutOrStdout(),
			"%d of the requested articles found. Continue to %s quality? [Y/n] ",
			len(cp.Best), cp.NextTier)

		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return true
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "" || answer == "y" || answer == "yes"
	}
}
