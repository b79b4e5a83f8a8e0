package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/litmesh/litmesh/internal/article"
	"github.com/litmesh/litmesh/internal/errors"
	"github.com/litmesh/litmesh/internal/ui"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <articles.json>...",
		Short: "Ingest articles into the local hybrid index",
		Long: `Index reads article records from JSON files (a single article or an
array) and adds them to the local index, where later searches find them
alongside the external databases.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := buildPipeline(cfg, true)
			if err != nil {
				return err
			}
			defer p.close()

			render := ui.NewRenderer(cmd.OutOrStdout())

			total := 0
			for _, path := range args {
				articles, err := readArticles(path)
				if err != nil {
					return err
				}
				n, err := p.local.Ingest(cmd.Context(), articles)
				if err != nil {
					return err
				}
				total += n
			}
			if err := p.local.Save(); err != nil {
				return err
			}

			render.Successf("indexed %d articles (%d total in index)", total, p.local.Count())
			return nil
		},
	}
	return cmd
}

// readArticles parses one JSON file holding an article or an array.
func readArticles(path string) ([]article.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err)
	}

	var many []article.Article
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one article.Article
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "file is not an article or article array", err).
			WithDetail("path", path)
	}
	return []article.Article{one}, nil
}
