package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/litmesh/litmesh/internal/ui"
)

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured sources and their state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// The local index is not opened here: listing sources must
			// work while another process holds the index lock.
			p, err := buildPipeline(cfg, false)
			if err != nil {
				return err
			}
			defer p.close()

			var rows [][2]string
			for _, entry := range p.registry.All() {
				state := "enabled"
				if !entry.Enabled {
					state = "disabled"
				}
				rows = append(rows, [2]string{
					entry.Adapter.Name(),
					fmt.Sprintf("%s · priority %d · breaker %s",
						state, entry.Priority, p.invoker.BreakerState(entry.Adapter.Name())),
				})
			}
			if cfg.Index.Dir != "" {
				rows = append(rows, [2]string{"local", "hybrid index at " + cfg.Index.Dir})
			}

			ui.NewRenderer(cmd.OutOrStdout()).Sources(rows)
			return nil
		},
	}
	return cmd
}
