package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dd0wney/graphem/pkg/dataset"
)

func (c *CLI) datasetsCommand() *cobra.Command {
	var (
		dir    string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the registered SNAP datasets and whether they are present",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := dataset.NewRegistry(dir)
			infos := reg.List()
			if asJSON {
				return json.NewEncoder(c.out).Encode(infos)
			}

			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tNODES\tEDGES\tPRESENT\tSOURCE")
			for _, info := range infos {
				present := "no"
				if path, err := reg.Path(info.Name); err == nil {
					if _, err := os.Stat(path); err == nil {
						present = "yes"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					info.Name, humanize.Comma(int64(info.Nodes)), humanize.Comma(int64(info.Edges)), present, info.URL)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "data-dir", "data", "directory holding dataset files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
