package commands

import (
	"github.com/spf13/cobra"

	"github.com/marshallshelly/pebble-record/cmd/record/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse users and their posts interactively",
	Long: `Opens an interactive list of users with their posts eager loaded.

Keys:
  enter  show the selected user's posts
  d      delete the selected user after confirmation
  /      filter by name or email
  r      reload
  q      quit`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		return tui.RunBrowseUI(cmd.Context(), db)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
