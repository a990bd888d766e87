package cmd

import (
	"github.com/spf13/cobra"
)

var openList listFlags

var openCmd = &cobra.Command{
	Use:   "open [route]",
	Short: "Open a page by its route",
	Long: `Open any page of the forum by route, for example:

  codestack open /
  codestack open /post-details/<id>
  codestack open -i /dashboard/my-posts
  codestack open /dashboard/manage-users --search alice

Protected pages send you to /login or /forbidden when the session or
role does not allow them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		list, err := openList.options()
		if err != nil {
			return err
		}
		return open(cmd, path, list)
	},
}

func init() {
	openList.register(openCmd, true, true)
}
