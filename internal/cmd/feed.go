package cmd

import (
	"github.com/spf13/cobra"
)

var (
	feedList    listFlags
	allPostList listFlags
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "View the home feed",
	Long:  "Announcements, tags, the latest posts five per page, popular posts and recent comments",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := feedList.options()
		if err != nil {
			return err
		}
		return open(cmd, "/", list)
	},
}

var feedAllCmd = &cobra.Command{
	Use:   "all",
	Short: "View all posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := allPostList.options()
		if err != nil {
			return err
		}
		return open(cmd, "/posts", list)
	},
}

func init() {
	feedList.register(feedCmd, true, false)
	allPostList.register(feedAllCmd, false, false)
	feedCmd.AddCommand(feedAllCmd)
}
