package cmd

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	var root = &cobra.Command{Use: "trendscout"}
	root.AddCommand(serveCMD(), migrateCMD(), scoutCMD(), trendsCMD())
	return root.Execute()
}
