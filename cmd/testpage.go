package cmd

import (
	"github.com/spf13/cobra"
)

var testPageCmd = &cobra.Command{
	Use:   "testpage",
	Short: "Print the printer's built in test page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, link, err := openPrinter()
		if err != nil {
			return err
		}
		defer link.Close()

		p.TestPage()
		// hold the link open until the page is done
		p.Feed(1)
		return p.Err()
	},
}

func init() {
	rootCmd.AddCommand(testPageCmd)
}
