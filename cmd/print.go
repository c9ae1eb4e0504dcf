package cmd

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"tomgalvin.uk/thermalprint/internal/printer"
)

var printFlags struct {
	justify   string
	size      string
	bold      bool
	underline int
	inverse   bool
	codePage  int
	feed      uint8
}

var printCmd = &cobra.Command{
	Use:   "print [text...]",
	Short: "Print text from the arguments, or stdin if there are none",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, link, err := openPrinter()
		if err != nil {
			return err
		}
		defer link.Close()

		f := printFlags
		p.Justify(printer.ParseJustify(f.justify))
		if f.size != "" {
			p.SetSize(f.size[0])
		}
		if f.bold {
			p.BoldOn()
		}
		if f.underline > 0 {
			p.UnderlineOn(f.underline)
		}
		if f.inverse {
			p.InverseOn()
		}
		p.SetCodePage(f.codePage)

		if len(args) > 0 {
			p.Println(strings.Join(args, " "))
		} else {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				p.Println(scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return err
			}
		}

		if f.feed > 0 {
			p.Feed(f.feed)
		}
		p.SetDefault()
		return p.Err()
	},
}

func init() {
	flags := printCmd.Flags()
	flags.StringVar(&printFlags.justify, "justify", "left", "left, centre or right")
	flags.StringVar(&printFlags.size, "size", "", "S, M or L")
	flags.BoolVar(&printFlags.bold, "bold", false, "bold text")
	flags.IntVar(&printFlags.underline, "underline", 0, "underline weight, 0 to 2")
	flags.BoolVar(&printFlags.inverse, "inverse", false, "white on black")
	flags.IntVar(&printFlags.codePage, "codepage", 0, "character code table (ESC t)")
	flags.Uint8Var(&printFlags.feed, "feed", 2, "lines to feed afterwards")
	rootCmd.AddCommand(printCmd)
}
