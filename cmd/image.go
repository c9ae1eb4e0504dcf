package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tomgalvin.uk/thermalprint/internal/host"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/render"
)

var imageFlags struct {
	gamma float64
	feed  uint8
}

var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Print a PNG, JPEG or GIF image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		img, err := render.Decode(f)
		f.Close()
		if err != nil {
			return err
		}

		p, link, err := openPrinter()
		if err != nil {
			return err
		}
		defer link.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		h := host.New(p, cfg.Printer.Tick, logger.With("src", "host"))
		go h.Run(ctx)

		err = h.Submit(ctx, func(p *printer.Printer) error {
			if err := p.SetHeight(render.FitHeight(img, p.Width())); err != nil {
				return err
			}
			render.Image(p.Canvas(), img, imageFlags.gamma)
			p.EmitRaster()
			return nil
		})
		if err != nil {
			return fmt.Errorf("Couldn't print image:\n%w", err)
		}

		// runs once the raster has been sent
		return h.Submit(ctx, func(p *printer.Printer) error {
			p.Feed(imageFlags.feed)
			return nil
		})
	},
}

func init() {
	imageCmd.Flags().Float64Var(&imageFlags.gamma, "gamma", render.DefaultGamma, "gamma correction applied before thresholding")
	imageCmd.Flags().Uint8Var(&imageFlags.feed, "feed", 3, "lines to feed afterwards")
	rootCmd.AddCommand(imageCmd)
}
