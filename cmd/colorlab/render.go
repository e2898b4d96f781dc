package main

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/colorlab/internal/render"
)

var (
	renderFlags canvasFlags
	renderOut   string
	renderScale string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the mixed canvas to a PNG file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := renderFlags.engine(cmd)
		if err != nil {
			return err
		}
		scaler, ok := render.Scalers[renderScale]
		if !ok {
			return fmt.Errorf("unknown scaler %q", renderScale)
		}
		eng.Scaler = scaler
		frame := eng.Frame()

		cw := &countingWriter{w: cmd.OutOrStdout()}
		if renderOut == "-" {
			if err := render.EncodePNG(cw, frame.Physical); err != nil {
				return err
			}
		} else if err := writePNGFile(renderOut, cw, frame.Physical); err != nil {
			return err
		}
		log.Info().
			Str("out", renderOut).
			Int("logical", frame.Logical.Rect.Dx()).
			Int("physical", frame.Physical.Rect.Dx()).
			Str("compositor", eng.Compositor()).
			Str("size", humanize.Bytes(uint64(cw.n))).
			Float64("render_ms", eng.Last.TotalMS).
			Msg("rendered")
		return nil
	},
}

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "colorlab.png", "output file, - for stdout")
	renderCmd.Flags().StringVar(&renderScale, "scaler", "nearest", "device pixel ratio scaler (nearest, bilinear)")
}

// writePNGFile encodes img into path through cw, whose target it replaces. The
// file's flush and close errors are returned.
func writePNGFile(path string, cw *countingWriter, img *image.NRGBA) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	bw := bufio.NewWriter(f)
	cw.w = bw
	if err := render.EncodePNG(cw, img); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
