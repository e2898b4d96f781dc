package main

import (
	"github.com/spf13/cobra"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/render"
)

// canvasFlags describe a still render shared by render and sample.
type canvasFlags struct {
	size       int
	dpr        float64
	brightness [3]float64
	saturation [3]float64
	compositor string
}

func (f *canvasFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.size, "size", 300, "logical canvas side in px")
	fl.Float64Var(&f.dpr, "dpr", 1, "device pixel ratio")
	for _, ch := range colorstate.Channels {
		fl.Float64Var(&f.brightness[ch], ch.String(), colorstate.DefaultBrightness, ch.String()+" brightness 0..100")
		fl.Float64Var(&f.saturation[ch], ch.String()+"-sat", colorstate.DefaultSaturation, ch.String()+" saturation 0..100")
	}
	fl.StringVar(&f.compositor, "compositor", "", "compositing rule (max, sum); empty uses the config")
}

func (f *canvasFlags) engine(cmd *cobra.Command) (*render.Engine, error) {
	cfg := loadConfig()
	satOn := cfg.Canvas.Saturation
	for _, ch := range colorstate.Channels {
		if cmd.Flags().Changed(ch.String() + "-sat") {
			satOn = true
		}
	}
	controls := colorstate.NewControls(satOn)
	for _, ch := range colorstate.Channels {
		controls.Update(ch, colorstate.Update{Brightness: &f.brightness[ch], Saturation: &f.saturation[ch]})
	}
	comp := f.compositor
	if comp == "" {
		comp = cfg.Canvas.Compositor
	}
	bounds := layout.Bounds{Min: cfg.Canvas.MinSize, Max: cfg.Canvas.MaxSize}
	g := bounds.Measure(layout.Measurement{Container: float64(f.size), DPR: f.dpr})
	eng, err := render.NewEngine(g, nil, comp)
	if err != nil {
		return nil, err
	}
	eng.SetControls(controls.Snapshot())
	return eng, nil
}
