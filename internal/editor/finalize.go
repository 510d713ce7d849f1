package editor

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/bryanchriswhite/ShotMark/internal/postcapture"
)

// Fallback resolution used when the screen size cannot be queried
const (
	FallbackWidth  = 1920
	FallbackHeight = 1080
)

// ResolutionSource reports the size of the screen being edited
type ResolutionSource interface {
	GetScreenResolution() (int, int, error)
}

// Finalizer turns an edited stack into the output image and hands it to the
// post-capture actions
type Finalizer struct {
	Screen   ResolutionSource
	Fallback image.Point
	Registry *postcapture.Registry
	// Actions are action ids, run in this order
	Actions []string
	Env     postcapture.Env
}

// fullScreen returns the screen rectangle, or the fallback when the size
// cannot be queried
func (f *Finalizer) fullScreen() model.Rectangle {
	log := logger.WithComponent("finalize")

	fallback := f.Fallback
	if fallback.X <= 0 || fallback.Y <= 0 {
		fallback = image.Pt(FallbackWidth, FallbackHeight)
	}

	if f.Screen == nil {
		log.Warn().Int("width", fallback.X).Int("height", fallback.Y).Msg("No screen to query, using fallback resolution")
		return model.Rectangle{W: float64(fallback.X), H: float64(fallback.Y)}
	}

	w, h, err := f.Screen.GetScreenResolution()
	if err != nil {
		log.Error().Err(err).
			Int("width", fallback.X).
			Int("height", fallback.Y).
			Msg("Unable to retrieve screen resolution, using fallback")
		return model.Rectangle{W: float64(fallback.X), H: float64(fallback.Y)}
	}
	return model.Rectangle{W: float64(w), H: float64(h)}
}

// Region is the rectangle Finalize extracts: the crop region, or the full screen
func (f *Finalizer) Region(stack *OperationStack) model.Rectangle {
	if region, ok := stack.CropRegion(); ok {
		return region
	}
	return f.fullScreen()
}

// Finalize renders the committed operations over base, extracts the crop
// region (or the full screen) and runs the configured actions on it. The
// stack stays busy until the actions return, so an action cannot mutate it.
func (f *Finalizer) Finalize(stack *OperationStack, base *image.RGBA) (*image.RGBA, error) {
	if !stack.enter("Finalize") {
		return nil, ErrBusy
	}
	defer stack.leave()
	return f.finalize(stack, base)
}

// finalize expects the caller to hold the stack
func (f *Finalizer) finalize(stack *OperationStack, base *image.RGBA) (*image.RGBA, error) {
	log := logger.WithComponent("finalize")

	rendered, err := stack.renderImage(base, false)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	region := f.Region(stack)
	out, err := extract(rendered, region)
	if err != nil {
		return nil, err
	}

	log.Info().
		Stringer("region", region).
		Int("operations", len(stack.Operations())).
		Strs("actions", f.Actions).
		Msg("Finalizing screenshot")

	if f.Registry != nil {
		f.Registry.Run(f.Actions, f.Env, out)
	}
	return out, nil
}

// extract copies region, clipped to img, into a new image
func extract(img *image.RGBA, region model.Rectangle) (*image.RGBA, error) {
	r := region.Image().Intersect(img.Bounds())
	if r.Empty() {
		return nil, errors.New("crop region " + region.String() + " is outside the image")
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out, nil
}
