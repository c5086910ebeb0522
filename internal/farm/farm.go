// Package farm implements the growing side of a shop: a fixed field of
// index-addressed plots that seeds are planted into, advanced through
// growth stages as time passes, and harvested once ripe.
//
// A Field carries no lock; like the slot store it expects a single
// writer (the session serializes all game mutations).
package farm

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/0x00ASTRA/storage"
)

// Field errors.
var (
	ErrPlotOutOfRange = errors.New("plot index out of range")
	ErrPlotOccupied   = errors.New("plot already occupied")
	ErrPlotEmpty      = errors.New("plot is empty")
	ErrUnknownSeed    = errors.New("no crop grows from that seed")
	ErrNotRipe        = errors.New("crop is not ripe yet")
)

// StageSpan is one growth stage and how long it lasts. The final stage
// is the ripe stage; its duration is ignored (crops do not rot).
type StageSpan struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Yield is the harvest roll for a ripe crop: a uniform quantity in
// [Min, Max].
type Yield struct {
	Item storage.ItemID `json:"item"`
	Min  int            `json:"min"`
	Max  int            `json:"max"`
}

// Crop describes one plantable variety, keyed by its seed kind.
type Crop struct {
	Seed   storage.ItemID `json:"seed"`
	Name   string         `json:"name"`
	Stages []StageSpan    `json:"stages"`
	Yield  Yield          `json:"yield"`
}

// ripe reports whether a stage index is the crop's final stage.
func (c *Crop) ripe(stage int) bool {
	return stage >= len(c.Stages)-1
}

// Plot is one growing position. Crop is nil while the plot is empty.
type Plot struct {
	Crop    *Crop
	Stage   int       // index into Crop.Stages
	StageAt time.Time // when the current stage began
}

// PlotView is the client-facing snapshot of one plot.
type PlotView struct {
	Index int            `json:"index"`
	Empty bool           `json:"empty"`
	Seed  storage.ItemID `json:"seed,omitempty"`
	Crop  string         `json:"crop,omitempty"`
	Stage string         `json:"stage,omitempty"`
	Ripe  bool           `json:"ripe,omitempty"`
}

// Field is a fixed set of plots plus the crop table they grow from.
type Field struct {
	crops map[storage.ItemID]*Crop
	plots []Plot
	scale float64 // multiplier on stage durations
}

// NewField creates a field with plotCount empty plots. growthScale
// multiplies every stage duration (values below 1 grow faster); zero
// or negative means 1.
func NewField(plotCount int, crops []*Crop, growthScale float64) (*Field, error) {
	if plotCount < 0 {
		return nil, fmt.Errorf("plot count must be non-negative, got %d", plotCount)
	}
	if growthScale <= 0 {
		growthScale = 1
	}

	byseed := make(map[storage.ItemID]*Crop, len(crops))
	for _, c := range crops {
		if c.Seed == "" {
			return nil, fmt.Errorf("crop %q has no seed kind", c.Name)
		}
		if len(c.Stages) == 0 {
			return nil, fmt.Errorf("crop %q has no growth stages", c.Name)
		}
		if c.Yield.Item == "" || c.Yield.Min < 0 || c.Yield.Max < c.Yield.Min {
			return nil, fmt.Errorf("crop %q has invalid yield %+v", c.Name, c.Yield)
		}
		if _, dup := byseed[c.Seed]; dup {
			return nil, fmt.Errorf("duplicate crop for seed %s", c.Seed)
		}
		byseed[c.Seed] = c
	}

	return &Field{
		crops: byseed,
		plots: make([]Plot, plotCount),
		scale: growthScale,
	}, nil
}

// PlotCount returns the number of plots in the field.
func (f *Field) PlotCount() int {
	return len(f.plots)
}

// CropFor returns the crop variety grown from a seed kind.
func (f *Field) CropFor(seed storage.ItemID) (*Crop, bool) {
	c, ok := f.crops[seed]
	return c, ok
}

// Plant sows a seed into an empty plot. The caller has already paid
// the seed; Plant only claims the ground.
func (f *Field) Plant(plot int, seed storage.ItemID, now time.Time) error {
	if plot < 0 || plot >= len(f.plots) {
		return fmt.Errorf("%w: %d", ErrPlotOutOfRange, plot)
	}
	if f.plots[plot].Crop != nil {
		return fmt.Errorf("%w: plot %d", ErrPlotOccupied, plot)
	}
	crop, ok := f.crops[seed]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSeed, seed)
	}

	f.plots[plot] = Plot{Crop: crop, Stage: 0, StageAt: now}
	return nil
}

// Tick advances every plot to its stage at time now, crossing several
// stages at once if that much time has passed. It returns the indices
// of plots that became ripe during this call; each ripening is
// reported exactly once.
func (f *Field) Tick(now time.Time) []int {
	var ripened []int
	for i := range f.plots {
		if f.advance(&f.plots[i], now) {
			ripened = append(ripened, i)
		}
	}
	return ripened
}

// Harvest collects a ripe plot: it rolls the crop's yield, empties the
// plot and returns the item and quantity. The plot is brought up to
// date first, so a crop whose time has come is harvestable even if no
// tick has run since.
func (f *Field) Harvest(plot int, now time.Time) (storage.ItemID, int, error) {
	if plot < 0 || plot >= len(f.plots) {
		return "", 0, fmt.Errorf("%w: %d", ErrPlotOutOfRange, plot)
	}
	p := &f.plots[plot]
	if p.Crop == nil {
		return "", 0, fmt.Errorf("%w: plot %d", ErrPlotEmpty, plot)
	}

	f.advance(p, now)
	if !p.Crop.ripe(p.Stage) {
		stage := p.Crop.Stages[p.Stage].Name
		return "", 0, fmt.Errorf("%w: plot %d is still %s", ErrNotRipe, plot, stage)
	}

	y := p.Crop.Yield
	qty := y.Min
	if y.Max > y.Min {
		qty += rand.Intn(y.Max - y.Min + 1)
	}
	*p = Plot{}
	return y.Item, qty, nil
}

// Plots returns a client-facing snapshot of every plot.
func (f *Field) Plots() []PlotView {
	out := make([]PlotView, len(f.plots))
	for i := range f.plots {
		p := &f.plots[i]
		view := PlotView{Index: i, Empty: p.Crop == nil}
		if p.Crop != nil {
			view.Seed = p.Crop.Seed
			view.Crop = p.Crop.Name
			view.Stage = p.Crop.Stages[p.Stage].Name
			view.Ripe = p.Crop.ripe(p.Stage)
		}
		out[i] = view
	}
	return out
}

// advance moves one plot through any stages whose spans have elapsed
// by now. Returns true if the plot became ripe during this call.
func (f *Field) advance(p *Plot, now time.Time) bool {
	if p.Crop == nil || p.Crop.ripe(p.Stage) {
		return false
	}
	for !p.Crop.ripe(p.Stage) {
		span := f.scaled(p.Crop.Stages[p.Stage].Duration)
		if now.Sub(p.StageAt) < span {
			return false
		}
		p.StageAt = p.StageAt.Add(span)
		p.Stage++
	}
	return true
}

func (f *Field) scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * f.scale)
}
