//Package monte runs one profile many times with different seeds and reports
//the spread of the results.
package monte

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/sim"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Simulator struct {
	Log *zap.SugaredLogger
	//Out receives the progress dots; defaults to stdout
	Out io.Writer
	p   sim.Profile
}

func New(p sim.Profile) (*Simulator, error) {
	log, err := combat.NewLogger(p.LogConfig)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		Log: log,
		Out: os.Stdout,
		p:   p,
	}
	//fail on a bad profile before any worker starts
	if _, err := sim.NewWithLogger(p, zap.NewNop().Sugar()); err != nil {
		return nil, err
	}
	return s, nil
}

type SimResult struct {
	Hist     []float64
	BinStart int64
	Min      float64
	Max      float64
	Mean     float64
	SD       float64
	//Deaths counts, per combatant, the runs in which it died
	Deaths map[string]int
	//Decided counts runs that ended before the profile duration
	Decided int
}

type outcome struct {
	dps   float64
	stats sim.Stats
}

//SimDmgDist runs n sims on w workers and bins their dps in buckets of size b
func (s *Simulator) SimDmgDist(ctx context.Context, n, b, w int64) (SimResult, error) {
	if n <= 0 || b <= 0 || w <= 0 {
		return SimResult{}, errors.New("iterations, bin size and workers must be positive")
	}
	r := SimResult{Deaths: make(map[string]int)}

	s.Log.Debugw("starting dmg sim", "n", n, "b", b, "w", w)

	var progress, sum, ss float64
	var data []float64
	r.Min = math.MaxFloat64
	r.Max = -1

	base := s.p.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}

	resp := make(chan outcome, n)
	errc := make(chan error, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(w))

	//feed jobs whenever a worker frees up
	go func() {
		for i := int64(0); i < n && gctx.Err() == nil; i++ {
			seed := base + i
			g.Go(func() error {
				o, err := s.run(seed)
				if err != nil {
					return err
				}
				resp <- o
				return nil
			})
		}
		errc <- g.Wait()
		close(resp)
	}()

	fmt.Fprint(s.Out, "\tProgress: 0")

	var count int64
	for o := range resp {
		count++
		val := o.dps
		data = append(data, val)
		sum += val
		if val < r.Min {
			r.Min = val
		}
		if val > r.Max {
			r.Max = val
		}
		for _, v := range o.stats.Deaths {
			r.Deaths[v]++
		}
		if o.stats.Duration < s.p.Duration-1e-9 {
			r.Decided++
		}

		if float64(count)/float64(n) > progress+0.01 {
			progress = float64(count) / float64(n)
			fmt.Fprintf(s.Out, ".%.0f", 100*progress)
		}
	}
	err := <-errc
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		fmt.Fprint(s.Out, "...failed\n")
		return SimResult{}, err
	}
	fmt.Fprint(s.Out, "...100%\n")

	r.Mean = sum / float64(count)
	//summing identical runs can round past the extremes
	r.Mean = math.Max(r.Min, math.Min(r.Max, r.Mean))
	r.BinStart = int64(r.Min/float64(b)) * b
	binMax := (int64(r.Max/float64(b)) + 1.0) * b
	numBin := ((binMax - r.BinStart) / b) + 1

	r.Hist = make([]float64, numBin)

	for _, v := range data {
		ss += (v - r.Mean) * (v - r.Mean)
		steps := int64((v - float64(r.BinStart)) / float64(b))
		r.Hist[steps]++
	}

	r.SD = math.Sqrt(ss / float64(count))

	return r, nil
}

func (s *Simulator) run(seed int64) (outcome, error) {
	prof := s.p
	prof.Seed = seed
	prof.LogConfig = combat.LogConfig{LogLevel: "error"}

	e, err := sim.New(prof)
	if err != nil {
		return outcome{}, fmt.Errorf("seed %v: %w", seed, err)
	}
	_, stats := e.Run()
	return outcome{dps: stats.DPS(), stats: stats}, nil
}
