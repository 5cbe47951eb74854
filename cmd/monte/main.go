package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/srliao/combatcore/pkg/monte"
	"github.com/srliao/combatcore/pkg/sim"
)

func main() {
	t := flag.Int64("t", 1000, "how many iterations")
	prf := flag.String("p", "config.yaml", "which profile to use")
	worker := flag.Int64("w", 24, "number of workers")
	bin := flag.Int64("b", 10, "bin size")
	out := flag.String("o", "out.html", "output file")
	flag.Parse()

	cfg, err := sim.LoadProfile(*prf)
	if err != nil {
		log.Fatal(err)
	}
	cfg.LogConfig.LogLevel = "error"
	cfg.LogConfig.LogFile = ""

	start := time.Now()
	s, err := monte.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	r, err := s.SimDmgDist(context.Background(), *t, *bin, *worker)
	if err != nil {
		log.Fatal(err)
	}
	elapsed := time.Since(start)
	fmt.Printf("Profile %v done in %s\n", *prf, elapsed)
	for name, n := range r.Deaths {
		fmt.Printf("\t%v died in %.2f%% of runs\n", name, 100*float64(n)/float64(*t))
	}

	page := components.NewPage()
	page.PageTitle = "simulation results"

	var bins []int64
	var items []opts.LineData
	var cumul, med float64
	med = -1
	binSize := *bin

	for i, v := range r.Hist {
		bins = append(bins, r.BinStart+binSize*int64(i))
		items = append(items, opts.LineData{Value: v})
		cumul += v / float64(*t)
		if cumul >= 0.5 && med == -1 {
			med = float64(i)
		}
	}

	med = float64(r.BinStart) + med*float64(binSize)
	label := fmt.Sprintf("min: %.2f, max %.2f, mean: %.2f, med: %.2f, sd: %.2f", r.Min, r.Max, r.Mean, med, r.SD)

	lineChart := charts.NewLine()
	lineChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%v (n = %v)", *prf, *t),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Freq",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "DPS",
		}),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "5%", Right: "0%", Orient: "vertical", Data: []string{label}}),
	)
	lineChart.AddSeries(label, items)
	lineChart.SetXAxis(bins)

	page.AddCharts(
		lineChart,
	)

	graph, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer graph.Close()
	if err := page.Render(io.MultiWriter(graph)); err != nil {
		log.Fatal(err)
	}
}
