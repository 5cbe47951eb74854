package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/srliao/combatcore/internal/telemetry"
	"github.com/srliao/combatcore/pkg/sim"
)

func main() {
	debugPtr := flag.String("d", "debug", "output level: debug, info, warn")
	secondsPtr := flag.Float64("s", 0, "how many seconds to run the sim for; 0 keeps the profile duration")
	pPtr := flag.String("p", "config.yaml", "which profile to use")
	f := flag.String("o", "out.log", "detailed log file")
	showCaller := flag.Bool("c", false, "show caller in debug low")
	metrics := flag.String("m", "", "write prometheus metrics to this file when done")
	flag.Parse()

	cfg, err := sim.LoadProfile(*pPtr)
	if err != nil {
		log.Fatal(err)
	}

	cfg.LogConfig.LogLevel = *debugPtr
	cfg.LogConfig.LogFile = *f
	cfg.LogConfig.LogShowCaller = *showCaller
	if *secondsPtr > 0 {
		cfg.Duration = *secondsPtr
	}
	os.Remove(*f)

	s, err := sim.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	rec := telemetry.NewRecorder()
	for _, c := range s.Fighters() {
		rec.Watch(c)
	}

	start := time.Now()
	dmg, stats := s.Run()
	elapsed := time.Since(start)
	rec.Close()

	var names []string
	for k := range stats.DamageByAttacker {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		v := stats.DamageByAttacker[name]
		fmt.Printf("%v dealt %.2f damage (%.2f%%), %.2f dps\n", name, v, 100*v/dmg, v/stats.Duration)
	}
	for k, v := range stats.ReactionsTriggered {
		fmt.Printf("\t%v triggered %v times\n", k, v)
	}
	if len(stats.Deaths) > 0 {
		fmt.Printf("Died: %v; standing: %v\n", stats.Deaths, stats.Survivors)
	}
	fmt.Printf("Running profile %v, total damage dealt: %.2f over %.2f seconds. DPS = %.2f. Sim took %s\n", *pPtr, dmg, stats.Duration, stats.DPS(), elapsed)

	if *metrics != "" {
		if err := rec.WriteTo(*metrics); err != nil {
			log.Fatal(err)
		}
	}
}
