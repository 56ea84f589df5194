// simulate runs bodies through scripted or random damage without a server.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/rodaine/table"
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/console"
	"github.com/zond/anatomy/lang"
	"github.com/zond/anatomy/species"
)

func main() {
	speciesName := flag.String("species", console.DefaultSpecies, "Species to simulate.")
	speciesFile := flag.String("species_file", "", "JSON file with additional species.")
	script := flag.String("script", "", "Console script to run instead of the random hit report.")
	hits := flag.Int("hits", 10000, "Number of untargeted hits in the random hit report.")
	amount := flag.Float64("amount", 5, "Damage per hit.")
	seed := flag.Uint64("seed", 0, "Random seed, 0 picks one.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Without -script, reports where untargeted hits land compared to configured coverage.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *seed == 0 {
		*seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(*seed, *seed))
	fmt.Fprintf(os.Stderr, "Random seed %d\n", *seed)

	registry := species.NewRegistry(species.Builtin()...)
	if *speciesFile != "" {
		if err := loadSpecies(registry, *speciesFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	var err error
	if *script != "" {
		err = runScript(registry, *speciesName, *script, rng)
	} else {
		err = report(registry, *speciesName, *hits, *amount, rng)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadSpecies(registry *species.Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	configs, err := species.Load(f)
	if err != nil {
		return err
	}
	for _, c := range configs {
		if err := registry.Set(c); err != nil {
			return err
		}
	}
	return nil
}

func runScript(registry *species.Registry, name, path string, rng *rand.Rand) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	s, err := console.New(context.Background(), console.Output(os.Stdout), registry,
		console.WithSpecies(name),
		console.WithRand(rng))
	if err != nil {
		return err
	}
	return s.Script(f)
}

func report(registry *species.Registry, name string, hits int, amount float64, rng *rand.Rand) error {
	if hits <= 0 {
		return fmt.Errorf("need a positive number of hits, not %d", hits)
	}
	cfg, err := registry.Get(name)
	if err != nil {
		return err
	}
	b, err := cfg.NewBody(body.WithRand(rng))
	if err != nil {
		return err
	}
	landed := map[string]int{}
	destroyed := map[string]bool{}
	for range hits {
		info := body.NewDamage(amount, body.Physical)
		info.Blunt = true
		result, err := b.Damage(info)
		if err != nil {
			return err
		}
		first := result.Hits[0].Part
		for first.Parent() != nil && first.Parent() != b.Root() {
			first = first.Parent()
		}
		landed[first.Name()]++
		for _, p := range result.Destroyed() {
			destroyed[p.Name()] = true
		}
		// Keep the body fresh so destroyed parts don't skew later hits.
		for _, p := range b.Parts() {
			b.Heal(body.HealingInfo{Amount: p.MaxHealth(), TargetPart: p.Name()})
		}
	}

	fmt.Printf("%s of %.1f damage on %s:\n\n", lang.Capitalize(lang.Card(hits, "hit")), amount, lang.Indef(cfg.Name))
	t := table.New("Region", "Coverage", "Landed", "Share")
	for _, region := range append([]*body.Part{b.Root()}, b.Root().Children()...) {
		coverage := region.EffectiveCoverage() * 100
		if region == b.Root() {
			coverage = 0
			for _, child := range region.Children() {
				coverage += child.Coverage()
			}
			coverage = max(0, 100-coverage)
		}
		t.AddRow(region.Name(), fmt.Sprintf("%.1f%%", coverage), landed[region.Name()], fmt.Sprintf("%.1f%%", float64(landed[region.Name()])*100/float64(hits)))
	}
	t.Print()
	fmt.Printf("\n%s destroyed at least once.\n", lang.Capitalize(lang.Card(len(destroyed), "part")))
	return nil
}
