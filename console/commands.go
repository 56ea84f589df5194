package console

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	goccy "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rodaine/table"
	"github.com/zond/anatomy"
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/capacity"
	"github.com/zond/anatomy/condition"
	"github.com/zond/anatomy/effects"
	"github.com/zond/anatomy/lang"
	"github.com/zond/anatomy/species"
	"github.com/zond/anatomy/storage"
)

var defaultRule condition.Rule = condition.DefaultRule

type command struct {
	names map[string]bool
	usage string
	help  string
	f     func(s *Session, args []string) error
}

type commands []command

func (c commands) attempt(s *Session, parts []string) (bool, error) {
	for _, cmd := range c {
		if cmd.names[parts[0]] {
			if err := cmd.f(s, parts[1:]); errors.Is(err, errUsage) {
				fmt.Fprintf(s.term, "usage: %s\n", cmd.usage)
				return true, nil
			} else if err != nil {
				return true, err
			}
			return true, nil
		}
	}
	return false, nil
}

func m(s ...string) map[string]bool {
	res := map[string]bool{}
	for _, p := range s {
		res[p] = true
	}
	return res
}

var errUsage = errors.New("usage")

// flags parses args with fs and returns the positional arguments, or errUsage
// unless there are between minArgs and maxArgs of them. A negative maxArgs means unlimited.
func (s *Session) flags(fs *flag.FlagSet, args []string, minArgs, maxArgs int) ([]string, error) {
	fs.SetOutput(s.term)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	rest := fs.Args()
	if len(rest) < minArgs || (maxArgs >= 0 && len(rest) > maxArgs) {
		return nil, errUsage
	}
	return rest, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a number", s)
	}
	return f, nil
}

func (s *Session) requirePart(name string) (*body.Part, error) {
	if p := s.body.Part(name); p != nil {
		return p, nil
	}
	return nil, errors.Wrapf(body.ErrUnknownPart, "%q", name)
}

func describe(p *body.Part) string {
	return lang.Split(p.Name())
}

func conditionsOf(p *body.Part) string {
	descs := []string{}
	for _, c := range p.Conditions() {
		descs = append(descs, fmt.Sprintf("%s %v", lang.Severity(c.Severity()), c.Kind()))
	}
	return lang.Enumerator{}.Do(descs...)
}

func (s *Session) allCommands() commands {
	return []command{
		{
			names: m("status", "st"),
			usage: "status [-all]",
			help:  "show the health of every part",
			f:     (*Session).status,
		},
		{
			names: m("capacities", "caps"),
			usage: "capacities",
			help:  "show body capacities and derived abilities",
			f:     (*Session).capacities,
		},
		{
			names: m("damage", "hit"),
			usage: "damage [-part NAME] [-kind physical|thermal|cold|poison|electric] [-accuracy A] [-sharp] [-blunt] [-pierce] [-penetrating] AMOUNT",
			help:  "damage the body",
			f:     (*Session).damage,
		},
		{
			names: m("heal"),
			usage: "heal [-part NAME] [-kind natural|medical|magical] [-quality Q] AMOUNT",
			help:  "heal the body",
			f:     (*Session).heal,
		},
		{
			names: m("treat"),
			usage: "treat [-quality Q] PART bandage|splint|antibiotics|warmth",
			help:  "treat the conditions of a part",
			f:     (*Session).treat,
		},
		{
			names: m("wait"),
			usage: "wait [-temp F] [-warmth W] [-activity A] DURATION",
			help:  "let time pass, e.g. \"wait -temp 20 6h\"",
			f:     (*Session).wait,
		},
		{
			names: m("effect", "effects"),
			usage: "effect [add [-part NAME] [-for DURATION] NAME CAPACITY MODIFIER | rm NAME]",
			help:  "list, add or remove capacity effects",
			f:     (*Session).effect,
		},
		{
			names: m("species"),
			usage: "species [NAME]",
			help:  "list species, or start over with a fresh body of one",
			f:     (*Session).switchSpecies,
		},
		{
			names: m("save"),
			usage: "save [ID]",
			help:  "store the body",
			f:     (*Session).save,
		},
		{
			names: m("load"),
			usage: "load [ID]",
			help:  "list stored bodies, or restore one",
			f:     (*Session).load,
		},
		{
			names: m("dump"),
			usage: "dump [-species]",
			help:  "print the body state, or the species definition, as JSON",
			f:     (*Session).dump,
		},
		{
			names: m("help", "?"),
			usage: "help",
			help:  "show this help",
			f:     (*Session).help,
		},
		{
			names: m("quit", "exit"),
			usage: "quit",
			help:  "end the session",
			f: func(*Session, []string) error {
				return ErrQuit
			},
		},
	}
}

func (s *Session) help(args []string) error {
	t := table.New("Command", "Description").WithWriter(s.term)
	for _, cmd := range s.commands {
		t.AddRow(cmd.usage, cmd.help)
	}
	t.Print()
	return nil
}

func (s *Session) status(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	all := fs.Bool("all", false, "include undamaged parts")
	if _, err := s.flags(fs, args, 0, 0); err != nil {
		return err
	}
	t := table.New("Part", "Health", "State", "Conditions").WithWriter(s.term)
	destroyed := []string{}
	for _, p := range s.body.Parts() {
		state := "ok"
		switch {
		case p.IsDestroyed():
			state = "destroyed"
			destroyed = append(destroyed, describe(p))
		case p.IsDamaged():
			state = "damaged"
		}
		if !*all && state == "ok" && len(p.Conditions()) == 0 {
			continue
		}
		t.AddRow(p.Name(), fmt.Sprintf("%.1f/%.1f", p.Health(), p.MaxHealth()), state, conditionsOf(p))
	}
	t.Print()
	b := s.body
	fmt.Fprintf(s.term, "%s: %.1f kg (%.0f%% fat, %.0f%% muscle), core %.1f°F, burning %.0f kcal/day.\n",
		lang.Capitalize(s.species), b.Weight(), b.FatPct()*100, b.MusclePct()*100, b.CoreTemperature(), b.TargetMetabolismRate())
	if len(destroyed) > 0 {
		fmt.Fprintf(s.term, "%s.\n", lang.Capitalize(lang.Enumerator{Pattern: "the %s", Tense: lang.Present}.Do(destroyed...)+" destroyed"))
	}
	switch {
	case b.IsDead():
		fmt.Fprintln(s.term, "The body is dead.")
	case b.Hypothermic():
		fmt.Fprintln(s.term, "The body is hypothermic and shivering.")
	case b.Overheated():
		fmt.Fprintln(s.term, "The body is overheating.")
	}
	return nil
}

func (s *Session) capacities(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	t := table.New("Capacity", "Value", "Combined by").WithWriter(s.term)
	values := s.body.Capacities()
	for _, k := range capacity.All() {
		t.AddRow(k, fmt.Sprintf("%.3f", values.Get(k)), k.Rule())
	}
	t.Print()
	a := s.body.Abilities()
	t = table.New("Ability", "Value").WithWriter(s.term)
	t.AddRow("Strength", fmt.Sprintf("%.3f", a.Strength))
	t.AddRow("Speed", fmt.Sprintf("%.3f", a.Speed))
	t.AddRow("Vitality", fmt.Sprintf("%.3f", a.Vitality))
	t.AddRow("Perception", fmt.Sprintf("%.3f", a.Perception))
	t.AddRow("Cold resistance", fmt.Sprintf("%.3f", a.ColdResistance))
	t.Print()
	return nil
}

func (s *Session) damage(args []string) error {
	fs := flag.NewFlagSet("damage", flag.ContinueOnError)
	part := fs.String("part", "", "aim at this part")
	kind := fs.String("kind", body.Physical.String(), "damage kind")
	accuracy := fs.Float64("accuracy", body.DefaultAccuracy, "chance to hit the aimed part")
	sharp := fs.Bool("sharp", false, "cutting damage")
	blunt := fs.Bool("blunt", false, "crushing damage")
	pierce := fs.Bool("pierce", false, "piercing damage")
	penetrating := fs.Bool("penetrating", false, "ignore the tissue protecting internal parts")
	rest, err := s.flags(fs, args, 1, 1)
	if err != nil {
		return err
	}
	amount, err := parseFloat(rest[0])
	if err != nil {
		return err
	}
	info := body.NewDamage(amount, body.Physical)
	if info.Kind, err = body.ParseDamageKind(*kind); err != nil {
		return err
	}
	info.TargetPart = *part
	info.Accuracy = *accuracy
	info.Sharp, info.Blunt, info.Pierce, info.Penetrating = *sharp, *blunt, *pierce, *penetrating
	info.Source = "console"
	wasDead := s.body.IsDead()
	result, err := s.body.Damage(info)
	if err != nil {
		return err
	}
	s.narrateDamage(result)
	if !wasDead && s.body.IsDead() {
		fmt.Fprintln(s.term, "The body dies.")
	}
	return nil
}

func (s *Session) narrateDamage(result *body.DamageResult) {
	if len(result.Hits) == 0 {
		fmt.Fprintln(s.term, "Nothing happens.")
		return
	}
	var failed *body.Part
	for _, hit := range result.Hits {
		verb := "takes"
		if hit.Cascade {
			verb = "suffers"
		}
		fmt.Fprintf(s.term, "The %s %s %.1f damage", describe(hit.Part), verb, hit.Amount)
		if hit.Cascade && failed != nil {
			fmt.Fprintf(s.term, " from the %s failure", lang.Possessive(describe(failed)))
		}
		if hit.Inflicted != nil {
			fmt.Fprintf(s.term, ", leaving %s", lang.Indef(fmt.Sprintf("%s %v", lang.Severity(hit.Inflicted.Severity()), hit.Inflicted.Kind())))
		}
		if hit.Destroyed {
			fmt.Fprint(s.term, ", and is destroyed")
			failed = hit.Part
		}
		fmt.Fprintln(s.term, ".")
	}
	if len(result.Hits) > 1 {
		fmt.Fprintf(s.term, "%.1f damage in total.\n", result.Total())
	}
}

func (s *Session) heal(args []string) error {
	fs := flag.NewFlagSet("heal", flag.ContinueOnError)
	part := fs.String("part", "", "heal this part")
	kind := fs.String("kind", body.Medical.String(), "healing kind")
	quality := fs.Float64("quality", 1, "effectiveness multiplier")
	rest, err := s.flags(fs, args, 1, 1)
	if err != nil {
		return err
	}
	amount, err := parseFloat(rest[0])
	if err != nil {
		return err
	}
	info := body.HealingInfo{
		Amount:     amount,
		TargetPart: *part,
		Quality:    *quality,
		Source:     "console",
	}
	if info.Kind, err = body.ParseHealingKind(*kind); err != nil {
		return err
	}
	healed, err := s.body.Heal(info)
	if err != nil {
		return err
	}
	if healed == nil {
		fmt.Fprintf(s.term, "There is no %s to heal.\n", lang.Split(*part))
		return nil
	}
	fmt.Fprintf(s.term, "The %s heals to %.1f/%.1f.\n", describe(healed), healed.Health(), healed.MaxHealth())
	return nil
}

func (s *Session) treat(args []string) error {
	fs := flag.NewFlagSet("treat", flag.ContinueOnError)
	quality := fs.Float64("quality", 1, "effectiveness multiplier")
	rest, err := s.flags(fs, args, 2, 2)
	if err != nil {
		return err
	}
	kind, err := condition.ParseTreatmentKind(rest[1])
	if err != nil {
		return err
	}
	part, err := s.requirePart(rest[0])
	if err != nil {
		return err
	}
	n, err := s.body.Treat(part.Name(), condition.Treatment{Kind: kind, Quality: *quality, Source: "console"})
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintf(s.term, "The %v does nothing for the %s.\n", kind, describe(part))
		treated := []string{}
		for _, k := range condition.Kinds() {
			if (condition.Treatment{Kind: kind}).Treats(k) {
				treated = append(treated, lang.Plural(k.String()))
			}
		}
		if len(treated) > 0 {
			fmt.Fprintf(s.term, "It only %s %s.\n", lang.ThirdPersonSingular("treat"), lang.Enumerator{}.Do(treated...))
		}
		return nil
	}
	fmt.Fprintf(s.term, "The %v helps %s of the %s.\n", kind, lang.Card(n, "condition"), describe(part))
	return nil
}

func (s *Session) wait(args []string) error {
	fs := flag.NewFlagSet("wait", flag.ContinueOnError)
	temp := fs.Float64("temp", s.env.Temperature, "ambient temperature in °F")
	warmth := fs.Float64("warmth", s.env.EquipmentWarmth, "insulation from clothing")
	activity := fs.Float64("activity", s.env.ActivityLevel, "activity level, 1 is resting")
	rest, err := s.flags(fs, args, 1, 1)
	if err != nil {
		return err
	}
	elapsed, err := time.ParseDuration(rest[0])
	if err != nil {
		return anatomy.WithStack(err)
	}
	if elapsed <= 0 {
		return errors.Errorf("can't wait %v", elapsed)
	}
	s.env = body.Environment{Temperature: *temp, EquipmentWarmth: *warmth, ActivityLevel: *activity}
	before := map[string]int{}
	for _, p := range s.body.Parts() {
		before[p.Name()] = len(p.Conditions())
	}
	s.body.Update(elapsed, s.env)
	fmt.Fprintf(s.term, "%v passes. The core is %.1f°F.\n", elapsed, s.body.CoreTemperature())
	healed := []string{}
	for _, p := range s.body.Parts() {
		if len(p.Conditions()) < before[p.Name()] {
			healed = append(healed, describe(p))
		}
	}
	if len(healed) > 0 {
		fmt.Fprintf(s.term, "Conditions heal on %s.\n", lang.Enumerator{Pattern: "the %s"}.Do(healed...))
	}
	return nil
}

func (s *Session) effect(args []string) error {
	if len(args) == 0 {
		active := s.effects.Active()
		if len(active) == 0 {
			fmt.Fprintln(s.term, "No active effects.")
			return nil
		}
		t := table.New("Name", "Capacity", "Modifier", "Part").WithWriter(s.term)
		for _, e := range active {
			part := e.Part
			if part == "" {
				part = "(body)"
			}
			t.AddRow(e.Name, e.Capacity, fmt.Sprintf("%+.0f%%", e.Modifier*100), part)
		}
		t.Print()
		return nil
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("effect add", flag.ContinueOnError)
		part := fs.String("part", "", "limit the effect to this part")
		duration := fs.Duration("for", 0, "how long the effect lasts, 0 is forever")
		rest, err := s.flags(fs, args[1:], 3, 3)
		if err != nil {
			return err
		}
		k, err := capacity.ParseKind(rest[1])
		if err != nil {
			return err
		}
		modifier, err := parseFloat(rest[2])
		if err != nil {
			return err
		}
		if *part != "" {
			p, err := s.requirePart(*part)
			if err != nil {
				return err
			}
			*part = p.Name()
		}
		e := effects.Effect{Name: rest[0], Capacity: k, Modifier: modifier, Part: *part}
		if err := s.effects.Add(e, *duration); err != nil {
			return err
		}
		fmt.Fprintf(s.term, "Added %v.\n", e)
	case "rm", "remove":
		if len(args) != 2 {
			return errUsage
		}
		s.effects.Remove(args[1])
		fmt.Fprintf(s.term, "Removed %q.\n", args[1])
	default:
		return errUsage
	}
	return nil
}

func (s *Session) switchSpecies(args []string) error {
	switch len(args) {
	case 0:
		names := s.registry.Names()
		for i, name := range names {
			if name == s.species {
				names[i] = fmt.Sprintf("%s (current)", name)
			}
		}
		fmt.Fprintf(s.term, "Known species: %s.\n", lang.Enumerator{}.Do(names...))
		return nil
	case 1:
		b, err := s.newBody(args[0])
		if errors.Is(err, species.ErrUnknownSpecies) {
			// "species wolves" works too.
			if singular := lang.Singular(args[0]); singular != args[0] {
				b, err = s.newBody(singular)
			}
		}
		if err != nil {
			return err
		}
		s.body = b
		fmt.Fprintf(s.term, "You are now simulating %s.\n", lang.Indef(s.species))
		return nil
	}
	return errUsage
}

func (s *Session) requireStore() error {
	if s.store == nil {
		return errors.New("no storage configured")
	}
	return nil
}

func (s *Session) dump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	def := fs.Bool("species", false, "dump the species definition instead")
	if _, err := s.flags(fs, args, 0, 0); err != nil {
		return err
	}
	if *def {
		cfg, err := s.registry.Get(s.species)
		if err != nil {
			return err
		}
		return species.Dump(s.term, []species.Config{cfg})
	}
	b, err := goccy.MarshalIndent(s.body.Snapshot(), "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Fprintf(s.term, "%s\n", b)
	return nil
}

func (s *Session) save(args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	if err := s.requireStore(); err != nil {
		return err
	}
	id := s.id
	if len(args) == 1 {
		id = args[0]
	}
	if err := s.store.Save(s.ctx, storage.Record{ID: id, Species: s.species, Snapshot: s.body.Snapshot()}); err != nil {
		return err
	}
	s.id = id
	fmt.Fprintf(s.term, "Saved %q.\n", id)
	return nil
}

func (s *Session) load(args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	if err := s.requireStore(); err != nil {
		return err
	}
	if len(args) == 0 {
		entries, err := s.store.List(s.ctx)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(s.term, "Nothing stored.")
			return nil
		}
		t := table.New("ID", "Species", "Saved").WithWriter(s.term)
		for _, e := range entries {
			t.AddRow(e.ID, e.Species, e.UpdatedAt.Format(time.RFC3339))
		}
		t.Print()
		return nil
	}
	rec, err := s.store.Load(s.ctx, args[0])
	if err != nil {
		return err
	}
	b, err := s.newBody(rec.Species)
	if err != nil {
		return err
	}
	if err := b.Restore(rec.Snapshot); err != nil {
		return err
	}
	s.body = b
	s.id = rec.ID
	fmt.Fprintf(s.term, "Loaded %q, %s.\n", rec.ID, lang.Indef(s.species))
	return nil
}

// Script runs every line of r, stopping at the first error.
func (s *Session) Script(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintf(s.term, "> %s\n", line)
		if err := s.Run(line); errors.Is(err, ErrQuit) {
			return nil
		} else if err != nil {
			return err
		}
	}
	return anatomy.WithStack(scanner.Err())
}
