package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/latch/internal/audit"
	"github.com/danielpatrickdp/latch/internal/engine"
	"github.com/danielpatrickdp/latch/internal/scenario"
	"github.com/danielpatrickdp/latch/internal/sequence"
	"github.com/danielpatrickdp/latch/internal/sink"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region main

func main() {
	scenarioPath := flag.String("scenario", "", "path to scenario file (.yaml/.yml/.json)")
	auditJSONL := flag.String("audit-jsonl", "", "mirror the audit trail to a JSONL file")
	auditDB := flag.String("audit-db", "", "mirror the audit trail to a SQLite database")
	auditBolt := flag.String("audit-bolt", "", "mirror the audit trail to a Bolt database")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: scenario-run --scenario path/to/scenario.yaml [--audit-jsonl out.jsonl] [--audit-db out.db] [--audit-bolt out.bolt]")
		os.Exit(2)
	}

	os.Exit(run(*scenarioPath, *auditJSONL, *auditDB, *auditBolt))
}

// #endregion main

// #region run

func run(path, jsonlPath, dbPath, boltPath string) int {
	f, err := scenario.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load scenario: %v\n", err)
		return 2
	}

	reg, ctx, cfg, err := f.Build(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build scenario: %v\n", err)
		return 2
	}

	auditSink, err := buildSink(jsonlPath, dbPath, boltPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open audit sink: %v\n", err)
		return 2
	}

	eng := engine.New(reg, engine.Config{Sink: auditSink})

	var (
		bound      []symbol.BoundSymbol
		finalState map[string]interface{}
		rounds     int
	)
	if len(f.Steps) > 0 {
		steps, err := f.ToSteps(ctx.When)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build steps: %v\n", err)
			return 2
		}
		runner := sequence.NewRunner(eng)
		runner.Cascade = cfg
		bound, finalState, err = runner.RunTimeline(steps, ctx.State)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run sequence: %v\n", err)
			return 2
		}
	} else {
		res, err := eng.BindAllRegistered(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "run cascade: %v\n", err)
			return 2
		}
		bound = res.Bound
		finalState = res.FinalContext.State
		rounds = res.Rounds
	}

	if err := eng.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close audit sink: %v\n", err)
		return 2
	}

	report := scenario.Verify(f.Expect, bound, finalState, rounds)
	printRun(f, bound, finalState, rounds, report)

	if !report.Passed {
		return 1
	}
	return 0
}

func buildSink(jsonlPath, dbPath, boltPath string) (audit.Sink, error) {
	var sinks []audit.Sink
	if jsonlPath != "" {
		s, err := sink.NewJSONL(jsonlPath, sink.DefaultJSONLOptions())
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if dbPath != "" {
		s, err := sink.NewSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if boltPath != "" {
		s, err := sink.NewBolt(boltPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sink.NewMulti(sinks...), nil
	}
}

// #endregion run

// #region output

func printRun(f *scenario.File, bound []symbol.BoundSymbol, finalState map[string]interface{}, rounds int, report scenario.Report) {
	title := f.Name
	if title == "" {
		title = "(unnamed scenario)"
	}
	if f.Description != "" {
		fmt.Printf("Scenario: %s — %s\n\n", title, f.Description)
	} else {
		fmt.Printf("Scenario: %s\n\n", title)
	}

	if f.Expect == nil {
		for i, b := range bound {
			fmt.Printf("%3d. %s (weight %.2f)\n", i+1, b.SymbolID, b.Weight)
		}
		fmt.Printf("\n%d activations in %d rounds, final state %v\n", len(bound), rounds, finalState)
		return
	}

	printComparison(f.Expect.Bound, bound)

	for _, c := range report.Checks {
		if c.Name == "bound_order" {
			continue
		}
		status := "OK"
		if !c.Pass {
			status = "DIFF"
		}
		fmt.Printf("%-20s %-6s %s\n", c.Name, status, c.Detail)
	}
	fmt.Printf("\n%s\n", report.Reason)
}

// printComparison renders expected against actual activations in
// order.
func printComparison(expected []string, bound []symbol.BoundSymbol) {
	fmt.Printf("%-24s| %-24s| %s\n", "Expected", "Bound", "Match")
	fmt.Printf("%-24s+%-25s+%s\n", "------------------------", "-------------------------", "------")

	total := len(expected)
	if len(bound) > total {
		total = len(bound)
	}

	matches := 0
	for i := 0; i < total; i++ {
		exp, got := "—", "—"
		if i < len(expected) {
			exp = expected[i]
		}
		if i < len(bound) {
			got = bound[i].SymbolID
		}
		match := "DIFF"
		if exp == got && exp != "—" {
			match = "OK"
			matches++
		}
		fmt.Printf("%-24s| %-24s| %s\n", exp, got, match)
	}

	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n\n", total, matches, total-matches)
}

// #endregion output
