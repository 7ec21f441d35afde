package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/latch/internal/graph"
	"github.com/danielpatrickdp/latch/internal/registry"
	"github.com/danielpatrickdp/latch/internal/scenario"
)

// #region main

func main() {
	scenarioPath := flag.String("scenario", "", "path to scenario file (.yaml/.yml/.json)")
	jsonOut := flag.Bool("json", false, "output findings as JSON")
	flag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: symbol-lint --scenario path/to/scenario.yaml [--json]")
		os.Exit(2)
	}

	f, err := scenario.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load scenario: %v\n", err)
		os.Exit(2)
	}

	findings := lint(f)
	if *jsonOut {
		if err := printJSON(findings); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
	} else {
		printFindings(findings)
	}

	if len(findings) > 0 {
		os.Exit(1)
	}
}

// #endregion main

// #region lint

// Finding is one lint result.
type Finding struct {
	Kind     string `json:"kind"`
	SymbolID string `json:"symbol_id,omitempty"`
	Detail   string `json:"detail"`
}

// lint registers every symbol of the file into a scratch registry,
// collecting problems instead of stopping at the first. A detected
// cycle rolls back, so later symbols still get checked.
func lint(f *scenario.File) []Finding {
	var findings []Finding
	reg := registry.New()

	for _, def := range f.Symbols {
		err := reg.Register(def.ToSymbol())
		if err == nil {
			continue
		}

		var cycleErr *graph.CycleError
		switch {
		case errors.As(err, &cycleErr):
			findings = append(findings, Finding{
				Kind:     "cycle",
				SymbolID: def.ID,
				Detail:   cycleErr.Error(),
			})
		case errors.Is(err, registry.ErrDuplicateSymbol):
			findings = append(findings, Finding{
				Kind:     "duplicate",
				SymbolID: def.ID,
				Detail:   err.Error(),
			})
		default:
			findings = append(findings, Finding{
				Kind:     "invalid",
				SymbolID: def.ID,
				Detail:   err.Error(),
			})
		}
	}

	for _, edge := range reg.Unresolved() {
		findings = append(findings, Finding{
			Kind:     "dangling",
			SymbolID: edge.From,
			Detail:   fmt.Sprintf("dependency %q is never registered", edge.To),
		})
	}
	return findings
}

// #endregion lint

// #region output

func printFindings(findings []Finding) {
	if len(findings) == 0 {
		fmt.Println("no findings")
		return
	}
	fmt.Printf("%-10s  %-20s  %s\n", "Kind", "Symbol", "Detail")
	fmt.Printf("%-10s+-%-20s+-%s\n", "----------", "--------------------", "--------------------")
	for _, f := range findings {
		fmt.Printf("%-10s  %-20s  %s\n", f.Kind, f.SymbolID, f.Detail)
	}
	fmt.Printf("\n%d findings\n", len(findings))
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
