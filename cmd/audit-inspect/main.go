package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/danielpatrickdp/latch/internal/audit"
	"github.com/danielpatrickdp/latch/internal/export"
	"github.com/danielpatrickdp/latch/internal/sink"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region main

func main() {
	jsonlPath := flag.String("jsonl", "", "read the audit trail from a JSONL file")
	dbPath := flag.String("db", "", "read the audit trail from a SQLite database")
	boltPath := flag.String("bolt", "", "read the audit trail from a Bolt database")
	symbolID := flag.String("symbol", "", "explain one symbol's attempts")
	stats := flag.Bool("stats", false, "print aggregate statistics")
	last := flag.Int("last", 0, "show only the N most recent attempts")
	jsonOut := flag.Bool("json", false, "output as JSON instead of a table")
	flag.Parse()

	sources := 0
	for _, p := range []string{*jsonlPath, *dbPath, *boltPath} {
		if p != "" {
			sources++
		}
	}
	if sources != 1 {
		fmt.Fprintln(os.Stderr, "usage: audit-inspect --jsonl trail.jsonl [--symbol id] [--stats] [--last N] [--json]")
		fmt.Fprintln(os.Stderr, "       audit-inspect --db trail.db | --bolt trail.bolt")
		os.Exit(2)
	}

	attempts, err := readTrail(*jsonlPath, *dbPath, *boltPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read trail: %v\n", err)
		os.Exit(1)
	}

	if err := inspect(attempts, *symbolID, *stats, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func readTrail(jsonlPath, dbPath, boltPath string) ([]symbol.BindingAttempt, error) {
	switch {
	case jsonlPath != "":
		return sink.ReadJSONL(jsonlPath)
	case dbPath != "":
		return sink.ReadSQLite(dbPath)
	default:
		return sink.ReadBolt(boltPath)
	}
}

// #endregion main

// #region inspect

func inspect(attempts []symbol.BindingAttempt, symbolID string, stats bool, last int, jsonOut bool) error {
	if symbolID != "" {
		return explainMode(attempts, symbolID, jsonOut)
	}
	if stats {
		return statsMode(attempts, jsonOut)
	}
	return listMode(attempts, last, jsonOut)
}

func explainMode(attempts []symbol.BindingAttempt, symbolID string, jsonOut bool) error {
	rec := audit.NewRecorder(nil)
	for _, a := range attempts {
		if err := rec.Record(a); err != nil {
			return err
		}
	}
	if jsonOut {
		return printJSON(map[string]interface{}{
			"symbol_id":   symbolID,
			"explanation": rec.Explain(symbolID),
			"attempts":    rec.Attempts(symbolID),
		})
	}
	fmt.Println(rec.Explain(symbolID))
	for _, a := range rec.Attempts(symbolID) {
		fmt.Printf("\n  attempt %s at %s\n", shortID(a.ID), a.AttemptedAt.Format(time.RFC3339))
		for _, r := range a.FailureReasons {
			fmt.Printf("    [%s] %s\n", r.Category, r.Message)
		}
	}
	return nil
}

func statsMode(attempts []symbol.BindingAttempt, jsonOut bool) error {
	meta := export.TrailMeta(attempts, time.Now())
	if jsonOut {
		return printJSON(meta)
	}

	fmt.Printf("Attempts:     %d\n", meta.TotalAttempts)
	fmt.Printf("Successes:    %d\n", meta.SuccessCount)
	fmt.Printf("Failures:     %d\n", meta.FailureCount)
	fmt.Printf("Success rate: %.1f%%\n", meta.SuccessRate)

	if len(meta.FailureBreakdown) > 0 {
		fmt.Printf("\nFailure breakdown:\n")
		categories := make([]string, 0, len(meta.FailureBreakdown))
		for c := range meta.FailureBreakdown {
			categories = append(categories, string(c))
		}
		sort.Strings(categories)
		for _, c := range categories {
			fmt.Printf("  %-12s %d\n", c, meta.FailureBreakdown[symbol.FailureCategory(c)])
		}
	}
	return nil
}

func listMode(attempts []symbol.BindingAttempt, last int, jsonOut bool) error {
	if last > 0 && len(attempts) > last {
		attempts = attempts[len(attempts)-last:]
	}
	if jsonOut {
		return printJSON(attempts)
	}
	if len(attempts) == 0 {
		fmt.Fprintln(os.Stderr, "no attempts found")
		return nil
	}

	fmt.Printf("%-10s  %-20s  %-8s  %-20s  %s\n", "Attempt", "Symbol", "Result", "Time", "Detail")
	fmt.Printf("%-10s+-%-20s+-%-8s+-%-20s+-%s\n",
		"----------", "--------------------", "--------", "--------------------", "--------------------")

	for _, a := range attempts {
		result, detail := "bound", shortID(a.BoundEventID)
		if !a.Success {
			result = "latent"
			detail = ""
			if len(a.FailureReasons) > 0 {
				detail = a.FailureReasons[0].Message
			}
		}
		fmt.Printf("%-10s  %-20s  %-8s  %-20s  %s\n",
			shortID(a.ID), a.SymbolID, result, a.AttemptedAt.Format("2006-01-02T15:04:05Z"), detail)
	}
	return nil
}

// #endregion inspect

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
