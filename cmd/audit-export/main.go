package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/latch/internal/export"
	"github.com/danielpatrickdp/latch/internal/sink"
	"github.com/danielpatrickdp/latch/internal/symbol"
)

// #region main

func main() {
	jsonlPath := flag.String("jsonl", "", "read the audit trail from a JSONL file")
	dbPath := flag.String("db", "", "read the audit trail from a SQLite database")
	boltPath := flag.String("bolt", "", "read the audit trail from a Bolt database")
	out := flag.String("out", "", "output file path")
	format := flag.String("format", "json", "output format: json or jsonl")
	only := flag.String("only", "", "filter: success or failure")
	flag.Parse()

	sources := 0
	for _, p := range []string{*jsonlPath, *dbPath, *boltPath} {
		if p != "" {
			sources++
		}
	}
	if sources != 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: audit-export --jsonl trail.jsonl --out trail.json [--format json|jsonl] [--only success|failure]")
		fmt.Fprintln(os.Stderr, "       audit-export --db trail.db --out trail.json | --bolt trail.bolt --out trail.json")
		os.Exit(2)
	}

	var success *bool
	switch *only {
	case "":
	case "success":
		v := true
		success = &v
	case "failure":
		v := false
		success = &v
	default:
		fmt.Fprintf(os.Stderr, "unknown filter %q (use success or failure)\n", *only)
		os.Exit(2)
	}

	attempts, err := readTrail(*jsonlPath, *dbPath, *boltPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read trail: %v\n", err)
		os.Exit(1)
	}

	n, err := export.WriteTrailFiltered(attempts, *out, *format, success)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("exported %d of %d attempts to %s\n", n, len(attempts), *out)
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
