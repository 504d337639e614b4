// Command analyze runs the survey analysis pipeline on a single file and
// prints the Markdown report, without starting the web UI.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"lpcore/internal/analysis"
)

func main() {
	asJSON := flag.Bool("json", false, "print the full analysis bundle as JSON instead of the report")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.csv|file.xlsx>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	bundle, err := analysis.NewPipeline().Analyze(context.Background(), flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	if *asJSON {
		out, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(out)
		fmt.Println()
		return
	}
	fmt.Print(bundle.Report)
}
