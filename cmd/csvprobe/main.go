// Command csvprobe samples the first N bytes of a wide mortality CSV and
// prints the classified header: identity columns, the population column, and
// the dated column range.
//
// Example:
//
//	csvprobe -url="https://example.com/deaths_wide.csv" -bytes=32768
//	csvprobe -path=data/deaths_wide.csv -json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"mortality/internal/probe"
)

var (
	flagURL        = flag.String("url", "", "URL of the CSV file to sample")
	flagPath       = flag.String("path", "", "local path of the CSV file to sample")
	flagBytes      = flag.Int("bytes", 20000, "number of bytes to sample from the start of the file")
	flagDelimiter  = flag.String("delimiter", ",", "CSV field delimiter (single character)")
	flagJSON       = flag.Bool("json", false, "output the full classified header as JSON")
	flagEmitConfig = flag.Bool("emit-config", false, "output a starter pipeline config built from the classified header")
)

func main() {
	flag.Parse()

	delim := ','
	if *flagDelimiter != "" {
		if r, _ := utf8.DecodeRuneInString(*flagDelimiter); r != utf8.RuneError {
			delim = r
		}
	}

	rep, err := probe.Probe(probe.Options{
		URL:       *flagURL,
		Path:      *flagPath,
		MaxBytes:  *flagBytes,
		Delimiter: delim,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "csvprobe: %v\n", err)
		os.Exit(1)
	}

	if *flagEmitConfig {
		out, err := json.MarshalIndent(probe.StarterPipeline(rep), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "csvprobe: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	if *flagJSON {
		out, err := probe.MarshalReport(rep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "csvprobe: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	for _, c := range rep.Columns {
		if c.Kind == "date" {
			continue // summarized below
		}
		fmt.Printf("%-16s %s\n", c.Kind, c.Name)
	}
	fmt.Printf("dated columns    %d (%s .. %s)\n", rep.DateCount, rep.FirstDate, rep.LastDate)
	if rep.Population == "" {
		fmt.Println("warning: no population column detected")
	}
}
