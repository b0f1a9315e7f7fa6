package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"syogi/pkg/kif"
	"syogi/pkg/record"
)

func main() {
	kifDir := flag.String("kif-dir", "", "input directory for KIF files")
	parquetPath := flag.String("parquet", "", "input parquet file")
	strict := flag.Bool("strict", false, "count files with invalid moves as failures")
	verbose := flag.Bool("v", false, "print one line per game")
	flag.Parse()

	if (*kifDir == "") == (*parquetPath == "") {
		fatal(fmt.Errorf("specify exactly one of -kif-dir or -parquet"))
	}

	var records []record.GameRecord
	failed := 0
	if *parquetPath != "" {
		var err error
		records, err = record.ReadParquet(*parquetPath, 4)
		if err != nil {
			fatal(err)
		}
	} else {
		files, err := kif.CollectKIF(*kifDir)
		if err != nil {
			fatal(err)
		}
		if len(files) == 0 {
			fatal(fmt.Errorf("no .kif files found in %s", *kifDir))
		}
		for _, path := range files {
			g, err := kif.Load(path)
			if err == nil {
				var rec record.GameRecord
				rec, err = record.Replay(path, g, *strict)
				if err == nil {
					records = append(records, rec)
					continue
				}
			}
			fmt.Fprintf(os.Stderr, "failed to parse %s: %v\n", path, err)
			failed++
		}
	}

	results := make(map[string]int)
	var plies, captures, promotions, drops int
	for _, rec := range records {
		s := record.Summarize(rec)
		if *verbose {
			fmt.Printf("%s,%s,%d,%d,%d,%d\n", s.GameID, s.Result, s.Plies, s.Captures, s.Promotions, s.Drops)
		}
		results[s.Result]++
		plies += s.Plies
		captures += s.Captures
		promotions += s.Promotions
		drops += s.Drops
	}

	if *parquetPath != "" {
		fmt.Printf("input parquet: %s\n", *parquetPath)
	} else {
		fmt.Printf("kif dir: %s\n", *kifDir)
	}
	fmt.Printf("failed files: %d\n", failed)
	fmt.Printf("games: %d\n", len(records))
	if len(records) > 0 {
		fmt.Printf("average plies: %.1f\n", float64(plies)/float64(len(records)))
	}
	fmt.Printf("captures=%d promotions=%d drops=%d\n", captures, promotions, drops)
	fmt.Println("results:")
	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s,%d\n", key, results[key])
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
