// replay reads every KIF file under a directory, replays the moves on the
// board and writes one parquet row per game with a snapshot for each ply.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"syogi/pkg/kif"
	"syogi/pkg/record"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (searched upward from the working directory if empty)")
	inputDir := flag.String("input", "test_kif", "input directory for KIF files")
	outputPath := flag.String("output", "output.parquet", "output parquet file")
	strict := flag.Bool("strict", true, "reject moves onto own pieces and drops from an empty hand")
	processNum := flag.Int("process-num", 0, "number of parallel workers (config parallel if 0)")
	flag.Parse()

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "strict" {
			cfg.Strict = *strict
		}
	})
	if *processNum > 0 {
		cfg.Parallel = int64(*processNum)
	}

	files, err := kif.CollectKIF(*inputDir)
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no .kif files found in %s", *inputDir))
	}

	workers := int(cfg.Parallel)
	if workers <= 0 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	results := make(chan record.GameRecord, workers)
	writeErr := make(chan error, 1)
	go func() {
		err := record.WriteParquet(*outputPath, results, cfg)
		for range results {
		}
		writeErr <- err
	}()

	var failed int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rec, err := replayFile(path, *inputDir, cfg.Strict)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to process %s: %v\n", path, err)
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				results <- rec
			}
		}()
	}

	for i, path := range files {
		jobs <- path
		if (i+1)%100 == 0 {
			fmt.Fprintf(os.Stderr, "queued %d/%d\n", i+1, len(files))
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	if err := <-writeErr; err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d games to %s (%d failed)\n", len(files)-failed, *outputPath, failed)
}

func replayFile(path, root string, strict bool) (record.GameRecord, error) {
	g, err := kif.Load(path)
	if err != nil {
		return record.GameRecord{}, err
	}
	return record.Replay(gameID(path, root), g, strict)
}

// gameID is the path relative to the input directory without extension.
func gameID(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
}

func resolveConfig(arg string) (record.Config, error) {
	if arg != "" {
		return record.LoadConfig(arg)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return record.Config{}, err
	}
	path, _, err := record.FindConfigPath(cwd)
	if err != nil {
		return record.DefaultConfig(), nil
	}
	return record.LoadConfig(path)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
