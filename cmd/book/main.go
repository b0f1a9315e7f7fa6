// book counts the positions reached in a directory of KIF games and writes
// the frequent ones, with the moves played from them, as a YaneuraOu
// DB2016 opening book.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"syogi/pkg/kif"
	"syogi/pkg/syogi"
)

const bookHeader = "#YANEURAOU-DB2016 1.00"

// visit is called for each position with a following move. b is borrowed.
type visit func(key kif.Packed, b *syogi.Board, turn syogi.Color, ply int, move syogi.Move)

type entry struct {
	sfen  string
	moves map[string]uint32
}

type book map[kif.Packed]*entry

func main() {
	inputDir := flag.String("input", "test_kif", "input directory for KIF files")
	outputPath := flag.String("output", "book.db", "output book file")
	threshold := flag.Int("threshold", 3, "minimum occurrence count to include in book")
	maxPly := flag.Int("max-ply", 60, "maximum ply to process per game")
	maxFiles := flag.Int("max-files", 0, "maximum number of files to process (0=all)")
	workers := flag.Int("workers", 0, "number of parallel workers (0=NumCPU)")
	flag.Parse()

	if *threshold <= 0 {
		fatal(fmt.Errorf("threshold must be > 0"))
	}
	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}
	started := time.Now()

	files, err := kif.CollectKIF(*inputDir)
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no .kif files found in %s", *inputDir))
	}
	if *maxFiles > 0 && len(files) > *maxFiles {
		files = files[:*maxFiles]
	}
	fmt.Fprintf(os.Stderr, "files: %d, workers: %d, max-ply: %d, threshold: %d\n",
		len(files), *workers, *maxPly, *threshold)

	// The first pass stores only packed keys; SFEN text is built in the
	// second pass for positions that made the threshold.
	fmt.Fprintln(os.Stderr, "pass 1: counting positions")
	seen := make(map[kif.Packed]uint32)
	var seenMu sync.Mutex
	failed := scan(files, *maxPly, *workers, func() visit {
		return func(key kif.Packed, _ *syogi.Board, _ syogi.Color, _ int, _ syogi.Move) {
			seenMu.Lock()
			seen[key]++
			seenMu.Unlock()
		}
	})
	frequent := make(map[kif.Packed]bool)
	for key, n := range seen {
		if n >= uint32(*threshold) {
			frequent[key] = true
		}
	}
	fmt.Fprintf(os.Stderr, "  positions: %d, frequent: %d, file errors: %d\n", len(seen), len(frequent), failed)
	seen = nil
	runtime.GC()

	if len(frequent) == 0 {
		fmt.Fprintln(os.Stderr, "no positions meet the threshold; nothing to write")
		return
	}

	fmt.Fprintln(os.Stderr, "pass 2: collecting moves")
	out := make(book, len(frequent))
	var outMu sync.Mutex
	scan(files, *maxPly, *workers, func() visit {
		return func(key kif.Packed, b *syogi.Board, turn syogi.Color, ply int, m syogi.Move) {
			if !frequent[key] {
				return
			}
			sfen := kif.SFEN(b, turn, ply)
			outMu.Lock()
			out.add(key, sfen, kif.USI(m))
			outMu.Unlock()
		}
	})

	f, err := os.Create(*outputPath)
	if err != nil {
		fatal(err)
	}
	if err := out.write(f); err != nil {
		f.Close()
		fatal(err)
	}
	if err := f.Close(); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d positions) in %v\n",
		*outputPath, len(out), time.Since(started).Round(time.Millisecond))
}

// scan replays every file on a pool of workers. newVisit is called once per
// worker. It returns the number of files that failed to load.
func scan(files []string, maxPly, workers int, newVisit func() visit) int {
	paths := make(chan string, workers*4)
	var done, failed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(fn visit) {
			defer wg.Done()
			for path := range paths {
				if err := walkGame(path, maxPly, fn); err != nil {
					failed.Add(1)
				}
				if n := done.Add(1); n%10000 == 0 {
					fmt.Fprintf(os.Stderr, "\r  %d/%d", n, len(files))
				}
			}
		}(newVisit())
	}
	for _, path := range files {
		paths <- path
	}
	close(paths)
	wg.Wait()
	fmt.Fprintf(os.Stderr, "\r  %d/%d\n", done.Load(), len(files))
	return int(failed.Load())
}

// walkGame replays up to maxPly moves of one game. It stops quietly at a
// move onto an own piece or at a position that does not pack, such as a
// handicap game.
func walkGame(path string, maxPly int, fn visit) error {
	g, err := kif.Load(path)
	if err != nil {
		return err
	}
	b := g.Initial.Clone()
	turn := g.FirstMover
	for i, m := range g.Moves {
		if i >= maxPly || !b.IsValidMove(m) {
			break
		}
		key, err := kif.Pack(b, turn)
		if err != nil {
			break
		}
		fn(key, b, turn, i+1, m)
		if err := b.ApplyMove(m); err != nil {
			break
		}
		turn = syogi.ChangeTurn(turn)
	}
	return nil
}

func (bk book) add(key kif.Packed, sfen, move string) {
	e := bk[key]
	if e == nil {
		e = &entry{sfen: sfen, moves: make(map[string]uint32)}
		bk[key] = e
	}
	e.moves[move]++
}

// write emits positions in SFEN order, each followed by its moves, most
// played first, as "<move> <response> <eval> <depth> <count>".
func (bk book) write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, bookHeader)

	entries := make([]*entry, 0, len(bk))
	for _, e := range bk {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].sfen < entries[j].sfen })

	for _, e := range entries {
		fmt.Fprintf(bw, "sfen %s\n", e.sfen)
		moves := make([]string, 0, len(e.moves))
		for m := range e.moves {
			moves = append(moves, m)
		}
		sort.Slice(moves, func(i, j int) bool {
			ci, cj := e.moves[moves[i]], e.moves[moves[j]]
			if ci != cj {
				return ci > cj
			}
			return moves[i] < moves[j]
		})
		for _, m := range moves {
			fmt.Fprintf(bw, "%s none 0 0 %d\n", m, e.moves[m])
		}
	}
	return bw.Flush()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
