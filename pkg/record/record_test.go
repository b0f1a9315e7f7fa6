package record_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"syogi/pkg/kif"
	"syogi/pkg/record"
	"syogi/pkg/syogi"
)

func loadGame(t *testing.T, name string) *kif.Game {
	t.Helper()
	g, err := kif.Load(filepath.Join("..", "kif", "testdata", name))
	if err != nil {
		t.Fatalf("failed to load kif: %v", err)
	}
	return g
}

func from(x, y int) *syogi.Pos {
	return &syogi.Pos{X: x, Y: y}
}

func TestReplayDrop(t *testing.T) {
	rec, err := record.Replay("drop", loadGame(t, "drop.kif"), true)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if rec.MoveCount != 7 || len(rec.Plies) != 7 {
		t.Fatalf("unexpected ply count: %d/%d", rec.MoveCount, len(rec.Plies))
	}
	if rec.InitialPos != kif.HirateSFEN {
		t.Fatalf("unexpected initial sfen: got %s want %s", rec.InitialPos, kif.HirateSFEN)
	}
	if rec.Result != "abort" || rec.WinReason != "中断" {
		t.Fatalf("unexpected outcome: %s %s", rec.Result, rec.WinReason)
	}

	third := rec.Plies[2]
	if third.From != "88" || third.To != "22" || !third.Promote || third.Capture != "KA" || third.Kind != "KA" {
		t.Fatalf("unexpected third ply: %+v", third)
	}
	fourth := rec.Plies[3]
	if fourth.Owner != "white" || fourth.Capture != "KA" {
		t.Fatalf("promoted capture should record base kind: %+v", fourth)
	}
	drop := rec.Plies[4]
	if drop.From != "" || drop.To != "45" || drop.Capture != "" {
		t.Fatalf("unexpected drop ply: %+v", drop)
	}
	want := "lns1kg1nl/1r2g2s1/pppppp1pp/6B2/9/2P6/PP1PPPPPP/7R1/LNSGKGSNL w Pb 8"
	if got := rec.Plies[6].SFEN; got != want {
		t.Fatalf("unexpected final sfen: got %s want %s", got, want)
	}

	s := record.Summarize(rec)
	if s.Plies != 7 || s.Captures != 3 || s.Promotions != 1 || s.Drops != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestReplayNoMoves(t *testing.T) {
	_, err := record.Replay("initial", loadGame(t, "initial.kif"), true)
	if !errors.Is(err, kif.ErrNoMoves) {
		t.Fatalf("expected ErrNoMoves, got %v", err)
	}
}

func TestReplayStrict(t *testing.T) {
	onOwnPiece := &kif.Game{
		Initial:    syogi.NewHirate(),
		FirstMover: syogi.Black,
		Moves: []syogi.Move{
			{Color: syogi.Black, Kind: syogi.Pawn, From: from(7, 7), To: syogi.Pos{X: 8, Y: 7}},
		},
	}
	if _, err := record.Replay("own", onOwnPiece, true); !errors.Is(err, record.ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}

	emptyHand := &kif.Game{
		Initial:    syogi.NewHirate(),
		FirstMover: syogi.Black,
		Moves: []syogi.Move{
			{Color: syogi.Black, Kind: syogi.Pawn, To: syogi.Pos{X: 5, Y: 5}},
		},
	}
	if _, err := record.Replay("hand", emptyHand, true); !errors.Is(err, record.ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if _, err := record.Replay("hand", emptyHand, false); !errors.Is(err, syogi.ErrHandUnderflow) {
		t.Fatalf("expected ErrHandUnderflow, got %v", err)
	}
}

func TestReplayLenient(t *testing.T) {
	g := &kif.Game{
		Initial:    syogi.NewHirate(),
		FirstMover: syogi.Black,
		Moves: []syogi.Move{
			{Color: syogi.Black, Kind: syogi.Gold, From: from(5, 5), To: syogi.Pos{X: 5, Y: 4}},
		},
	}
	if _, err := record.Replay("empty-source", g, true); err != nil {
		t.Fatalf("strict replay of a move to an empty square: %v", err)
	}
	rec, err := record.Replay("empty-source", g, false)
	if err != nil {
		t.Fatalf("lenient replay: %v", err)
	}
	if rec.Plies[0].Capture != "" || rec.Result != "unknown" {
		t.Fatalf("unexpected ply: %+v", rec.Plies[0])
	}
}

func TestParquetRoundTrip(t *testing.T) {
	first, err := record.Replay("basic", loadGame(t, "basic_aigakari.kif"), true)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	second, err := record.Replay("drop", loadGame(t, "drop.kif"), true)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	for _, compression := range []string{"snappy", "gzip", "none"} {
		path := filepath.Join(t.TempDir(), "out", "games.parquet")
		cfg := record.Config{Parallel: 1, Compression: compression}
		records := make(chan record.GameRecord, 2)
		records <- first
		records <- second
		close(records)
		if err := record.WriteParquet(path, records, cfg); err != nil {
			t.Fatalf("write %s: %v", compression, err)
		}

		got, err := record.ReadParquet(path, 1)
		if err != nil {
			t.Fatalf("read %s: %v", compression, err)
		}
		if len(got) != 2 {
			t.Fatalf("unexpected record count: %d", len(got))
		}
		if got[0].GameID != "basic" || got[0].Result != "gote_win" || got[0].MoveCount != 12 {
			t.Fatalf("unexpected first record: %+v", got[0])
		}
		if len(got[1].Plies) != 7 || got[1].Plies[6].SFEN != second.Plies[6].SFEN {
			t.Fatalf("unexpected plies: %+v", got[1].Plies)
		}
		if !got[1].Plies[2].Promote || got[1].Plies[4].From != "" {
			t.Fatalf("unexpected ply fields: %+v", got[1].Plies)
		}
	}
}

func TestWriteParquetRejectsCompression(t *testing.T) {
	records := make(chan record.GameRecord)
	close(records)
	err := record.WriteParquet(filepath.Join(t.TempDir(), "x.parquet"), records, record.Config{Compression: "zstd"})
	if err == nil {
		t.Fatal("expected error for unknown compression")
	}
}

func TestConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := record.FindConfigPath(nested); err == nil {
		t.Fatal("expected missing config error")
	}

	data := []byte(`{"strict": false, "compression": "gzip"}`)
	if err := os.WriteFile(filepath.Join(root, "config.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	path, dir, err := record.FindConfigPath(nested)
	if err != nil {
		t.Fatalf("find config: %v", err)
	}
	if dir != root {
		t.Fatalf("unexpected config dir: got %s want %s", dir, root)
	}
	cfg, err := record.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := record.Config{Strict: false, Parallel: 4, Compression: "gzip"}
	if cfg != want {
		t.Fatalf("unexpected config: got %+v want %+v", cfg, want)
	}

	if err := os.WriteFile(path, []byte(`{"compression": "lz5"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := record.LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown compression")
	}
}
