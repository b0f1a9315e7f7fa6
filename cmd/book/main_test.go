package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"syogi/pkg/kif"
	"syogi/pkg/syogi"
)

func TestBookFromTestdata(t *testing.T) {
	files, err := kif.CollectKIF(filepath.Join("..", "..", "pkg", "kif", "testdata"))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(book)
	failed := scan(files, 2, 1, func() visit {
		return func(key kif.Packed, b *syogi.Board, turn syogi.Color, ply int, m syogi.Move) {
			out.add(key, kif.SFEN(b, turn, ply), kif.USI(m))
		}
	})
	if failed != 0 {
		t.Fatalf("unexpected failures: %d", failed)
	}

	var buf bytes.Buffer
	if err := out.write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := strings.Join([]string{
		bookHeader,
		"sfen lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2",
		"3c3d none 0 0 1",
		"sfen lnsgkgsnl/1r5b1/ppppppppp/9/9/7P1/PPPPPPP1P/1B5R1/LNSGKGSNL w - 2",
		"8c8d none 0 0 1",
		"sfen " + kif.HirateSFEN,
		"2g2f none 0 0 1",
		"7g7f none 0 0 1",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("unexpected book:\n%s\nwant:\n%s", got, want)
	}
}
