package syogi_test

import (
	"errors"
	"testing"

	"syogi/pkg/syogi"
)

var promotable = []syogi.Kind{syogi.Pawn, syogi.Lance, syogi.Knight, syogi.Silver, syogi.Bishop, syogi.Rook}

func TestPromoteDemoteInverse(t *testing.T) {
	for _, c := range []syogi.Color{syogi.Black, syogi.White} {
		for _, k := range promotable {
			p := syogi.NewPiece(c, k)
			promoted, err := p.Promote()
			if err != nil {
				t.Fatalf("promote %s: %v", p, err)
			}
			if !promoted.IsPromoted() || promoted.Color != c {
				t.Fatalf("unexpected promoted piece: %s", promoted)
			}
			back, err := promoted.Demote()
			if err != nil {
				t.Fatalf("demote %s: %v", promoted, err)
			}
			if back != p {
				t.Fatalf("unexpected round trip: got %s want %s", back, p)
			}
		}
	}
}

func TestPromoteTargets(t *testing.T) {
	want := map[syogi.Kind]syogi.Kind{
		syogi.Pawn:   syogi.PromPawn,
		syogi.Lance:  syogi.PromLance,
		syogi.Knight: syogi.PromKnight,
		syogi.Silver: syogi.PromSilver,
		syogi.Bishop: syogi.Horse,
		syogi.Rook:   syogi.Dragon,
	}
	for base, prom := range want {
		got, err := syogi.NewPiece(syogi.Black, base).Promote()
		if err != nil {
			t.Fatalf("promote %s: %v", base, err)
		}
		if got.Kind != prom {
			t.Fatalf("unexpected promotion of %s: got %s want %s", base, got.Kind, prom)
		}
	}
}

func TestPromoteLookupFailure(t *testing.T) {
	for _, k := range []syogi.Kind{syogi.Gold, syogi.King, syogi.PromPawn, syogi.Horse, syogi.Dragon} {
		if _, err := syogi.NewPiece(syogi.White, k).Promote(); !errors.Is(err, syogi.ErrLookup) {
			t.Fatalf("promote %s: got %v want ErrLookup", k, err)
		}
	}
	for _, k := range []syogi.Kind{syogi.Pawn, syogi.Gold, syogi.King, syogi.Rook} {
		if _, err := syogi.NewPiece(syogi.Black, k).Demote(); !errors.Is(err, syogi.ErrLookup) {
			t.Fatalf("demote %s: got %v want ErrLookup", k, err)
		}
	}
}

func TestIsPromoted(t *testing.T) {
	promoted := map[syogi.Kind]bool{
		syogi.PromPawn: true, syogi.PromLance: true, syogi.PromKnight: true,
		syogi.PromSilver: true, syogi.Horse: true, syogi.Dragon: true,
	}
	for k := syogi.Pawn; k <= syogi.Dragon; k++ {
		if got := syogi.NewPiece(syogi.Black, k).IsPromoted(); got != promoted[k] {
			t.Fatalf("unexpected IsPromoted for %s: got %v", k, got)
		}
	}
}

func TestIsPromotableAtZone(t *testing.T) {
	for x := 1; x <= 9; x++ {
		for y := 1; y <= 9; y++ {
			pos := syogi.Pos{X: x, Y: y}
			black := syogi.NewPiece(syogi.Black, syogi.Pawn).IsPromotableAt(pos)
			if black != (y <= 3) {
				t.Fatalf("black pawn at %s: got %v", pos, black)
			}
			white := syogi.NewPiece(syogi.White, syogi.Pawn).IsPromotableAt(pos)
			if white != (y >= 7) {
				t.Fatalf("white pawn at %s: got %v", pos, white)
			}
			for _, c := range []syogi.Color{syogi.Black, syogi.White} {
				for _, k := range []syogi.Kind{syogi.Gold, syogi.King} {
					if syogi.NewPiece(c, k).IsPromotableAt(pos) {
						t.Fatalf("%s %s should never promote (at %s)", c, k, pos)
					}
				}
			}
		}
	}
}

func TestFlipReturnsNewPiece(t *testing.T) {
	p := syogi.NewPiece(syogi.Black, syogi.Silver)
	flipped := p.Flip()
	if flipped.Color != syogi.White || flipped.Kind != syogi.Silver {
		t.Fatalf("unexpected flip: %s", flipped)
	}
	if p.Color != syogi.Black {
		t.Fatalf("flip mutated the original piece: %s", p)
	}
	if flipped.Flip() != p {
		t.Fatalf("double flip should restore %s", p)
	}
}

func TestCell(t *testing.T) {
	if !syogi.IsEmpty(syogi.Empty()) {
		t.Fatal("empty cell should be empty")
	}
	var zero syogi.Cell
	if !syogi.IsEmpty(zero) {
		t.Fatal("zero cell should be empty")
	}
	p := syogi.NewPiece(syogi.White, syogi.Pawn)
	cell := syogi.Occupied(p)
	if syogi.IsEmpty(cell) {
		t.Fatal("occupied cell should not be empty")
	}
	got, ok := cell.Piece()
	if !ok || got != p {
		t.Fatalf("unexpected cell content: got %s ok=%v", got, ok)
	}
}

func TestKindGlyphAndCodes(t *testing.T) {
	glyphs := map[syogi.Kind]rune{
		syogi.Pawn: '歩', syogi.Lance: '香', syogi.Knight: '桂', syogi.Silver: '銀',
		syogi.Gold: '金', syogi.Bishop: '角', syogi.Rook: '飛', syogi.King: '王',
		syogi.PromPawn: 'と', syogi.PromLance: '杏', syogi.PromKnight: '圭',
		syogi.PromSilver: '全', syogi.Horse: '馬', syogi.Dragon: '竜',
	}
	for k, want := range glyphs {
		if got := syogi.KindGlyph(k); got != want {
			t.Fatalf("unexpected glyph for %s: got %c want %c", k, got, want)
		}
		parsed, err := syogi.KindFromCode(k.String())
		if err != nil || parsed != k {
			t.Fatalf("unexpected code lookup for %s: got %s err=%v", k, parsed, err)
		}
	}
	if _, err := syogi.KindFromCode("XX"); !errors.Is(err, syogi.ErrUnknownKind) {
		t.Fatalf("unexpected error for unknown code: %v", err)
	}
}

func TestKansujiAndTurn(t *testing.T) {
	want := []rune("〇一二三四五六七八九")
	for i, r := range want {
		got, ok := syogi.Kansuji(i)
		if !ok || got != r {
			t.Fatalf("unexpected kansuji for %d: got %c want %c", i, got, r)
		}
	}
	if _, ok := syogi.Kansuji(10); ok {
		t.Fatal("kansuji 10 should be out of range")
	}
	if syogi.ChangeTurn(syogi.Black) != syogi.White || syogi.ChangeTurn(syogi.White) != syogi.Black {
		t.Fatal("unexpected turn change")
	}
}
