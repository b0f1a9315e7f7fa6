package syogi

import (
	"errors"
	"fmt"
)

// Color identifies the owner of a piece.
type Color int

const (
	Black Color = iota // 先手
	White              // 後手
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// ChangeTurn returns the side to move after c.
func ChangeTurn(c Color) Color {
	return c.Opponent()
}

// Kind is one of the fourteen shogi piece kinds.
type Kind int

const (
	Pawn Kind = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	PromPawn
	PromLance
	PromKnight
	PromSilver
	Horse
	Dragon
)

// noKind marks a missing promotion or demotion target in kindTable.
const noKind Kind = -1

var (
	ErrLookup      = errors.New("no such kind mapping")
	ErrUnknownKind = errors.New("unknown piece kind")
)

type kindInfo struct {
	code    string
	glyph   rune
	promote Kind
	demote  Kind
}

var kindTable = [...]kindInfo{
	Pawn:       {code: "FU", glyph: '歩', promote: PromPawn, demote: noKind},
	Lance:      {code: "KY", glyph: '香', promote: PromLance, demote: noKind},
	Knight:     {code: "KE", glyph: '桂', promote: PromKnight, demote: noKind},
	Silver:     {code: "GI", glyph: '銀', promote: PromSilver, demote: noKind},
	Gold:       {code: "KI", glyph: '金', promote: noKind, demote: noKind},
	Bishop:     {code: "KA", glyph: '角', promote: Horse, demote: noKind},
	Rook:       {code: "HI", glyph: '飛', promote: Dragon, demote: noKind},
	King:       {code: "OU", glyph: '王', promote: noKind, demote: noKind},
	PromPawn:   {code: "TO", glyph: 'と', promote: noKind, demote: Pawn},
	PromLance:  {code: "NY", glyph: '杏', promote: noKind, demote: Lance},
	PromKnight: {code: "NK", glyph: '圭', promote: noKind, demote: Knight},
	PromSilver: {code: "NG", glyph: '全', promote: noKind, demote: Silver},
	Horse:      {code: "UM", glyph: '馬', promote: noKind, demote: Bishop},
	Dragon:     {code: "RY", glyph: '竜', promote: noKind, demote: Rook},
}

// HandKinds lists the kinds that can be held in hand, in board order.
var HandKinds = []Kind{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}

// Valid reports whether k is one of the fourteen kinds.
func (k Kind) Valid() bool {
	return k >= Pawn && k <= Dragon
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindTable[k].code
}

// KindFromCode parses a two-letter CSA code such as "FU" or "UM".
func KindFromCode(code string) (Kind, error) {
	for k, info := range kindTable {
		if info.code == code {
			return Kind(k), nil
		}
	}
	return noKind, fmt.Errorf("%w: %q", ErrUnknownKind, code)
}

// KindGlyph returns the single kanji used for k on a board diagram.
func KindGlyph(k Kind) rune {
	if !k.Valid() {
		return '?'
	}
	return kindTable[k].glyph
}

// IsPromoted reports whether k is a promoted kind.
func (k Kind) IsPromoted() bool {
	return k.Valid() && kindTable[k].demote != noKind
}

// CanPromote reports whether k has a promoted form.
func (k Kind) CanPromote() bool {
	return k.Valid() && kindTable[k].promote != noKind
}

// Base returns the unpromoted kind of k. Base kinds map to themselves.
func (k Kind) Base() Kind {
	if k.IsPromoted() {
		return kindTable[k].demote
	}
	return k
}

// Piece is a value: all transformations return a new Piece.
type Piece struct {
	Color Color
	Kind  Kind
}

func NewPiece(c Color, k Kind) Piece {
	return Piece{Color: c, Kind: k}
}

// Glyph returns the kanji of the piece kind.
func (p Piece) Glyph() rune {
	return KindGlyph(p.Kind)
}

// Promote returns the promoted form of p. Gold, King and promoted kinds
// have no promotion and yield ErrLookup.
func (p Piece) Promote() (Piece, error) {
	if !p.Kind.CanPromote() {
		return p, fmt.Errorf("promote %s: %w", p.Kind, ErrLookup)
	}
	return Piece{Color: p.Color, Kind: kindTable[p.Kind].promote}, nil
}

// Demote returns the base form of a promoted piece. Unpromoted kinds yield ErrLookup.
func (p Piece) Demote() (Piece, error) {
	if !p.Kind.IsPromoted() {
		return p, fmt.Errorf("demote %s: %w", p.Kind, ErrLookup)
	}
	return Piece{Color: p.Color, Kind: kindTable[p.Kind].demote}, nil
}

func (p Piece) IsPromoted() bool {
	return p.Kind.IsPromoted()
}

// IsPromotableAt reports whether p has a promoted form and pos lies in
// the three ranks nearest the opponent: 1-3 for Black, 7-9 for White.
func (p Piece) IsPromotableAt(pos Pos) bool {
	if !p.Kind.CanPromote() {
		return false
	}
	if p.Color == Black {
		return pos.Y >= 1 && pos.Y <= 3
	}
	return pos.Y >= 7 && pos.Y <= 9
}

// Flip returns p owned by the opponent.
func (p Piece) Flip() Piece {
	return Piece{Color: p.Color.Opponent(), Kind: p.Kind}
}

func (p Piece) String() string {
	return fmt.Sprintf("%s %s", p.Color, p.Kind)
}

// Cell is the content of one board square: either empty or one piece.
type Cell struct {
	piece    Piece
	occupied bool
}

// Empty returns the empty cell.
func Empty() Cell {
	return Cell{}
}

// Occupied returns a cell holding p.
func Occupied(p Piece) Cell {
	return Cell{piece: p, occupied: true}
}

// Piece returns the piece in the cell and whether there is one.
func (c Cell) Piece() (Piece, bool) {
	return c.piece, c.occupied
}

// IsEmpty reports whether c is the empty cell.
func IsEmpty(c Cell) bool {
	return !c.occupied
}

func (c Cell) String() string {
	if !c.occupied {
		return "empty"
	}
	return c.piece.String()
}

const kansuji = "〇一二三四五六七八九"

// Kansuji returns the kanji numeral for 0..9.
func Kansuji(i int) (rune, bool) {
	runes := []rune(kansuji)
	if i < 0 || i >= len(runes) {
		return 0, false
	}
	return runes[i], true
}
