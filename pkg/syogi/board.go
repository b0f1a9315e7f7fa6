package syogi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOutOfRange    = errors.New("coordinate out of range")
	ErrHandUnderflow = errors.New("hand count underflow")
	ErrNotHandKind   = errors.New("kind cannot be held in hand")
)

// Pos is a board coordinate. X is the file and Y the rank, both 1..9.
type Pos struct {
	X int
	Y int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d%d", p.X, p.Y)
}

// IsValidPos reports whether pos lies on the board.
func IsValidPos(pos Pos) bool {
	return 1 <= pos.X && pos.X <= 9 && 1 <= pos.Y && pos.Y <= 9
}

// IsEdge reports whether pos is on the outermost file or rank.
func IsEdge(pos Pos) bool {
	return pos.X == 1 || pos.X == 9 || pos.Y == 1 || pos.Y == 9
}

// Move describes one move. From is nil for a drop. Kind is the kind of the
// moving piece before any promotion.
type Move struct {
	Color   Color
	Kind    Kind
	From    *Pos
	To      Pos
	Promote bool
}

// IsDrop reports whether m places a piece from hand.
func (m Move) IsDrop() bool {
	return m.From == nil
}

func (m Move) String() string {
	var b strings.Builder
	b.WriteString(m.Color.String())
	b.WriteByte(' ')
	if m.From == nil {
		fmt.Fprintf(&b, "%s*%s", m.Kind, m.To)
	} else {
		fmt.Fprintf(&b, "%s%s-%s", m.Kind, m.From, m.To)
	}
	if m.Promote {
		b.WriteByte('+')
	}
	return b.String()
}

// Hands holds the captured-piece counts of both sides, keyed by base kind.
type Hands [2]map[Kind]int

// EmptyHands returns zeroed counters for every hand kind of both sides.
func EmptyHands() Hands {
	var h Hands
	for _, c := range []Color{Black, White} {
		h[c] = make(map[Kind]int, len(HandKinds))
		for _, k := range HandKinds {
			h[c][k] = 0
		}
	}
	return h
}

// Clone returns a deep copy of h.
func (h Hands) Clone() Hands {
	clone := EmptyHands()
	for c := range h {
		for k, n := range h[c] {
			clone[c][k] = n
		}
	}
	return clone
}

// Board is a 9x9 grid plus both hands. The zero value is an empty board.
// It is not safe for concurrent use.
type Board struct {
	cells [9][9]Cell // [rank-1][file-1]
	hands Hands
}

// NewBoard returns an empty board with empty hands.
func NewBoard() *Board {
	return &Board{hands: EmptyHands()}
}

// NewHirate returns a fresh board in the standard opening position.
func NewHirate() *Board {
	return &Board{cells: hirate, hands: EmptyHands()}
}

// Clone returns an independent copy of b.
func (b *Board) Clone() *Board {
	return &Board{cells: b.cells, hands: b.hands.Clone()}
}

// PieceAt returns the content of the cell at pos.
func (b *Board) PieceAt(pos Pos) (Cell, error) {
	if !IsValidPos(pos) {
		return Cell{}, fmt.Errorf("piece at %d,%d: %w", pos.X, pos.Y, ErrOutOfRange)
	}
	return b.cells[pos.Y-1][pos.X-1], nil
}

// Place overwrites the cell at pos without any rule check.
func (b *Board) Place(pos Pos, cell Cell) error {
	if !IsValidPos(pos) {
		return fmt.Errorf("place at %d,%d: %w", pos.X, pos.Y, ErrOutOfRange)
	}
	b.cells[pos.Y-1][pos.X-1] = cell
	return nil
}

// Remove empties the cell at pos and returns what it held.
func (b *Board) Remove(pos Pos) (Cell, error) {
	cell, err := b.PieceAt(pos)
	if err != nil {
		return Cell{}, err
	}
	b.cells[pos.Y-1][pos.X-1] = Empty()
	return cell, nil
}

// IsEmptyAt reports whether pos is on the board and unoccupied.
func (b *Board) IsEmptyAt(pos Pos) bool {
	cell, err := b.PieceAt(pos)
	return err == nil && IsEmpty(cell)
}

// Hand returns how many pieces of kind k side c holds.
func (b *Board) Hand(c Color, k Kind) int {
	return b.hands[c][k]
}

// Hands returns a copy of both hands.
func (b *Board) Hands() Hands {
	return b.hands.Clone()
}

// SetHand overwrites a hand counter. Used when loading positions.
func (b *Board) SetHand(c Color, k Kind, n int) error {
	if k.Base() != k || k == King {
		return fmt.Errorf("set hand %s: %w", k, ErrNotHandKind)
	}
	if n < 0 {
		return fmt.Errorf("set hand %s to %d: %w", k, n, ErrHandUnderflow)
	}
	b.hand(c)[k] = n
	return nil
}

func (b *Board) hand(c Color) map[Kind]int {
	if b.hands[c] == nil {
		b.hands[c] = make(map[Kind]int, len(HandKinds))
	}
	return b.hands[c]
}

// AddToHand adds p to its owner's hand under its base kind.
func (b *Board) AddToHand(p Piece) error {
	p.Kind = p.Kind.Base()
	if p.Kind == King || !p.Kind.Valid() {
		return fmt.Errorf("add %s to hand: %w", p, ErrNotHandKind)
	}
	b.hand(p.Color)[p.Kind]++
	return nil
}

// RemoveFromHand takes one piece of p's kind from its owner's hand.
// The count is left untouched when it is already zero.
func (b *Board) RemoveFromHand(p Piece) error {
	if p.IsPromoted() || p.Kind == King || !p.Kind.Valid() {
		return fmt.Errorf("remove %s from hand: %w", p, ErrNotHandKind)
	}
	if b.hands[p.Color][p.Kind] <= 0 {
		return fmt.Errorf("remove %s from hand: %w", p, ErrHandUnderflow)
	}
	b.hand(p.Color)[p.Kind]--
	return nil
}

// IsValidMove checks occupancy only: a drop needs an empty destination and
// a relocation may not land on a piece of the mover's own side. Piece
// geometry, the content of From and hand counts are not checked.
func (b *Board) IsValidMove(m Move) bool {
	target, err := b.PieceAt(m.To)
	if err != nil {
		return false
	}
	if m.From == nil {
		return IsEmpty(target)
	}
	source, err := b.PieceAt(*m.From)
	if err != nil {
		return false
	}
	dst, occupied := target.Piece()
	if !occupied {
		return true
	}
	mover := m.Color
	if src, ok := source.Piece(); ok {
		mover = src.Color
	}
	return dst.Color != mover
}

// ApplyMove updates the board for m without validating it. A capture puts
// the taken piece, demoted and owned by the mover, into the mover's hand.
// A king cannot be taken into hand, so capturing one fails before the board
// changes. Later steps are not rolled back on error; clone the board first
// if needed.
func (b *Board) ApplyMove(m Move) error {
	if !IsValidPos(m.To) {
		return fmt.Errorf("apply %s: %w", m, ErrOutOfRange)
	}
	if m.From != nil {
		if target, ok := b.cells[m.To.Y-1][m.To.X-1].Piece(); ok && target.Kind == King {
			return fmt.Errorf("apply %s: capture %s: %w", m, target, ErrNotHandKind)
		}
	}
	moving := NewPiece(m.Color, m.Kind)
	if m.From == nil {
		if err := b.RemoveFromHand(moving); err != nil {
			return fmt.Errorf("apply %s: %w", m, err)
		}
	} else {
		if _, err := b.Remove(*m.From); err != nil {
			return fmt.Errorf("apply %s: %w", m, err)
		}
		target, _ := b.Remove(m.To)
		if captured, ok := target.Piece(); ok {
			if captured.Color != m.Color {
				captured = captured.Flip()
			}
			if err := b.AddToHand(captured); err != nil {
				return fmt.Errorf("apply %s: %w", m, err)
			}
		}
	}
	if m.Promote {
		promoted, err := moving.Promote()
		if err != nil {
			return fmt.Errorf("apply %s: %w", m, err)
		}
		moving = promoted
	}
	return b.Place(m.To, Occupied(moving))
}

// Count returns how many pieces of each side and base kind exist on the
// board and in hand together.
func (b *Board) Count() map[Piece]int {
	counts := make(map[Piece]int)
	for _, row := range b.cells {
		for _, cell := range row {
			if p, ok := cell.Piece(); ok {
				counts[NewPiece(p.Color, p.Kind.Base())]++
			}
		}
	}
	for c := range b.hands {
		for k, n := range b.hands[c] {
			if n > 0 {
				counts[NewPiece(Color(c), k)] += n
			}
		}
	}
	return counts
}

// String draws the board as a KIF diagram with the hands above and below.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("後手の持駒：" + b.handText(White) + "\n")
	sb.WriteString("  ９ ８ ７ ６ ５ ４ ３ ２ １\n")
	sb.WriteString("+---------------------------+\n")
	for y := 1; y <= 9; y++ {
		sb.WriteByte('|')
		for x := 9; x >= 1; x-- {
			p, ok := b.cells[y-1][x-1].Piece()
			switch {
			case !ok:
				sb.WriteString(" ・")
			case p.Color == White:
				sb.WriteByte('v')
				sb.WriteRune(p.Glyph())
			default:
				sb.WriteByte(' ')
				sb.WriteRune(p.Glyph())
			}
		}
		sb.WriteByte('|')
		r, _ := Kansuji(y)
		sb.WriteRune(r)
		sb.WriteByte('\n')
	}
	sb.WriteString("+---------------------------+\n")
	sb.WriteString("先手の持駒：" + b.handText(Black) + "\n")
	return sb.String()
}

func (b *Board) handText(c Color) string {
	var sb strings.Builder
	for i := len(HandKinds) - 1; i >= 0; i-- {
		k := HandKinds[i]
		n := b.hands[c][k]
		if n == 0 {
			continue
		}
		sb.WriteRune(KindGlyph(k))
		if n > 1 {
			sb.WriteString(handCount(n))
		}
		sb.WriteString("　")
	}
	if sb.Len() == 0 {
		return "なし"
	}
	return sb.String()
}

// handCount writes n (up to 18 pawns) the way KIF hands do: 二, 十, 十八.
func handCount(n int) string {
	var sb strings.Builder
	if n >= 10 {
		sb.WriteRune('十')
		n -= 10
	}
	if n > 0 {
		r, _ := Kansuji(n)
		sb.WriteRune(r)
	}
	return sb.String()
}
