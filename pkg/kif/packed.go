package kif

import (
	"errors"
	"fmt"

	"syogi/pkg/syogi"
)

// ErrPack is returned when a board cannot be packed into 256 bits, which
// needs both kings and the full set of 38 other pieces.
var ErrPack = errors.New("cannot pack position")

// Packed is a position in 256 bits: side to move, both king squares and a
// Huffman code per square and per hand piece. It is comparable and can be
// used as a map key.
type Packed struct {
	Words [4]uint64
}

type code struct {
	kind   syogi.Kind
	bits   uint64
	bitLen int
	empty  bool
}

type codeBook struct {
	byKind map[syogi.Kind]code
	byLen  map[int]map[uint64]code
	blank  code
	maxLen int
}

// A board piece spends one bit more than the same piece in hand, so the
// stream length stays fixed as pieces are captured and dropped.
var boardCodes = newCodeBook([]code{
	{bits: 0b0, bitLen: 1, empty: true},
	{kind: syogi.Pawn, bits: 0b01, bitLen: 2},
	{kind: syogi.Lance, bits: 0b0011, bitLen: 4},
	{kind: syogi.Knight, bits: 0b1011, bitLen: 4},
	{kind: syogi.Silver, bits: 0b0111, bitLen: 4},
	{kind: syogi.Gold, bits: 0b01111, bitLen: 5},
	{kind: syogi.Bishop, bits: 0b011111, bitLen: 6},
	{kind: syogi.Rook, bits: 0b111111, bitLen: 6},
})

var handCodes = newCodeBook([]code{
	{kind: syogi.Pawn, bits: 0b0, bitLen: 1},
	{kind: syogi.Lance, bits: 0b001, bitLen: 3},
	{kind: syogi.Knight, bits: 0b101, bitLen: 3},
	{kind: syogi.Silver, bits: 0b011, bitLen: 3},
	{kind: syogi.Gold, bits: 0b0111, bitLen: 4},
	{kind: syogi.Bishop, bits: 0b01111, bitLen: 5},
	{kind: syogi.Rook, bits: 0b11111, bitLen: 5},
})

func newCodeBook(codes []code) codeBook {
	book := codeBook{
		byKind: map[syogi.Kind]code{},
		byLen:  map[int]map[uint64]code{},
	}
	for _, c := range codes {
		if book.byLen[c.bitLen] == nil {
			book.byLen[c.bitLen] = map[uint64]code{}
		}
		book.byLen[c.bitLen][c.bits] = c
		if c.empty {
			book.blank = c
		} else {
			book.byKind[c.kind] = c
		}
		if c.bitLen > book.maxLen {
			book.maxLen = c.bitLen
		}
	}
	return book
}

// squareIndex numbers squares rank by rank starting at 11.
func squareIndex(pos syogi.Pos) int {
	return (pos.Y-1)*9 + pos.X - 1
}

func indexSquare(idx int) syogi.Pos {
	return syogi.Pos{X: idx%9 + 1, Y: idx/9 + 1}
}

// Pack encodes b with turn to move.
func Pack(b *syogi.Board, turn syogi.Color) (Packed, error) {
	w := &bitWriter{}
	w.writeColor(turn)

	blackKing, whiteKing, err := kingSquares(b)
	if err != nil {
		return Packed{}, err
	}
	w.writeBits(uint64(blackKing), 7)
	w.writeBits(uint64(whiteKing), 7)

	for idx := 0; idx < 81; idx++ {
		if idx == blackKing || idx == whiteKing {
			continue
		}
		cell, _ := b.PieceAt(indexSquare(idx))
		piece, ok := cell.Piece()
		if !ok {
			w.writeCode(boardCodes.blank)
			continue
		}
		if piece.Kind == syogi.King {
			return Packed{}, fmt.Errorf("%w: extra king at %s", ErrPack, indexSquare(idx))
		}
		w.writeCode(boardCodes.byKind[piece.Kind.Base()])
		w.writeColor(piece.Color)
		if piece.Kind.Base().CanPromote() {
			w.writeFlag(piece.IsPromoted())
		}
	}

	for _, color := range []syogi.Color{syogi.Black, syogi.White} {
		for _, kind := range syogi.HandKinds {
			for i := 0; i < b.Hand(color, kind); i++ {
				w.writeCode(handCodes.byKind[kind])
				w.writeColor(color)
				if kind.CanPromote() {
					w.writeFlag(false)
				}
			}
		}
	}

	if w.overflow || w.pos != 256 {
		return Packed{}, fmt.Errorf("%w: %d bits", ErrPack, w.pos)
	}
	return Packed{Words: w.words}, nil
}

// Unpack decodes p back into a board and the side to move.
func Unpack(p Packed) (*syogi.Board, syogi.Color, error) {
	r := &bitReader{words: p.Words}

	turn, err := r.readColor()
	if err != nil {
		return nil, syogi.Black, err
	}
	blackKing, err := r.readBits(7)
	if err != nil {
		return nil, turn, err
	}
	whiteKing, err := r.readBits(7)
	if err != nil {
		return nil, turn, err
	}
	if blackKing == whiteKing || blackKing >= 81 || whiteKing >= 81 {
		return nil, turn, fmt.Errorf("%w: bad king squares %d %d", ErrSyntax, blackKing, whiteKing)
	}

	b := syogi.NewBoard()
	_ = b.Place(indexSquare(int(blackKing)), syogi.Occupied(syogi.NewPiece(syogi.Black, syogi.King)))
	_ = b.Place(indexSquare(int(whiteKing)), syogi.Occupied(syogi.NewPiece(syogi.White, syogi.King)))

	for idx := 0; idx < 81; idx++ {
		if idx == int(blackKing) || idx == int(whiteKing) {
			continue
		}
		c, err := r.readCode(boardCodes)
		if err != nil {
			return nil, turn, err
		}
		if c.empty {
			continue
		}
		color, err := r.readColor()
		if err != nil {
			return nil, turn, err
		}
		piece := syogi.NewPiece(color, c.kind)
		if c.kind.CanPromote() {
			promoted, err := r.readBit()
			if err != nil {
				return nil, turn, err
			}
			if promoted == 1 {
				piece, _ = piece.Promote()
			}
		}
		_ = b.Place(indexSquare(idx), syogi.Occupied(piece))
	}

	for r.pos < 256 {
		c, err := r.readCode(handCodes)
		if err != nil {
			return nil, turn, err
		}
		color, err := r.readColor()
		if err != nil {
			return nil, turn, err
		}
		if c.kind.CanPromote() {
			promoted, err := r.readBit()
			if err != nil {
				return nil, turn, err
			}
			if promoted != 0 {
				return nil, turn, fmt.Errorf("%w: promoted %s in hand", ErrSyntax, c.kind)
			}
		}
		if err := b.AddToHand(syogi.NewPiece(color, c.kind)); err != nil {
			return nil, turn, err
		}
	}
	return b, turn, nil
}

func kingSquares(b *syogi.Board) (int, int, error) {
	black, white := -1, -1
	for idx := 0; idx < 81; idx++ {
		cell, _ := b.PieceAt(indexSquare(idx))
		piece, ok := cell.Piece()
		if !ok || piece.Kind != syogi.King {
			continue
		}
		if piece.Color == syogi.Black {
			if black != -1 {
				return 0, 0, fmt.Errorf("%w: multiple black kings", ErrPack)
			}
			black = idx
		} else {
			if white != -1 {
				return 0, 0, fmt.Errorf("%w: multiple white kings", ErrPack)
			}
			white = idx
		}
	}
	if black == -1 || white == -1 {
		return 0, 0, fmt.Errorf("%w: missing king", ErrPack)
	}
	return black, white, nil
}

type bitWriter struct {
	words    [4]uint64
	pos      int
	overflow bool
}

func (w *bitWriter) writeBit(bit uint64) {
	if w.pos >= 256 {
		w.overflow = true
		return
	}
	if bit != 0 {
		w.words[w.pos/64] |= 1 << uint(w.pos%64)
	}
	w.pos++
}

func (w *bitWriter) writeBits(value uint64, bitLen int) {
	for i := 0; i < bitLen; i++ {
		w.writeBit((value >> i) & 1)
	}
}

func (w *bitWriter) writeCode(c code) {
	w.writeBits(c.bits, c.bitLen)
}

func (w *bitWriter) writeColor(c syogi.Color) {
	w.writeFlag(c == syogi.White)
}

func (w *bitWriter) writeFlag(set bool) {
	if set {
		w.writeBit(1)
	} else {
		w.writeBit(0)
	}
}

type bitReader struct {
	words [4]uint64
	pos   int
}

func (r *bitReader) readBit() (uint64, error) {
	if r.pos >= 256 {
		return 0, fmt.Errorf("%w: packed bitstream underflow", ErrSyntax)
	}
	bit := (r.words[r.pos/64] >> uint(r.pos%64)) & 1
	r.pos++
	return bit, nil
}

func (r *bitReader) readBits(bitLen int) (uint64, error) {
	var value uint64
	for i := 0; i < bitLen; i++ {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		value |= bit << i
	}
	return value, nil
}

func (r *bitReader) readCode(book codeBook) (code, error) {
	var value uint64
	for length := 1; length <= book.maxLen; length++ {
		bit, err := r.readBit()
		if err != nil {
			return code{}, err
		}
		value |= bit << (length - 1)
		if c, ok := book.byLen[length][value]; ok {
			return c, nil
		}
	}
	return code{}, fmt.Errorf("%w: invalid piece code", ErrSyntax)
}

func (r *bitReader) readColor() (syogi.Color, error) {
	bit, err := r.readBit()
	if err != nil {
		return syogi.Black, err
	}
	if bit == 1 {
		return syogi.White, nil
	}
	return syogi.Black, nil
}
