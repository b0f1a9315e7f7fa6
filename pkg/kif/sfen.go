package kif

import (
	"fmt"
	"strconv"
	"strings"

	"syogi/pkg/syogi"
)

// HirateSFEN is the standard opening position.
const HirateSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var sfenLetters = map[syogi.Kind]string{
	syogi.Pawn:   "P",
	syogi.Lance:  "L",
	syogi.Knight: "N",
	syogi.Silver: "S",
	syogi.Gold:   "G",
	syogi.Bishop: "B",
	syogi.Rook:   "R",
	syogi.King:   "K",
}

// sfenHandOrder is the conventional order of hand pieces.
var sfenHandOrder = []syogi.Kind{syogi.Rook, syogi.Bishop, syogi.Gold, syogi.Silver, syogi.Knight, syogi.Lance, syogi.Pawn}

// SFEN renders b with turn as the side to move and moveNumber as the ply counter.
func SFEN(b *syogi.Board, turn syogi.Color, moveNumber int) string {
	rows := make([]string, 0, 9)
	for rank := 1; rank <= 9; rank++ {
		rows = append(rows, rankToSFEN(b, rank))
	}
	side := "b"
	if turn == syogi.White {
		side = "w"
	}
	hand := handsToSFEN(b)
	if hand == "" {
		hand = "-"
	}
	return fmt.Sprintf("%s %s %s %d", strings.Join(rows, "/"), side, hand, moveNumber)
}

func rankToSFEN(b *syogi.Board, rank int) string {
	var sb strings.Builder
	empty := 0
	flushEmpty := func() {
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
			empty = 0
		}
	}
	for file := 9; file >= 1; file-- {
		cell, _ := b.PieceAt(syogi.Pos{X: file, Y: rank})
		piece, ok := cell.Piece()
		if !ok {
			empty++
			continue
		}
		flushEmpty()
		text := sfenLetters[piece.Kind.Base()]
		if piece.IsPromoted() {
			text = "+" + text
		}
		if piece.Color == syogi.White {
			text = strings.ToLower(text)
		}
		sb.WriteString(text)
	}
	flushEmpty()
	return sb.String()
}

func handsToSFEN(b *syogi.Board) string {
	var sb strings.Builder
	for _, color := range []syogi.Color{syogi.Black, syogi.White} {
		for _, kind := range sfenHandOrder {
			count := b.Hand(color, kind)
			if count == 0 {
				continue
			}
			if count > 1 {
				sb.WriteString(strconv.Itoa(count))
			}
			letter := sfenLetters[kind]
			if color == syogi.White {
				letter = strings.ToLower(letter)
			}
			sb.WriteString(letter)
		}
	}
	return sb.String()
}

// ParseSFEN builds a board from the first three SFEN fields and returns
// the side to move.
func ParseSFEN(sfen string) (*syogi.Board, syogi.Color, error) {
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return nil, syogi.Black, fmt.Errorf("%w: invalid sfen %q", ErrSyntax, sfen)
	}
	turn := syogi.Black
	if fields[1] == "w" {
		turn = syogi.White
	}
	b := syogi.NewBoard()
	if err := parseBoardSFEN(fields[0], b); err != nil {
		return nil, turn, err
	}
	if err := parseHandsSFEN(fields[2], b); err != nil {
		return nil, turn, err
	}
	return b, turn, nil
}

func sfenKind(r rune) (syogi.Kind, bool) {
	for kind, letter := range sfenLetters {
		if string(r) == letter {
			return kind, true
		}
	}
	return syogi.Pawn, false
}

func parseBoardSFEN(board string, b *syogi.Board) error {
	ranks := strings.Split(board, "/")
	if len(ranks) != 9 {
		return fmt.Errorf("%w: invalid board ranks: %d", ErrSyntax, len(ranks))
	}
	for rankIndex, rankText := range ranks {
		file := 9
		runes := []rune(rankText)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			if r >= '1' && r <= '9' {
				file -= int(r - '0')
				continue
			}
			promoted := false
			if r == '+' {
				promoted = true
				i++
				if i >= len(runes) {
					return fmt.Errorf("%w: dangling promotion marker", ErrSyntax)
				}
				r = runes[i]
			}
			color := syogi.Black
			if r >= 'a' && r <= 'z' {
				color = syogi.White
				r -= 'a' - 'A'
			}
			kind, ok := sfenKind(r)
			if !ok {
				return fmt.Errorf("%w: unknown sfen piece %c", ErrSyntax, r)
			}
			if file < 1 {
				return fmt.Errorf("%w: too many files in rank %d", ErrSyntax, rankIndex+1)
			}
			piece := syogi.NewPiece(color, kind)
			if promoted {
				p, err := piece.Promote()
				if err != nil {
					return err
				}
				piece = p
			}
			if err := b.Place(syogi.Pos{X: file, Y: rankIndex + 1}, syogi.Occupied(piece)); err != nil {
				return err
			}
			file--
		}
		if file != 0 {
			return fmt.Errorf("%w: rank %d does not have 9 files", ErrSyntax, rankIndex+1)
		}
	}
	return nil
}

func parseHandsSFEN(hand string, b *syogi.Board) error {
	if hand == "-" {
		return nil
	}
	count := 0
	for _, r := range hand {
		if r >= '0' && r <= '9' {
			count = count*10 + int(r-'0')
			continue
		}
		if count == 0 {
			count = 1
		}
		color := syogi.Black
		if r >= 'a' && r <= 'z' {
			color = syogi.White
			r -= 'a' - 'A'
		}
		kind, ok := sfenKind(r)
		if !ok || kind == syogi.King {
			return fmt.Errorf("%w: unknown hand piece %c", ErrSyntax, r)
		}
		if err := b.SetHand(color, kind, b.Hand(color, kind)+count); err != nil {
			return err
		}
		count = 0
	}
	if count != 0 {
		return fmt.Errorf("%w: trailing hand count", ErrSyntax)
	}
	return nil
}

// USI renders m in USI move notation, e.g. 7g7f, 8h2b+ or P*4e.
func USI(m syogi.Move) string {
	to := usiSquare(m.To)
	if m.From == nil {
		return sfenLetters[m.Kind.Base()] + "*" + to
	}
	text := usiSquare(*m.From) + to
	if m.Promote {
		text += "+"
	}
	return text
}

func usiSquare(pos syogi.Pos) string {
	return fmt.Sprintf("%d%c", pos.X, 'a'+rune(pos.Y-1))
}
