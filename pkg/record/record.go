package record

import (
	"errors"
	"fmt"

	"syogi/pkg/kif"
	"syogi/pkg/syogi"
)

var ErrInvalidMove = errors.New("invalid move")

type PlyRecord struct {
	Ply     int32  `parquet:"name=ply, type=INT32"`
	Owner   string `parquet:"name=owner, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind    string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	From    string `parquet:"name=from, type=BYTE_ARRAY, convertedtype=UTF8"`
	To      string `parquet:"name=to, type=BYTE_ARRAY, convertedtype=UTF8"`
	Promote bool   `parquet:"name=promote, type=BOOLEAN"`
	Capture string `parquet:"name=capture, type=BYTE_ARRAY, convertedtype=UTF8"`
	SFEN    string `parquet:"name=sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type GameRecord struct {
	GameID     string      `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SenteName  string      `parquet:"name=sente_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	GoteName   string      `parquet:"name=gote_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result     string      `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	WinReason  string      `parquet:"name=win_reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	InitialPos string      `parquet:"name=initial_sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount  int32       `parquet:"name=move_count, type=INT32"`
	Plies      []PlyRecord `parquet:"name=plies, type=LIST"`
}

// Replay applies every move of g to a copy of its initial board. In strict
// mode a move failing the occupancy check, or a drop from an empty hand,
// stops the replay with ErrInvalidMove.
func Replay(gameID string, g *kif.Game, strict bool) (GameRecord, error) {
	if len(g.Moves) == 0 {
		return GameRecord{}, fmt.Errorf("%s: %w", gameID, kif.ErrNoMoves)
	}
	b := g.Initial.Clone()
	turn := g.FirstMover
	result, reason := g.Outcome()
	rec := GameRecord{
		GameID:     gameID,
		SenteName:  g.Header["先手"],
		GoteName:   g.Header["後手"],
		Result:     result,
		WinReason:  reason,
		InitialPos: kif.SFEN(b, turn, 1),
		MoveCount:  int32(len(g.Moves)),
		Plies:      make([]PlyRecord, 0, len(g.Moves)),
	}
	for i, m := range g.Moves {
		if strict {
			if err := checkMove(b, m); err != nil {
				return GameRecord{}, fmt.Errorf("%s: move %d: %w", gameID, i+1, err)
			}
		}
		ply := PlyRecord{
			Ply:     int32(i + 1),
			Owner:   m.Color.String(),
			Kind:    m.Kind.String(),
			To:      m.To.String(),
			Promote: m.Promote,
		}
		if m.From != nil {
			ply.From = m.From.String()
			if cell, err := b.PieceAt(m.To); err == nil {
				if captured, ok := cell.Piece(); ok {
					ply.Capture = captured.Kind.Base().String()
				}
			}
		}
		if err := b.ApplyMove(m); err != nil {
			return GameRecord{}, fmt.Errorf("%s: move %d: %w", gameID, i+1, err)
		}
		turn = syogi.ChangeTurn(turn)
		ply.SFEN = kif.SFEN(b, turn, i+2)
		rec.Plies = append(rec.Plies, ply)
	}
	return rec, nil
}

func checkMove(b *syogi.Board, m syogi.Move) error {
	if !b.IsValidMove(m) {
		return fmt.Errorf("%w: %s", ErrInvalidMove, m)
	}
	if m.IsDrop() && b.Hand(m.Color, m.Kind) == 0 {
		return fmt.Errorf("%w: no %s in hand", ErrInvalidMove, m.Kind)
	}
	return nil
}

// Summary counts notable events of one game.
type Summary struct {
	GameID     string
	Result     string
	Plies      int
	Captures   int
	Promotions int
	Drops      int
}

func Summarize(rec GameRecord) Summary {
	s := Summary{GameID: rec.GameID, Result: rec.Result, Plies: len(rec.Plies)}
	for _, ply := range rec.Plies {
		if ply.Capture != "" {
			s.Captures++
		}
		if ply.Promote {
			s.Promotions++
		}
		if ply.From == "" {
			s.Drops++
		}
	}
	return s
}
