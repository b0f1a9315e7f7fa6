package syogi

func sente(k Kind) Cell { return Occupied(NewPiece(Black, k)) }
func gote(k Kind) Cell { return Occupied(NewPiece(White, k)) }

var blank = Empty()

// hirate is the standard opening layout (平手), rank 1 first, file 1 first
// within each rank.
var hirate = [9][9]Cell{
	{gote(Lance), gote(Knight), gote(Silver), gote(Gold), gote(King), gote(Gold), gote(Silver), gote(Knight), gote(Lance)},
	{blank, gote(Bishop), blank, blank, blank, blank, blank, gote(Rook), blank},
	{gote(Pawn), gote(Pawn), gote(Pawn), gote(Pawn), gote(Pawn), gote(Pawn), gote(Pawn), gote(Pawn), gote(Pawn)},
	{blank, blank, blank, blank, blank, blank, blank, blank, blank},
	{blank, blank, blank, blank, blank, blank, blank, blank, blank},
	{blank, blank, blank, blank, blank, blank, blank, blank, blank},
	{sente(Pawn), sente(Pawn), sente(Pawn), sente(Pawn), sente(Pawn), sente(Pawn), sente(Pawn), sente(Pawn), sente(Pawn)},
	{blank, sente(Rook), blank, blank, blank, blank, blank, sente(Bishop), blank},
	{sente(Lance), sente(Knight), sente(Silver), sente(Gold), sente(King), sente(Gold), sente(Silver), sente(Knight), sente(Lance)},
}
