package kif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"syogi/pkg/syogi"
)

var (
	ErrSyntax   = errors.New("kif syntax error")
	ErrNoMoves  = errors.New("no moves found")
	ErrEncoding = errors.New("failed to decode Shift-JIS KIF")
)

// Game is one parsed KIF record.
type Game struct {
	Header     map[string]string
	Initial    *syogi.Board
	FirstMover syogi.Color
	Moves      []syogi.Move
	Terminal   string // 投了, 千日手, ... or "" when the record just stops
}

var moveLineRe = regexp.MustCompile(`^\s*(\d+)\s+(\S+(?:\s\S+)?)`)
var fromSquareRe = regexp.MustCompile(`\((\d)(\d)\)`)
var headerRe = regexp.MustCompile(`^([^：:|#*]+)[：:](.*)$`)

// Load reads and parses a KIF file.
func Load(path string) (*Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse reads a KIF record in UTF-8 or Shift-JIS.
func Parse(r io.Reader) (*Game, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := Decode(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return parseLines(lines)
}

// Decode strips a UTF-8 BOM and converts Shift-JIS input to UTF-8.
func Decode(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", ErrEncoding
	}
	return string(decoded), nil
}

// Encode converts UTF-8 text to Shift-JIS, the encoding of most .kif files.
func Encode(text string) ([]byte, error) {
	reader := transform.NewReader(strings.NewReader(text), japanese.ShiftJIS.NewEncoder())
	return io.ReadAll(reader)
}

func parseLines(lines []string) (*Game, error) {
	g := &Game{Header: parseHeader(lines)}
	initial, err := initialBoard(lines, g.Header)
	if err != nil {
		return nil, err
	}
	g.Initial = initial
	if whiteToMove(lines, g.Header) {
		g.FirstMover = syogi.White
	}

	turn := g.FirstMover
	var prevDest *syogi.Pos
	for i, line := range lines {
		match := moveLineRe.FindStringSubmatch(line)
		if len(match) == 0 {
			continue
		}
		token := strings.TrimSpace(match[2])
		if isTerminal(firstField(token)) {
			g.Terminal = firstField(token)
			break
		}
		move, err := parseMoveToken(token, turn, prevDest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		g.Moves = append(g.Moves, move)
		dest := move.To
		prevDest = &dest
		turn = syogi.ChangeTurn(turn)
	}
	return g, nil
}

func firstField(token string) string {
	if fields := strings.Fields(token); len(fields) > 0 {
		return fields[0]
	}
	return token
}

func isTerminal(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言":
		return true
	default:
		return false
	}
}

// Outcome returns "sente_win", "gote_win", "draw", "abort" or "unknown"
// together with the terminal word that decided it.
func (g *Game) Outcome() (string, string) {
	toMove := g.FirstMover
	if len(g.Moves)%2 == 1 {
		toMove = toMove.Opponent()
	}
	switch g.Terminal {
	case "":
		return "unknown", ""
	case "中断":
		return "abort", g.Terminal
	case "持将棋", "千日手":
		return "draw", g.Terminal
	case "反則勝ち", "入玉勝ち", "勝ち宣言":
		return winner(toMove), g.Terminal
	case "投了", "詰み", "切れ負け", "反則負け":
		return winner(toMove.Opponent()), g.Terminal
	default:
		return "unknown", g.Terminal
	}
}

func winner(c syogi.Color) string {
	if c == syogi.Black {
		return "sente_win"
	}
	return "gote_win"
}

func whiteToMove(lines []string, header map[string]string) bool {
	if strings.Contains(header["手番"], "後手") {
		return true
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "後手番" {
			return true
		}
	}
	return false
}

func parseHeader(lines []string) map[string]string {
	header := make(map[string]string)
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if moveLineRe.MatchString(trim) {
			break
		}
		match := headerRe.FindStringSubmatch(trim)
		if len(match) != 3 {
			continue
		}
		key := strings.TrimSpace(match[1])
		if _, ok := header[key]; !ok {
			header[key] = strings.TrimSpace(match[2])
		}
	}
	return header
}

func parseMoveToken(token string, turn syogi.Color, prevDest *syogi.Pos) (syogi.Move, error) {
	work := firstField(token)
	move := syogi.Move{Color: turn}
	if strings.HasPrefix(work, "同") {
		if prevDest == nil {
			return move, fmt.Errorf("%w: same-square move without previous destination", ErrSyntax)
		}
		move.To = *prevDest
		work = strings.TrimLeft(strings.TrimPrefix(work, "同"), " 　")
		if work == "" {
			// "同　歩(23)" splits into two fields.
			fields := strings.Fields(token)
			if len(fields) > 1 {
				work = fields[1]
			}
		}
	} else {
		runes := []rune(work)
		if len(runes) < 2 {
			return move, fmt.Errorf("%w: invalid move token %q", ErrSyntax, token)
		}
		file, ok := parseFileRune(runes[0])
		if !ok {
			return move, fmt.Errorf("%w: invalid destination file in %q", ErrSyntax, token)
		}
		rank, ok := kanjiDigit(runes[1])
		if !ok {
			return move, fmt.Errorf("%w: invalid destination rank in %q", ErrSyntax, token)
		}
		move.To = syogi.Pos{X: file, Y: rank}
		work = string(runes[2:])
	}

	if match := fromSquareRe.FindStringSubmatch(work); len(match) == 3 {
		from := syogi.Pos{X: int(match[1][0] - '0'), Y: int(match[2][0] - '0')}
		if !syogi.IsValidPos(from) {
			return move, fmt.Errorf("%w: invalid source square in %q", ErrSyntax, token)
		}
		move.From = &from
		work = fromSquareRe.ReplaceAllString(work, "")
	}

	kind, rest, err := parseMovingPiece(work)
	if err != nil {
		return move, err
	}
	move.Kind = kind
	switch rest {
	case "":
	case "成":
		move.Promote = true
	case "不成", "生":
	case "打":
		if move.From != nil {
			return move, fmt.Errorf("%w: drop with source square in %q", ErrSyntax, token)
		}
	default:
		return move, fmt.Errorf("%w: unexpected %q in %q", ErrSyntax, rest, token)
	}
	// No source square means a drop, even without 打, and only base kinds drop.
	if move.From == nil && (move.Kind.IsPromoted() || move.Kind == syogi.King) {
		return move, fmt.Errorf("%w: missing source square in %q", ErrSyntax, token)
	}
	if move.From == nil && move.Promote {
		return move, fmt.Errorf("%w: cannot promote on drop in %q", ErrSyntax, token)
	}
	return move, nil
}

type pieceName struct {
	name string
	kind syogi.Kind
}

// pieceNames is ordered so that two-rune names match before their suffixes.
var pieceNames = []pieceName{
	{name: "成銀", kind: syogi.PromSilver},
	{name: "成桂", kind: syogi.PromKnight},
	{name: "成香", kind: syogi.PromLance},
	{name: "全", kind: syogi.PromSilver},
	{name: "圭", kind: syogi.PromKnight},
	{name: "杏", kind: syogi.PromLance},
	{name: "と", kind: syogi.PromPawn},
	{name: "馬", kind: syogi.Horse},
	{name: "龍", kind: syogi.Dragon},
	{name: "竜", kind: syogi.Dragon},
	{name: "王", kind: syogi.King},
	{name: "玉", kind: syogi.King},
	{name: "飛", kind: syogi.Rook},
	{name: "角", kind: syogi.Bishop},
	{name: "金", kind: syogi.Gold},
	{name: "銀", kind: syogi.Silver},
	{name: "桂", kind: syogi.Knight},
	{name: "香", kind: syogi.Lance},
	{name: "歩", kind: syogi.Pawn},
}

func parseMovingPiece(text string) (syogi.Kind, string, error) {
	clean := strings.TrimSpace(text)
	for _, def := range pieceNames {
		if strings.HasPrefix(clean, def.name) {
			return def.kind, strings.TrimSpace(strings.TrimPrefix(clean, def.name)), nil
		}
	}
	return syogi.Pawn, "", fmt.Errorf("%w: unknown piece in %q", ErrSyntax, text)
}

func parseFileRune(r rune) (int, bool) {
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if r >= '１' && r <= '９' {
		return int(r-'１') + 1, true
	}
	return 0, false
}

func kanjiDigit(r rune) (int, bool) {
	for i := 1; i <= 9; i++ {
		if k, _ := syogi.Kansuji(i); k == r {
			return i, true
		}
	}
	return 0, false
}

func initialBoard(lines []string, header map[string]string) (*syogi.Board, error) {
	boardLines := collectBoardLines(lines)
	if len(boardLines) == 0 {
		handicap, ok := header["手合割"]
		if !ok || strings.Contains(handicap, "平手") {
			return syogi.NewHirate(), nil
		}
		return nil, fmt.Errorf("%w: handicap %q without board diagram", ErrSyntax, handicap)
	}
	board := syogi.NewBoard()
	if len(boardLines) != 9 {
		return nil, fmt.Errorf("%w: board lines must be 9 rows, got %d", ErrSyntax, len(boardLines))
	}
	for i, line := range boardLines {
		cells, err := parseBoardRow(line)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		for j, cell := range cells {
			// diagram columns run from file 9 down to file 1
			if err := board.Place(syogi.Pos{X: 9 - j, Y: i + 1}, cell); err != nil {
				return nil, err
			}
		}
	}
	for key, color := range map[string]syogi.Color{"先手の持駒": syogi.Black, "後手の持駒": syogi.White} {
		text, ok := header[key]
		if !ok {
			continue
		}
		counts, err := parseHandText(text)
		if err != nil {
			return nil, err
		}
		for kind, n := range counts {
			if err := board.SetHand(color, kind, n); err != nil {
				return nil, err
			}
		}
	}
	return board, nil
}

func collectBoardLines(lines []string) []string {
	var board []string
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if !strings.HasPrefix(trim, "|") {
			continue
		}
		end := strings.LastIndex(trim, "|")
		if end <= 0 {
			continue
		}
		board = append(board, trim[1:end])
	}
	return board
}

func parseBoardRow(row string) ([]syogi.Cell, error) {
	runes := []rune(row)
	var cells []syogi.Cell
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == ' ' || r == '\t' || r == '　' {
			i++
			continue
		}
		if r == '・' {
			cells = append(cells, syogi.Empty())
			i++
			continue
		}
		color := syogi.Black
		if r == 'v' {
			color = syogi.White
			i++
			if i >= len(runes) {
				return nil, fmt.Errorf("%w: dangling gote marker", ErrSyntax)
			}
		}
		kind, consumed, ok := boardPiece(runes[i:])
		if !ok {
			return nil, fmt.Errorf("%w: unknown piece %c", ErrSyntax, runes[i])
		}
		cells = append(cells, syogi.Occupied(syogi.NewPiece(color, kind)))
		i += consumed
	}
	if len(cells) != 9 {
		return nil, fmt.Errorf("%w: expected 9 cells, got %d", ErrSyntax, len(cells))
	}
	return cells, nil
}

func boardPiece(runes []rune) (syogi.Kind, int, bool) {
	for _, def := range pieceNames {
		name := []rune(def.name)
		if len(runes) >= len(name) && string(runes[:len(name)]) == def.name {
			return def.kind, len(name), true
		}
	}
	return syogi.Pawn, 0, false
}

func parseHandText(text string) (map[syogi.Kind]int, error) {
	text = strings.TrimSpace(text)
	counts := make(map[syogi.Kind]int)
	if text == "なし" || text == "" {
		return counts, nil
	}
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if runes[i] == ' ' || runes[i] == '　' {
			i++
			continue
		}
		kind, consumed, ok := boardPiece(runes[i:])
		if !ok || kind.IsPromoted() || kind == syogi.King {
			return nil, fmt.Errorf("%w: unknown hand piece %c", ErrSyntax, runes[i])
		}
		i += consumed
		n, used := kanjiCount(runes[i:])
		if used == 0 {
			n = 1
		}
		counts[kind] += n
		i += used
	}
	return counts, nil
}

// kanjiCount reads a count such as 二, 十, 十八 or 18.
func kanjiCount(runes []rune) (int, int) {
	value, i := 0, 0
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		value = value*10 + int(runes[i]-'0')
		i++
	}
	if i > 0 {
		return value, i
	}
	if i < len(runes) {
		if d, ok := kanjiDigit(runes[i]); ok {
			value = d
			i++
		}
	}
	if i < len(runes) && runes[i] == '十' {
		if value == 0 {
			value = 1
		}
		value *= 10
		i++
		if i < len(runes) {
			if d, ok := kanjiDigit(runes[i]); ok {
				value += d
				i++
			}
		}
	}
	return value, i
}

// CollectKIF returns every .kif file under root in lexical order.
func CollectKIF(root string) ([]string, error) {
	var files []string
	if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".kif") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
