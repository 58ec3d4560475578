package domain

import (
	"strconv"
	"strings"
)

// Reserved column ids. Done is terminal and keeps its place at the end of the
// regular columns; Archive sits outside the normal layout entirely.
const (
	DoneColumnID    = 4
	ArchiveColumnID = 99
)

// Column is an ordered bucket of cards. Display order is the board's slice
// order; the id only identifies the column. Owner and Users are advisory
// metadata carried through from older documents and never enforced.
type Column struct {
	ID      int
	Title   string
	Archive bool
	Owner   string
	Users   []string
	Cards   []*Card
}

// Protected reports whether the column refuses rename, delete and adjacent
// insertion.
func (c *Column) Protected() bool {
	return c.Archive || c.ID == DoneColumnID || c.ID == ArchiveColumnID
}

// Board is a named collection of columns and cards with an access list. The
// owner is implicitly a member and may or may not appear in Users; both forms
// occur in stored documents.
type Board struct {
	ID      string
	Name    string
	Owner   string
	Users   []string
	Tags    *TagSet
	Columns []*Column

	// ShowArchive is view state only and never persisted.
	ShowArchive bool
}

// Anchor position for AddColumn.
type Position int

const (
	Before Position = iota
	After
)

// NewBoard builds a fresh board with the default column layout and tag set.
func NewBoard(name, owner string) *Board {
	return &Board{
		Name:  name,
		Owner: owner,
		Users: []string{owner},
		Tags:  NewTagSet(nil),
		Columns: []*Column{
			{ID: 1, Title: "To Do"},
			{ID: 2, Title: "In Progress"},
			{ID: 3, Title: "Review"},
			{ID: DoneColumnID, Title: "Done"},
			{ID: ArchiveColumnID, Title: "Archive", Archive: true},
		},
	}
}

// Column returns the column with the given id, or nil.
func (b *Board) Column(id int) *Column {
	for _, c := range b.Columns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (b *Board) columnIndex(id int) int {
	for i, c := range b.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// NextColumnID allocates the id for a new column: one past the highest
// regular (non-archive) id, recomputed live so ids freed by deletions are
// never handed out again while a higher id exists.
func (b *Board) NextColumnID() int {
	max := 0
	for _, c := range b.Columns {
		if c.Archive || c.ID == ArchiveColumnID {
			continue
		}
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

// AddColumn inserts a new column adjacent to the anchor. Inserting relative
// to the Archive column, or after Done, is refused; the refusal carries no
// user-facing message.
func (b *Board) AddColumn(title string, pos Position, anchorID int) (*Column, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Reason: "column title must not be empty"}
	}
	i := b.columnIndex(anchorID)
	if i < 0 {
		return nil, &NotFoundError{Kind: "column", ID: strconv.Itoa(anchorID)}
	}
	anchor := b.Columns[i]
	if anchor.Archive || anchor.ID == ArchiveColumnID {
		return nil, &ProtectedColumnError{ID: anchor.ID}
	}
	if pos == After && anchor.ID == DoneColumnID {
		return nil, &ProtectedColumnError{ID: anchor.ID}
	}
	col := &Column{ID: b.NextColumnID(), Title: title}
	at := i
	if pos == After {
		at = i + 1
	}
	b.Columns = append(b.Columns, nil)
	copy(b.Columns[at+1:], b.Columns[at:])
	b.Columns[at] = col
	return col, nil
}

// RenameColumn retitles a column. An empty title is a no-op; the Archive
// column refuses.
func (b *Board) RenameColumn(id int, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	col := b.Column(id)
	if col == nil {
		return &NotFoundError{Kind: "column", ID: strconv.Itoa(id)}
	}
	if col.Archive || col.ID == ArchiveColumnID {
		return &ProtectedColumnError{ID: col.ID}
	}
	col.Title = title
	return nil
}

// DeleteColumn removes an empty, unprotected column.
func (b *Board) DeleteColumn(id int) error {
	i := b.columnIndex(id)
	if i < 0 {
		return &NotFoundError{Kind: "column", ID: strconv.Itoa(id)}
	}
	col := b.Columns[i]
	if col.Protected() {
		return &ProtectedColumnError{ID: col.ID}
	}
	if n := len(col.Cards); n > 0 {
		return &NotEmptyError{Count: n}
	}
	b.Columns = append(b.Columns[:i], b.Columns[i+1:]...)
	return nil
}

// AddCard places a card at the end of a column.
func (b *Board) AddCard(columnID int, card *Card) error {
	col := b.Column(columnID)
	if col == nil {
		return &NotFoundError{Kind: "column", ID: strconv.Itoa(columnID)}
	}
	col.Cards = append(col.Cards, card)
	return nil
}

// FindCard locates a card and its current column.
func (b *Board) FindCard(cardID string) (*Card, *Column) {
	for _, col := range b.Columns {
		for _, card := range col.Cards {
			if card.ID == cardID {
				return card, col
			}
		}
	}
	return nil, nil
}

// MoveCard reinserts a card at the given position of the target column and
// records a move entry naming the destination. The index is clamped to the
// target's length after the card is lifted out, so a same-column move to the
// old tail position stays in range.
func (b *Board) MoveCard(cardID string, targetColumnID, index int, who Identity) error {
	card, src := b.FindCard(cardID)
	if card == nil {
		return &NotFoundError{Kind: "card", ID: cardID}
	}
	dst := b.Column(targetColumnID)
	if dst == nil {
		return &NotFoundError{Kind: "column", ID: strconv.Itoa(targetColumnID)}
	}
	for i, c := range src.Cards {
		if c == card {
			src.Cards = append(src.Cards[:i], src.Cards[i+1:]...)
			break
		}
	}
	if index < 0 {
		index = 0
	}
	if index > len(dst.Cards) {
		index = len(dst.Cards)
	}
	dst.Cards = append(dst.Cards, nil)
	copy(dst.Cards[index+1:], dst.Cards[index:])
	dst.Cards[index] = card
	card.logMove(dst.Title, who)
	return nil
}

// DeleteCard removes a card outright, its timeline with it.
func (b *Board) DeleteCard(cardID string) error {
	for _, col := range b.Columns {
		for i, card := range col.Cards {
			if card.ID == cardID {
				col.Cards = append(col.Cards[:i], col.Cards[i+1:]...)
				return nil
			}
		}
	}
	return &NotFoundError{Kind: "card", ID: cardID}
}

// Participants returns the user ids shown as members: everyone in Users
// except the owner.
func (b *Board) Participants() []string {
	out := make([]string, 0, len(b.Users))
	for _, uid := range b.Users {
		if uid != b.Owner {
			out = append(out, uid)
		}
	}
	return out
}

// Search returns cards whose text or resolved tag label contains the query,
// case-insensitively. An empty query matches nothing.
func (b *Board) Search(query string) []*Card {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []*Card
	for _, col := range b.Columns {
		for _, card := range col.Cards {
			label := b.Tags.Resolve(card.Tag).Label
			if strings.Contains(strings.ToLower(card.Text), query) ||
				strings.Contains(strings.ToLower(label), query) {
				out = append(out, card)
			}
		}
	}
	return out
}
