package gateway

import (
	"context"
	"strconv"

	"corkboard/domain"
	"corkboard/storage"
)

// Session binds a signed-in identity to an open board and turns user actions
// into model mutations plus persistence writes. Every user-visible action
// costs exactly one write, however many fields it touched. High-frequency
// actions (drag moves, checkbox toggles, card create/delete) save silently;
// deliberate edits save with the success toast.
type Session struct {
	gw    *Gateway
	board *domain.Board
	who   domain.Identity
}

// NewSession opens a session over an already-loaded board.
func NewSession(gw *Gateway, board *domain.Board, who domain.Identity) *Session {
	return &Session{gw: gw, board: board, who: who}
}

// Board exposes the in-memory model. It is the source of truth until the
// next full load; the session never re-reads behind the caller's back.
func (s *Session) Board() *domain.Board { return s.board }

// Feed projects the recent-activity list from all card timelines.
func (s *Session) Feed() []domain.FeedItem { return domain.BuildFeed(s.board) }

// CreateCard validates and places a new card at the end of a column.
func (s *Session) CreateCard(ctx context.Context, columnID int, fields domain.CardFields) (*domain.Card, error) {
	card, err := domain.NewCard(fields, s.who)
	if err != nil {
		return nil, err
	}
	if err := s.board.AddCard(columnID, card); err != nil {
		return nil, err
	}
	s.gw.SaveBoardAsync(ctx, s.board, true)
	return card, nil
}

// EditCard applies a multi-field modal save as one edit and one write.
func (s *Session) EditCard(ctx context.Context, cardID string, fields domain.CardFields) error {
	card, _ := s.board.FindCard(cardID)
	if card == nil {
		return &domain.NotFoundError{Kind: "card", ID: cardID}
	}
	if err := card.Apply(fields, s.who); err != nil {
		return err
	}
	s.gw.SaveBoardAsync(ctx, s.board, false)
	return nil
}

// PostComment appends a comment to a card's timeline.
func (s *Session) PostComment(ctx context.Context, cardID, text string) (int, error) {
	card, _ := s.board.FindCard(cardID)
	if card == nil {
		return 0, &domain.NotFoundError{Kind: "card", ID: cardID}
	}
	i, err := card.AppendComment(text, s.who)
	if err != nil {
		return 0, err
	}
	s.gw.SaveBoardAsync(ctx, s.board, false)
	return i, nil
}

// EditComment rewrites one comment entry in place.
func (s *Session) EditComment(ctx context.Context, cardID string, entry int, text string) error {
	card, _ := s.board.FindCard(cardID)
	if card == nil {
		return &domain.NotFoundError{Kind: "card", ID: cardID}
	}
	if err := card.EditComment(entry, text); err != nil {
		return err
	}
	s.gw.SaveBoardAsync(ctx, s.board, false)
	return nil
}

// DeleteComment removes one comment entry.
func (s *Session) DeleteComment(ctx context.Context, cardID string, entry int) error {
	card, _ := s.board.FindCard(cardID)
	if card == nil {
		return &domain.NotFoundError{Kind: "card", ID: cardID}
	}
	if err := card.DeleteComment(entry); err != nil {
		return err
	}
	s.gw.SaveBoardAsync(ctx, s.board, true)
	return nil
}

// MoveCard relocates a card. The index is clamped to the target column.
func (s *Session) MoveCard(ctx context.Context, cardID string, columnID, index int) error {
	col := s.board.Column(columnID)
	if col == nil {
		return &domain.NotFoundError{Kind: "column", ID: strconv.Itoa(columnID)}
	}
	if index < 0 {
		index = 0
	}
	if index > len(col.Cards) {
		index = len(col.Cards)
	}
	if err := s.board.MoveCard(cardID, columnID, index, s.who); err != nil {
		return err
	}
	s.gw.SaveBoardAsync(ctx, s.board, true)
	return nil
}

// DeleteCard removes a card and its history.
func (s *Session) DeleteCard(ctx context.Context, cardID string) error {
	if err := s.board.DeleteCard(cardID); err != nil {
		return err
	}
	s.gw.SaveBoardAsync(ctx, s.board, true)
	return nil
}

// ToggleTodo flips a checklist item without touching the timeline.
func (s *Session) ToggleTodo(ctx context.Context, cardID string, item int) error {
	card, _ := s.board.FindCard(cardID)
	if card == nil {
		return &domain.NotFoundError{Kind: "card", ID: cardID}
	}
	if err := card.ToggleTodo(item); err != nil {
		return err
	}
	s.gw.SaveBoardAsync(ctx, s.board, true)
	return nil
}

// AddColumn inserts a column next to the anchor.
func (s *Session) AddColumn(ctx context.Context, title string, pos domain.Position, anchorID int) (*domain.Column, error) {
	col, err := s.board.AddColumn(title, pos, anchorID)
	if err != nil {
		return nil, err
	}
	s.gw.SaveBoardAsync(ctx, s.board, false)
	return col, nil
}

// RenameColumn retitles a column.
func (s *Session) RenameColumn(ctx context.Context, columnID int, title string) error {
	before := ""
	if col := s.board.Column(columnID); col != nil {
		before = col.Title
	}
	if err := s.board.RenameColumn(columnID, title); err != nil {
		return err
	}
	if col := s.board.Column(columnID); col != nil && col.Title == before {
		// Blank title is a no-op, nothing to persist.
		return nil
	}
	s.gw.SaveBoardAsync(ctx, s.board, false)
	return nil
}

// DeleteColumn removes an empty column. A NotEmptyError carries the blocking
// card count for the caller's warning dialog.
func (s *Session) DeleteColumn(ctx context.Context, columnID int) error {
	if err := s.board.DeleteColumn(columnID); err != nil {
		return err
	}
	s.gw.SaveBoardAsync(ctx, s.board, true)
	return nil
}

// ToggleArchive flips archive visibility. View state only, never persisted.
func (s *Session) ToggleArchive() {
	s.board.ShowArchive = !s.board.ShowArchive
}

// Search matches card text, case-insensitively.
func (s *Session) Search(query string) []*domain.Card {
	return s.board.Search(query)
}

// Tag operations persist only the tags field of the board document, not the
// full board.

// AddTag creates a tag and persists the registry.
func (s *Session) AddTag(ctx context.Context, label string) (domain.Tag, error) {
	tag, err := s.board.Tags.Add(label)
	if err != nil {
		return domain.Tag{}, err
	}
	return tag, s.persistTags(ctx)
}

// RenameTag relabels a tag in place.
func (s *Session) RenameTag(ctx context.Context, id, label string) error {
	if err := s.board.Tags.Rename(id, label); err != nil {
		return err
	}
	return s.persistTags(ctx)
}

// RecolorTag changes a tag's color.
func (s *Session) RecolorTag(ctx context.Context, id, color string) error {
	if err := s.board.Tags.Recolor(id, color); err != nil {
		return err
	}
	return s.persistTags(ctx)
}

// DeleteTag removes a tag; the last remaining tag is protected.
func (s *Session) DeleteTag(ctx context.Context, id string) error {
	if err := s.board.Tags.Delete(id); err != nil {
		return err
	}
	return s.persistTags(ctx)
}

// ApplyTheme recolors all tags from a named palette.
func (s *Session) ApplyTheme(ctx context.Context, name string) error {
	if err := s.board.Tags.ApplyTheme(name); err != nil {
		return err
	}
	return s.persistTags(ctx)
}

func (s *Session) persistTags(ctx context.Context) error {
	field, err := storage.Field(s.board.Tags.List())
	if err != nil {
		s.gw.notify.Error("Save failed")
		return &domain.ConnectionError{Op: "save tags", Err: err}
	}
	if err := s.gw.store.Update(ctx, storage.BoardsCollection, s.board.ID, storage.Document{"tags": field}); err != nil {
		s.gw.notify.Error("Save failed")
		return &domain.ConnectionError{Op: "save tags", Err: err}
	}
	return nil
}
