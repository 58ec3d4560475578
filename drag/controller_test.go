package drag

import (
	"context"
	"errors"
	"testing"

	"corkboard/domain"
	"corkboard/gateway"
)

var _ Mover = (*gateway.Session)(nil)

type moveCall struct {
	cardID   string
	columnID int
	index    int
}

type stubMover struct {
	board *domain.Board
	moves []moveCall
	err   error
}

func (m *stubMover) Board() *domain.Board { return m.board }

func (m *stubMover) MoveCard(ctx context.Context, cardID string, columnID, index int) error {
	if m.err != nil {
		return m.err
	}
	m.moves = append(m.moves, moveCall{cardID: cardID, columnID: columnID, index: index})
	return m.board.MoveCard(cardID, columnID, index, domain.Identity{UID: "u1", DisplayName: "Ada"})
}

// newTestMover seeds three cards in To Do and one in In Progress.
func newTestMover(t *testing.T) (*stubMover, []string) {
	t.Helper()
	board := domain.NewBoard("Sprint", "u1")
	who := domain.Identity{UID: "u1", DisplayName: "Ada"}
	var ids []string
	for _, text := range []string{"a", "b", "c"} {
		card, err := domain.NewCard(domain.CardFields{Text: text, Tag: "task"}, who)
		if err != nil {
			t.Fatalf("new card: %v", err)
		}
		if err := board.AddCard(1, card); err != nil {
			t.Fatalf("add card: %v", err)
		}
		ids = append(ids, card.ID)
	}
	card, err := domain.NewCard(domain.CardFields{Text: "d", Tag: "task"}, who)
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	if err := board.AddCard(2, card); err != nil {
		t.Fatalf("add card: %v", err)
	}
	ids = append(ids, card.ID)
	return &stubMover{board: board}, ids
}

func columnOrder(t *testing.T, board *domain.Board, columnID int) []string {
	t.Helper()
	col := board.Column(columnID)
	if col == nil {
		t.Fatalf("column %d missing", columnID)
	}
	out := make([]string, len(col.Cards))
	for i, card := range col.Cards {
		out[i] = card.ID
	}
	return out
}

func TestDropInsertsBeforeHoveredCard(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	if err := c.Start(ids[2]); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.HoverCard(ids[0])
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}

	if len(mover.moves) != 1 {
		t.Fatalf("expected one move, got %d", len(mover.moves))
	}
	got := columnOrder(t, mover.board, 1)
	want := []string{ids[2], ids[0], ids[1]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
	if c.Dragging() {
		t.Fatal("drop should end the drag")
	}
}

func TestDropInsertsBeforeLaterCardInSameColumn(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	c.Start(ids[0])
	c.HoverCard(ids[2])
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}

	got := columnOrder(t, mover.board, 1)
	want := []string{ids[1], ids[0], ids[2]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestDropAppendsToHoveredColumn(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	c.Start(ids[0])
	c.HoverColumn(2)
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}

	got := columnOrder(t, mover.board, 2)
	if len(got) != 2 || got[1] != ids[0] {
		t.Fatalf("card not appended: %v", got)
	}

	card, _ := mover.board.FindCard(ids[0])
	last := card.Timeline[len(card.Timeline)-1]
	if last.Type != domain.EntryMove || last.Text != "moved to In Progress" {
		t.Fatalf("unexpected move entry: %+v", last)
	}
}

func TestDropAppendsWithinSameColumn(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	c.Start(ids[0])
	c.HoverColumn(1)
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}

	got := columnOrder(t, mover.board, 1)
	want := []string{ids[1], ids[2], ids[0]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
	if mover.moves[0].index != 2 {
		t.Fatalf("unexpected insertion index: %d", mover.moves[0].index)
	}
}

func TestDropOnSelfIsNoOp(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	c.Start(ids[0])
	c.HoverCard(ids[0])
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}

	if len(mover.moves) != 0 {
		t.Fatalf("self drop must not move, got %v", mover.moves)
	}
	if c.Dragging() {
		t.Fatal("drop should end the drag")
	}
}

func TestDropWithoutTargetIsNoOp(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	c.Start(ids[0])
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if len(mover.moves) != 0 {
		t.Fatalf("targetless drop must not move, got %v", mover.moves)
	}
}

func TestCancelMutatesNothing(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	c.Start(ids[0])
	c.HoverCard(ids[1])
	c.Cancel()

	if c.Dragging() || c.AnchorCard() != "" {
		t.Fatal("cancel should clear all drag state")
	}
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop after cancel: %v", err)
	}
	if len(mover.moves) != 0 {
		t.Fatalf("cancel must not move, got %v", mover.moves)
	}
}

func TestHoverIgnoredWhenIdle(t *testing.T) {
	mover, ids := newTestMover(t)
	c := New(mover, nil)

	c.HoverCard(ids[1])
	c.HoverColumn(2)
	if c.AnchorCard() != "" {
		t.Fatal("hover must be ignored while idle")
	}
	if _, ok := c.AnchorColumn(); ok {
		t.Fatal("column hover must be ignored while idle")
	}
}

func TestStartUnknownCard(t *testing.T) {
	mover, _ := newTestMover(t)
	c := New(mover, nil)

	var nf *domain.NotFoundError
	if err := c.Start("task-0"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if c.Dragging() {
		t.Fatal("failed start must stay idle")
	}
}

func TestDropIntoDoneFiresCelebrator(t *testing.T) {
	mover, ids := newTestMover(t)
	celebrated := 0
	c := New(mover, func() { celebrated++ })

	c.Start(ids[0])
	c.HoverColumn(domain.DoneColumnID)
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if celebrated != 1 {
		t.Fatalf("expected one celebration, got %d", celebrated)
	}

	// Reordering inside Done is not a completion.
	c.Start(ids[0])
	c.HoverColumn(domain.DoneColumnID)
	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if celebrated != 1 {
		t.Fatalf("move within Done must not celebrate, got %d", celebrated)
	}
}

func TestMoveErrorPropagatesWithoutCelebration(t *testing.T) {
	mover, ids := newTestMover(t)
	mover.err = errors.New("store down")
	celebrated := 0
	c := New(mover, func() { celebrated++ })

	c.Start(ids[0])
	c.HoverColumn(domain.DoneColumnID)
	if err := c.Drop(context.Background()); err == nil {
		t.Fatal("expected move error to propagate")
	}
	if celebrated != 0 {
		t.Fatal("failed move must not celebrate")
	}
}
