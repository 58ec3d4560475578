package domain

import (
	"errors"
	"testing"
)

func testIdentity() Identity {
	return Identity{UID: "u1", DisplayName: "Ada", Email: "ada@example.com"}
}

func TestNewBoardDefaultLayout(t *testing.T) {
	b := NewBoard("Sprint 1", "u1")
	want := []struct {
		id    int
		title string
	}{
		{1, "To Do"}, {2, "In Progress"}, {3, "Review"}, {4, "Done"}, {99, "Archive"},
	}
	if len(b.Columns) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(b.Columns))
	}
	for i, w := range want {
		if b.Columns[i].ID != w.id || b.Columns[i].Title != w.title {
			t.Fatalf("column %d = %d %q, want %d %q", i, b.Columns[i].ID, b.Columns[i].Title, w.id, w.title)
		}
	}
	if !b.Columns[4].Archive {
		t.Fatal("archive column not flagged")
	}
	if b.Tags.Len() == 0 {
		t.Fatal("new board has no tags")
	}
}

func TestMoveCardToDoneRecordsMoveEntry(t *testing.T) {
	b := NewBoard("Sprint 1", "u1")
	card, err := NewCard(CardFields{Text: "ship it", Tag: "task"}, testIdentity())
	if err != nil {
		t.Fatalf("new card: %v", err)
	}
	if err := b.AddCard(1, card); err != nil {
		t.Fatalf("add card: %v", err)
	}
	if err := b.MoveCard(card.ID, DoneColumnID, 0, testIdentity()); err != nil {
		t.Fatalf("move card: %v", err)
	}

	_, col := b.FindCard(card.ID)
	if col == nil || col.ID != DoneColumnID {
		t.Fatalf("card not in done column")
	}
	last := card.Timeline[len(card.Timeline)-1]
	if last.Type != EntryMove || last.Text != "moved to Done" {
		t.Fatalf("unexpected move entry: %#v", last)
	}

	doc := b.Document()
	if got := len(doc.Tasks.Columns[3].Tasks); got != 1 {
		t.Fatalf("expected card in tasks.columns[3], got %d tasks", got)
	}
	if got := len(doc.Tasks.Columns[0].Tasks); got != 0 {
		t.Fatalf("expected empty To Do task list, got %d", got)
	}
}

func TestAddColumnAfterAnchor(t *testing.T) {
	b := NewBoard("b", "u1")
	col, err := b.AddColumn("QA", After, 2)
	if err != nil {
		t.Fatalf("add column: %v", err)
	}
	if col.ID != 5 {
		t.Fatalf("expected id 5, got %d", col.ID)
	}
	if b.Columns[2] != col {
		t.Fatalf("column not inserted after anchor: %v", b.Columns)
	}
}

func TestAddColumnRefusesArchiveAnchorAndAfterDone(t *testing.T) {
	b := NewBoard("b", "u1")
	var perr *ProtectedColumnError

	if _, err := b.AddColumn("X", Before, ArchiveColumnID); !errors.As(err, &perr) {
		t.Fatalf("expected protected error on archive anchor, got %v", err)
	}
	if _, err := b.AddColumn("X", After, DoneColumnID); !errors.As(err, &perr) {
		t.Fatalf("expected protected error adding after done, got %v", err)
	}
	if _, err := b.AddColumn("X", Before, DoneColumnID); err != nil {
		t.Fatalf("adding before done should work: %v", err)
	}
}

func TestNextColumnIDAfterDeletingHighest(t *testing.T) {
	b := NewBoard("b", "u1")
	col, err := b.AddColumn("QA", After, 3)
	if err != nil {
		t.Fatalf("add column: %v", err)
	}
	if err := b.DeleteColumn(col.ID); err != nil {
		t.Fatalf("delete column: %v", err)
	}
	next, err := b.AddColumn("QA2", After, 3)
	if err != nil {
		t.Fatalf("re-add column: %v", err)
	}
	for _, c := range b.Columns {
		if c != next && c.ID == next.ID {
			t.Fatalf("id %d collides with existing column", next.ID)
		}
	}
}

func TestDeleteColumnGuards(t *testing.T) {
	b := NewBoard("b", "u1")
	card, _ := NewCard(CardFields{Text: "x", Tag: "task"}, testIdentity())
	if err := b.AddCard(1, card); err != nil {
		t.Fatalf("add card: %v", err)
	}

	err := b.DeleteColumn(1)
	var nerr *NotEmptyError
	if !errors.As(err, &nerr) || nerr.Count != 1 {
		t.Fatalf("expected NotEmptyError{1}, got %v", err)
	}
	if b.Column(1) == nil {
		t.Fatal("refused delete removed the column")
	}

	var perr *ProtectedColumnError
	if err := b.DeleteColumn(DoneColumnID); !errors.As(err, &perr) {
		t.Fatalf("expected protected error for done, got %v", err)
	}
	if err := b.DeleteColumn(ArchiveColumnID); !errors.As(err, &perr) {
		t.Fatalf("expected protected error for archive, got %v", err)
	}

	if err := b.DeleteColumn(2); err != nil {
		t.Fatalf("delete empty regular column: %v", err)
	}
}

func TestRenameColumn(t *testing.T) {
	b := NewBoard("b", "u1")
	if err := b.RenameColumn(1, "Backlog"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if b.Column(1).Title != "Backlog" {
		t.Fatalf("title not updated: %q", b.Column(1).Title)
	}

	if err := b.RenameColumn(1, "   "); err != nil {
		t.Fatalf("blank rename should be a no-op, got %v", err)
	}
	if b.Column(1).Title != "Backlog" {
		t.Fatal("blank rename changed the title")
	}

	var perr *ProtectedColumnError
	if err := b.RenameColumn(ArchiveColumnID, "Trash"); !errors.As(err, &perr) {
		t.Fatalf("expected protected error renaming archive, got %v", err)
	}
}

func TestParticipantsExcludeOwner(t *testing.T) {
	b := NewBoard("b", "u1")
	b.Users = []string{"u1", "u2", "u3"}
	got := b.Participants()
	if len(got) != 2 || got[0] != "u2" || got[1] != "u3" {
		t.Fatalf("unexpected participants: %v", got)
	}
}

func TestSearchMatchesCaseInsensitively(t *testing.T) {
	b := NewBoard("b", "u1")
	c1, _ := NewCard(CardFields{Text: "Fix login flow", Tag: "task"}, testIdentity())
	c2, _ := NewCard(CardFields{Text: "Write docs", Tag: "task"}, testIdentity())
	b.AddCard(1, c1)
	b.AddCard(2, c2)

	got := b.Search("LOGIN")
	if len(got) != 1 || got[0] != c1 {
		t.Fatalf("unexpected search result: %v", got)
	}
	if got := b.Search("  "); got != nil {
		t.Fatalf("blank query should match nothing, got %v", got)
	}
}

func TestSearchMatchesTagLabel(t *testing.T) {
	b := NewBoard("b", "u1")
	c1, _ := NewCard(CardFields{Text: "fix the login flow", Tag: "urgent"}, testIdentity())
	c2, _ := NewCard(CardFields{Text: "write docs", Tag: "task"}, testIdentity())
	b.AddCard(1, c1)
	b.AddCard(1, c2)

	got := b.Search("urgent")
	if len(got) != 1 || got[0] != c1 {
		t.Fatalf("expected a tag-label match, got %v", got)
	}
	if got := b.Search("URGENT"); len(got) != 1 || got[0] != c1 {
		t.Fatalf("tag-label match should ignore case, got %v", got)
	}
}
