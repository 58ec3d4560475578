package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Todo is one checklist item on a card.
type Todo struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Card is a unit of work. Column membership is not a card field: a card
// belongs to whichever column's list holds it.
type Card struct {
	ID        string
	Tag       string
	Text      string
	Todos     []Todo
	Link      string
	Deadline  string
	Assignees []string
	Created   string
	CreatedBy Identity
	Timeline  []Entry
}

// CardFields carries the editable fields of a card, used both for creation
// and for coalesced multi-field edits.
type CardFields struct {
	Text      string
	Tag       string
	Todos     []Todo
	Link      string
	Deadline  string
	Assignees []string
}

// timeNow is stubbed in tests.
var timeNow = time.Now

// NewCard mints a card from the given fields. Only the text is validated; a
// creation entry opens the timeline.
func NewCard(fields CardFields, who Identity) (*Card, error) {
	text := strings.TrimSpace(fields.Text)
	if text == "" {
		return nil, &ValidationError{Reason: "card text must not be empty"}
	}
	now := timeNow()
	c := &Card{
		ID:        NewCardID(),
		Tag:       fields.Tag,
		Text:      text,
		Todos:     fields.Todos,
		Link:      fields.Link,
		Deadline:  fields.Deadline,
		Assignees: fields.Assignees,
		Created:   now.Format(storedDateLayout),
		CreatedBy: who,
		Timeline:  []Entry{newEntry(EntryCreate, who, "Card Created", now)},
	}
	return c, nil
}

func (c *Card) logEdit(who Identity, text string) {
	c.Timeline = append(c.Timeline, newEntry(EntryEdit, who, text, timeNow()))
}

// UpdateText replaces the card text.
func (c *Card) UpdateText(text string, who Identity) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Reason: "card text must not be empty"}
	}
	c.Text = text
	c.logEdit(who, "edited this card")
	return nil
}

// UpdateTag points the card at another tag id. The id is not checked against
// the board's registry; unknown ids degrade at resolve time.
func (c *Card) UpdateTag(tagID string, who Identity) {
	c.Tag = tagID
	c.logEdit(who, "changed the tag")
}

// SetDeadline sets or clears the deadline ("YYYY-MM-DD" or "YYYY-MM-DD HH:MM").
func (c *Card) SetDeadline(deadline string, who Identity) {
	c.Deadline = deadline
	c.logEdit(who, "changed the deadline")
}

// SetAssignees replaces the assignee list with display names.
func (c *Card) SetAssignees(names []string, who Identity) {
	c.Assignees = names
	c.logEdit(who, "changed the assignees")
}

// SetTodos replaces the checklist.
func (c *Card) SetTodos(todos []Todo, who Identity) {
	c.Todos = todos
	c.logEdit(who, "changed the checklist")
}

// SetLink sets or clears the attached URL.
func (c *Card) SetLink(link string, who Identity) {
	c.Link = link
	c.logEdit(who, "changed the link")
}

// Apply overwrites all editable fields at once and records a single edit
// entry, so a multi-field modal save costs one timeline entry and one write.
func (c *Card) Apply(fields CardFields, who Identity) error {
	text := strings.TrimSpace(fields.Text)
	if text == "" {
		return &ValidationError{Reason: "card text must not be empty"}
	}
	c.Text = text
	c.Tag = fields.Tag
	c.Todos = fields.Todos
	c.Link = fields.Link
	c.Deadline = fields.Deadline
	c.Assignees = fields.Assignees
	c.logEdit(who, "edited this card")
	return nil
}

// ToggleTodo flips one checklist item. Toggles record no timeline entry.
func (c *Card) ToggleTodo(i int) error {
	if i < 0 || i >= len(c.Todos) {
		return &ValidationError{Reason: "no such checklist item"}
	}
	c.Todos[i].Done = !c.Todos[i].Done
	return nil
}

// AppendComment adds a comment entry stamped with the author and today's
// date. The returned index identifies the entry for later edit or delete.
func (c *Card) AppendComment(text string, who Identity) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, &ValidationError{Reason: "comment must not be empty"}
	}
	c.Timeline = append(c.Timeline, newEntry(EntryComment, who, text, timeNow()))
	return len(c.Timeline) - 1, nil
}

// EditComment rewrites the text of the comment entry at the given timeline
// index in place. Author and date are kept.
func (c *Card) EditComment(i int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Reason: "comment must not be empty"}
	}
	if i < 0 || i >= len(c.Timeline) || c.Timeline[i].Type != EntryComment {
		return &NotFoundError{Kind: "comment", ID: c.ID}
	}
	c.Timeline[i].Text = text
	return nil
}

// DeleteComment removes the comment entry at the given timeline index.
func (c *Card) DeleteComment(i int) error {
	if i < 0 || i >= len(c.Timeline) || c.Timeline[i].Type != EntryComment {
		return &NotFoundError{Kind: "comment", ID: c.ID}
	}
	c.Timeline = append(c.Timeline[:i], c.Timeline[i+1:]...)
	return nil
}

// logMove records a move entry naming the destination column.
func (c *Card) logMove(destTitle string, who Identity) {
	c.Timeline = append(c.Timeline, newEntry(EntryMove, who, "moved to "+destTitle, timeNow()))
}

// Comments counts the comment entries on the timeline.
func (c *Card) Comments() int {
	n := 0
	for _, e := range c.Timeline {
		if e.Type == EntryComment {
			n++
		}
	}
	return n
}

// Progress reports checklist completion as a rounded percentage. A card with
// no todos is at 0.
func (c *Card) Progress() int {
	if len(c.Todos) == 0 {
		return 0
	}
	done := 0
	for _, t := range c.Todos {
		if t.Done {
			done++
		}
	}
	return int(float64(done)/float64(len(c.Todos))*100 + 0.5)
}

// Overdue reports whether the deadline has passed. Date-only deadlines are
// compared against the start of today, so a card due today is not overdue.
func (c *Card) Overdue(now time.Time) bool {
	if c.Deadline == "" {
		return false
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", c.Deadline, now.Location()); err == nil {
		return t.Before(now)
	}
	t, err := time.ParseInLocation(storedDateLayout, c.Deadline, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.Before(today)
}

// AgeLabel renders the creation date as "Today", "1d ago", "Nd ago".
func (c *Card) AgeLabel(now time.Time) string {
	if c.Created == "" {
		return ""
	}
	t, err := time.ParseInLocation(storedDateLayout, c.Created, now.Location())
	if err != nil {
		return ""
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "1d ago"
	default:
		return strconv.Itoa(days) + "d ago"
	}
}

// LinkLabel shortens the card's URL to a bare site name: hostname with the
// leading "www." and the final dot-suffix stripped.
func (c *Card) LinkLabel() string {
	if c.Link == "" {
		return ""
	}
	u, err := url.Parse(c.Link)
	if err != nil || u.Hostname() == "" {
		return c.Link
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if i := strings.LastIndex(host, "."); i > 0 {
		host = host[:i]
	}
	return host
}
