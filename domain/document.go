package domain

import "strings"

// The persisted board shape: one document per board, with the column list
// and the per-column task lists stored as two parallel arrays. The arrays
// are positionally coupled, columns[i] and tasks.columns[i] describe the
// same column and share an id. Readers of older documents rely on this
// layout, so it is preserved on the wire even though the in-memory model
// keys everything by column id.

// AuthorDoc is the identity snapshot stored on cards.
type AuthorDoc struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// TodoDoc mirrors Todo on the wire.
type TodoDoc struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TaskDoc is one stored card. Derived values (overdue, age, progress) are
// never written.
type TaskDoc struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag"`
	Text      string    `json:"text"`
	Todos     []TodoDoc `json:"todos,omitempty"`
	Link      string    `json:"link,omitempty"`
	Deadline  string    `json:"deadline,omitempty"`
	Assignee  string    `json:"assignee,omitempty"`
	Created   string    `json:"created,omitempty"`
	CreatedBy AuthorDoc `json:"createdBy,omitempty"`
	Timeline  []Entry   `json:"timeline,omitempty"`
}

// ColumnDoc is one stored column definition.
type ColumnDoc struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Archive bool     `json:"archive,omitempty"`
	Owner   string   `json:"owner,omitempty"`
	Users   []string `json:"users,omitempty"`
}

// TaskColumnDoc pairs a column id with its stored cards.
type TaskColumnDoc struct {
	ID    int       `json:"id"`
	Tasks []TaskDoc `json:"tasks"`
}

// ColumnListDoc and TaskListDoc wrap the parallel arrays the way the stored
// documents nest them.
type ColumnListDoc struct {
	Columns []ColumnDoc `json:"columns"`
}

type TaskListDoc struct {
	Columns []TaskColumnDoc `json:"columns"`
}

// BoardDoc is the full stored board document.
type BoardDoc struct {
	Name    string        `json:"name"`
	Owner   string        `json:"owner"`
	Users   []string      `json:"users"`
	Tags    []Tag         `json:"tags"`
	Columns ColumnListDoc `json:"columns"`
	Tasks   TaskListDoc   `json:"tasks"`
}

// UserDoc is the stored per-identity profile, upserted on sign-in.
type UserDoc struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
	LastLogin   string `json:"lastLogin,omitempty"`
	Favourite   string `json:"favourite,omitempty"`
}

// Document projects the board into its stored shape.
func (b *Board) Document() BoardDoc {
	doc := BoardDoc{
		Name:  b.Name,
		Owner: b.Owner,
		Users: append([]string(nil), b.Users...),
		Tags:  b.Tags.List(),
	}
	for _, col := range b.Columns {
		doc.Columns.Columns = append(doc.Columns.Columns, ColumnDoc{
			ID:      col.ID,
			Title:   col.Title,
			Archive: col.Archive,
			Owner:   col.Owner,
			Users:   col.Users,
		})
		tc := TaskColumnDoc{ID: col.ID, Tasks: []TaskDoc{}}
		for _, card := range col.Cards {
			tc.Tasks = append(tc.Tasks, serializeCard(card))
		}
		doc.Tasks.Columns = append(doc.Tasks.Columns, tc)
	}
	return doc
}

func serializeCard(c *Card) TaskDoc {
	d := TaskDoc{
		ID:       c.ID,
		Tag:      c.Tag,
		Text:     c.Text,
		Link:     c.Link,
		Deadline: c.Deadline,
		Assignee: strings.Join(c.Assignees, ", "),
		Created:  c.Created,
		CreatedBy: AuthorDoc{
			UID:         c.CreatedBy.UID,
			DisplayName: c.CreatedBy.DisplayName,
			PhotoURL:    c.CreatedBy.PhotoURL,
		},
		Timeline: append([]Entry(nil), c.Timeline...),
	}
	for _, t := range c.Todos {
		d.Todos = append(d.Todos, TodoDoc{Text: t.Text, Done: t.Done})
	}
	return d
}

// BoardFromDocument rebuilds a board from its stored shape. Task lists are
// matched to columns by id first, falling back to array position for
// documents written before ids were carried on both sides. Missing optional
// fields default to empty; a missing tag list gets the default set.
func BoardFromDocument(id string, doc BoardDoc) *Board {
	b := &Board{
		ID:    id,
		Name:  doc.Name,
		Owner: doc.Owner,
		Users: append([]string(nil), doc.Users...),
		Tags:  NewTagSet(doc.Tags),
	}
	for i, cd := range doc.Columns.Columns {
		col := &Column{
			ID:      cd.ID,
			Title:   cd.Title,
			Archive: cd.Archive || cd.ID == ArchiveColumnID,
			Owner:   cd.Owner,
			Users:   cd.Users,
		}
		for _, td := range tasksForColumn(doc.Tasks.Columns, cd.ID, i) {
			col.Cards = append(col.Cards, deserializeCard(td))
		}
		b.Columns = append(b.Columns, col)
	}
	return b
}

func tasksForColumn(cols []TaskColumnDoc, id, pos int) []TaskDoc {
	for _, tc := range cols {
		if tc.ID == id {
			return tc.Tasks
		}
	}
	if pos < len(cols) {
		return cols[pos].Tasks
	}
	return nil
}

func deserializeCard(d TaskDoc) *Card {
	c := &Card{
		ID:       d.ID,
		Tag:      d.Tag,
		Text:     d.Text,
		Link:     d.Link,
		Deadline: d.Deadline,
		Created:  d.Created,
		CreatedBy: Identity{
			UID:         d.CreatedBy.UID,
			DisplayName: d.CreatedBy.DisplayName,
			PhotoURL:    d.CreatedBy.PhotoURL,
		},
		Timeline: append([]Entry(nil), d.Timeline...),
	}
	for _, t := range d.Todos {
		c.Todos = append(c.Todos, Todo{Text: t.Text, Done: t.Done})
	}
	if d.Assignee != "" {
		for _, name := range strings.Split(d.Assignee, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Assignees = append(c.Assignees, name)
			}
		}
	}
	return c
}
