package domain

import (
	"sort"
	"time"
)

// EntryType discriminates timeline events on a card.
type EntryType string

const (
	EntryCreate  EntryType = "create"
	EntryEdit    EntryType = "edit"
	EntryComment EntryType = "comment"
	EntryMove    EntryType = "move"
	EntryDelete  EntryType = "delete"
)

// Entry is one recorded event on a card. Author and photo are snapshots taken
// when the entry was written, not live references. The date is stored in its
// display form.
type Entry struct {
	Type        EntryType `json:"type"`
	Author      string    `json:"author"`
	AuthorPhoto string    `json:"authorPhoto"`
	Text        string    `json:"text"`
	Date        string    `json:"date"`
}

const (
	entryDateLayout  = "Jan 2"
	createDateLayout = "Jan 2, 2006"
	storedDateLayout = "2006-01-02"
)

func newEntry(typ EntryType, who Identity, text string, now time.Time) Entry {
	layout := entryDateLayout
	if typ == EntryCreate {
		layout = createDateLayout
	}
	return Entry{
		Type:        typ,
		Author:      who.AuthorName(),
		AuthorPhoto: who.PhotoURL,
		Text:        text,
		Date:        now.Format(layout),
	}
}

// FeedItem is one line of the board-wide activity feed, tying an entry back to
// the card it belongs to.
type FeedItem struct {
	CardID   string
	CardText string
	Entry    Entry
}

const feedLimit = 20

// BuildFeed projects the timelines of all cards on a board into the recent
// activity list: newest first, capped at 20, creation entries excluded. The
// feed is derived on every call and never persisted.
//
// Sorting parses each entry's display date, which carries no year. Entries
// from different years therefore interleave by month and day only. That
// matches what readers of the stored documents expect; changing it would
// require a sortable date on the wire.
func BuildFeed(board *Board) []FeedItem {
	var items []FeedItem
	for _, col := range board.Columns {
		for _, card := range col.Cards {
			for _, e := range card.Timeline {
				if e.Type == EntryCreate {
					continue
				}
				items = append(items, FeedItem{CardID: card.ID, CardText: card.Text, Entry: e})
			}
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return feedSortKey(items[i].Entry.Date) > feedSortKey(items[j].Entry.Date)
	})
	if len(items) > feedLimit {
		items = items[:feedLimit]
	}
	return items
}

// feedSortKey flattens a display date into month*31+day. Unparseable dates
// sort last.
func feedSortKey(date string) int {
	t, err := time.Parse(entryDateLayout, date)
	if err != nil {
		return -1
	}
	return int(t.Month())*31 + t.Day()
}
