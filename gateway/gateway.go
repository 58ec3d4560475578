package gateway

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"corkboard/domain"
	"corkboard/storage"
)

// Notifier receives the user-facing outcome of background operations. Toast
// is the non-blocking success note, Error its failure counterpart.
type Notifier interface {
	Toast(message string)
	Error(message string)
}

// NopNotifier drops all notifications.
type NopNotifier struct{}

func (NopNotifier) Toast(string) {}
func (NopNotifier) Error(string) {}

// Gateway is the synchronization protocol between the in-memory board model
// and the document store. Boards are read once per load; every local
// mutation writes the full board back with merge semantics. There is no
// subscription model and no retry: a failed save is terminal for that
// attempt.
type Gateway struct {
	store  storage.DocumentStore
	notify Notifier
	logger *log.Logger

	wg  sync.WaitGroup
	now func() time.Time
}

// New creates a Gateway. A nil notifier drops notifications.
func New(store storage.DocumentStore, notify Notifier, logger *log.Logger) *Gateway {
	if notify == nil {
		notify = NopNotifier{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Gateway{store: store, notify: notify, logger: logger, now: time.Now}
}

// LoadBoard reads one board document and rebuilds the model from it.
func (g *Gateway) LoadBoard(ctx context.Context, id string) (*domain.Board, error) {
	raw, err := g.store.Get(ctx, storage.BoardsCollection, id)
	if err == storage.ErrNotFound {
		return nil, &domain.NotFoundError{Kind: "board", ID: id}
	}
	if err != nil {
		return nil, &domain.ConnectionError{Op: "load board", Err: err}
	}
	var doc domain.BoardDoc
	if err := storage.Decode(raw, &doc); err != nil {
		return nil, &domain.ConnectionError{Op: "load board", Err: err}
	}
	return domain.BoardFromDocument(id, doc), nil
}

// SaveBoard serializes the whole board and writes it with merge semantics.
// silent suppresses the success toast; failures always surface.
func (g *Gateway) SaveBoard(ctx context.Context, board *domain.Board, silent bool) error {
	metrics, spanCtx := newSaveMetrics(ctx, g.logger, board.ID, silent)

	serializeStart := time.Now()
	raw, err := storage.Encode(board.Document())
	metrics.ObserveSerialize(time.Since(serializeStart))
	if err != nil {
		metrics.SetErrorStage("serialize")
		metrics.Log(err)
		g.notify.Error("Save failed")
		return &domain.ConnectionError{Op: "save board", Err: err}
	}

	return g.write(spanCtx, metrics, board.ID, raw, silent)
}

// SaveBoardAsync issues a fire-and-forget save. The board id and payload are
// captured now, so switching boards mid-flight cannot redirect the write.
// Two in-flight saves for the same board race; the store applies them in
// completion order.
func (g *Gateway) SaveBoardAsync(ctx context.Context, board *domain.Board, silent bool) {
	metrics, spanCtx := newSaveMetrics(ctx, g.logger, board.ID, silent)

	serializeStart := time.Now()
	raw, err := storage.Encode(board.Document())
	metrics.ObserveSerialize(time.Since(serializeStart))
	if err != nil {
		metrics.SetErrorStage("serialize")
		metrics.Log(err)
		g.notify.Error("Save failed")
		return
	}

	id := board.ID
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		_ = g.write(spanCtx, metrics, id, raw, silent)
	}()
}

func (g *Gateway) write(ctx context.Context, metrics *saveMetrics, id string, raw storage.Document, silent bool) error {
	writeStart := time.Now()
	err := g.store.Set(ctx, storage.BoardsCollection, id, raw)
	metrics.ObserveWrite(time.Since(writeStart))
	if err != nil {
		metrics.SetErrorStage("write")
		metrics.Log(err)
		g.logger.WithFields(log.Fields{"board": id, "error": err}).Error("board save failed")
		g.notify.Error("Save failed")
		return &domain.ConnectionError{Op: "save board", Err: err}
	}
	metrics.Log(nil)
	if !silent {
		g.notify.Toast("Saved ✓")
	}
	return nil
}

// Wait blocks until all in-flight async saves have completed.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

// CreateBoard writes a new board with the default layout and returns it with
// its generated id.
func (g *Gateway) CreateBoard(ctx context.Context, name, owner string) (*domain.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Reason: "board name must not be empty"}
	}
	board := domain.NewBoard(name, owner)
	raw, err := storage.Encode(board.Document())
	if err != nil {
		g.notify.Error("Could not create board")
		return nil, &domain.ConnectionError{Op: "create board", Err: err}
	}
	id, err := g.store.Add(ctx, storage.BoardsCollection, raw)
	if err != nil {
		g.notify.Error("Could not create board")
		return nil, &domain.ConnectionError{Op: "create board", Err: err}
	}
	board.ID = id
	return board, nil
}

// DeleteBoard removes a board permanently. Picking the next board to show is
// the caller's concern.
func (g *Gateway) DeleteBoard(ctx context.Context, id string) error {
	err := g.store.Delete(ctx, storage.BoardsCollection, id)
	if err == storage.ErrNotFound {
		g.notify.Error("Delete failed")
		return &domain.NotFoundError{Kind: "board", ID: id}
	}
	if err != nil {
		g.notify.Error("Delete failed")
		return &domain.ConnectionError{Op: "delete board", Err: err}
	}
	g.notify.Toast("Board deleted")
	return nil
}

// RenameBoard writes only the name field.
func (g *Gateway) RenameBoard(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ValidationError{Reason: "board name must not be empty"}
	}
	field, err := storage.Field(name)
	if err != nil {
		return &domain.ConnectionError{Op: "rename board", Err: err}
	}
	if err := g.store.Update(ctx, storage.BoardsCollection, id, storage.Document{"name": field}); err != nil {
		g.notify.Error("Rename failed")
		return &domain.ConnectionError{Op: "rename board", Err: err}
	}
	g.notify.Toast("Board renamed")
	return nil
}

// BoardSummary is one row of the board selector.
type BoardSummary struct {
	ID    string
	Name  string
	Owner string
}

// ListBoards returns the boards the user can open: every board whose users
// array holds the uid, plus boards they own but were never listed in. The
// "main" board sorts first, the rest by name, case-insensitively.
func (g *Gateway) ListBoards(ctx context.Context, uid string) ([]BoardSummary, error) {
	member, err := g.store.QueryByArrayMembership(ctx, storage.BoardsCollection, "users", uid)
	if err != nil {
		return nil, &domain.ConnectionError{Op: "list boards", Err: err}
	}
	owned, err := g.store.QueryByField(ctx, storage.BoardsCollection, "owner", uid)
	if err != nil {
		return nil, &domain.ConnectionError{Op: "list boards", Err: err}
	}
	for id, doc := range owned {
		if _, ok := member[id]; !ok {
			member[id] = doc
		}
	}

	out := make([]BoardSummary, 0, len(member))
	for id, raw := range member {
		var header struct {
			Name  string `json:"name"`
			Owner string `json:"owner"`
		}
		if err := storage.Decode(raw, &header); err != nil {
			continue
		}
		name := header.Name
		if name == "" {
			name = id
		}
		out = append(out, BoardSummary{ID: id, Name: name, Owner: header.Owner})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == "main" {
			return true
		}
		if out[j].ID == "main" {
			return false
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// PickBoard chooses which board to open after sign-in: the user's favourite
// when it is still accessible, then "main", then the first listed. Returns
// "" when the user has no boards at all.
func (g *Gateway) PickBoard(ctx context.Context, uid string) (string, error) {
	boards, err := g.ListBoards(ctx, uid)
	if err != nil {
		return "", err
	}
	if len(boards) == 0 {
		return "", nil
	}

	var favourite string
	if profile, err := g.UserProfile(ctx, uid); err == nil {
		favourite = profile.Favourite
	}
	for _, b := range boards {
		if favourite != "" && b.ID == favourite {
			return b.ID, nil
		}
	}
	for _, b := range boards {
		if b.ID == "main" {
			return b.ID, nil
		}
	}
	return boards[0].ID, nil
}
