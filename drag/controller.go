package drag

import (
	"context"
	"strconv"

	"corkboard/domain"
)

// Mover applies a card relocation and persists it. The board session
// satisfies this; the controller never writes to the store itself.
type Mover interface {
	Board() *domain.Board
	MoveCard(ctx context.Context, cardID string, columnID, index int) error
}

// Celebrator fires after a drop lands a card in the Done column. Purely a
// presentation hook; the move has already happened when it runs.
type Celebrator func()

// Controller is the pointer-gesture state machine for dragging cards. It
// tracks one drag at a time: pointer-down starts it, hover events pick the
// insertion anchor, drop commits the move through the Mover, cancel discards
// everything without touching the model.
type Controller struct {
	mover     Mover
	celebrate Celebrator

	dragging   bool
	cardID     string
	anchorCard string
	anchorCol  int
	hasAnchor  bool
}

// New builds a controller over a mover. The celebrator may be nil.
func New(mover Mover, celebrate Celebrator) *Controller {
	return &Controller{mover: mover, celebrate: celebrate}
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool { return c.dragging }

// DraggedCard returns the id of the card being dragged, or "".
func (c *Controller) DraggedCard() string {
	if !c.dragging {
		return ""
	}
	return c.cardID
}

// AnchorCard returns the card currently highlighted as the insert-before
// target, or "".
func (c *Controller) AnchorCard() string { return c.anchorCard }

// AnchorColumn returns the column currently highlighted as an append target.
func (c *Controller) AnchorColumn() (int, bool) { return c.anchorCol, c.hasAnchor }

// Start begins dragging a card. Starting over an active drag replaces it.
func (c *Controller) Start(cardID string) error {
	card, _ := c.mover.Board().FindCard(cardID)
	if card == nil {
		return &domain.NotFoundError{Kind: "card", ID: cardID}
	}
	c.reset()
	c.dragging = true
	c.cardID = cardID
	return nil
}

// HoverCard marks a card as the insertion anchor. The drop will insert the
// dragged card before it. Ignored outside a drag.
func (c *Controller) HoverCard(cardID string) {
	if !c.dragging {
		return
	}
	c.anchorCard = cardID
	c.hasAnchor = false
	c.anchorCol = 0
}

// HoverColumn marks a column as an append target. Ignored outside a drag.
func (c *Controller) HoverColumn(columnID int) {
	if !c.dragging {
		return
	}
	c.anchorCard = ""
	c.anchorCol = columnID
	c.hasAnchor = true
}

// Cancel abandons the drag. No model mutation, no save.
func (c *Controller) Cancel() {
	c.reset()
}

// Drop commits the drag: insert before the hovered card, or append to the
// hovered column. Dropping a card onto itself, or with no target, is a no-op.
func (c *Controller) Drop(ctx context.Context) error {
	if !c.dragging {
		return nil
	}
	cardID := c.cardID
	anchorCard := c.anchorCard
	anchorCol := c.anchorCol
	hasAnchor := c.hasAnchor
	c.reset()

	if anchorCard == cardID {
		return nil
	}

	board := c.mover.Board()
	_, src := board.FindCard(cardID)
	if src == nil {
		return &domain.NotFoundError{Kind: "card", ID: cardID}
	}

	var dst *domain.Column
	var index int
	switch {
	case anchorCard != "":
		anchor, col := board.FindCard(anchorCard)
		if anchor == nil {
			return &domain.NotFoundError{Kind: "card", ID: anchorCard}
		}
		dst = col
		index = cardIndex(col, anchorCard)
		// The dragged card leaves its slot first, shifting later cards up.
		if col == src && cardIndex(col, cardID) < index {
			index--
		}
	case hasAnchor:
		dst = board.Column(anchorCol)
		if dst == nil {
			return &domain.NotFoundError{Kind: "column", ID: strconv.Itoa(anchorCol)}
		}
		index = len(dst.Cards)
		if dst == src {
			index--
		}
	default:
		return nil
	}

	if err := c.mover.MoveCard(ctx, cardID, dst.ID, index); err != nil {
		return err
	}
	if dst.ID == domain.DoneColumnID && src.ID != domain.DoneColumnID && c.celebrate != nil {
		c.celebrate()
	}
	return nil
}

func (c *Controller) reset() {
	c.dragging = false
	c.cardID = ""
	c.anchorCard = ""
	c.anchorCol = 0
	c.hasAnchor = false
}

func cardIndex(col *domain.Column, cardID string) int {
	for i, card := range col.Cards {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}
