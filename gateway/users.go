package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"corkboard/domain"
	"corkboard/storage"
)

// UpsertUser merge-writes the user's profile on sign-in, stamping lastLogin.
// Fields missing from the identity clear to empty rather than being dropped,
// matching what a fresh sign-in snapshot means.
func (g *Gateway) UpsertUser(ctx context.Context, who domain.Identity) error {
	doc := domain.UserDoc{
		UID:         who.UID,
		DisplayName: who.DisplayName,
		Email:       who.Email,
		PhotoURL:    who.PhotoURL,
		LastLogin:   g.now().UTC().Format(time.RFC3339),
	}
	raw, err := storage.Encode(doc)
	if err != nil {
		return &domain.ConnectionError{Op: "upsert user", Err: err}
	}
	if err := g.store.Set(ctx, storage.UsersCollection, who.UID, raw); err != nil {
		return &domain.ConnectionError{Op: "upsert user", Err: err}
	}
	return nil
}

// UserProfile reads one stored user profile.
func (g *Gateway) UserProfile(ctx context.Context, uid string) (domain.UserDoc, error) {
	raw, err := g.store.Get(ctx, storage.UsersCollection, uid)
	if err == storage.ErrNotFound {
		return domain.UserDoc{}, &domain.NotFoundError{Kind: "user", ID: uid}
	}
	if err != nil {
		return domain.UserDoc{}, &domain.ConnectionError{Op: "load user", Err: err}
	}
	var doc domain.UserDoc
	if err := storage.Decode(raw, &doc); err != nil {
		return domain.UserDoc{}, &domain.ConnectionError{Op: "load user", Err: err}
	}
	return doc, nil
}

// SetFavourite marks a board as the user's favourite.
func (g *Gateway) SetFavourite(ctx context.Context, uid, boardID string) error {
	field, err := storage.Field(boardID)
	if err != nil {
		return &domain.ConnectionError{Op: "set favourite", Err: err}
	}
	if err := g.store.Update(ctx, storage.UsersCollection, uid, storage.Document{"favourite": field}); err != nil {
		g.notify.Error("Could not update favourite")
		return &domain.ConnectionError{Op: "set favourite", Err: err}
	}
	g.notify.Toast("⭐ Board set as favourite")
	return nil
}

// ClearFavourite removes the favourite field from the user's profile
// entirely rather than writing an empty value.
func (g *Gateway) ClearFavourite(ctx context.Context, uid string) error {
	if err := g.store.Update(ctx, storage.UsersCollection, uid, storage.Document{"favourite": nil}); err != nil {
		g.notify.Error("Could not update favourite")
		return &domain.ConnectionError{Op: "clear favourite", Err: err}
	}
	g.notify.Toast("Favourite removed")
	return nil
}

// AddParticipant grants board access to the user registered under the given
// email. Only the users field is written, not the full board.
func (g *Gateway) AddParticipant(ctx context.Context, board *domain.Board, email string) (domain.UserDoc, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.UserDoc{}, &domain.ValidationError{Reason: "email must not be empty"}
	}

	matches, err := g.store.QueryByField(ctx, storage.UsersCollection, "email", email)
	if err != nil {
		return domain.UserDoc{}, &domain.ConnectionError{Op: "find user", Err: err}
	}
	if len(matches) == 0 {
		return domain.UserDoc{}, &domain.NotFoundError{Kind: "user", ID: email}
	}
	var profile domain.UserDoc
	for uid, raw := range matches {
		if err := storage.Decode(raw, &profile); err != nil {
			return domain.UserDoc{}, &domain.ConnectionError{Op: "find user", Err: err}
		}
		if profile.UID == "" {
			profile.UID = uid
		}
		break
	}

	for _, uid := range board.Users {
		if uid == profile.UID {
			return domain.UserDoc{}, &domain.AlreadyMemberError{UID: profile.UID}
		}
	}

	users := append(append([]string(nil), board.Users...), profile.UID)
	field, err := storage.Field(users)
	if err != nil {
		return domain.UserDoc{}, &domain.ConnectionError{Op: "add participant", Err: err}
	}
	if err := g.store.Update(ctx, storage.BoardsCollection, board.ID, storage.Document{"users": field}); err != nil {
		return domain.UserDoc{}, &domain.ConnectionError{Op: "add participant", Err: err}
	}
	board.Users = users
	return profile, nil
}

// RemoveParticipant drops a uid from the board's access list and writes only
// the users field. There is no owner check here; the UI never offers the
// owner as a removable participant.
func (g *Gateway) RemoveParticipant(ctx context.Context, board *domain.Board, uid string) error {
	users := make([]string, 0, len(board.Users))
	for _, u := range board.Users {
		if u != uid {
			users = append(users, u)
		}
	}
	field, err := storage.Field(users)
	if err != nil {
		return &domain.ConnectionError{Op: "remove participant", Err: err}
	}
	if err := g.store.Update(ctx, storage.BoardsCollection, board.ID, storage.Document{"users": field}); err != nil {
		return &domain.ConnectionError{Op: "remove participant", Err: err}
	}
	board.Users = users
	return nil
}

// ParticipantProfiles resolves the member uids (owner excluded) to stored
// profiles. Unknown uids are skipped rather than failing the whole list.
func (g *Gateway) ParticipantProfiles(ctx context.Context, board *domain.Board) ([]domain.UserDoc, error) {
	var out []domain.UserDoc
	for _, uid := range board.Participants() {
		profile, err := g.UserProfile(ctx, uid)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}
		out = append(out, profile)
	}
	return out, nil
}
