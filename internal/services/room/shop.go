package room

import (
	"context"

	"github.com/dungeonofmasters/dom-server/internal/domain/game"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
)

// BuyItem purchases a shop stand's item for the player's character. Sold
// stands keep their item on display but cannot be bought again.
func (s *service) BuyItem(ctx context.Context, roomID, uid string, standIndex int) error {
	return s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		if room.State != game.StateInProgress {
			return apperrors.Validation("the shop is closed")
		}

		p := room.Player(uid)
		if p == nil {
			return apperrors.NotFoundf("player %s is not in the room", uid)
		}
		if p.Character == nil {
			return apperrors.Validation("no character to equip")
		}

		if standIndex < 0 || standIndex >= len(room.Shop) {
			return apperrors.Validationf("no stand at index %d", standIndex)
		}
		stand := room.Shop[standIndex]
		if stand.Sold || stand.Item == nil {
			return apperrors.Validation("the stand is empty")
		}

		if err := p.Character.BuyItem(stand.Item); err != nil {
			return err
		}
		stand.Sold = true

		emit(EventBuyingAnItem, map[string]any{
			"item_index": standIndex,
			"player":     p,
		})
		return nil
	})
}

// RemoveItem sells an equipped item back for half price
func (s *service) RemoveItem(ctx context.Context, roomID, uid string, itemIndex int) error {
	return s.withRoom(ctx, roomID, func(room *game.Room, emit emitFunc) error {
		if room.State != game.StateInProgress {
			return apperrors.Validation("game is not in progress")
		}

		p := room.Player(uid)
		if p == nil {
			return apperrors.NotFoundf("player %s is not in the room", uid)
		}
		if p.Character == nil {
			return apperrors.Validation("no character to unequip")
		}

		removed, err := p.Character.RemoveItem(itemIndex)
		if err != nil {
			return err
		}

		emit(EventRemovingAnItem, map[string]any{
			"player": p,
			"item":   removed,
		})
		return nil
	})
}
