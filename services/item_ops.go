package services

import (
	"context"

	"mazebound/server/messages"
	"mazebound/server/models"
)

// UseItem consumes a potion. If the character is inside a live session the
// session's cached health is refreshed after the persisted write.
func (g *GameService) UseItem(ctx context.Context, user *models.User, characterID, inventoryID string, client Client) error {
	char, err := g.authorize(ctx, user, characterID)
	if err != nil {
		return err
	}

	use, err := g.loot.UsePotion(ctx, char, inventoryID)
	if err != nil {
		return err
	}

	_ = client.Send(messages.New(messages.TypePlayerHealed, messages.PlayerHealedPayload{
		CharacterID: characterID,
		Health:      use.NewHealth,
		MaxHealth:   use.MaxHealth,
		HealAmount:  use.HealAmount,
		ItemUsed:    messages.UsedItemRef{Name: use.ItemName, SpriteIcon: use.ItemSprite},
	}))
	_ = client.Send(messages.New(messages.TypeInventoryUpdated, messages.InventoryUpdatedPayload{
		Inventory: use.Inventory,
	}))

	if session, ok := g.registry.SessionForCharacter(characterID); ok {
		session.mu.Lock()
		if player, ok := session.players[characterID]; ok {
			player.Health = use.NewHealth
		}
		session.mu.Unlock()
	}
	return nil
}

// EquipItem toggles an entry's equipped flag and refreshes the equipment
// bonuses cached by the character's live session, if any.
func (g *GameService) EquipItem(ctx context.Context, user *models.User, characterID, inventoryID string, client Client) error {
	if _, err := g.authorize(ctx, user, characterID); err != nil {
		return err
	}

	result, err := g.loot.ToggleEquip(ctx, characterID, inventoryID)
	if err != nil {
		return err
	}

	if session, ok := g.registry.SessionForCharacter(characterID); ok {
		session.mu.Lock()
		if player, ok := session.players[characterID]; ok {
			player.BonusAttack = result.BonusAttack
			player.BonusDefense = result.BonusDefense
		}
		session.mu.Unlock()
	}

	return client.Send(messages.New(messages.TypeInventoryUpdated, messages.InventoryUpdatedPayload{
		Inventory: result.Inventory,
	}))
}

// GiftItem transfers one unit of an item to another player. Delivery of the
// giftReceived notice is best-effort; an offline recipient is not an error.
func (g *GameService) GiftItem(ctx context.Context, user *models.User, characterID, inventoryID, toUsername string, client Client) error {
	if _, err := g.authorize(ctx, user, characterID); err != nil {
		return err
	}

	result, err := g.loot.Gift(ctx, user, characterID, inventoryID, toUsername)
	if err != nil {
		return err
	}

	_ = client.Send(messages.New(messages.TypeGiftSent, messages.GiftSentPayload{
		InventoryID:    inventoryID,
		ToUsername:     toUsername,
		ItemName:       result.Item.Name,
		ItemSpriteIcon: result.Item.SpriteIcon,
		Inventory:      result.SenderInventory,
	}))

	g.rooms.SendToUser(result.Recipient.ID, messages.New(messages.TypeGiftReceived, messages.GiftReceivedPayload{
		FromUsername:    user.Username,
		ItemName:        result.Item.Name,
		ItemSpriteIcon:  result.Item.SpriteIcon,
		ItemType:        result.Item.Type,
		ItemEffectValue: result.Item.EffectValue,
		ItemDescription: result.Item.Description,
		ItemRarity:      result.Item.Rarity,
	}))
	return nil
}
