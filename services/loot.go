package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"mazebound/server/models"
	"mazebound/server/persistence"
)

// LootService owns drop rolls and inventory transfers. Its RNG is injected so
// tests can seed it; the mutex keeps it usable from concurrent commands.
type LootService struct {
	store persistence.Storage
	mu    sync.Mutex
	rng   *rand.Rand
}

func NewLootService(store persistence.Storage, rng *rand.Rand) *LootService {
	return &LootService{store: store, rng: rng}
}

// DropChance grows with difficulty and is deliberately left unclamped: past
// difficulty 15 a drop is simply guaranteed.
func DropChance(difficulty int) float64 {
	return 0.4 + 0.04*float64(difficulty)
}

// RollDrop rolls for a post-kill item drop. A nil entry with a nil error means
// the roll missed or no item of the rolled rarity exists.
func (l *LootService) RollDrop(ctx context.Context, characterID string, difficulty int) (*models.InventoryEntry, error) {
	l.mu.Lock()
	missed := l.rng.Float64() > DropChance(difficulty)
	rarity := models.RarityCommon
	if l.rng.Float64() >= 0.7 {
		rarity = models.RarityUncommon
	}
	l.mu.Unlock()

	if missed {
		return nil, nil
	}

	item, err := l.store.RandomItemByRarity(ctx, rarity)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errPersistence("Failed to roll item drop", err)
	}

	entry, err := l.store.GrantItem(ctx, characterID, item.ID)
	if err != nil {
		return nil, errPersistence("Failed to add dropped item", err)
	}
	return entry, nil
}

// GiftResult is what a completed gift transfer reports back.
type GiftResult struct {
	Recipient            models.User
	RecipientCharacterID string
	Item                 models.Item
	SenderInventory      []models.InventoryEntry
}

// Gift moves one unit of an inventory stack to another user's most recently
// played character. The sender's stack is decremented (deleted at zero) and
// the recipient's stack upserted.
func (l *LootService) Gift(ctx context.Context, sender *models.User, characterID, inventoryID, toUsername string) (*GiftResult, error) {
	entry, err := l.store.InventoryEntry(ctx, inventoryID, characterID)
	if err != nil {
		return nil, storeErr(err, "Item not found in your inventory", "Failed to send gift")
	}

	recipient, recipientChar, err := l.store.LatestCharacterByUsername(ctx, strings.TrimSpace(toUsername))
	if err != nil {
		return nil, storeErr(err, fmt.Sprintf("Player %q not found", toUsername), "Failed to send gift")
	}
	if recipient.ID == sender.ID {
		return nil, errInvalidState("You cannot gift items to yourself")
	}

	if err := l.store.ConsumeOne(ctx, entry.ID); err != nil {
		return nil, storeErr(err, "Item not found in your inventory", "Failed to send gift")
	}
	if _, err := l.store.GrantItem(ctx, recipientChar.ID, entry.ItemID); err != nil {
		return nil, errPersistence("Failed to send gift", err)
	}

	inventory, err := l.store.Inventory(ctx, characterID)
	if err != nil {
		return nil, errPersistence("Failed to send gift", err)
	}

	return &GiftResult{
		Recipient:            *recipient,
		RecipientCharacterID: recipientChar.ID,
		Item:                 entry.Item,
		SenderInventory:      inventory,
	}, nil
}

// EquipResult carries the refreshed inventory and recomputed bonuses after an
// equip toggle.
type EquipResult struct {
	Inventory    []models.InventoryEntry
	BonusAttack  int
	BonusDefense int
}

// ToggleEquip flips an entry's equipped flag. Equipping a weapon or armor
// first unequips every other entry of the same type, keeping at most one
// equipped entry per type.
func (l *LootService) ToggleEquip(ctx context.Context, characterID, inventoryID string) (*EquipResult, error) {
	entry, err := l.store.InventoryEntry(ctx, inventoryID, characterID)
	if err != nil {
		return nil, storeErr(err, "Inventory item not found", "Failed to equip item")
	}

	equipping := !entry.Equipped
	if equipping && (entry.Item.Type == models.ItemWeapon || entry.Item.Type == models.ItemArmor) {
		if err := l.store.UnequipOthers(ctx, characterID, entry.Item.Type, entry.ID); err != nil {
			return nil, errPersistence("Failed to equip item", err)
		}
	}
	if err := l.store.SetEquipped(ctx, entry.ID, equipping); err != nil {
		return nil, errPersistence("Failed to equip item", err)
	}

	inventory, err := l.store.Inventory(ctx, characterID)
	if err != nil {
		return nil, errPersistence("Failed to equip item", err)
	}
	attack, defense, err := l.store.EquippedBonuses(ctx, characterID)
	if err != nil {
		return nil, errPersistence("Failed to equip item", err)
	}

	return &EquipResult{Inventory: inventory, BonusAttack: attack, BonusDefense: defense}, nil
}

// PotionUse is the outcome of consuming a potion.
type PotionUse struct {
	NewHealth  int
	MaxHealth  int
	HealAmount int
	ItemName   string
	ItemSprite string
	Inventory  []models.InventoryEntry
}

// UsePotion heals the character by the potion's effect value, clamped at max
// health, and consumes one unit.
func (l *LootService) UsePotion(ctx context.Context, char *models.Character, inventoryID string) (*PotionUse, error) {
	entry, err := l.store.InventoryEntry(ctx, inventoryID, char.ID)
	if err != nil {
		return nil, storeErr(err, "Item not found in inventory", "Failed to use item")
	}
	if entry.Item.Type != models.ItemPotion {
		return nil, errInvalidState("Only potions can be used this way")
	}

	newHealth := char.Health + entry.Item.EffectValue
	if newHealth > char.MaxHealth {
		newHealth = char.MaxHealth
	}

	if err := l.store.SetHealth(ctx, char.ID, newHealth); err != nil {
		return nil, errPersistence("Failed to use item", err)
	}
	if err := l.store.ConsumeOne(ctx, entry.ID); err != nil {
		return nil, errPersistence("Failed to use item", err)
	}

	inventory, err := l.store.Inventory(ctx, char.ID)
	if err != nil {
		return nil, errPersistence("Failed to use item", err)
	}

	return &PotionUse{
		NewHealth:  newHealth,
		MaxHealth:  char.MaxHealth,
		HealAmount: newHealth - char.Health,
		ItemName:   entry.Item.Name,
		ItemSprite: entry.Item.SpriteIcon,
		Inventory:  inventory,
	}, nil
}
