package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mazebound/server/messages"
	"mazebound/server/models"
	"mazebound/server/persistence"
)

func TestDropChance(t *testing.T) {
	assert.InDelta(t, 0.4, DropChance(0), 1e-9)
	assert.InDelta(t, 0.6, DropChance(5), 1e-9)
	assert.InDelta(t, 1.0, DropChance(15), 1e-9)
	// Past the cap the roll simply cannot miss.
	assert.Greater(t, DropChance(20), 1.0)
}

func TestRollDropGuaranteedAtHighDifficulty(t *testing.T) {
	store := persistence.NewMemoryStore()
	persistence.SeedDefaults(store)
	char := store.PutCharacter(&models.Character{Name: "Tess"})
	loot := NewLootService(store, rand.New(rand.NewSource(7)))

	for i := 0; i < 20; i++ {
		entry, err := loot.RollDrop(context.Background(), char.ID, 15)
		require.NoError(t, err)
		require.NotNil(t, entry, "roll %d missed despite guaranteed chance", i)
		assert.Equal(t, char.ID, entry.CharacterID)
		assert.Contains(t, []string{models.RarityCommon, models.RarityUncommon}, entry.Item.Rarity)
	}
}

func TestRollDropNeverHitsAtNegativeChance(t *testing.T) {
	store := persistence.NewMemoryStore()
	persistence.SeedDefaults(store)
	char := store.PutCharacter(&models.Character{Name: "Tess"})
	loot := NewLootService(store, rand.New(rand.NewSource(7)))

	for i := 0; i < 20; i++ {
		entry, err := loot.RollDrop(context.Background(), char.ID, -20)
		require.NoError(t, err)
		assert.Nil(t, entry)
	}
}

func TestRollDropEmptyCatalog(t *testing.T) {
	store := persistence.NewMemoryStore()
	char := store.PutCharacter(&models.Character{Name: "Tess"})
	loot := NewLootService(store, rand.New(rand.NewSource(7)))

	entry, err := loot.RollDrop(context.Background(), char.ID, 15)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

// giftFixture sets up a sender with one potion and a recipient with two
// characters played at different times.
type giftFixture struct {
	store      *persistence.MemoryStore
	loot       *LootService
	sender     *models.User
	senderChar *models.Character
	entry      *models.InventoryEntry
	recipient  *models.User
	oldChar    *models.Character
	latestChar *models.Character
	potion     *models.Item
}

func newGiftFixture(t *testing.T) *giftFixture {
	t.Helper()
	store := persistence.NewMemoryStore()

	potion := store.PutItem(&models.Item{Name: "Healing Potion", Type: models.ItemPotion, EffectValue: 50, Rarity: models.RarityCommon})

	sender := store.PutUser(&models.User{Username: "tester"})
	senderChar := store.PutCharacter(&models.Character{UserID: sender.ID, Name: "Tess"})
	entry := store.PutInventoryEntry(&models.InventoryEntry{CharacterID: senderChar.ID, ItemID: potion.ID, Quantity: 1})

	recipient := store.PutUser(&models.User{Username: "Friend"})
	oldChar := store.PutCharacter(&models.Character{UserID: recipient.ID, Name: "Old"})
	latestChar := store.PutCharacter(&models.Character{UserID: recipient.ID, Name: "New"})
	latestChar.LastPlayed = oldChar.LastPlayed.Add(1)

	return &giftFixture{
		store: store, loot: NewLootService(store, rand.New(rand.NewSource(1))),
		sender: sender, senderChar: senderChar, entry: entry,
		recipient: recipient, oldChar: oldChar, latestChar: latestChar,
		potion: potion,
	}
}

func TestGiftLastUnitMovesStack(t *testing.T) {
	f := newGiftFixture(t)

	result, err := f.loot.Gift(context.Background(), f.sender, f.senderChar.ID, f.entry.ID, "friend")
	require.NoError(t, err)

	assert.Equal(t, f.recipient.ID, result.Recipient.ID)
	assert.Equal(t, f.latestChar.ID, result.RecipientCharacterID, "gift must land on the most recently played character")
	assert.Equal(t, "Healing Potion", result.Item.Name)
	assert.Empty(t, result.SenderInventory)

	// Sender's stack is gone entirely, not left at zero.
	_, err = f.store.InventoryEntry(context.Background(), f.entry.ID, f.senderChar.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	got, err := f.store.Inventory(context.Background(), f.latestChar.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.potion.ID, got[0].ItemID)
	assert.Equal(t, 1, got[0].Quantity)
}

func TestGiftDecrementsLargerStack(t *testing.T) {
	f := newGiftFixture(t)
	f.entry.Quantity = 3

	result, err := f.loot.Gift(context.Background(), f.sender, f.senderChar.ID, f.entry.ID, "friend")
	require.NoError(t, err)
	require.Len(t, result.SenderInventory, 1)
	assert.Equal(t, 2, result.SenderInventory[0].Quantity)
}

func TestGiftUpsertsExistingRecipientStack(t *testing.T) {
	f := newGiftFixture(t)
	f.store.PutInventoryEntry(&models.InventoryEntry{CharacterID: f.latestChar.ID, ItemID: f.potion.ID, Quantity: 2})

	_, err := f.loot.Gift(context.Background(), f.sender, f.senderChar.ID, f.entry.ID, "friend")
	require.NoError(t, err)

	got, err := f.store.Inventory(context.Background(), f.latestChar.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Quantity)
}

func TestGiftRecipientLookupIsCaseInsensitive(t *testing.T) {
	f := newGiftFixture(t)
	_, err := f.loot.Gift(context.Background(), f.sender, f.senderChar.ID, f.entry.ID, "FRIEND")
	require.NoError(t, err)
}

func TestGiftRejections(t *testing.T) {
	f := newGiftFixture(t)

	t.Run("to yourself", func(t *testing.T) {
		_, err := f.loot.Gift(context.Background(), f.sender, f.senderChar.ID, f.entry.ID, "tester")
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("unknown recipient", func(t *testing.T) {
		_, err := f.loot.Gift(context.Background(), f.sender, f.senderChar.ID, f.entry.ID, "ghost")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("entry not owned by sender", func(t *testing.T) {
		other := f.store.PutInventoryEntry(&models.InventoryEntry{CharacterID: f.latestChar.ID, ItemID: f.potion.ID, Quantity: 1})
		_, err := f.loot.Gift(context.Background(), f.sender, f.senderChar.ID, other.ID, "friend")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	// The rejected transfers left the sender's stack alone.
	entry, err := f.store.InventoryEntry(context.Background(), f.entry.ID, f.senderChar.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Quantity)
}

func TestToggleEquipExclusivePerType(t *testing.T) {
	store := persistence.NewMemoryStore()
	char := store.PutCharacter(&models.Character{Name: "Tess"})
	sword := store.PutItem(&models.Item{Name: "Sword", Type: models.ItemWeapon, EffectValue: 3, Rarity: models.RarityCommon})
	axe := store.PutItem(&models.Item{Name: "Axe", Type: models.ItemWeapon, EffectValue: 6, Rarity: models.RarityUncommon})
	vest := store.PutItem(&models.Item{Name: "Vest", Type: models.ItemArmor, EffectValue: 2, Rarity: models.RarityCommon})
	swordEntry := store.PutInventoryEntry(&models.InventoryEntry{CharacterID: char.ID, ItemID: sword.ID, Quantity: 1})
	axeEntry := store.PutInventoryEntry(&models.InventoryEntry{CharacterID: char.ID, ItemID: axe.ID, Quantity: 1})
	vestEntry := store.PutInventoryEntry(&models.InventoryEntry{CharacterID: char.ID, ItemID: vest.ID, Quantity: 1})
	loot := NewLootService(store, rand.New(rand.NewSource(1)))

	result, err := loot.ToggleEquip(context.Background(), char.ID, swordEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.BonusAttack)

	result, err = loot.ToggleEquip(context.Background(), char.ID, vestEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.BonusAttack, "armor equip must not touch the weapon slot")
	assert.Equal(t, 2, result.BonusDefense)

	// Equipping a second weapon displaces the first.
	result, err = loot.ToggleEquip(context.Background(), char.ID, axeEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, result.BonusAttack)
	assert.Equal(t, 2, result.BonusDefense)

	equipped := 0
	for _, e := range result.Inventory {
		if e.Item.Type == models.ItemWeapon && e.Equipped {
			equipped++
			assert.Equal(t, axeEntry.ID, e.ID)
		}
	}
	assert.Equal(t, 1, equipped)

	// Toggling the equipped weapon off clears the bonus.
	result, err = loot.ToggleEquip(context.Background(), char.ID, axeEntry.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.BonusAttack)
	assert.Equal(t, 2, result.BonusDefense)
}

func TestUsePotion(t *testing.T) {
	store := persistence.NewMemoryStore()
	char := store.PutCharacter(&models.Character{Name: "Tess", Health: 50, MaxHealth: 100})
	potion := store.PutItem(&models.Item{Name: "Healing Potion", Type: models.ItemPotion, EffectValue: 80, SpriteIcon: "⚗️", Rarity: models.RarityCommon})
	entry := store.PutInventoryEntry(&models.InventoryEntry{CharacterID: char.ID, ItemID: potion.ID, Quantity: 2})
	loot := NewLootService(store, rand.New(rand.NewSource(1)))

	use, err := loot.UsePotion(context.Background(), char, entry.ID)
	require.NoError(t, err)

	// Healing clamps at max health.
	assert.Equal(t, 100, use.NewHealth)
	assert.Equal(t, 50, use.HealAmount)
	assert.Equal(t, "Healing Potion", use.ItemName)
	assert.Equal(t, "⚗️", use.ItemSprite)

	updated, err := store.CharacterByID(context.Background(), char.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Health)

	require.Len(t, use.Inventory, 1)
	assert.Equal(t, 1, use.Inventory[0].Quantity)
}

func TestUsePotionRejectsOtherItemTypes(t *testing.T) {
	store := persistence.NewMemoryStore()
	char := store.PutCharacter(&models.Character{Name: "Tess", Health: 50, MaxHealth: 100})
	sword := store.PutItem(&models.Item{Name: "Sword", Type: models.ItemWeapon, EffectValue: 3, Rarity: models.RarityCommon})
	entry := store.PutInventoryEntry(&models.InventoryEntry{CharacterID: char.ID, ItemID: sword.ID, Quantity: 1})
	loot := NewLootService(store, rand.New(rand.NewSource(1)))

	_, err := loot.UsePotion(context.Background(), char, entry.ID)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, "Only potions can be used this way", ClientMessage(err))

	// The sword is still there.
	kept, err := store.InventoryEntry(context.Background(), entry.ID, char.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kept.Quantity)
}

func TestUseItemRefreshesSessionHealth(t *testing.T) {
	f := newGameFixture(t)
	potion := f.store.PutItem(&models.Item{Name: "Healing Potion", Type: models.ItemPotion, EffectValue: 30, Rarity: models.RarityCommon})
	entry := f.store.PutInventoryEntry(&models.InventoryEntry{CharacterID: f.char.ID, ItemID: potion.ID, Quantity: 1})

	f.char.Health = 100
	session := f.start(t, 0)

	require.NoError(t, f.game.UseItem(context.Background(), f.user, f.char.ID, entry.ID, f.client))

	healed := f.client.lastOfType(t, messages.TypePlayerHealed)
	payload := healed.Payload.(messages.PlayerHealedPayload)
	assert.Equal(t, 130, payload.Health)
	assert.Equal(t, 30, payload.HealAmount)

	inv := f.client.lastOfType(t, messages.TypeInventoryUpdated)
	assert.Empty(t, inv.Payload.(messages.InventoryUpdatedPayload).Inventory)

	session.mu.Lock()
	assert.Equal(t, 130, session.players[f.char.ID].Health)
	session.mu.Unlock()
}

func TestEquipItemRefreshesSessionBonuses(t *testing.T) {
	f := newGameFixture(t)
	sword := f.store.PutItem(&models.Item{Name: "Sword", Type: models.ItemWeapon, EffectValue: 4, Rarity: models.RarityCommon})
	entry := f.store.PutInventoryEntry(&models.InventoryEntry{CharacterID: f.char.ID, ItemID: sword.ID, Quantity: 1})

	session := f.start(t, 0)

	require.NoError(t, f.game.EquipItem(context.Background(), f.user, f.char.ID, entry.ID, f.client))

	inv := f.client.lastOfType(t, messages.TypeInventoryUpdated)
	got := inv.Payload.(messages.InventoryUpdatedPayload).Inventory
	require.Len(t, got, 1)
	assert.True(t, got[0].Equipped)

	session.mu.Lock()
	assert.Equal(t, 4, session.players[f.char.ID].BonusAttack)
	session.mu.Unlock()
}

func TestGiftItemNotifiesBothSides(t *testing.T) {
	f := newGameFixture(t)
	potion := f.store.PutItem(&models.Item{Name: "Healing Potion", Type: models.ItemPotion, EffectValue: 50, SpriteIcon: "⚗️", Rarity: models.RarityCommon})
	entry := f.store.PutInventoryEntry(&models.InventoryEntry{CharacterID: f.char.ID, ItemID: potion.ID, Quantity: 1})

	friend := f.store.PutUser(&models.User{Username: "friend"})
	f.store.PutCharacter(&models.Character{UserID: friend.ID, Name: "Fen"})
	f.rooms.online[friend.ID] = true

	require.NoError(t, f.game.GiftItem(context.Background(), f.user, f.char.ID, entry.ID, "friend", f.client))

	sent := f.client.lastOfType(t, messages.TypeGiftSent)
	sentPayload := sent.Payload.(messages.GiftSentPayload)
	assert.Equal(t, "friend", sentPayload.ToUsername)
	assert.Equal(t, "Healing Potion", sentPayload.ItemName)
	assert.Empty(t, sentPayload.Inventory)

	received := f.rooms.userSends[friend.ID]
	require.Len(t, received, 1)
	recvPayload := received[0].Payload.(messages.GiftReceivedPayload)
	assert.Equal(t, "tester", recvPayload.FromUsername)
	assert.Equal(t, "Healing Potion", recvPayload.ItemName)
	assert.Equal(t, models.ItemPotion, recvPayload.ItemType)
}

func TestGiftItemOfflineRecipient(t *testing.T) {
	f := newGameFixture(t)
	potion := f.store.PutItem(&models.Item{Name: "Healing Potion", Type: models.ItemPotion, EffectValue: 50, Rarity: models.RarityCommon})
	entry := f.store.PutInventoryEntry(&models.InventoryEntry{CharacterID: f.char.ID, ItemID: potion.ID, Quantity: 1})

	friend := f.store.PutUser(&models.User{Username: "friend"})
	friendChar := f.store.PutCharacter(&models.Character{UserID: friend.ID, Name: "Fen"})

	// Recipient offline: the transfer still lands, the notice is dropped.
	require.NoError(t, f.game.GiftItem(context.Background(), f.user, f.char.ID, entry.ID, "friend", f.client))

	got, err := f.store.Inventory(context.Background(), friendChar.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, f.rooms.userSends[friend.ID])
}
