package models

// Item types. Weapons and armor can be equipped, potions can be consumed.
const (
	ItemWeapon = "weapon"
	ItemArmor  = "armor"
	ItemPotion = "potion"
)

// Item rarities used by drop rolls.
const (
	RarityCommon   = "common"
	RarityUncommon = "uncommon"
)

type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	EffectValue int    `json:"effectValue"`
	SpriteIcon  string `json:"spriteIcon"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
}

// InventoryEntry is one stack of an item owned by a character, joined with the
// item it refers to. Quantity is always >= 1; a stack that reaches zero is
// deleted rather than kept empty.
type InventoryEntry struct {
	ID          string `json:"id"`
	CharacterID string `json:"characterId"`
	ItemID      string `json:"itemId"`
	Quantity    int    `json:"quantity"`
	Equipped    bool   `json:"equipped"`
	Item        Item   `json:"item"`
}
