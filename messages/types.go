package messages

import (
	"encoding/json"

	"mazebound/server/models"
)

// MessageType defines the type of message being sent.
type MessageType string

// Inbound commands.
const (
	TypeStartDungeon MessageType = "startDungeon"
	TypeMove         MessageType = "move"
	TypeAttack       MessageType = "attack"
	TypeLeaveDungeon MessageType = "leaveDungeon"
	TypeUseItem      MessageType = "useItem"
	TypeEquipItem    MessageType = "equipItem"
	TypeJoinDungeon  MessageType = "joinDungeon"
	TypeGiftItem     MessageType = "giftItem"
	TypeGlobalChat   MessageType = "globalChat"
	TypePartyChat    MessageType = "partyChat"
)

// Outbound events.
const (
	TypeDungeonReady     MessageType = "dungeonReady"
	TypePlayerMoved      MessageType = "playerMoved"
	TypeEnemyEncounter   MessageType = "enemyEncounter"
	TypeExitBlocked      MessageType = "exitBlocked"
	TypeDungeonCompleted MessageType = "dungeonCompleted"
	TypeCombatUpdate     MessageType = "combatUpdate"
	TypeEnemyDefeated    MessageType = "enemyDefeated"
	TypeItemDropped      MessageType = "itemDropped"
	TypeLevelUp          MessageType = "levelUp"
	TypePlayerDamaged    MessageType = "playerDamaged"
	TypePlayerDied       MessageType = "playerDied"
	TypePlayerHealed     MessageType = "playerHealed"
	TypeInventoryUpdated MessageType = "inventoryUpdated"
	TypeGiftSent         MessageType = "giftSent"
	TypeGiftReceived     MessageType = "giftReceived"
	TypePlayerJoined     MessageType = "playerJoined"
	TypeExistingPlayers  MessageType = "existingPlayers"
	TypePlayerLeft       MessageType = "playerLeft"
	TypeError            MessageType = "error"
)

// BaseMessage is the envelope every outbound message is wrapped in.
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

// New wraps a payload in an envelope.
func New(t MessageType, payload any) BaseMessage {
	return BaseMessage{Type: t, Payload: payload}
}

// Inbound is the envelope for messages read off the wire. The payload is kept
// raw until the dispatch switch knows which struct to decode it into.
type Inbound struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ── Inbound payloads ─────────────────────────────────────────────

type StartDungeonPayload struct {
	CharacterID string `json:"characterId"`
	Difficulty  int    `json:"difficulty"`
}

type MovePayload struct {
	SessionID   string `json:"sessionId"`
	CharacterID string `json:"characterId"`
	Direction   string `json:"direction"` // up, down, left, right
}

type AttackPayload struct {
	SessionID   string `json:"sessionId"`
	CharacterID string `json:"characterId"`
	EnemyID     string `json:"enemyId"`
}

type LeaveDungeonPayload struct {
	SessionID   string `json:"sessionId"`
	CharacterID string `json:"characterId"`
}

type UseItemPayload struct {
	SessionID   string `json:"sessionId,omitempty"`
	CharacterID string `json:"characterId"`
	InventoryID string `json:"inventoryId"`
}

type EquipItemPayload struct {
	CharacterID string `json:"characterId"`
	InventoryID string `json:"inventoryId"`
}

type JoinDungeonPayload struct {
	SessionID   string `json:"sessionId"`
	CharacterID string `json:"characterId"`
}

type GiftItemPayload struct {
	CharacterID string `json:"characterId"`
	InventoryID string `json:"inventoryId"`
	ToUsername  string `json:"toUsername"`
}

type ChatPayload struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// ── Outbound payloads ────────────────────────────────────────────

// CharacterView is the character sheet sent with dungeonReady.
type CharacterView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Class        string `json:"class"`
	Level        int    `json:"level"`
	Experience   int    `json:"experience"`
	RequiredXP   int    `json:"requiredXp"`
	Health       int    `json:"health"`
	MaxHealth    int    `json:"maxHealth"`
	Attack       int    `json:"attack"`
	Defense      int    `json:"defense"`
	BonusAttack  int    `json:"bonusAttack"`
	BonusDefense int    `json:"bonusDefense"`
}

type DungeonReadyPayload struct {
	SessionID  string                  `json:"sessionId"`
	Maze       [][]int                 `json:"maze"`
	Enemies    []*models.Enemy         `json:"enemies"`
	SpawnPoint models.Position         `json:"spawnPoint"`
	ExitPoint  models.Position         `json:"exitPoint"`
	Inventory  []models.InventoryEntry `json:"inventory"`
	Character  CharacterView           `json:"character"`
}

type PlayerMovedPayload struct {
	CharacterID string          `json:"characterId"`
	Position    models.Position `json:"position"`
}

type EnemyEncounterPayload struct {
	Enemy *models.Enemy `json:"enemy"`
}

type ExitBlockedPayload struct {
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
}

type DungeonCompletedPayload struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Healed    bool   `json:"healed"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"maxHealth"`
}

type CombatUpdatePayload struct {
	EnemyID string `json:"enemyId"`
	Damage  int    `json:"damage"`
	Health  int    `json:"health"`
}

type EnemyDefeatedPayload struct {
	EnemyID    string `json:"enemyId"`
	KilledBy   string `json:"killedBy"`
	XPGained   int    `json:"xpGained"`
	CurrentXP  int    `json:"currentXp"`
	RequiredXP int    `json:"requiredXp"`
	Level      int    `json:"level"`
}

type ItemDroppedPayload struct {
	InventoryID string      `json:"inventoryId"`
	Quantity    int         `json:"quantity"`
	Item        models.Item `json:"item"`
}

type LevelUpStats struct {
	HealthIncrease  int `json:"healthIncrease"`
	AttackIncrease  int `json:"attackIncrease"`
	DefenseIncrease int `json:"defenseIncrease"`
}

type LevelUpPayload struct {
	NewLevel   int          `json:"newLevel"`
	Stats      LevelUpStats `json:"stats"`
	CurrentXP  int          `json:"currentXp"`
	RequiredXP int          `json:"requiredXp"`
	MaxHealth  int          `json:"maxHealth"`
	Attack     int          `json:"attack"`
	Defense    int          `json:"defense"`
}

type PlayerDamagedPayload struct {
	CharacterID string `json:"characterId"`
	Damage      int    `json:"damage"`
	Health      int    `json:"health"`
	MaxHealth   int    `json:"maxHealth"`
	EnemyName   string `json:"enemyName"`
}

type PlayerDiedPayload struct {
	CharacterID string `json:"characterId"`
	Message     string `json:"message"`
	Healed      bool   `json:"healed"`
	Health      int    `json:"health"`
	MaxHealth   int    `json:"maxHealth"`
}

type UsedItemRef struct {
	Name       string `json:"name"`
	SpriteIcon string `json:"spriteIcon"`
}

type PlayerHealedPayload struct {
	CharacterID string      `json:"characterId"`
	Health      int         `json:"health"`
	MaxHealth   int         `json:"maxHealth"`
	HealAmount  int         `json:"healAmount"`
	ItemUsed    UsedItemRef `json:"itemUsed"`
}

type InventoryUpdatedPayload struct {
	Inventory []models.InventoryEntry `json:"inventory"`
}

type GiftSentPayload struct {
	InventoryID    string                  `json:"inventoryId"`
	ToUsername     string                  `json:"toUsername"`
	ItemName       string                  `json:"itemName"`
	ItemSpriteIcon string                  `json:"itemSpriteIcon"`
	Inventory      []models.InventoryEntry `json:"inventory"`
}

type GiftReceivedPayload struct {
	FromUsername    string `json:"fromUsername"`
	ItemName        string `json:"itemName"`
	ItemSpriteIcon  string `json:"itemSpriteIcon"`
	ItemType        string `json:"itemType"`
	ItemEffectValue int    `json:"itemEffectValue"`
	ItemDescription string `json:"itemDescription"`
	ItemRarity      string `json:"itemRarity"`
}

type PlayerJoinedPayload struct {
	CharacterID    string          `json:"characterId"`
	CharacterName  string          `json:"characterName"`
	CharacterClass string          `json:"characterClass"`
	Position       models.Position `json:"position"`
}

type PlayerLeftPayload struct {
	CharacterID string `json:"characterId"`
}

type ChatBroadcastPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
	At       string `json:"at"`
}

// ErrorPayload represents an error response.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
