package persistence

import "mazebound/server/models"

// SeedDefaults loads a starter item catalog and two demo accounts into a
// memory store so a dev server is playable without any setup.
func SeedDefaults(s *MemoryStore) {
	items := []models.Item{
		{Name: "Minor Healing Potion", Type: models.ItemPotion, EffectValue: 20, SpriteIcon: "🧪", Description: "Restores a little health.", Rarity: models.RarityCommon},
		{Name: "Rusty Sword", Type: models.ItemWeapon, EffectValue: 3, SpriteIcon: "🗡️", Description: "Better than bare fists.", Rarity: models.RarityCommon},
		{Name: "Leather Vest", Type: models.ItemArmor, EffectValue: 2, SpriteIcon: "🦺", Description: "Worn but serviceable.", Rarity: models.RarityCommon},
		{Name: "Healing Potion", Type: models.ItemPotion, EffectValue: 50, SpriteIcon: "⚗️", Description: "Restores a good chunk of health.", Rarity: models.RarityUncommon},
		{Name: "Steel Sword", Type: models.ItemWeapon, EffectValue: 6, SpriteIcon: "⚔️", Description: "A proper blade.", Rarity: models.RarityUncommon},
		{Name: "Chainmail", Type: models.ItemArmor, EffectValue: 5, SpriteIcon: "🛡️", Description: "Heavy, but it works.", Rarity: models.RarityUncommon},
	}
	for i := range items {
		s.PutItem(&items[i])
	}

	for _, demo := range []struct {
		username string
		name     string
		class    string
	}{
		{"aria", "Aria", models.ClassWarrior},
		{"bram", "Bram", models.ClassMage},
	} {
		user := s.PutUser(&models.User{Username: demo.username})
		health, attack, defense := models.ClassStats(demo.class)
		s.PutCharacter(&models.Character{
			UserID:      user.ID,
			Name:        demo.name,
			Class:       demo.class,
			Level:       1,
			Health:      health,
			MaxHealth:   health,
			BaseAttack:  attack,
			BaseDefense: defense,
		})
	}
}
