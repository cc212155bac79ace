package services

import (
	"math"
	"math/rand"

	"mazebound/server/models"
)

// EnemyTiers lists enemy archetypes from weakest to strongest. The tier used
// by a session is selected from its difficulty.
var EnemyTiers = []models.EnemyType{
	{Name: "Goblin", Health: 30, Attack: 5, Sprite: "👹", BaseXP: 15},
	{Name: "Skeleton", Health: 40, Attack: 8, Sprite: "💀", BaseXP: 25},
	{Name: "Orc", Health: 60, Attack: 12, Sprite: "🧟", BaseXP: 40},
}

// TierForDifficulty picks the enemy archetype for a difficulty level.
func TierForDifficulty(difficulty int) models.EnemyType {
	i := difficulty / 2
	if i >= len(EnemyTiers) {
		i = len(EnemyTiers) - 1
	}
	if i < 0 {
		i = 0
	}
	return EnemyTiers[i]
}

// AttackDamage rolls player damage: floor(attack * U[0.8, 1.2)).
func AttackDamage(attack int, rng *rand.Rand) int {
	return int(float64(attack) * (0.8 + rng.Float64()*0.4))
}

// CounterDamage rolls an enemy counter-attack with the same jitter, reduced by
// the defender's equipment bonus but never below 1.
func CounterDamage(enemyAttack, bonusDefense int, rng *rand.Rand) int {
	raw := int(float64(enemyAttack) * (0.8 + rng.Float64()*0.4))
	if damage := raw - bonusDefense; damage > 1 {
		return damage
	}
	return 1
}

// EnemyXP is the experience awarded for a kill, scaled by session difficulty.
// Unrecognized enemy names fall back to a base of 10.
func EnemyXP(name string, difficulty int) int {
	base := 10
	for _, t := range EnemyTiers {
		if t.Name == name {
			base = t.BaseXP
			break
		}
	}
	return int(float64(base) * (1 + 0.2*float64(difficulty)))
}

// RequiredXP is the experience needed to advance past a level.
func RequiredXP(level int) int {
	return int(100 * math.Pow(float64(level), 1.5))
}

// LevelUp is the outcome of a leveling check. Gains accumulate across every
// level crossed by a single award.
type LevelUp struct {
	LeveledUp       bool
	NewLevel        int
	RemainingXP     int
	HealthIncrease  int
	AttackIncrease  int
	DefenseIncrease int
}

// ResolveLevelUps advances a character until experience no longer meets the
// requirement for the current level, carrying the remainder forward. A large
// award can cross several levels in one call.
func ResolveLevelUps(level, experience int) LevelUp {
	up := LevelUp{NewLevel: level, RemainingXP: experience}
	for up.RemainingXP >= RequiredXP(up.NewLevel) {
		up.RemainingXP -= RequiredXP(up.NewLevel)
		up.NewLevel++
		up.LeveledUp = true
		up.HealthIncrease += 10
		up.AttackIncrease += 2
		up.DefenseIncrease += 1
	}
	return up
}
