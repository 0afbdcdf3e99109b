package main

import "math/rand"

// Difficulty-flavored chat lines the AI drops after its moves.

var aiTaunts = map[Difficulty][]string{
	DifficultyEasy: {
		"beep boop 🤖", "i think i did good?", "i'm still learning...",
		"oops, was that right?", "my circuits are confused 😵",
		"i just picked randomly lol", "is this how you play?",
	},
	DifficultyMedium: {
		"calculated.", "nice try 😏", "i see your plan.",
		"that won't work.", "interesting move... i'm not worried.",
		"getting closer. not close enough.", "chess? never heard of it.",
	},
	DifficultyHard: {
		"your defeat was inevitable.", "i decided 4 moves ago.",
		"resistance is futile.", "is that the best you've got?",
		"i've already evaluated every branch. you lose.",
		"you played well. just not well enough. 😤",
		"the AI always wins. eventually.",
	},
}

var tauntChance = map[Difficulty]float64{
	DifficultyEasy:   0.5,
	DifficultyMedium: 0.30,
	DifficultyHard:   0.35,
}

// maybeTaunt rolls on the given source and returns a line, or "" to stay
// quiet this turn.
func maybeTaunt(difficulty Difficulty, random *rand.Rand) string {
	chance, ok := tauntChance[difficulty]
	if !ok {
		chance = 0.3
	}
	if random.Float64() >= chance {
		return ""
	}
	lines := aiTaunts[difficulty]
	if len(lines) == 0 {
		lines = aiTaunts[DifficultyMedium]
	}
	return lines[random.Intn(len(lines))]
}
