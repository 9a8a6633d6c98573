package game

// CardSelection is the hand slot picked for a suggestion
type CardSelection struct {
	HandIndex int
	CardID    string
}

// Suggestion is the tactical hint for the current tick
type Suggestion struct {
	Has       bool
	X         float32
	Y         float32
	Label     string
	Selection *CardSelection
}

// NoSuggestion is the empty suggestion value
func NoSuggestion() Suggestion {
	return Suggestion{}
}
