package game

// HandState holds the recognized cards for each visible slot.
// Slots, Costs and Confidences are parallel; an empty slot id means unrecognized.
type HandState struct {
	Slots       []string
	Costs       []int
	Confidences []float32
}

// EmptyHand returns a hand with no slots
func EmptyHand() HandState {
	return HandState{}
}

// Len returns the number of slots
func (h HandState) Len() int {
	return len(h.Slots)
}

// IsEmpty reports whether the hand carries no slots
func (h HandState) IsEmpty() bool {
	return len(h.Slots) == 0
}

// Slot returns the card id at index i, or "" when out of range
func (h HandState) Slot(i int) string {
	if i < 0 || i >= len(h.Slots) {
		return ""
	}
	return h.Slots[i]
}

// Cost returns the cost at index i, or -1 when unknown
func (h HandState) Cost(i int) int {
	if i < 0 || i >= len(h.Costs) {
		return -1
	}
	return h.Costs[i]
}

// Contains reports whether any slot holds the given card id
func (h HandState) Contains(cardID string) bool {
	if cardID == "" {
		return false
	}
	for _, id := range h.Slots {
		if id == cardID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no storage with h
func (h HandState) Clone() HandState {
	out := HandState{}
	if h.Slots != nil {
		out.Slots = append([]string(nil), h.Slots...)
	}
	if h.Costs != nil {
		out.Costs = append([]int(nil), h.Costs...)
	}
	if h.Confidences != nil {
		out.Confidences = append([]float32(nil), h.Confidences...)
	}
	return out
}
