package items

// MaxStack is the largest count a single slot may hold.
const MaxStack = 64

// Stack is a number of identical items occupying one inventory slot.
type Stack struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Valid reports whether s describes at least one real item.
func (s *Stack) Valid() bool {
	return s != nil && s.Type != "" && s.Count > 0
}

func (s *Stack) Clone() *Stack {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// CloneSlots deep-copies a slot slice, keeping empty slots as nil.
func CloneSlots(slots []*Stack) []*Stack {
	if slots == nil {
		return nil
	}
	out := make([]*Stack, len(slots))
	for i, s := range slots {
		out[i] = s.Clone()
	}
	return out
}

// FoodValues maps edible items to the health they restore.
var FoodValues = map[string]int{
	"carrot": 2,
	"bread":  2,
	"apple":  2,
}

// Add merges count items of type into slots, filling existing stacks first,
// then empty slots. It returns the number of items that did not fit.
func Add(slots []*Stack, itemType string, count int) int {
	for _, s := range slots {
		if count == 0 {
			return 0
		}
		if s != nil && s.Type == itemType && s.Count < MaxStack {
			n := min(MaxStack-s.Count, count)
			s.Count += n
			count -= n
		}
	}
	for i := range slots {
		if count == 0 {
			return 0
		}
		if slots[i] == nil {
			n := min(MaxStack, count)
			slots[i] = &Stack{Type: itemType, Count: n}
			count -= n
		}
	}
	return count
}

// Remove takes one item from slot i, clearing the slot when it empties.
func Remove(slots []*Stack, i int) (string, bool) {
	if i < 0 || i >= len(slots) || !slots[i].Valid() {
		return "", false
	}
	itemType := slots[i].Type
	slots[i].Count--
	if slots[i].Count <= 0 {
		slots[i] = nil
	}
	return itemType, true
}
