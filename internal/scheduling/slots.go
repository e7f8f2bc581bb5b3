package scheduling

// The daily slot grid: sixteen half-hour marks, a morning block and an
// afternoon block with a lunch gap in between. Every appointment time must sit
// on this grid.
var slotTemplate = []string{
	"08:00", "08:30", "09:00", "09:30", "10:00", "10:30",
	"11:00", "11:30", "14:00", "14:30", "15:00", "15:30",
	"16:00", "16:30", "17:00", "17:30",
}

// SlotTemplate returns a copy of the daily slot grid in order.
func SlotTemplate() []string {
	out := make([]string, len(slotTemplate))
	copy(out, slotTemplate)
	return out
}

func onGrid(timeOfDay string) bool {
	for _, t := range slotTemplate {
		if t == timeOfDay {
			return true
		}
	}
	return false
}
