package tasks

// The helpers below never modify their input; each returns a fresh sequence
// that replaces the old one wholesale.

func withAppended(list []Task, t Task) []Task {
	out := make([]Task, len(list), len(list)+1)
	copy(out, list)
	return append(out, t)
}

func withoutID(list []Task, id int64) ([]Task, bool) {
	out := make([]Task, 0, len(list))
	found := false
	for _, t := range list {
		if t.ID == id {
			found = true
			continue
		}
		out = append(out, t)
	}
	return out, found
}

func withToggled(list []Task, id int64) ([]Task, Task, bool) {
	out := make([]Task, len(list))
	var changed Task
	found := false
	for i, t := range list {
		if t.ID == id {
			t.Completed = !t.Completed
			changed = t
			found = true
		}
		out[i] = t
	}
	return out, changed, found
}

// withMoved swaps the task at view position index with its visible neighbour
// (delta is -1 for up, +1 for down). Positions are translated through the
// filter, so tasks hidden by it stay where they are. A move past either end of
// the view reports moved=false.
func withMoved(list []Task, f Filter, index, delta int) (out []Task, moved bool, err error) {
	pos := f.positions(list)
	if index < 0 || index >= len(pos) {
		return nil, false, ErrIndexOutOfRange
	}
	other := index + delta
	if other < 0 || other >= len(pos) {
		return nil, false, nil
	}
	out = make([]Task, len(list))
	copy(out, list)
	a, b := pos[index], pos[other]
	out[a], out[b] = out[b], out[a]
	return out, true, nil
}

func containsID(list []Task, id int64) bool {
	for _, t := range list {
		if t.ID == id {
			return true
		}
	}
	return false
}
