package measurement

// maxHistory bounds the undo stack. Pushing beyond it silently drops the
// oldest entry.
const maxHistory = 50

type historyOp int

const (
	opAdd historyOp = iota
	opRemove
	opModify
)

// historyItem is one undoable action. object is a deep clone of the affected
// measurement after the action; before additionally carries the pre-change
// clone for opModify.
type historyItem struct {
	op     historyOp
	object *Object
	before *Object
}

type history struct {
	undo []historyItem
	redo []historyItem
}

// record notes a fresh user action. Anything that was redoable is
// invalidated by it.
func (h *history) record(item historyItem) {
	h.pushUndo(item)
	h.redo = h.redo[:0]
}

func (h *history) pushUndo(item historyItem) {
	if len(h.undo) >= maxHistory {
		h.undo = h.undo[1:]
	}
	h.undo = append(h.undo, item)
}

func (h *history) pushRedo(item historyItem) {
	h.redo = append(h.redo, item)
}

func (h *history) popUndo() (historyItem, bool) {
	if len(h.undo) == 0 {
		return historyItem{}, false
	}
	item := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return item, true
}

func (h *history) popRedo() (historyItem, bool) {
	if len(h.redo) == 0 {
		return historyItem{}, false
	}
	item := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return item, true
}
