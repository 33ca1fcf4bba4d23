package vdom

import "fmt"

// PatchOp is the type of host mutation.
type PatchOp uint8

const (
	PatchSetText    PatchOp = 0x01 // Update text content
	PatchSetAttr    PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr PatchOp = 0x03 // Remove attribute
	PatchInsertNode PatchOp = 0x04 // Insert new node
	PatchRemoveNode PatchOp = 0x05 // Remove node
	PatchMoveNode   PatchOp = 0x06 // Move node to new position
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchMoveNode:
		return "MoveNode"
	default:
		return "Unknown"
	}
}

// Patch records a single host mutation.
type Patch struct {
	Op       PatchOp `json:"op"`
	ID       string  `json:"id"`               // Target instance ID
	Key      string  `json:"key,omitempty"`    // Attribute key (for SetAttr/RemoveAttr)
	Value    string  `json:"value,omitempty"`  // New value, tag for InsertNode
	Index    int     `json:"index"`            // Position within the parent after the op
	ParentID string  `json:"parent,omitempty"` // Parent for Insert/Move/Remove
}

// String returns a compact one-line form, e.g. "InsertNode h3 li -> h1@0".
func (p Patch) String() string {
	switch p.Op {
	case PatchSetText:
		return fmt.Sprintf("SetText %s %q", p.ID, p.Value)
	case PatchSetAttr:
		return fmt.Sprintf("SetAttr %s %s=%q", p.ID, p.Key, p.Value)
	case PatchRemoveAttr:
		return fmt.Sprintf("RemoveAttr %s %s", p.ID, p.Key)
	case PatchInsertNode, PatchMoveNode:
		return fmt.Sprintf("%s %s %s -> %s@%d", p.Op, p.ID, p.Value, p.ParentID, p.Index)
	case PatchRemoveNode:
		return fmt.Sprintf("RemoveNode %s <- %s", p.ID, p.ParentID)
	default:
		return fmt.Sprintf("%s %s", p.Op, p.ID)
	}
}
