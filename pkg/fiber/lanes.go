package fiber

import (
	"math/bits"
	"strconv"
	"strings"
)

// Lane is an update priority. Lanes are bits; a lower bit is a higher
// priority. A set of lanes is represented by the same type.
type Lane uint32

const (
	NoLane         Lane = 0
	SyncLane       Lane = 1 << 0
	InputLane      Lane = 1 << 1
	DefaultLane    Lane = 1 << 4
	TransitionLane Lane = 1 << 6
	IdleLane       Lane = 1 << 29
)

// highest returns the highest priority lane in the set.
func (l Lane) highest() Lane {
	return l & -l
}

// Has reports whether the set contains any lane of other.
func (l Lane) Has(other Lane) bool {
	return l&other != 0
}

// preempts reports whether l carries a lane of higher priority than every
// lane in the set running.
func (l Lane) preempts(running Lane) bool {
	if l == 0 {
		return false
	}
	if running == 0 {
		return true
	}
	return l.highest() < running.highest()
}

// String lists the named lanes in the set.
func (l Lane) String() string {
	if l == 0 {
		return "none"
	}
	var parts []string
	for rest := l; rest != 0; {
		bit := Lane(1) << bits.TrailingZeros32(uint32(rest))
		rest &^= bit
		switch bit {
		case SyncLane:
			parts = append(parts, "sync")
		case InputLane:
			parts = append(parts, "input")
		case DefaultLane:
			parts = append(parts, "default")
		case TransitionLane:
			parts = append(parts, "transition")
		case IdleLane:
			parts = append(parts, "idle")
		default:
			parts = append(parts, "lane"+strconv.Itoa(bits.TrailingZeros32(uint32(bit))))
		}
	}
	return strings.Join(parts, "|")
}
