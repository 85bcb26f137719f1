package ledger

import "github.com/BrandonDHaskell/kinetic/internal/kinetic/types"

// RecordEvent appends an audit entry. It always succeeds.
func (b *Book) RecordEvent(kind types.EventType, message string) types.LedgerEntry {
	e := types.LedgerEntry{
		ID:        b.newID(),
		Timestamp: b.now().UnixMilli(),
		Type:      kind,
		Message:   message,
	}
	b.entries = append(b.entries, e)
	return e
}

// Entries returns the audit log newest first. A non-empty kinds list keeps
// only entries of those kinds.
func (b *Book) Entries(kinds ...types.EventType) []types.LedgerEntry {
	keep := func(types.EventType) bool { return true }
	if len(kinds) > 0 {
		set := make(map[types.EventType]struct{}, len(kinds))
		for _, k := range kinds {
			set[k] = struct{}{}
		}
		keep = func(k types.EventType) bool {
			_, ok := set[k]
			return ok
		}
	}

	out := make([]types.LedgerEntry, 0, len(b.entries))
	for i := len(b.entries) - 1; i >= 0; i-- {
		if keep(b.entries[i].Type) {
			out = append(out, b.entries[i])
		}
	}
	return out
}

func (b *Book) EntryCount() int { return len(b.entries) }
