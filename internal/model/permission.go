package model

// Level is a permission level a user can hold on a document.
type Level string

const (
	LevelRead   Level = "read"
	LevelWrite  Level = "write"
	LevelDelete Level = "delete"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelRead, LevelWrite, LevelDelete:
		return true
	}
	return false
}

// Implies reports whether holding l satisfies a check for required.
// DELETE implies WRITE and READ; WRITE implies READ.
func (l Level) Implies(required Level) bool {
	switch l {
	case LevelDelete:
		return true
	case LevelWrite:
		return required == LevelWrite || required == LevelRead
	case LevelRead:
		return required == LevelRead
	}
	return false
}

// Cascade returns the full set of levels that must be persisted when l
// is granted: WRITE and DELETE always carry READ with them.
func (l Level) Cascade() []Level {
	switch l {
	case LevelWrite:
		return []Level{LevelRead, LevelWrite}
	case LevelDelete:
		return []Level{LevelRead, LevelDelete}
	default:
		return []Level{l}
	}
}

// RevokeCascade returns every level that must be removed when l is
// revoked: revoking READ also strips WRITE and DELETE.
func (l Level) RevokeCascade() []Level {
	if l == LevelRead {
		return []Level{LevelRead, LevelWrite, LevelDelete}
	}
	return []Level{l}
}
