package model

import "sync/atomic"

// ModelID identifies a TypeModel. Added members refer to their declaring
// model through it.
type ModelID uint32

// NoModelID marks a member not attached to any model.
const NoModelID ModelID = 0

// IsValid reports whether the ID was allocated.
func (id ModelID) IsValid() bool { return id != NoModelID }

var modelSeq atomic.Uint32

func nextModelID() ModelID { return ModelID(modelSeq.Add(1)) }
