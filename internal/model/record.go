package model

import (
	"sort"
	"strings"
)

// Wire keys of a record as it sits in flag storage.
const (
	KeyID      = "id"
	KeyLabel   = "label"
	KeyIsDone  = "isDone"
	KeyOwnerID = "ownerId"
)

// ToDoRecord is the domain model for a todo entry owned by a single user.
type ToDoRecord struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	IsDone  bool   `json:"isDone" yaml:"isDone"`
	OwnerID string `json:"ownerId" yaml:"ownerId"`
}

// Records maps record ids to records.
type Records map[string]ToDoRecord

// Patch carries the fields a caller wants to set. Nil fields are left alone.
type Patch struct {
	ID      *string
	Label   *string
	IsDone  *bool
	OwnerID *string
}

// Label and Done are shorthands for building patches.
func Label(s string) Patch { return Patch{Label: &s} }
func Done(b bool) Patch    { return Patch{IsDone: &b} }

// Fields returns only the supplied keys, in the stored shape.
func (p Patch) Fields() map[string]any {
	out := make(map[string]any, 4)
	if p.ID != nil {
		out[KeyID] = *p.ID
	}
	if p.Label != nil {
		out[KeyLabel] = *p.Label
	}
	if p.IsDone != nil {
		out[KeyIsDone] = *p.IsDone
	}
	if p.OwnerID != nil {
		out[KeyOwnerID] = *p.OwnerID
	}
	return out
}

// Apply merges the supplied fields onto r.
func (p Patch) Apply(r ToDoRecord) ToDoRecord {
	if p.ID != nil {
		r.ID = *p.ID
	}
	if p.Label != nil {
		r.Label = *p.Label
	}
	if p.IsDone != nil {
		r.IsDone = *p.IsDone
	}
	if p.OwnerID != nil {
		r.OwnerID = *p.OwnerID
	}
	return r
}

// Fields returns the record in the stored shape.
func (r ToDoRecord) Fields() map[string]any {
	return map[string]any{
		KeyID:      r.ID,
		KeyLabel:   r.Label,
		KeyIsDone:  r.IsDone,
		KeyOwnerID: r.OwnerID,
	}
}

// RecordFromFields decodes a stored record. Missing or mistyped keys stay zero.
func RecordFromFields(m map[string]any) ToDoRecord {
	var r ToDoRecord
	r.ID, _ = m[KeyID].(string)
	r.Label, _ = m[KeyLabel].(string)
	r.IsDone, _ = m[KeyIsDone].(bool)
	r.OwnerID, _ = m[KeyOwnerID].(string)
	return r
}

// RecordsFromFlag decodes a user's stored mapping. Entries keep the key they
// were stored under, whatever their id field says.
func RecordsFromFlag(m map[string]any) Records {
	out := make(Records, len(m))
	for k, v := range m {
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[k] = RecordFromFields(fields)
	}
	return out
}

// Flag encodes rs in the stored shape.
func (rs Records) Flag() map[string]any {
	out := make(map[string]any, len(rs))
	for k, r := range rs {
		out[k] = r.Fields()
	}
	return out
}

// Keyed returns a copy of rs whose records carry the key they are stored
// under as their id. Records without an owner get ownerID, unless it is empty.
func (rs Records) Keyed(ownerID string) Records {
	out := make(Records, len(rs))
	for k, r := range rs {
		r.ID = k
		if r.OwnerID == "" {
			r.OwnerID = ownerID
		}
		out[k] = r
	}
	return out
}

// Sorted lists pending items first, then by label, then by id.
func (rs Records) Sorted() []ToDoRecord {
	out := make([]ToDoRecord, 0, len(rs))
	for _, r := range rs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsDone != b.IsDone {
			return !a.IsDone
		}
		if la, lb := strings.ToLower(a.Label), strings.ToLower(b.Label); la != lb {
			return la < lb
		}
		return a.ID < b.ID
	})
	return out
}

// Stats counts done and pending records.
func (rs Records) Stats() (done, pending int) {
	for _, r := range rs {
		if r.IsDone {
			done++
		} else {
			pending++
		}
	}
	return
}

// ByOwner partitions rs by owner id.
func (rs Records) ByOwner() map[string]Records {
	out := map[string]Records{}
	for k, r := range rs {
		if out[r.OwnerID] == nil {
			out[r.OwnerID] = Records{}
		}
		out[r.OwnerID][k] = r
	}
	return out
}
