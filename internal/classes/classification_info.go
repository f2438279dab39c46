package classes

import (
	"encoding/json"
	"sort"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
)

// Contains the name of a class and the ids of the objects found with it
type ClassType struct {
	ClassName  string
	ObjectsIDs mapset.Set[uint32]
}

type classTypeJSON struct {
	ClassName  string   `json:"class_name"`
	ObjectsIDs []uint32 `json:"objects_ids"`
}

func (c *ClassType) MarshalJSON() ([]byte, error) {
	ids := c.ObjectsIDs.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return json.Marshal(classTypeJSON{ClassName: c.ClassName, ObjectsIDs: ids})
}

func (c *ClassType) UnmarshalJSON(b []byte) error {
	var raw classTypeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.ClassName = raw.ClassName
	c.ObjectsIDs = mapset.NewThreadUnsafeSet[uint32](raw.ObjectsIDs...)
	return nil
}

// Describes the class types and object ids found in a dataset. Not safe for concurrent writes.
type ClassificationInfo struct {
	ClassTypes map[uint8]*ClassType `json:"class_types"`
}

func NewClassificationInfo() *ClassificationInfo {
	return &ClassificationInfo{ClassTypes: make(map[uint8]*ClassType)}
}

func (ci *ClassificationInfo) InsertOrUpdate(classID uint8, objectID uint32) {
	ct, ok := ci.ClassTypes[classID]
	if !ok {
		ct = &ClassType{
			ClassName:  Name(classID),
			ObjectsIDs: mapset.NewThreadUnsafeSet[uint32](),
		}
		ci.ClassTypes[classID] = ct
	}
	ct.ObjectsIDs.Add(objectID)
}

// Folds another info into this one
func (ci *ClassificationInfo) Merge(other *ClassificationInfo) {
	for id, ct := range other.ClassTypes {
		for _, obj := range ct.ObjectsIDs.ToSlice() {
			ci.InsertOrUpdate(id, obj)
		}
	}
}

func (ci *ClassificationInfo) Contains(classID uint8, objectID uint32) bool {
	ct, ok := ci.ClassTypes[classID]
	return ok && ct.ObjectsIDs.Contains(objectID)
}

// Class ids present, ascending
func (ci *ClassificationInfo) ClassIDs() []uint8 {
	ids := make([]uint8, 0, len(ci.ClassTypes))
	for id := range ci.ClassTypes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Total number of distinct (class, object) groups
func (ci *ClassificationInfo) Groups() int {
	n := 0
	for _, ct := range ci.ClassTypes {
		n += ct.ObjectsIDs.Cardinality()
	}
	return n
}

// Category as exposed to the command surface: the class as category, its objects as items
type Category struct {
	CategoryID string   `json:"category_id"`
	Name       string   `json:"name"`
	Items      []string `json:"items"`
}

func (ci *ClassificationInfo) Categories() []Category {
	var out []Category
	for _, id := range ci.ClassIDs() {
		ct := ci.ClassTypes[id]
		objs := ct.ObjectsIDs.ToSlice()
		sort.Slice(objs, func(i, j int) bool { return objs[i] < objs[j] })
		items := make([]string, len(objs))
		for i, o := range objs {
			items[i] = strconv.FormatUint(uint64(o), 10)
		}
		out = append(out, Category{
			CategoryID: strconv.Itoa(int(id)),
			Name:       ct.ClassName,
			Items:      items,
		})
	}
	return out
}
