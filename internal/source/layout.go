package source

import "fmt"

// Column layout of a text point file, identified by the number of columns
type Layout int

const (
	LayoutUnknown Layout = 0
	// x y z class
	LayoutXYZClass Layout = 4
	// x y z class object
	LayoutXYZClassObject Layout = 5
	// x y z r g b class
	LayoutXYZRGBClass Layout = 7
	// x y z r g b class object
	LayoutXYZRGBClassObject Layout = 8
)

func ParseLayout(columns int) (Layout, error) {
	switch Layout(columns) {
	case LayoutXYZClass, LayoutXYZClassObject, LayoutXYZRGBClass, LayoutXYZRGBClassObject:
		return Layout(columns), nil
	}
	return LayoutUnknown, fmt.Errorf("unsupported column count %d, expected 4, 5, 7 or 8", columns)
}

func (l Layout) HasColour() bool {
	return l == LayoutXYZRGBClass || l == LayoutXYZRGBClassObject
}

func (l Layout) HasObject() bool {
	return l == LayoutXYZClassObject || l == LayoutXYZRGBClassObject
}

func (l Layout) String() string {
	switch l {
	case LayoutXYZClass:
		return "x y z class"
	case LayoutXYZClassObject:
		return "x y z class object"
	case LayoutXYZRGBClass:
		return "x y z r g b class"
	case LayoutXYZRGBClassObject:
		return "x y z r g b class object"
	}
	return "unknown"
}
