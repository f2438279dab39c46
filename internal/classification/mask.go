package classification

import "fmt"

// Mask word layout, one uint32 per (class, object) pair:
//
//	bits  0-8   class
//	bits  9-17  object id
//	bits 18-26  polygon index
//	bit  27     mode (0 reclassify, 1 hide)
//	bits 28-31  reserved, always 0
//
// Object id 0 stands for every object of the class.
const (
	maskFieldBits = 9
	maskFieldMax  = 1<<maskFieldBits - 1

	// Highest class and object id a mask can carry
	MaxMaskClass  = maskFieldMax
	MaxMaskObject = maskFieldMax

	classShift   = 0
	objectShift  = 9
	polygonShift = 18
	modeShift    = 27
)

func EncodeMaskWord(class, object, polygon uint32, mode Mode) (uint32, error) {
	if class > maskFieldMax {
		return 0, fmt.Errorf("%w: class %d", ErrMaskFieldOverflow, class)
	}
	if object > maskFieldMax {
		return 0, fmt.Errorf("%w: object id %d", ErrMaskFieldOverflow, object)
	}
	if polygon > maskFieldMax {
		return 0, fmt.Errorf("%w: polygon index %d", ErrMaskFieldOverflow, polygon)
	}
	if mode > ModeHide {
		return 0, fmt.Errorf("%w: mode %d", ErrMaskFieldOverflow, mode)
	}
	return class<<classShift | object<<objectShift | polygon<<polygonShift | uint32(mode)<<modeShift, nil
}

func DecodeMaskWord(word uint32) (class, object, polygon uint32, mode Mode) {
	class = word >> classShift & maskFieldMax
	object = word >> objectShift & maskFieldMax
	polygon = word >> polygonShift & maskFieldMax
	mode = Mode(word >> modeShift & 1)
	return
}
