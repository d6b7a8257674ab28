package cp3d

import (
	"errors"
	"fmt"
)

// ErrUnsupportedShape is returned by geometry queries when no exact algorithm exists
// for a pair of shapes.
var ErrUnsupportedShape = errors.New("unsupported shape")

func unsupported(a, b *Shape) error {
	return fmt.Errorf("%w: %v and %v", ErrUnsupportedShape, a.Type(), b.Type())
}
