package scene

import (
	"errors"
	"fmt"
	"math/bits"
)

// Layer tags a node with the render pass that draws it. A node carries
// exactly one layer.
type Layer uint32

const (
	LayerBase  Layer = 1 << 0 // drawn by the final (base) pass only
	LayerBloom Layer = 1 << 1 // drawn by the off-screen bloom pass only
)

// LayerMask selects the set of layers a pass draws.
type LayerMask uint32

const (
	MaskBase  = LayerMask(LayerBase)
	MaskBloom = LayerMask(LayerBloom)
	MaskAll   = MaskBase | MaskBloom
)

var ErrInvalidLayer = errors.New("invalid layer")

// Valid reports whether l names exactly one known layer.
func (l Layer) Valid() bool {
	return bits.OnesCount32(uint32(l)) == 1 && LayerMask(l)&MaskAll != 0
}

func (l Layer) String() string {
	switch l {
	case LayerBase:
		return "base"
	case LayerBloom:
		return "bloom"
	default:
		return fmt.Sprintf("layer(%#x)", uint32(l))
	}
}

// ParseLayer maps a config name to a layer.
func ParseLayer(s string) (Layer, error) {
	switch s {
	case "base":
		return LayerBase, nil
	case "bloom":
		return LayerBloom, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLayer, s)
	}
}

// Has reports whether the mask includes layer l.
func (m LayerMask) Has(l Layer) bool {
	return m&LayerMask(l) != 0
}

func (m LayerMask) String() string {
	switch m {
	case MaskBase:
		return "base"
	case MaskBloom:
		return "bloom"
	case MaskAll:
		return "all"
	default:
		return fmt.Sprintf("mask(%#x)", uint32(m))
	}
}
