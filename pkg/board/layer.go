package board

// Layer identifies a board layer relevant to silkscreen placement. Inner
// copper and fabrication layers the engine never inspects collapse to
// LayerOther.
type Layer int

const (
	LayerOther Layer = iota
	LayerFSilk
	LayerBSilk
	LayerFCu
	LayerBCu
	LayerFMask
	LayerBMask
	LayerFCourtyard
	LayerBCourtyard
	LayerEdgeCuts
)

var layerNames = map[Layer]string{
	LayerOther:      "Other",
	LayerFSilk:      "F.SilkS",
	LayerBSilk:      "B.SilkS",
	LayerFCu:        "F.Cu",
	LayerBCu:        "B.Cu",
	LayerFMask:      "F.Mask",
	LayerBMask:      "B.Mask",
	LayerFCourtyard: "F.CrtYd",
	LayerBCourtyard: "B.CrtYd",
	LayerEdgeCuts:   "Edge.Cuts",
}

// String returns the KiCad layer name.
func (l Layer) String() string {
	if s, ok := layerNames[l]; ok {
		return s
	}
	return "Other"
}

// ParseLayer maps a KiCad layer name to a Layer. Both the legacy short names
// (F.SilkS, F.CrtYd) and the long names written since KiCad 6 (F.Silkscreen,
// F.Courtyard) are accepted. Unknown names map to LayerOther rather than
// failing; the engine simply never matches them.
func ParseLayer(name string) Layer {
	switch name {
	case "F.SilkS", "F.Silkscreen":
		return LayerFSilk
	case "B.SilkS", "B.Silkscreen":
		return LayerBSilk
	case "F.Cu":
		return LayerFCu
	case "B.Cu":
		return LayerBCu
	case "F.Mask":
		return LayerFMask
	case "B.Mask":
		return LayerBMask
	case "F.CrtYd", "F.Courtyard":
		return LayerFCourtyard
	case "B.CrtYd", "B.Courtyard":
		return LayerBCourtyard
	case "Edge.Cuts":
		return LayerEdgeCuts
	}
	return LayerOther
}

// IsSilk reports whether l is a silkscreen layer.
func (l Layer) IsSilk() bool { return l == LayerFSilk || l == LayerBSilk }

// IsFront reports whether l is on the front side of the board.
func (l Layer) IsFront() bool {
	switch l {
	case LayerFSilk, LayerFCu, LayerFMask, LayerFCourtyard:
		return true
	}
	return false
}

// CourtyardFor returns the courtyard layer on the same side as a silkscreen
// layer.
func (l Layer) CourtyardFor() Layer {
	if l == LayerBSilk {
		return LayerBCourtyard
	}
	return LayerFCourtyard
}

// MaskFor returns the solder-mask layer on the same side as a silkscreen
// layer.
func (l Layer) MaskFor() Layer {
	if l == LayerBSilk {
		return LayerBMask
	}
	return LayerFMask
}
