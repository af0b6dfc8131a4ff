package board

// ColorTag is the closed set of pastel tags a column, task or event category
// can carry. Values outside the set render with the fallback metadata rather
// than failing.
type ColorTag string

const (
	ColorRose  ColorTag = "rose"
	ColorPeach ColorTag = "peach"
	ColorLemon ColorTag = "lemon"
	ColorMint  ColorTag = "mint"
	ColorSky   ColorTag = "sky"
	ColorLilac ColorTag = "lilac"
	ColorSlate ColorTag = "slate"
)

// ColorMeta is the presentation metadata a front end looks up per tag.
type ColorMeta struct {
	Hex   string `json:"hex"`
	Class string `json:"class"`
}

var colorMeta = map[ColorTag]ColorMeta{
	ColorRose:  {Hex: "#F8C8DC", Class: "tag-rose"},
	ColorPeach: {Hex: "#FFDAB9", Class: "tag-peach"},
	ColorLemon: {Hex: "#FDFD96", Class: "tag-lemon"},
	ColorMint:  {Hex: "#C1E1C1", Class: "tag-mint"},
	ColorSky:   {Hex: "#BCE1F5", Class: "tag-sky"},
	ColorLilac: {Hex: "#D8C2EC", Class: "tag-lilac"},
	ColorSlate: {Hex: "#D3D7DE", Class: "tag-slate"},
}

// Meta returns the presentation metadata for the tag, falling back to slate
// for any unrecognized value.
func (c ColorTag) Meta() ColorMeta {
	if m, ok := colorMeta[c]; ok {
		return m
	}
	return colorMeta[ColorSlate]
}

// ParseColor maps stored text onto the closed set, defaulting to slate.
func ParseColor(s string) ColorTag {
	if _, ok := colorMeta[ColorTag(s)]; ok {
		return ColorTag(s)
	}
	return ColorSlate
}
