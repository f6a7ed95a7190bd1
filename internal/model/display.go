package model

// Position is the corner of the container a label is pinned to.
type Position string

// Supported label positions.
const (
	PositionBottomRight Position = "bottom-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionTopRight    Position = "top-right"
	PositionTopLeft     Position = "top-left"
)

// Positions returns all supported positions.
func Positions() []Position {
	return []Position{PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft}
}

// IsValid reports whether p is one of the four corners.
func (p Position) IsValid() bool {
	switch p {
	case PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft:
		return true
	default:
		return false
	}
}

// String returns the position name as used in class names.
func (p Position) String() string {
	return string(p)
}

// Default display values.
const (
	DefaultOpacity  = 0.9
	DefaultFontSize = "12px"
	DefaultBgColor  = "rgba(0, 0, 0, 0.7)"
)

// DisplayConfig holds the display options of an Annotator.
//
// Values are not validated: an opacity outside [0,1] or an arbitrary CSS
// string is written to the stylesheet verbatim and left to the CSS engine.
type DisplayConfig struct {
	// ShowSource shows the source line of a label.
	ShowSource bool `json:"showSource" yaml:"showSource"`

	// ShowCopyright shows the holder/year line and the licence line.
	ShowCopyright bool `json:"showCopyright" yaml:"showCopyright"`

	// Position is the corner the label is pinned to.
	Position Position `json:"position" yaml:"position"`

	// Opacity of a visible label.
	Opacity float64 `json:"opacity" yaml:"opacity"`

	// ShowOnHover hides labels until the container is hovered.
	ShowOnHover bool `json:"showOnHover" yaml:"showOnHover"`

	// FontSize is a CSS length.
	FontSize string `json:"fontSize" yaml:"fontSize"`

	// BgColor is a CSS color.
	BgColor string `json:"bgColor" yaml:"bgColor"`
}

// DefaultDisplayConfig returns the display configuration used when a caller
// supplies no overrides.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		ShowSource:    true,
		ShowCopyright: true,
		Position:      PositionBottomRight,
		Opacity:       DefaultOpacity,
		ShowOnHover:   false,
		FontSize:      DefaultFontSize,
		BgColor:       DefaultBgColor,
	}
}

// ConfigPatch is a partial DisplayConfig. Nil fields are left untouched by
// Merge; unknown keys in JSON or YAML input are ignored by the decoders.
type ConfigPatch struct {
	ShowSource    *bool     `json:"showSource,omitempty" yaml:"showSource,omitempty"`
	ShowCopyright *bool     `json:"showCopyright,omitempty" yaml:"showCopyright,omitempty"`
	Position      *Position `json:"position,omitempty" yaml:"position,omitempty"`
	Opacity       *float64  `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	ShowOnHover   *bool     `json:"showOnHover,omitempty" yaml:"showOnHover,omitempty"`
	FontSize      *string   `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	BgColor       *string   `json:"bgColor,omitempty" yaml:"bgColor,omitempty"`
}

// Merge returns c with every set field of patch applied. The merge is
// shallow; DisplayConfig has no nested fields.
func (c DisplayConfig) Merge(patch ConfigPatch) DisplayConfig {
	if patch.ShowSource != nil {
		c.ShowSource = *patch.ShowSource
	}
	if patch.ShowCopyright != nil {
		c.ShowCopyright = *patch.ShowCopyright
	}
	if patch.Position != nil {
		c.Position = *patch.Position
	}
	if patch.Opacity != nil {
		c.Opacity = *patch.Opacity
	}
	if patch.ShowOnHover != nil {
		c.ShowOnHover = *patch.ShowOnHover
	}
	if patch.FontSize != nil {
		c.FontSize = *patch.FontSize
	}
	if patch.BgColor != nil {
		c.BgColor = *patch.BgColor
	}
	return c
}

// Combine returns a patch holding the fields of p overridden by the set
// fields of other.
func (p ConfigPatch) Combine(other ConfigPatch) ConfigPatch {
	if other.ShowSource != nil {
		p.ShowSource = other.ShowSource
	}
	if other.ShowCopyright != nil {
		p.ShowCopyright = other.ShowCopyright
	}
	if other.Position != nil {
		p.Position = other.Position
	}
	if other.Opacity != nil {
		p.Opacity = other.Opacity
	}
	if other.ShowOnHover != nil {
		p.ShowOnHover = other.ShowOnHover
	}
	if other.FontSize != nil {
		p.FontSize = other.FontSize
	}
	if other.BgColor != nil {
		p.BgColor = other.BgColor
	}
	return p
}

// IsEmpty reports whether no field of p is set.
func (p ConfigPatch) IsEmpty() bool {
	return p == ConfigPatch{}
}

// Ptr returns a pointer to v. It keeps patch literals short.
func Ptr[T any](v T) *T {
	return &v
}
