package models

// Style identifies one of the fixed stylistic transforms applied by the
// generative service to a source photo.
type Style string

const (
	StyleAnime      Style = "anime"
	StyleWatercolor Style = "watercolor"
	StyleOil        Style = "oil"
	StyleClassic    Style = "classic"
)

// AllStyles is the fixed style set in iteration order. The aggregate response
// preserves this order regardless of which style finishes first.
var AllStyles = []Style{StyleAnime, StyleWatercolor, StyleOil, StyleClassic}
