package domain

// ArtifactType discriminates the artifact variants
type ArtifactType string

const (
	ArtifactTable   ArtifactType = "table"
	ArtifactPlot    ArtifactType = "plot"
	ArtifactMetrics ArtifactType = "metrics"
)

// PlotFormatPNGBase64 is the only plot encoding the runner emits
const PlotFormatPNGBase64 = "png_base64"

// MetricItem is a single named measurement. Value is a float64 when the
// captured text parsed as a number, otherwise the literal string.
type MetricItem struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Artifact is one typed analysis output extracted from captured execution
// text. Exactly one of Table, Image or Items is populated, according to Type.
type Artifact struct {
	Type ArtifactType `json:"type"`
	Name string       `json:"name,omitempty"`

	// Table rows, header first, all cells stringified
	Table [][]string `json:"table,omitempty"`

	// Plot payload and encoding tag
	Image  string `json:"image,omitempty"`
	Format string `json:"format,omitempty"`

	// Metric items in encounter order
	Items []MetricItem `json:"items,omitempty"`
}
