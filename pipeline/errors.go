package pipeline

// Kind classifies a pipeline failure so every skipped region or
// image stays attributable in the final result.
type Kind uint8

const (
	// SvgParseError means the document itself could not be parsed;
	// it is fatal, the pipeline produces no output.
	SvgParseError Kind = iota
	// ClipGeometryError marks degenerate, zero-area or unsupported
	// clip geometry; the region is skipped.
	ClipGeometryError
	// TransformError marks a singular, non-invertible composed
	// matrix; the region is skipped.
	TransformError
	// ImageFetchError marks a failed image retrieval or decode; only
	// the regions depending on that image are skipped.
	ImageFetchError
	// ArchiveError surfaces at the packaging boundary and is fatal
	// there.
	ArchiveError
)

func (k Kind) String() string {
	switch k {
	case SvgParseError:
		return "SvgParseError"
	case ClipGeometryError:
		return "ClipGeometryError"
	case TransformError:
		return "TransformError"
	case ImageFetchError:
		return "ImageFetchError"
	case ArchiveError:
		return "ArchiveError"
	default:
		return "<unknown Kind>"
	}
}

// RegionFailure attributes one skipped region.
type RegionFailure struct {
	Index int
	ID    string
	Kind  Kind
	Err   error
}

// ImageFailure attributes one image URL that could not be resolved.
type ImageFailure struct {
	URL string
	Err error
}
