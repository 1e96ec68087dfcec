package analyze

import (
	"maps"
	"slices"

	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"
)

// ImageComponents is the decomposed form of an image reference. Registry,
// tag, and digest are empty when the reference does not carry them; the
// shorthand "ubuntu" has name "ubuntu" and nothing else.
type ImageComponents struct {
	Registry string        `json:"registry,omitempty"`
	Name     string        `json:"name"`
	Tag      string        `json:"tag,omitempty"`
	Digest   digest.Digest `json:"digest,omitempty"`
}

// Image is one entry of the base-image inventory. Components is nil when
// the full text is not a parseable image reference, for example a
// variable expression like "$BASE_IMAGE" or a stage alias.
type Image struct {
	Full       string           `json:"full"`
	Components *ImageComponents `json:"components"`
}

// decomposeImages renders the image-expression set as a sorted inventory,
// decomposing each distinct reference once.
func decomposeImages(images map[string]struct{}) []Image {
	out := make([]Image, 0, len(images))
	for _, full := range slices.Sorted(maps.Keys(images)) {
		out = append(out, Image{
			Full:       full,
			Components: decomposeImage(full),
		})
	}
	return out
}

// decomposeImage splits an image reference into its components, or
// returns nil if the text is not a valid reference. The reference is
// parsed as written: no docker.io/library normalization, so the registry
// is only present when the text names one explicitly.
func decomposeImage(full string) *ImageComponents {
	ref, err := reference.Parse(full)
	if err != nil {
		return nil
	}
	named, ok := ref.(reference.Named)
	if !ok {
		return nil
	}

	comps := &ImageComponents{
		Registry: reference.Domain(named),
		Name:     reference.Path(named),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		comps.Tag = tagged.Tag()
	}
	if digested, ok := ref.(reference.Digested); ok {
		comps.Digest = digested.Digest()
	}
	return comps
}
