package parse

import (
	"fmt"
	"strings"
)

// ImageReference is an image in a registry, such as the value of an image
// line in a compose file or of a FROM instruction in a Dockerfile.
type ImageReference struct {
	Name   string `json:"name"`
	Tag    string `json:"tag,omitempty"`
	Digest string `json:"digest,omitempty"`
}

// NewImageReference parses an image line into an ImageReference. It accepts
// inputs of the format "name", "name:tag", "name@sha256:digest", and
// "name:tag@sha256:digest". An untagged image other than scratch is
// normalized to the tag "latest".
func NewImageReference(imageLine string) *ImageReference {
	var (
		tagSeparator    = -1
		digestSeparator = -1
	)

loop:
	for i, c := range imageLine {
		switch c {
		case ':':
			tagSeparator = i
		case '/':
			// reset tag separator if a tag was found before the registry,
			// e.g. localhost:5000/my-image
			tagSeparator = -1
		case '@':
			digestSeparator = i
			break loop
		}
	}

	switch {
	case tagSeparator != -1 && digestSeparator != -1:
		// ubuntu:18.04@sha256:9b1702...
		return &ImageReference{
			Name:   imageLine[:tagSeparator],
			Tag:    imageLine[tagSeparator+1 : digestSeparator],
			Digest: strings.TrimPrefix(imageLine[digestSeparator+1:], "sha256:"),
		}
	case tagSeparator != -1 && digestSeparator == -1:
		// ubuntu:18.04
		return &ImageReference{
			Name: imageLine[:tagSeparator],
			Tag:  imageLine[tagSeparator+1:],
		}
	case tagSeparator == -1 && digestSeparator != -1:
		// ubuntu@sha256:9b1702...
		return &ImageReference{
			Name:   imageLine[:digestSeparator],
			Digest: strings.TrimPrefix(imageLine[digestSeparator+1:], "sha256:"),
		}
	default:
		// ubuntu
		reference := &ImageReference{Name: imageLine}
		if imageLine != "scratch" {
			reference.Tag = "latest"
		}

		return reference
	}
}

// ImageLine formats the reference the way a compose file or Dockerfile
// would write it. If the reference has a tag, this will be of the format
// "name:tag". If it has a digest, "name@sha256:digest". If it has both,
// "name:tag@sha256:digest".
func (i *ImageReference) ImageLine() string {
	imageLine := i.Name

	if i.Tag != "" {
		imageLine = fmt.Sprintf("%s:%s", imageLine, i.Tag)
	}

	if i.Digest != "" {
		imageLine = fmt.Sprintf("%s@sha256:%s", imageLine, i.Digest)
	}

	return imageLine
}
