package parse

import (
	"fmt"
	"os"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

// DockerfileParser resolves the base image of a Dockerfile referenced by a
// service's build section.
type DockerfileParser struct{}

// NewDockerfileParser returns a DockerfileParser.
func NewDockerfileParser() *DockerfileParser {
	return &DockerfileParser{}
}

// BaseImage parses a Dockerfile and returns the base image of its final
// stage. Stage aliases are resolved to the image they name, so a final
// stage that begins "FROM builder" reports builder's base image. Global
// args declared before the first FROM instruction are expanded, with
// buildArgs taking precedence over their default values.
func (d *DockerfileParser) BaseImage(
	path string,
	buildArgs map[string]string,
) (*ImageReference, error) {
	dockerfile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dockerfile.Close()

	loadedDockerfile, err := parser.Parse(dockerfile)
	if err != nil {
		return nil, fmt.Errorf(
			"'%s' failed to parse with err: %v", path, err,
		)
	}

	var (
		baseImageLine string
		stageAliases  = map[string]string{} // FROM <image line> as <stage>
		globalArgs    = map[string]string{} // ARGs before the first FROM
		globalContext = true                // true if before first FROM
	)

	for _, child := range loadedDockerfile.AST.Children {
		switch child.Value {
		case "arg":
			var raw []string

			for n := child.Next; n != nil; n = n.Next {
				raw = append(raw, n.Value)
			}

			if len(raw) == 0 {
				return nil, fmt.Errorf(
					"invalid arg instruction in Dockerfile '%s'", path,
				)
			}

			if globalContext {
				if strings.Contains(raw[0], "=") {
					// ARG VAR=VAL
					const (
						argValLen = 2
						varIndex  = 0
						valIndex  = 1
					)

					varVal := strings.SplitN(raw[0], "=", argValLen)

					strippedVar := d.stripQuotes(varVal[varIndex])
					strippedVal := d.stripQuotes(varVal[valIndex])

					globalArgs[strippedVar] = strippedVal
				} else {
					// ARG VAR1
					strippedVar := d.stripQuotes(raw[0])

					globalArgs[strippedVar] = ""
				}
			}
		case "from":
			var raw []string

			for n := child.Next; n != nil; n = n.Next {
				raw = append(raw, n.Value)
			}

			if len(raw) == 0 {
				return nil, fmt.Errorf(
					"invalid FROM instruction in Dockerfile '%s'", path,
				)
			}

			globalContext = false

			imageLine := d.expandField(raw[0], globalArgs, buildArgs)
			if aliased, ok := stageAliases[imageLine]; ok {
				imageLine = aliased
			}

			baseImageLine = imageLine

			// <image> AS <stage>
			// <stage> AS <another stage>
			const maxNumFields = 3
			if len(raw) == maxNumFields {
				const stageIndex = 2

				stageAliases[raw[stageIndex]] = imageLine
			}
		}
	}

	if baseImageLine == "" {
		return nil, fmt.Errorf(
			"no FROM instruction in Dockerfile '%s'", path,
		)
	}

	return NewImageReference(baseImageLine), nil
}

func (d *DockerfileParser) stripQuotes(s string) string {
	// Valid in a Dockerfile - any number of quotes if quote is on either side.
	// ARG "IMAGE"="busybox"
	// ARG "IMAGE"""""="busybox"""""""""""""
	if s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimRight(strings.TrimLeft(s, "\""), "\"")
	}

	return s
}

func (d *DockerfileParser) expandField(
	field string,
	globalArgs map[string]string,
	buildArgs map[string]string,
) string {
	return os.Expand(field, func(arg string) string {
		globalVal, ok := globalArgs[arg]
		if !ok {
			return ""
		}

		buildVal, ok := buildArgs[arg]
		if !ok {
			return globalVal
		}

		return buildVal
	})
}
