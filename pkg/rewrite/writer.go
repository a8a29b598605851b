package rewrite

import (
	"bufio"
	"bytes"
	"fmt"
	"io/ioutil"
	"strings"
	"sync"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
	"gopkg.in/yaml.v2"
)

// ComposefileWriter writes compose files with image lines replaced by
// those from a Planfile.
type ComposefileWriter struct {
	ExcludeTags bool
}

type composefileServices struct {
	Services map[string]interface{} `yaml:"services"`
}

// WriteFiles writes rewritten compose files to temporary paths in
// tempDir, leaving the original files untouched.
func (c *ComposefileWriter) WriteFiles(
	topologies map[string]*parse.Topology,
	tempDir string,
	done <-chan struct{},
) <-chan *WrittenPath {
	writtenPaths := make(chan *WrittenPath)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		for path, topology := range topologies {
			path := path
			topology := topology

			waitGroup.Add(1)

			go func() {
				defer waitGroup.Done()

				newPath, err := c.writeFile(path, topology, tempDir)
				if err != nil {
					select {
					case <-done:
					case writtenPaths <- &WrittenPath{Err: err}:
					}

					return
				}

				if newPath != "" {
					select {
					case <-done:
					case writtenPaths <- &WrittenPath{
						OriginalPath: path,
						NewPath:      newPath,
					}:
					}
				}
			}()
		}
	}()

	go func() {
		waitGroup.Wait()
		close(writtenPaths)
	}()

	return writtenPaths
}

func (c *ComposefileWriter) writeFile(
	path string,
	topology *parse.Topology,
	tempDir string,
) (string, error) {
	pathByt, err := ioutil.ReadFile(path)
	if err != nil {
		return "", err
	}

	serviceImageLines, err := c.filterServices(pathByt, topology)
	if err != nil {
		return "", fmt.Errorf("in '%s', %v", path, err)
	}

	if len(serviceImageLines) == 0 {
		return "", nil
	}

	var (
		serviceName        string
		numServicesWritten int
		outputBuffer       bytes.Buffer
		scanner            = bufio.NewScanner(bytes.NewBuffer(pathByt))
	)

	for scanner.Scan() {
		inputLine := scanner.Text()
		outputLine := inputLine
		possibleServiceName := strings.Trim(inputLine, " :")

		switch {
		case serviceImageLines[possibleServiceName] != "":
			serviceName = possibleServiceName
		case serviceName != "" &&
			strings.HasPrefix(strings.TrimLeft(inputLine, " "), "image:"):
			imageIndex := strings.Index(inputLine, "image:")

			outputLine = fmt.Sprintf(
				"%s %s", inputLine[:imageIndex+len("image:")],
				serviceImageLines[serviceName],
			)

			serviceName = ""

			numServicesWritten++
		}

		outputBuffer.WriteString(fmt.Sprintf("%s\n", outputLine))
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	if numServicesWritten != len(serviceImageLines) {
		return "", fmt.Errorf(
			"in '%s' '%d' images rewritten, but expected to rewrite '%d'",
			path, numServicesWritten, len(serviceImageLines),
		)
	}

	replacer := strings.NewReplacer("/", "-", "\\", "-")
	tempPath := replacer.Replace(fmt.Sprintf("%s-*", path))

	writtenFile, err := ioutil.TempFile(tempDir, tempPath)
	if err != nil {
		return "", err
	}
	defer writtenFile.Close()

	if _, err = writtenFile.Write(outputBuffer.Bytes()); err != nil {
		return "", err
	}

	return writtenFile.Name(), nil
}

func (c *ComposefileWriter) filterServices(
	pathByt []byte,
	topology *parse.Topology,
) (map[string]string, error) {
	var comp composefileServices
	if err := yaml.Unmarshal(pathByt, &comp); err != nil {
		return nil, err
	}

	serviceImageLines := map[string]string{}

	for _, service := range topology.Services {
		if _, ok := comp.Services[service.Name]; !ok {
			return nil, fmt.Errorf(
				"'%s' service does not exist", service.Name,
			)
		}

		// Services built from Dockerfiles do not have image lines
		// to rewrite.
		if service.DockerfilePath != "" {
			continue
		}

		if service.Image == nil {
			return nil, fmt.Errorf(
				"'%s' service has no image", service.Name,
			)
		}

		image := *service.Image
		if c.ExcludeTags {
			image.Tag = ""
		}

		serviceImageLines[service.Name] = image.ImageLine()
	}

	return serviceImageLines, nil
}
