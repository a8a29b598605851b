package update

import (
	"errors"
	"fmt"
	"sync"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// DigestUpdater queries registries for digests of images that do not
// already specify them and updates each topology's services with the
// results.
type DigestUpdater struct {
	DigestRequester       IDigestRequester
	IgnoreMissingDigests  bool
	UpdateExistingDigests bool
	ExistingDigests       map[string]string

	cacheMutex sync.Mutex
	cache      map[string]string
}

// NewDigestUpdater returns a DigestUpdater after validating its fields.
// existingDigests maps "name:tag" to digests already recorded in a
// Planfile; they are reused rather than queried again unless
// updateExistingDigests is true.
func NewDigestUpdater(
	digestRequester IDigestRequester,
	ignoreMissingDigests bool,
	updateExistingDigests bool,
	existingDigests map[string]string,
) (*DigestUpdater, error) {
	if digestRequester == nil {
		return nil, errors.New("'digestRequester' cannot be nil")
	}

	return &DigestUpdater{
		DigestRequester:       digestRequester,
		IgnoreMissingDigests:  ignoreMissingDigests,
		UpdateExistingDigests: updateExistingDigests,
		ExistingDigests:       existingDigests,
		cache:                 map[string]string{},
	}, nil
}

// UpdateDigests queries registries for digests of images that do not
// already specify their digests. It updates topologies with those digests.
func (d *DigestUpdater) UpdateDigests(
	topologies <-chan *parse.Topology,
	done <-chan struct{},
) <-chan *parse.Topology {
	if topologies == nil {
		return nil
	}

	var (
		waitGroup         sync.WaitGroup
		updatedTopologies = make(chan *parse.Topology)
	)

	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		for topology := range topologies {
			topology := topology

			waitGroup.Add(1)

			go func() {
				defer waitGroup.Done()

				if topology.Err == nil {
					if err := d.updateTopology(topology); err != nil {
						topology = &parse.Topology{
							Path: topology.Path,
							Err: fmt.Errorf(
								"from '%s': %v", topology.Path, err,
							),
						}
					}
				}

				select {
				case <-done:
				case updatedTopologies <- topology:
				}
			}()
		}
	}()

	go func() {
		waitGroup.Wait()
		close(updatedTopologies)
	}()

	return updatedTopologies
}

func (d *DigestUpdater) updateTopology(topology *parse.Topology) error {
	for _, service := range topology.Services {
		image := service.Image

		if image == nil || image.Tag == "" {
			continue
		}

		if image.Digest != "" && !d.UpdateExistingDigests {
			continue
		}

		nameTag := fmt.Sprintf("%s:%s", image.Name, image.Tag)

		if !d.UpdateExistingDigests {
			if digest, ok := d.ExistingDigests[nameTag]; ok && digest != "" {
				image.Digest = digest
				continue
			}
		}

		digest, err := d.requestDigest(nameTag, image.Name, image.Tag)
		if err != nil {
			if d.IgnoreMissingDigests {
				continue
			}

			return err
		}

		image.Digest = digest
	}

	return nil
}

// requestDigest queries the registry once per unique name:tag, no matter
// how many services share the image.
func (d *DigestUpdater) requestDigest(
	nameTag string,
	name string,
	tag string,
) (string, error) {
	d.cacheMutex.Lock()
	defer d.cacheMutex.Unlock()

	if digest, ok := d.cache[nameTag]; ok {
		return digest, nil
	}

	digest, err := d.DigestRequester.Digest(name, tag)
	if err != nil {
		return "", err
	}

	d.cache[nameTag] = digest

	return digest, nil
}
