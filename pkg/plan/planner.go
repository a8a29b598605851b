package plan

import (
	"errors"
	"io"
	"reflect"
)

type planner struct {
	pathCollector  IPathCollector
	topologyParser ITopologyParser
	sequencer      ISequencer
	digestUpdater  IDigestUpdater
}

// NewPlanner returns an IPlanner after ensuring all arguments are non-nil.
func NewPlanner(
	pathCollector IPathCollector,
	topologyParser ITopologyParser,
	sequencer ISequencer,
	digestUpdater IDigestUpdater,
) (IPlanner, error) {
	if pathCollector == nil || reflect.ValueOf(pathCollector).IsNil() {
		return nil, errors.New("'pathCollector' may not be nil")
	}

	if topologyParser == nil || reflect.ValueOf(topologyParser).IsNil() {
		return nil, errors.New("'topologyParser' may not be nil")
	}

	if sequencer == nil || reflect.ValueOf(sequencer).IsNil() {
		return nil, errors.New("'sequencer' may not be nil")
	}

	if digestUpdater == nil || reflect.ValueOf(digestUpdater).IsNil() {
		return nil, errors.New("'digestUpdater' may not be nil")
	}

	return &planner{
		pathCollector:  pathCollector,
		topologyParser: topologyParser,
		sequencer:      sequencer,
		digestUpdater:  digestUpdater,
	}, nil
}

// GeneratePlanfile creates a Planfile and writes it to an io.Writer.
func (p *planner) GeneratePlanfile(planfileWriter io.Writer) error {
	if planfileWriter == nil || reflect.ValueOf(planfileWriter).IsNil() {
		return errors.New("'planfileWriter' cannot be nil")
	}

	done := make(chan struct{})
	defer close(done)

	paths := p.pathCollector.CollectPaths(done)
	topologies := p.topologyParser.ParseFiles(paths, done)
	topologies = p.sequencer.SequenceTopologies(topologies, done)
	topologies = p.digestUpdater.UpdateDigests(topologies, done)

	planfile, err := NewPlanfile(topologies)
	if err != nil {
		return err
	}

	if len(planfile.Composefiles) == 0 {
		return nil
	}

	return planfile.Write(planfileWriter)
}
