package probe

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/dshills/schemaprobe/internal/command"
	"github.com/dshills/schemaprobe/internal/storage"
	"github.com/dshills/schemaprobe/pkg/types"
)

// CheckCounter exposes the checker tallies the mutator reports and stops on
type CheckCounter interface {
	Succeeded() int64
	Failed() int
}

// MutationStats counts what the mutator did
type MutationStats struct {
	Iterations        int `json:"iterations"`
	ClassesCreated    int `json:"classes_created"`
	ClassesSkipped    int `json:"classes_skipped"`
	EdgeClasses       int `json:"edge_classes"`
	VertexClasses     int `json:"vertex_classes"`
	PropertiesCreated int `json:"properties_created"`
	PropertiesSkipped int `json:"properties_skipped"`
	SchemaFetches     int `json:"schema_fetches"`
}

// Mutator defines classes and properties on one session, fetching the
// schema handle at the points its scenario dictates
type Mutator struct {
	sess   storage.Session
	opts   Options
	run    types.RunID
	checks CheckCounter
	log    logr.Logger
	stats  MutationStats
}

// NewMutator creates a mutator for one run
func NewMutator(sess storage.Session, opts Options, run types.RunID, checks CheckCounter, logger logr.Logger) *Mutator {
	if opts.ProgressEvery < 1 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	return &Mutator{
		sess:   sess,
		opts:   opts,
		run:    run,
		checks: checks,
		log:    logger.WithName("mutator").WithValues("label", opts.Scenario.Label(), "run", int64(run)),
	}
}

// Stats returns the counts so far
func (m *Mutator) Stats() MutationStats { return m.stats }

// Run executes the mutation loop. Errors are not recovered: the first one
// ends the loop and is returned.
func (m *Mutator) Run(ctx context.Context) error {
	beforeWorkaround := m.opts.Scenario == types.ScenarioBeforeWorkaround

	var schema *storage.Schema
	if !beforeWorkaround {
		var err error
		if schema, err = m.fetchSchema(ctx); err != nil {
			return err
		}
	}

	todo := m.opts.Classes
	for todo > 0 && !m.shouldStop() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.progress(todo)
		todo--

		name := types.ClassName(m.run, todo)
		kind := types.KindForSlot(todo)

		if beforeWorkaround {
			var err error
			if schema, err = m.fetchSchema(ctx); err != nil {
				return err
			}
		}

		cls := schema.GetClass(name)
		if cls == nil {
			if beforeWorkaround && kind == types.KindEdge {
				var err error
				if schema, err = m.fetchSchema(ctx); err != nil {
					return err
				}
			}
			super := schema.GetClass(kind.BaseClass())
			if super == nil {
				return fmt.Errorf("%w: %s", storage.ErrClassNotFound, kind.BaseClass())
			}

			var err error
			cls, err = schema.CreateClass(ctx, name, m.opts.Clusters, super)
			if err != nil {
				return err
			}
			m.stats.ClassesCreated++
			if kind == types.KindEdge {
				m.stats.EdgeClasses++
			} else {
				m.stats.VertexClasses++
			}
		} else {
			m.stats.ClassesSkipped++
		}

		if err := m.defineProperties(ctx, cls); err != nil {
			return err
		}
		m.stats.Iterations++
	}

	m.log.Info("DONE", "iterations", m.stats.Iterations, "classesCreated", m.stats.ClassesCreated,
		"propertiesCreated", m.stats.PropertiesCreated)
	return nil
}

func (m *Mutator) defineProperties(ctx context.Context, cls *storage.Class) error {
	for idx := 0; idx < m.opts.PropertiesPerClass; idx++ {
		prop := types.PropertyName(m.run, idx)
		if cls.ExistsProperty(prop) {
			m.stats.PropertiesSkipped++
			continue
		}
		stmt := &command.CreateProperty{Class: cls.Name(), Name: prop, Type: types.TypeString, Unsafe: true}
		if err := m.sess.Command(ctx, stmt.String()); err != nil {
			return err
		}
		m.stats.PropertiesCreated++
	}
	return nil
}

func (m *Mutator) fetchSchema(ctx context.Context) (*storage.Schema, error) {
	schema, err := m.sess.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}
	m.stats.SchemaFetches++
	return schema, nil
}

func (m *Mutator) shouldStop() bool {
	return m.opts.StopOnFailure && m.checks.Failed() > 0
}

func (m *Mutator) progress(step int) {
	if step%m.opts.ProgressEvery == 0 {
		m.log.Info("progress", "step", step,
			"checksSucceeded", m.checks.Succeeded(), "checksFailed", m.checks.Failed())
	}
}
