// Package journal persists the events observed by scheme runs so that a failed
// run can be inspected after the fact.
package journal

import (
	"encoding/json"
	"fmt"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"strings"
)

// Journal is an append only, per run log of events.
type Journal interface {
	// Record stores the seq'th event observed by the run.
	Record(runID string, seq int, e event.Event) error
	// Events returns every event recorded for runID in seq order.
	Events(runID string) ([]event.Event, error)
	// Runs returns the id of every run with at least one recorded event.
	Runs() ([]string, error)
	Close() error
}

const keySeparator = "/"

type pebbleJournal struct {
	db *pebble.DB
}

// Open opens a pebble backed journal in dirname. A nil fs uses the operating
// system's filesystem.
func Open(dirname string, fs vfs.FS) (Journal, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(dirname, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "[journal] - failed to open %s", dirname)
	}
	return &pebbleJournal{db: db}, nil
}

func key(runID string, seq int) []byte {
	return []byte(fmt.Sprintf("%s%s%020d", runID, keySeparator, seq))
}

func (j *pebbleJournal) Record(runID string, seq int, e event.Event) error {
	if strings.Contains(runID, keySeparator) {
		return errors.Newf("[journal] - run id %q contains %q", runID, keySeparator)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "[journal] - failed to encode event")
	}
	return j.db.Set(key(runID, seq), b, pebble.NoSync)
}

func (j *pebbleJournal) Events(runID string) ([]event.Event, error) {
	prefix := runID + keySeparator
	iter := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		// the separator is followed by '0' in byte order.
		UpperBound: []byte(runID + "0"),
	})
	var events []event.Event
	for iter.First(); iter.Valid(); iter.Next() {
		var e event.Event
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			_ = iter.Close()
			return nil, errors.Wrapf(err, "[journal] - corrupt entry %s", iter.Key())
		}
		events = append(events, e)
	}
	return events, iter.Close()
}

func (j *pebbleJournal) Runs() ([]string, error) {
	iter := j.db.NewIter(nil)
	var runs []string
	for iter.First(); iter.Valid(); iter.Next() {
		k := string(iter.Key())
		runID := k[:strings.Index(k, keySeparator)]
		if len(runs) == 0 || runs[len(runs)-1] != runID {
			runs = append(runs, runID)
		}
	}
	return runs, iter.Close()
}

func (j *pebbleJournal) Close() error { return j.db.Close() }
