// ABOUTME: Enumeration of capturable audio-producing entities
// ABOUTME: Snapshots the process registry and resolves selections to capture targets
package capture

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// Kind classifies a capturable entity.
type Kind int

const (
	// SystemMixdown captures everything routed to the system output.
	SystemMixdown Kind = iota
	// NamedProcess captures the audio of one process.
	NamedProcess
)

// SystemMixdownID is the entity ID reserved for whole-system capture.
const SystemMixdownID int32 = 0

// Entity is one capturable audio producer. Entities are a snapshot, not a
// live-updating view; resolve promptly after enumeration.
type Entity struct {
	ID   int32
	Name string
	Kind Kind
}

// Target is a resolved capture selection handed to the tap source.
type Target struct {
	Kind Kind
	PID  int32
	Name string
}

// ProcessInfo is one running process as seen by the registry.
type ProcessInfo struct {
	PID  int32
	Name string
}

// ProcessLister abstracts the platform process registry so the enumerator is
// testable in isolation.
type ProcessLister interface {
	Processes() ([]ProcessInfo, error)
}

// SystemLister reads the live process table via gopsutil.
type SystemLister struct{}

func (SystemLister) Processes() ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		infos = append(infos, ProcessInfo{PID: p.Pid, Name: name})
	}
	return infos, nil
}

// Enumerator lists capturable entities and resolves selections to targets.
type Enumerator struct {
	lister  ProcessLister
	filters []string
}

// NewEnumerator creates an enumerator. filters restricts the process list to
// names containing any of the given substrings (case-insensitive); an empty
// filter list admits every process.
func NewEnumerator(lister ProcessLister, filters []string) *Enumerator {
	if lister == nil {
		lister = SystemLister{}
	}
	return &Enumerator{lister: lister, filters: filters}
}

// Entities returns a snapshot of capturable entities. The system mixdown is
// always first. The process registry has no notion of audio activity, so
// every named process is listed, narrowed only by the configured name
// filters; whether a process actually produces a tappable stream surfaces at
// bind time. If the registry is unavailable the snapshot contains only the
// mixdown entry; that is reported, not fatal.
func (e *Enumerator) Entities() []Entity {
	entities := []Entity{{ID: SystemMixdownID, Name: "System Audio", Kind: SystemMixdown}}

	procs, err := e.lister.Processes()
	if err != nil {
		log.Printf("Process enumeration unavailable: %v", err)
		return entities
	}

	for _, p := range procs {
		if p.PID == SystemMixdownID || !e.matches(p.Name) {
			continue
		}
		entities = append(entities, Entity{ID: p.PID, Name: p.Name, Kind: NamedProcess})
	}

	sort.Slice(entities[1:], func(i, j int) bool {
		return entities[i+1].Name < entities[j+1].Name
	})

	return entities
}

// Resolve maps an entity ID to a capture target. SystemMixdownID resolves to
// whole-system capture; anything else must still exist in the registry.
func (e *Enumerator) Resolve(id int32) (Target, error) {
	if id == SystemMixdownID {
		return Target{Kind: SystemMixdown, Name: "System Audio"}, nil
	}

	procs, err := e.lister.Processes()
	if err != nil {
		return Target{}, fmt.Errorf("%w: registry unavailable: %v", ErrTargetNotFound, err)
	}

	for _, p := range procs {
		if p.PID == id {
			return Target{Kind: NamedProcess, PID: id, Name: p.Name}, nil
		}
	}

	return Target{}, fmt.Errorf("%w: pid %d", ErrTargetNotFound, id)
}

func (e *Enumerator) matches(name string) bool {
	if len(e.filters) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, f := range e.filters {
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
