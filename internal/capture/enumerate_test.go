// ABOUTME: Tests for entity enumeration and target resolution
// ABOUTME: Uses a fake process lister to exercise filtering and failure paths
package capture

import (
	"errors"
	"testing"
)

type fakeLister struct {
	procs []ProcessInfo
	err   error
}

func (f *fakeLister) Processes() ([]ProcessInfo, error) {
	return f.procs, f.err
}

func TestEntitiesIncludeSystemMixdownFirst(t *testing.T) {
	e := NewEnumerator(&fakeLister{procs: []ProcessInfo{
		{PID: 42, Name: "Zed Player"},
		{PID: 7, Name: "Aria Browser"},
	}}, nil)

	entities := e.Entities()

	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}
	if entities[0].Kind != SystemMixdown || entities[0].ID != SystemMixdownID {
		t.Errorf("expected system mixdown first, got %+v", entities[0])
	}
	// Processes sort by name after the mixdown entry.
	if entities[1].Name != "Aria Browser" || entities[2].Name != "Zed Player" {
		t.Errorf("expected sorted process names, got %q %q", entities[1].Name, entities[2].Name)
	}
}

func TestEntitiesFilterByName(t *testing.T) {
	e := NewEnumerator(&fakeLister{procs: []ProcessInfo{
		{PID: 1, Name: "MusicApp"},
		{PID: 2, Name: "kernel_task"},
		{PID: 3, Name: "BrowserHelper"},
	}}, []string{"music", "browser"})

	entities := e.Entities()

	if len(entities) != 3 {
		t.Fatalf("expected mixdown + 2 matches, got %d entities", len(entities))
	}
	for _, ent := range entities[1:] {
		if ent.Name == "kernel_task" {
			t.Error("filtered process leaked into snapshot")
		}
	}
}

func TestEntitiesRegistryUnavailable(t *testing.T) {
	e := NewEnumerator(&fakeLister{err: errors.New("not supported")}, nil)

	entities := e.Entities()

	if len(entities) != 1 {
		t.Fatalf("expected only the mixdown entry, got %d entities", len(entities))
	}
	if entities[0].Kind != SystemMixdown {
		t.Errorf("expected system mixdown, got %+v", entities[0])
	}
}

func TestResolveSystemMixdown(t *testing.T) {
	e := NewEnumerator(&fakeLister{}, nil)

	target, err := e.Resolve(SystemMixdownID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Kind != SystemMixdown {
		t.Errorf("expected system mixdown target, got %+v", target)
	}
}

func TestResolveNamedProcess(t *testing.T) {
	e := NewEnumerator(&fakeLister{procs: []ProcessInfo{{PID: 42, Name: "MusicApp"}}}, nil)

	target, err := e.Resolve(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Kind != NamedProcess || target.PID != 42 || target.Name != "MusicApp" {
		t.Errorf("unexpected target: %+v", target)
	}
}

func TestResolveVanishedProcess(t *testing.T) {
	e := NewEnumerator(&fakeLister{procs: []ProcessInfo{{PID: 1, Name: "other"}}}, nil)

	_, err := e.Resolve(42)
	if !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestTapStateString(t *testing.T) {
	states := map[TapState]string{
		StateUnbound:          "unbound",
		StateTapCreated:       "tap-created",
		StateFormatKnown:      "format-known",
		StateDeviceAggregated: "device-aggregated",
		StateRunning:          "running",
		StateStopped:          "stopped",
		StateDestroyed:        "destroyed",
	}
	for state, expected := range states {
		if state.String() != expected {
			t.Errorf("expected %q, got %q", expected, state.String())
		}
	}
}
