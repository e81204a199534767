package domain

import (
	"sort"
	"strings"
)

// SystemActionNames is the full set of supported system actions; a
// capability table enables a subset of them.
var SystemActionNames = []string{
	"volume_mute",
	"volume_up",
	"volume_down",
	"volume_set",
	"sleep",
	"shutdown",
	"restart",
	"lock",
}

// CapabilityTable is the immutable set of targets a command may resolve
// to: named files, named applications, and enabled system actions. Keys
// are case-insensitive. Built once at startup from configuration.
type CapabilityTable struct {
	files  map[string]string
	apps   map[string]string
	system map[string]struct{}
}

func NewCapabilityTable(files, apps map[string]string, system []string) CapabilityTable {
	t := CapabilityTable{
		files:  make(map[string]string, len(files)),
		apps:   make(map[string]string, len(apps)),
		system: make(map[string]struct{}, len(system)),
	}
	for name, path := range files {
		t.files[normalizeKey(name)] = path
	}
	for name, command := range apps {
		t.apps[normalizeKey(name)] = command
	}
	for _, name := range system {
		t.system[normalizeKey(name)] = struct{}{}
	}
	return t
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// File resolves a file key to its configured path.
func (t CapabilityTable) File(name string) (string, bool) {
	path, ok := t.files[normalizeKey(name)]
	return path, ok
}

// App resolves an application key to its configured launch command.
func (t CapabilityTable) App(name string) (string, bool) {
	command, ok := t.apps[normalizeKey(name)]
	return command, ok
}

// SystemEnabled reports whether a system action is enabled.
func (t CapabilityTable) SystemEnabled(name string) bool {
	_, ok := t.system[normalizeKey(name)]
	return ok
}

func (t CapabilityTable) FileKeys() []string { return sortedKeys(t.files) }

func (t CapabilityTable) AppKeys() []string { return sortedKeys(t.apps) }

func (t CapabilityTable) SystemActions() []string {
	names := make([]string, 0, len(t.system))
	for name := range t.system {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t CapabilityTable) Empty() bool {
	return len(t.files) == 0 && len(t.apps) == 0 && len(t.system) == 0
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
