package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"maa-se/internal/taskqueue"
)

// Manager is the file-based config cache: one directory per group
// ("default", a device profile name, ...), each holding the small JSON
// files a Command Surface invocation reads or rewrites wholesale. Writes
// to a given cfg_type are serialized per group+kind so concurrent
// get_config/update_config calls never interleave a read with a write.
type Manager struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager roots the config cache at dir (typically <workDir>/config).
func NewManager(dir string) *Manager {
	return &Manager{root: dir, locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) lockFor(group string, kind Kind) *sync.Mutex {
	key := fmt.Sprintf("%s/%d", group, kind)
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *Manager) fileFor(group string, kind Kind) string {
	var name string
	switch kind {
	case KindSetting:
		name = "settings.json"
	case KindDailyTask:
		name = "daily.json"
	case KindExtraTask:
		name = "extra-task.json"
	case KindToolStorage:
		name = "tool-storage.json"
	case KindCustomStorage:
		name = "custom-storage.json"
	default:
		name = "unknown.json"
	}
	return filepath.Join(m.root, group, name)
}

// Get reads `name`'s current value into dst (a pointer). A missing or
// malformed file is tolerated and treated as "no value yet": dst is left
// untouched and ok reports false. Only genuine name-resolution errors
// are returned as err.
func (m *Manager) Get(group, name string, dst any) (ok bool, err error) {
	resolved, err := ParseName(name)
	if err != nil {
		return false, err
	}

	lock := m.lockFor(group, resolved.Kind)
	lock.Lock()
	defer lock.Unlock()

	doc, err := m.readDoc(group, resolved.Kind)
	if err != nil {
		return false, nil
	}

	key := entryKey(resolved)
	raw, present := doc[key]
	if !present {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// Set overwrites `name`'s entry within its group file. The whole file is
// read, the one entry replaced, and the whole file rewritten — matching
// the source cache's full-file-overwrite semantics rather than a
// key-level patch.
func (m *Manager) Set(group, name string, value any) error {
	resolved, err := ParseName(name)
	if err != nil {
		return err
	}

	lock := m.lockFor(group, resolved.Kind)
	lock.Lock()
	defer lock.Unlock()

	doc, err := m.readDoc(group, resolved.Kind)
	if err != nil {
		doc = make(map[string]json.RawMessage)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("config: marshal %q: %w", name, err)
	}
	doc[entryKey(resolved)] = raw

	return m.writeDoc(group, resolved.Kind, doc)
}

// DailyTasks returns the daily task config as a taskqueue-ready map plus
// the on-file insertion order of its keys, used to break Index ties.
func (m *Manager) DailyTasks(group string) (entries map[string]taskqueue.Parameters, order []string, err error) {
	lock := m.lockFor(group, KindDailyTask)
	lock.Lock()
	defer lock.Unlock()

	path := m.fileFor(group, KindDailyTask)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]taskqueue.Parameters), nil, nil
		}
		return nil, nil, err
	}

	order, rawOrder, err := orderedKeys(data)
	if err != nil {
		return make(map[string]taskqueue.Parameters), nil, nil
	}

	entries = make(map[string]taskqueue.Parameters, len(order))
	for _, key := range order {
		var p taskqueue.Parameters
		if err := json.Unmarshal(rawOrder[key], &p); err != nil {
			continue
		}
		entries[key] = p
	}
	return entries, order, nil
}

// Dump renders every file in a group as one JSON object keyed by
// cfg_type (settings, daily, extra_task, tool_storage, custom_storage),
// for get_config's "full config" response.
func (m *Manager) Dump(group string) (string, error) {
	kinds := []struct {
		key  string
		kind Kind
	}{
		{"settings", KindSetting},
		{"daily", KindDailyTask},
		{"extra_task", KindExtraTask},
		{"tool_storage", KindToolStorage},
		{"custom_storage", KindCustomStorage},
	}

	out := make(map[string]map[string]json.RawMessage, len(kinds))
	for _, k := range kinds {
		lock := m.lockFor(group, k.kind)
		lock.Lock()
		doc, err := m.readDoc(group, k.kind)
		lock.Unlock()
		if err != nil {
			doc = make(map[string]json.RawMessage)
		}
		out[k.key] = doc
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("config: marshal dump: %w", err)
	}
	return string(data), nil
}

// orderedKeys parses a JSON object and returns its top-level keys in
// file order alongside each key's raw value, since encoding/json's map
// decoding does not preserve source order.
func orderedKeys(data []byte) (order []string, values map[string]json.RawMessage, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	values = make(map[string]json.RawMessage)

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("config: expected JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("config: expected string key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}

		order = append(order, key)
		values[key] = raw
	}
	return order, values, nil
}

func entryKey(r ResolvedName) string {
	switch r.Kind {
	case KindToolStorage, KindCustomStorage:
		return r.ID
	default:
		return r.Name
	}
}

// readDoc loads a group's file for kind as a raw key->value map. A
// missing file is treated as an empty document; a malformed file is
// treated the same way rather than surfaced as a hard error, since the
// cache is meant to degrade gracefully rather than wedge a run on a
// corrupted config file.
func (m *Manager) readDoc(group string, kind Kind) (map[string]json.RawMessage, error) {
	path := m.fileFor(group, kind)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return make(map[string]json.RawMessage), nil
	}
	return doc, nil
}

func (m *Manager) writeDoc(group string, kind Kind, doc map[string]json.RawMessage) error {
	path := m.fileFor(group, kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create group dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal document: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("config: rename into place: %w", err)
	}
	return nil
}
