// Package config implements the Command Surface's config cache: a
// per-group set of small JSON files (daily tasks, extra tasks, ADB
// settings, keyed storage), loaded tolerantly and written under a
// per-cfg_type critical section.
package config

import (
	"fmt"
	"strings"
)

// Kind identifies which on-disk file a resolved name belongs to.
type Kind int

const (
	KindSetting Kind = iota
	KindDailyTask
	KindExtraTask
	KindToolStorage
	KindCustomStorage
)

var dailyTaskNames = map[string]bool{
	"StartUp": true, "CloseDown": true, "Fight": true, "Recruit": true,
	"Infrast": true, "Mall": true, "Award": true, "Roguelike": true,
	"Reclamation": true,
}

var extraTaskNames = map[string]bool{
	"Custom": true, "Copilot": true, "SSSCopilot": true, "Depot": true,
	"OperBox": true, "SingleStep": true, "VideoRecognition": true,
}

var settingNames = map[string]bool{
	"Adb":          true,
	"DownloadRate": true,
}

// ResolvedName is the result of parsing a Command Surface `name` per the
// §6 resolution order: settings, then daily tasks, then extra tasks,
// then storage names, otherwise rejected.
type ResolvedName struct {
	Kind Kind
	// Name is the task/setting name for Kind{Setting,DailyTask,ExtraTask}.
	Name string
	// ID is the parenthesized identifier for Kind{ToolStorage,CustomStorage},
	// e.g. "abc" out of "Tool(abc)".
	ID string
}

// ParseName resolves a Command Surface config name, first-match-wins.
// Unrecognized names are rejected rather than silently treated as custom
// storage, unlike the source this cache is modeled on.
func ParseName(name string) (ResolvedName, error) {
	if settingNames[name] {
		return ResolvedName{Kind: KindSetting, Name: name}, nil
	}
	if dailyTaskNames[name] {
		return ResolvedName{Kind: KindDailyTask, Name: name}, nil
	}
	if extraTaskNames[name] {
		return ResolvedName{Kind: KindExtraTask, Name: name}, nil
	}
	if id, ok := parseStorageName(name, "Tool"); ok {
		return ResolvedName{Kind: KindToolStorage, ID: id}, nil
	}
	if id, ok := parseStorageName(name, "Custom"); ok {
		return ResolvedName{Kind: KindCustomStorage, ID: id}, nil
	}
	return ResolvedName{}, fmt.Errorf("config: unrecognized name %q", name)
}

func parseStorageName(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix+"(") || !strings.HasSuffix(name, ")") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"("), ")")
	if id == "" {
		return "", false
	}
	return id, true
}
