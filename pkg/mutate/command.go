// Package mutate applies the suffix-keyed update DSL to generic solution and
// skill documents. Updates are parsed into explicit commands and applied to a
// deep copy; the input document is never modified.
package mutate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBadOperation marks a malformed update.
var ErrBadOperation = errors.New("bad operation")

// Op is a mutation kind.
type Op string

const (
	OpSet    Op = "set"
	OpPush   Op = "push"
	OpDelete Op = "delete"
	OpUpdate Op = "update"
	OpRename Op = "rename"
)

var suffixes = []struct {
	suffix string
	op     Op
}{
	{"_push", OpPush},
	{"_delete", OpDelete},
	{"_update", OpUpdate},
	{"_rename", OpRename},
}

// ProtectedPaths are arrays that only the suffixed operations may change.
var ProtectedPaths = []string{
	"tools",
	"meta_tools",
	"intents.supported",
	"guardrails.always",
	"guardrails.never",
}

// IsProtected reports whether a direct set on path is forbidden.
func IsProtected(path string) bool {
	for _, p := range ProtectedPaths {
		if p == path {
			return true
		}
	}
	return false
}

// Command is one parsed update.
type Command struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

func (c Command) String() string {
	if c.Op == OpSet {
		return c.Path
	}
	return c.Path + "_" + string(c.Op)
}

// Parse turns an update map into commands, ordered by key.
func Parse(updates map[string]any) ([]Command, error) {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmds := make([]Command, 0, len(keys))
	for _, k := range keys {
		cmd := Command{Op: OpSet, Path: k, Value: updates[k]}
		for _, s := range suffixes {
			if strings.HasSuffix(k, s.suffix) {
				cmd.Op = s.op
				cmd.Path = strings.TrimSuffix(k, s.suffix)
				break
			}
		}
		if cmd.Path == "" {
			return nil, fmt.Errorf("%w: empty path in key %q", ErrBadOperation, k)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
