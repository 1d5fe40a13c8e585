package mutate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// matchKeys is the matcher priority for array items.
var matchKeys = []string{"id", "key", "name"}

// Rejection records a command that was a no-op.
type Rejection struct {
	Command Command `json:"command"`
	Reason  string  `json:"reason"`
}

// Outcome is the result of applying a batch of commands.
type Outcome struct {
	Document map[string]any `json:"document"`
	Applied  []Command      `json:"applied"`
	Rejected []Rejection    `json:"rejected,omitempty"`
}

// Apply runs cmds in order against a deep copy of doc. Malformed commands
// abort with ErrBadOperation; no-ops are reported in Outcome.Rejected.
func Apply(doc map[string]any, cmds []Command) (*Outcome, error) {
	out := &Outcome{Document: deepCopy(doc).(map[string]any)}
	for _, cmd := range cmds {
		reason, err := applyOne(out.Document, cmd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		if reason != "" {
			out.Rejected = append(out.Rejected, Rejection{Command: cmd, Reason: reason})
			continue
		}
		out.Applied = append(out.Applied, cmd)
	}
	return out, nil
}

// ApplyUpdates parses and applies an update map.
func ApplyUpdates(doc map[string]any, updates map[string]any) (*Outcome, error) {
	cmds, err := Parse(updates)
	if err != nil {
		return nil, err
	}
	return Apply(doc, cmds)
}

func applyOne(doc map[string]any, cmd Command) (string, error) {
	if cmd.Op == OpSet {
		if IsProtected(cmd.Path) {
			return "protected array: use _push, _delete, _update or _rename", nil
		}
		return "", setPath(doc, cmd.Path, deepCopy(cmd.Value))
	}

	items, err := arrayAt(doc, cmd.Path)
	if err != nil {
		return "", err
	}

	var (
		next   []any
		reason string
	)
	switch cmd.Op {
	case OpPush:
		next = items
		for _, v := range asList(cmd.Value) {
			next = push(next, deepCopy(v))
		}
	case OpDelete:
		next = items
		for _, v := range asList(cmd.Value) {
			next = remove(next, v)
		}
		if len(next) == len(items) {
			reason = "no matching item"
		}
	case OpUpdate:
		next = items
		matched := 0
		for _, v := range asList(cmd.Value) {
			var ok bool
			if next, ok = update(next, v); ok {
				matched++
			}
		}
		if matched == 0 {
			reason = "no matching item"
		}
	case OpRename:
		from, to, err := renameArgs(cmd.Value)
		if err != nil {
			return "", err
		}
		var ok bool
		next, ok = rename(items, from, to)
		if !ok {
			reason = fmt.Sprintf("no item named %q", from)
		}
	default:
		return "", fmt.Errorf("%w: unknown op %q", ErrBadOperation, cmd.Op)
	}
	if reason != "" {
		return reason, nil
	}
	return "", setPath(doc, cmd.Path, next)
}

// push merges v into the item it matches, or appends it.
func push(items []any, v any) []any {
	if i := indexOf(items, v); i >= 0 {
		out := cloneList(items)
		out[i] = merge(items[i], v)
		return out
	}
	out := cloneList(items)
	return append(out, v)
}

func remove(items []any, v any) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		if !matches(it, v) {
			out = append(out, it)
		}
	}
	return out
}

func update(items []any, v any) ([]any, bool) {
	i := indexOf(items, v)
	if i < 0 {
		return items, false
	}
	out := cloneList(items)
	out[i] = merge(items[i], deepCopy(v))
	return out, true
}

func rename(items []any, from, to string) ([]any, bool) {
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok || m["name"] != from {
			continue
		}
		out := cloneList(items)
		renamed := deepCopy(m).(map[string]any)
		renamed["name"] = to
		out[i] = renamed
		return out, true
	}
	return items, false
}

func renameArgs(v any) (string, string, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", "", fmt.Errorf("%w: rename expects {from, to}", ErrBadOperation)
	}
	from, _ := m["from"].(string)
	to, _ := m["to"].(string)
	if from == "" || to == "" {
		return "", "", fmt.Errorf("%w: rename expects non-empty from and to", ErrBadOperation)
	}
	return from, to, nil
}

func indexOf(items []any, v any) int {
	for i, it := range items {
		if matches(it, v) {
			return i
		}
	}
	return -1
}

// matches compares an array item with a probe using the first matcher key
// the probe carries. A scalar probe matches a scalar item by equality or a
// map item whose id, key or name equals it.
func matches(item, probe any) bool {
	pm, probeIsMap := probe.(map[string]any)
	im, itemIsMap := item.(map[string]any)
	switch {
	case probeIsMap && itemIsMap:
		for _, k := range matchKeys {
			if pv, ok := pm[k]; ok {
				return reflect.DeepEqual(im[k], pv)
			}
		}
		return false
	case !probeIsMap && itemIsMap:
		for _, k := range matchKeys {
			if iv, ok := im[k]; ok && reflect.DeepEqual(iv, probe) {
				return true
			}
		}
		return false
	case !probeIsMap && !itemIsMap:
		return reflect.DeepEqual(item, probe)
	}
	return false
}

func merge(dst, src any) any {
	dm, ok1 := dst.(map[string]any)
	sm, ok2 := src.(map[string]any)
	if !ok1 || !ok2 {
		return src
	}
	out := deepCopy(dm).(map[string]any)
	for k, v := range sm {
		out[k] = v
	}
	return out
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{v}
}

func cloneList(items []any) []any {
	out := make([]any, len(items))
	copy(out, items)
	return out
}

// arrayAt returns the array at path. A missing path is an empty array.
func arrayAt(doc map[string]any, path string) ([]any, error) {
	v, ok := lookup(doc, path)
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T, not an array", ErrBadOperation, path, v)
	}
	return items, nil
}

func lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// setPath assigns v at a dotted path, creating intermediate objects.
// Numeric segments index into existing arrays.
func setPath(doc map[string]any, path string, v any) error {
	segs := strings.Split(path, ".")
	var cur any = doc
	for i, seg := range segs {
		last := i == len(segs)-1
		switch c := cur.(type) {
		case map[string]any:
			if last {
				c[seg] = v
				return nil
			}
			next, ok := c[seg]
			if !ok || next == nil {
				next = map[string]any{}
				c[seg] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return fmt.Errorf("%w: index %q out of range at %s", ErrBadOperation, seg, path)
			}
			if last {
				c[idx] = v
				return nil
			}
			cur = c[idx]
		default:
			return fmt.Errorf("%w: cannot descend into %T at %s", ErrBadOperation, cur, path)
		}
	}
	return nil
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
