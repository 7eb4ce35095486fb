package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyRFC6902 returns a patched copy of doc. doc itself is never modified.
func ApplyRFC6902(doc map[string]any, ops []Operation) (map[string]any, error) {
	currentJSON, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var normalized map[string]any
	if err := sonic.Unmarshal(currentJSON, &normalized); err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	if len(ops) == 0 {
		return normalized, nil
	}
	ops = FixOperations(normalized, ops)

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}
	var out map[string]any
	if err := sonic.Unmarshal(modifiedJSON, &out); err != nil {
		return nil, fmt.Errorf("patched document is not an object: %w", err)
	}
	return out, nil
}

// FixOperations turns a replace of a missing member into an add and drops removes of
// members that are already gone, so the usual model mistakes do not fail the whole patch.
// doc must hold decoded JSON values.
func FixOperations(doc any, ops []Operation) []Operation {
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OperationReplace:
			if !pathExists(doc, op.Path) {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if pathExists(doc, op.Path) {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	cur := doc
	for _, token := range strings.Split(path[1:], "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		switch node := cur.(type) {
		case map[string]any:
			value, ok := node[token]
			if !ok {
				return false
			}
			cur = value
		case []any:
			index, err := strconv.Atoi(token)
			if err != nil || index < 0 || index >= len(node) {
				return false
			}
			cur = node[index]
		default:
			return false
		}
	}
	return true
}
