package tools

import "context"

// Handler is the uniform invocation contract every tool implements: take the
// resolved, workspace_root-injected inputs and return a JSON-shaped output or
// an error.
type Handler func(ctx context.Context, inputs map[string]any) (any, error)

// Descriptor is the registry's static metadata for one tool, independent of
// its handler.
type Descriptor struct {
	Name              string
	PermissionProfile string
	Description       string
}

// DefaultDescriptors is the tool table from spec §4.3, seeded idempotently
// by Engine.EnsureDefaultTools.
var DefaultDescriptors = []Descriptor{
	{Name: "read_file", PermissionProfile: "workspace_read", Description: "Read a file from the session workspace."},
	{Name: "list_dir", PermissionProfile: "workspace_read", Description: "List files in the session workspace."},
	{Name: "run_shell_readonly", PermissionProfile: "shell_readonly", Description: "Run allowlisted readonly shell commands."},
	{Name: "write_file_preview", PermissionProfile: "workspace_write_preview", Description: "Preview a workspace file write."},
	{Name: "write_file_apply", PermissionProfile: "workspace_write_apply", Description: "Apply a workspace file write."},
	{Name: "apply_patch", PermissionProfile: "workspace_patch", Description: "Preview or apply a single-file unified diff."},
}

// IsMutatingInvocation reports whether the tool/mode combination actually
// mutates the workspace; the engine's dry_run policy uses it.
func IsMutatingInvocation(tool string, inputs map[string]any) bool {
	switch tool {
	case "write_file_apply":
		return true
	case "apply_patch":
		mode, _ := inputs["mode"].(string)
		return mode == "apply"
	default:
		return false
	}
}

// Registry dispatches tool invocations to their handlers, grounded on the
// original's READONLY_TOOLS dict-lookup dispatch, generalized over all six
// default tools.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.handlers["read_file"] = handleReadFile
	r.handlers["list_dir"] = handleListDir
	r.handlers["run_shell_readonly"] = handleRunShellReadonly
	r.handlers["write_file_preview"] = handleWriteFilePreview
	r.handlers["write_file_apply"] = handleWriteFileApply
	r.handlers["apply_patch"] = handleApplyPatch
	return r
}

// Lookup returns the handler for name, or false if unknown.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

func requireString(inputs map[string]any, key string) (string, error) {
	v, ok := inputs[key]
	if !ok {
		return "", inputError("missing required input: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", inputError("input %s must be a string", key)
	}
	return s, nil
}

func optionalMap(inputs map[string]any, key string) map[string]any {
	if v, ok := inputs[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func workspaceRootOf(inputs map[string]any) (string, error) {
	return requireString(inputs, "workspace_root")
}

func handleReadFile(ctx context.Context, inputs map[string]any) (any, error) {
	root, err := workspaceRootOf(inputs)
	if err != nil {
		return nil, err
	}
	path, err := requireString(inputs, "path")
	if err != nil {
		return nil, err
	}
	content, err := ReadFile(root, path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "content": content}, nil
}

func handleListDir(ctx context.Context, inputs map[string]any) (any, error) {
	root, err := workspaceRootOf(inputs)
	if err != nil {
		return nil, err
	}
	path, _ := inputs["path"].(string)
	if path == "" {
		path = "."
	}
	entries, err := ListDir(root, path)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": path, "entries": entries}, nil
}

func handleRunShellReadonly(ctx context.Context, inputs map[string]any) (any, error) {
	root, err := workspaceRootOf(inputs)
	if err != nil {
		return nil, err
	}
	command, err := requireString(inputs, "command")
	if err != nil {
		return nil, err
	}
	timeoutSec := 30
	if v, ok := inputs["timeout_sec"]; ok {
		if f, ok := v.(float64); ok {
			timeoutSec = int(f)
		} else if n, ok := v.(int); ok {
			timeoutSec = n
		}
	}
	if timeoutSec < 1 {
		timeoutSec = 1
	}
	if timeoutSec > 30 {
		timeoutSec = 30
	}
	return RunShellReadonly(ctx, root, command, timeoutSec)
}

func handleWriteFilePreview(ctx context.Context, inputs map[string]any) (any, error) {
	root, err := workspaceRootOf(inputs)
	if err != nil {
		return nil, err
	}
	path, err := requireString(inputs, "path")
	if err != nil {
		return nil, err
	}
	content, err := requireString(inputs, "content")
	if err != nil {
		return nil, err
	}
	return WriteFilePreview(root, path, content)
}

func handleWriteFileApply(ctx context.Context, inputs map[string]any) (any, error) {
	root, err := workspaceRootOf(inputs)
	if err != nil {
		return nil, err
	}
	path, err := requireString(inputs, "path")
	if err != nil {
		return nil, err
	}
	content, err := requireString(inputs, "content")
	if err != nil {
		return nil, err
	}
	return WriteFileApply(root, path, content, optionalMap(inputs, "preview"))
}

func handleApplyPatch(ctx context.Context, inputs map[string]any) (any, error) {
	root, err := workspaceRootOf(inputs)
	if err != nil {
		return nil, err
	}
	patch, err := requireString(inputs, "patch")
	if err != nil {
		return nil, err
	}
	mode, _ := inputs["mode"].(string)
	if mode == "" {
		mode = "preview"
	}
	return ApplyPatch(root, patch, mode, optionalMap(inputs, "preview"))
}
