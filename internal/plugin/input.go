package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SessionCookie is the credential Stash hands plugin tasks in place of an API
// key.
type SessionCookie struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// ServerConnection describes how to reach the Stash server that launched the
// task. Field names follow the wire format Stash emits.
type ServerConnection struct {
	Scheme        string        `json:"Scheme"`
	Host          string        `json:"Host"`
	Port          int           `json:"Port"`
	SessionCookie SessionCookie `json:"SessionCookie"`
	PluginDir     string        `json:"PluginDir"`
}

// Args carries per-invocation task arguments. Stash forwards them untyped, so
// the lenient fields accept both strings and native values.
type Args struct {
	Scope       string      `json:"scope"`
	SceneID     *FlexInt    `json:"scene_id"`
	HookContext HookContext `json:"hookContext"`
	Host        string      `json:"host"`
	PythonPath  string      `json:"python_path"`
	FunGenPath  string      `json:"fungen_path"`
	Mode        string      `json:"mode"`
	ODMode      string      `json:"od_mode"`
	Overwrite   bool        `json:"overwrite"`
	NoAutotune  bool        `json:"no_autotune"`
	NoCopy      bool        `json:"no_copy"`
	ExtraArgs   FlexStrings `json:"extra_args"`
	InstallDir  string      `json:"install_dir"`
	FunGenRepo  string      `json:"fungen_repo"`
	FunGenRef   string      `json:"fungen_ref"`
	PluginDir   string      `json:"pluginDir"`
}

// HookContext identifies the scene a Stash hook fired for.
type HookContext struct {
	ID *FlexInt `json:"id"`
}

// Settings carries the operator-configured plugin settings.
type Settings struct {
	PythonPath string `json:"python_path"`
	FunGenPath string `json:"fungen_path"`
	FunGenRepo string `json:"fungen_repo"`
	FunGenRef  string `json:"fungen_ref"`
}

// Input is the JSON document Stash writes to the plugin's stdin.
type Input struct {
	ServerConnection ServerConnection `json:"server_connection"`
	Args             Args             `json:"args"`
	Settings         Settings         `json:"settings"`
	PluginDir        string           `json:"pluginDir"`
}

// ReadInput decodes the stdin document. An empty stream yields a zero Input so
// manual invocations without a payload still work.
func ReadInput(r io.Reader) (Input, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("read input: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Input{}, nil
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return Input{}, fmt.Errorf("parse input: %w", err)
	}
	return input, nil
}

// Scope returns the requested task scope, defaulting to "all".
func (in Input) Scope() string {
	scope := strings.TrimSpace(in.Args.Scope)
	if scope == "" {
		return "all"
	}
	return scope
}

// ServerURL assembles the base URL of the launching Stash server.
func (in Input) ServerURL() string {
	scheme := strings.ToLower(strings.TrimSpace(in.ServerConnection.Scheme))
	if scheme == "" {
		scheme = "http"
	}
	host := strings.TrimSpace(in.Args.Host)
	if host == "" {
		host = strings.TrimSpace(in.ServerConnection.Host)
	}
	if host == "" {
		host = "localhost"
	}
	port := in.ServerConnection.Port
	if port == 0 {
		port = 9999
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// ResolvedPluginDir returns the directory the plugin is installed in, from the
// first populated source, as an absolute path.
func (in Input) ResolvedPluginDir() string {
	dir := firstNonEmpty(in.PluginDir, in.Args.PluginDir, in.ServerConnection.PluginDir)
	if dir == "" {
		if cwd, err := os.Getwd(); err == nil {
			dir = cwd
		}
	}
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// ExpandPluginDir substitutes the {pluginDir} placeholder in path-valued
// settings so plugin configs stay relocatable.
func (in Input) ExpandPluginDir(value string) string {
	if !strings.Contains(value, "{pluginDir}") {
		return value
	}
	return strings.ReplaceAll(value, "{pluginDir}", in.ResolvedPluginDir())
}

// TargetSceneID resolves the scene for scene and hook scopes.
func (in Input) TargetSceneID() (int, bool) {
	switch in.Scope() {
	case "scene":
		if in.Args.SceneID != nil {
			return int(*in.Args.SceneID), true
		}
	case "hook":
		if in.Args.HookContext.ID != nil {
			return int(*in.Args.HookContext.ID), true
		}
	}
	return 0, false
}

// FlexInt unmarshals from either a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		value, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("parse numeric string %q: %w", s, err)
		}
		*f = FlexInt(value)
		return nil
	}
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*f = FlexInt(value)
	return nil
}

// FlexStrings unmarshals from either a JSON array of strings or a single
// space-separated string.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = strings.Fields(s)
		return nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*f = values
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
