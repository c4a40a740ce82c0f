// Package resolver maps symbolic service and tool names to executable
// targets. The mapping is a pure function over a closed name set fixed at
// build time, the only inputs are the configured binary directory and the
// name itself.
package resolver

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// ErrUnknownName is returned when a name is outside the known set.
var ErrUnknownName = errors.New("unknown service name")

// ServiceName is a symbolic identifier of one launchable service.
type ServiceName string

const (
	Bus               ServiceName = "bus"
	Skills            ServiceName = "skills"
	Audio             ServiceName = "audio"
	Voice             ServiceName = "voice"
	CLI               ServiceName = "cli"
	Enclosure         ServiceName = "enclosure"
	AudioAccuracyTest ServiceName = "audioaccuracytest"
	SDKDoc            ServiceName = "sdkdoc"
)

// Target is a resolved executable identity: an absolute path plus the
// implicit arguments the service is always started with. Caller supplied
// parameters are appended after Args, Target itself is never mutated.
type Target struct {
	Path string
	Args []string
}

// entry describes one table row: executable base name + implicit args.
type entry struct {
	bin  string
	args []string
}

var services = map[ServiceName]entry{
	Bus:               {bin: "assistant-bus"},
	Skills:            {bin: "assistant-skills"},
	Audio:             {bin: "assistant-audio"},
	Voice:             {bin: "assistant-voice"},
	CLI:               {bin: "assistant-cli"},
	Enclosure:         {bin: "assistant-enclosure"},
	AudioAccuracyTest: {bin: "assistant-voice", args: []string{"--accuracy-test"}},
	SDKDoc:            {bin: "assistant-sdk", args: []string{"docs"}},
}

// tools are developer harness names; they share the resolver so the
// launcher has a single place mapping names to executables.
var tools = map[string]entry{
	"unittest":   {bin: "assistant-test"},
	"skillstest": {bin: "assistant-test", args: []string{"--suite", "skills"}},
	"audiotest":  {bin: "assistant-test", args: []string{"--suite", "audio"}},
}

// Table resolves names against a binary directory.
type Table struct {
	binDir string
}

func New(binDir string) Table {
	return Table{binDir: binDir}
}

// Resolve returns the target for a known service name or ErrUnknownName.
// It never returns a partial target alongside an error.
func (t Table) Resolve(name ServiceName) (Target, error) {
	e, ok := services[name]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownName, string(name))
	}
	return t.target(e), nil
}

// ResolveTool resolves a developer tool name (unittest, skillstest,
// audiotest) to its harness invocation.
func (t Table) ResolveTool(name string) (Target, error) {
	e, ok := tools[name]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return t.target(e), nil
}

func (t Table) target(e entry) Target {
	return Target{
		Path: filepath.Join(t.binDir, e.bin),
		Args: append([]string(nil), e.args...),
	}
}

// Known returns all service names in a stable order.
func Known() []ServiceName {
	names := make([]ServiceName, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
