// Package provenance records where each command was defined and recovers
// that location later for the "source" command.
//
// A location is stored as a Tag in the command's CustomData slot. Tags
// never replace what was already in the slot: the previous value becomes
// the tag's inner value, so independent layers can each annotate the same
// command and every annotation stays reachable by walking the chain.
package provenance

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/oliviabot/oliviabot/pkg/command"
)

// Location is a source file and line. File is relative to the module root.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// IsZero reports whether the location is unset
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0
}

// Wrapper is implemented by metadata that encloses the value it replaced.
type Wrapper interface {
	Inner() any
}

// Tag is a provenance annotation. It is created once per command at
// registration and never modified.
type Tag struct {
	Location
	inner any
}

// Inner returns the metadata the tag was layered over, or nil.
func (t *Tag) Inner() any {
	return t.inner
}

// At builds a location from explicit values.
func At(file string, line int) Location {
	return Location{File: file, Line: line}
}

// Here returns the location of its caller.
func Here() Location {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return Location{}
	}
	return Location{File: relative(file), Line: line}
}

// Of returns the location where f is defined. Every call for the same
// function value yields the same location.
func Of(f command.Factory) Location {
	if f == nil {
		return Location{}
	}
	fn := runtime.FuncForPC(reflect.ValueOf(f).Pointer())
	if fn == nil {
		return Location{}
	}
	file, line := fn.FileLine(fn.Entry())
	return Location{File: relative(file), Line: line}
}

// Wrap returns a factory producing the same command as f with loc attached
// in front of whatever CustomData f set.
func Wrap(loc Location, f command.Factory) command.Factory {
	return func() *command.Command {
		cmd := f()
		if cmd == nil {
			return nil
		}
		cmd.CustomData = &Tag{Location: loc, inner: cmd.CustomData}
		return cmd
	}
}

// Tagged wraps f with the location of its own definition.
func Tagged(f command.Factory) command.Factory {
	return Wrap(Of(f), f)
}

// Chain returns every tag reachable from data, outermost first. Non-tag
// wrappers are walked through without being included.
func Chain(data any) []*Tag {
	var tags []*Tag
	walk(data, func(v any) bool {
		if t, ok := v.(*Tag); ok {
			tags = append(tags, t)
		}
		return true
	})
	return tags
}

// Depth returns the number of tags reachable from data.
func Depth(data any) int {
	return len(Chain(data))
}

// Find returns the outermost value of type T in the metadata chain.
func Find[T any](data any) (T, bool) {
	var found T
	ok := false
	walk(data, func(v any) bool {
		if t, match := v.(T); match {
			found, ok = t, true
			return false
		}
		return true
	})
	return found, ok
}

func walk(data any, visit func(any) bool) {
	for data != nil {
		if !visit(data) {
			return
		}
		w, ok := data.(Wrapper)
		if !ok {
			return
		}
		data = w.Inner()
	}
}

// moduleRoot is the path prefix stripped from recorded file names.
var moduleRoot = func() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return strings.TrimSuffix(file, "pkg/provenance/provenance.go")
}()

func relative(file string) string {
	if moduleRoot != "" {
		if rel, ok := strings.CutPrefix(file, moduleRoot); ok {
			return rel
		}
	}
	return file
}
