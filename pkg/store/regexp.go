package store

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"

	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// registerRegexp installs REGEXP for every connection. "X REGEXP Y" calls
// regexp(Y, X), so the first argument is the pattern.
func registerRegexp() {
	registerOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("regexp", 2, sqlRegexp)
	})
}

var patterns sync.Map // string -> *regexp.Regexp

func compiled(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}

func sqlRegexp(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("regexp: expected 2 arguments, got %d", len(args))
	}
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	pattern, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("regexp: pattern must be text")
	}
	var text string
	switch v := args[1].(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		text = fmt.Sprint(v)
	}

	re, err := compiled(pattern)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	return re.MatchString(text), nil
}
