package txorm

import (
	"fmt"
	r "reflect"
	"sort"
	"strings"
)

func try(err error) {
	if err != nil {
		panic(err)
	}
}

func try1[A any](val A, err error) A {
	try(err)
	return val
}

func errf(format string, args ...any) error { return fmt.Errorf(format, args...) }

// Must be deferred.
func rec(ptr *error) {
	val := recover()
	if val == nil {
		return
	}

	err, _ := val.(error)
	if err != nil {
		*ptr = err
		return
	}

	panic(val)
}

func typeOf[A any]() r.Type { return r.TypeOf((*A)(nil)).Elem() }

/*
Converts an arbitrary slice into `[]any`. Literal scalars such as byte slices
are not converted. Returns false for non-sequences.
*/
func toSeq(val any) ([]any, bool) {
	switch val := val.(type) {
	case []any:
		return val, true
	case nil:
		return nil, false
	}
	if isLiteral(val) {
		return nil, false
	}

	rval := r.ValueOf(val)
	if rval.Kind() != r.Slice {
		return nil, false
	}
	out := make([]any, rval.Len())
	for ind := range out {
		out[ind] = rval.Index(ind).Interface()
	}
	return out, true
}

func sortedUnique(vals []string) []string {
	set := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, val := range vals {
		if _, ok := set[val]; ok {
			continue
		}
		set[val] = struct{}{}
		out = append(out, val)
	}
	sort.Strings(out)
	return out
}

func joinNonEmpty(sep string, vals ...string) string {
	var buf strings.Builder
	for _, val := range vals {
		if val == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(sep)
		}
		buf.WriteString(val)
	}
	return buf.String()
}
