package diff

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genText produces small multi-line documents with repeated lines,
// the worst case for line matching
// genText 生成包含重复行的小型多行文档，这是行匹配的最坏情况
func genText() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf("alpha", "beta", "gamma", "delta", "", "alpha")).
		Map(func(lines []string) string {
			if len(lines) == 0 {
				return ""
			}
			return strings.Join(lines, "\n") + "\n"
		})
}

func TestProperty_LinesApplyReconstructsTarget(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("apply(a, diff(a,b)) == b", prop.ForAll(
		func(a, b string) bool {
			applied, ok := ApplyLines(a, Lines(a, b))
			return ok && applied == b
		},
		genText(), genText(),
	))

	properties.Property("apply(b, invert(diff(a,b))) == a", prop.ForAll(
		func(a, b string) bool {
			applied, ok := ApplyLines(b, InvertLines(Lines(a, b)))
			return ok && applied == a
		},
		genText(), genText(),
	))

	properties.TestingRun(t)
}

func TestProperty_LinesIdentityIsEmpty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("diff(a,a) has no changes", prop.ForAll(
		func(a string) bool {
			d := Lines(a, a)
			return d == nil && !LinesChanged(d)
		},
		genText(),
	))

	properties.TestingRun(t)
}

func TestProperty_LinesInverseSwapsOps(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// diff(a,b) and diff(b,a) must describe the same change set with
	// additions and removals swapped
	// diff(a,b) 与 diff(b,a) 必须描述同一变更集，且增删互换
	properties.Property("diff(a,b) is the inverse of diff(b,a)", prop.ForAll(
		func(a, b string) bool {
			forward := changeSet(Lines(a, b))
			backward := changeSet(InvertLines(Lines(b, a)))
			return reflect.DeepEqual(forward, backward)
		},
		genText(), genText(),
	))

	properties.TestingRun(t)
}

// changeSet reduces a delta to its sorted non-context entries
// changeSet 将差异归约为排序后的非上下文条目
func changeSet(changes []LineChange) []LineChange {
	var set []LineChange
	for _, c := range changes {
		if c.Op != OpEqual {
			set = append(set, c)
		}
	}
	sort.Slice(set, func(i, j int) bool {
		if set[i].Op != set[j].Op {
			return set[i].Op < set[j].Op
		}
		return set[i].Line < set[j].Line
	})
	return set
}

func TestLines_InverseWithRepeatedLines(t *testing.T) {
	// 重复行交换顺序时存在多条等长公共子序列，
	// 两个方向必须选中同一条，增删集合才能互为镜像
	cases := [][2]string{
		{"alpha\nbeta\n", "beta\nalpha\n"},
		{"alpha\nbeta\nalpha\n", "beta\nalpha\nbeta\n"},
		{"alpha\n\nalpha\ngamma\n", "gamma\nalpha\n\n"},
	}
	for _, c := range cases {
		a, b := c[0], c[1]

		forward := changeSet(Lines(a, b))
		backward := changeSet(InvertLines(Lines(b, a)))
		if !reflect.DeepEqual(forward, backward) {
			t.Errorf("Lines(%q,%q) change set %+v, inverse %+v", a, b, forward, backward)
		}

		applied, ok := ApplyLines(a, Lines(a, b))
		if !ok || applied != b {
			t.Errorf("ApplyLines(%q, Lines) = %q, want %q", a, applied, b)
		}
		reverted, ok := ApplyLines(b, Lines(b, a))
		if !ok || reverted != a {
			t.Errorf("ApplyLines(%q, Lines) = %q, want %q", b, reverted, a)
		}
	}
}

func TestLines_Table(t *testing.T) {
	tests := []struct {
		name    string
		a       string
		b       string
		changed bool
	}{
		{name: "identical", a: "one\ntwo\n", b: "one\ntwo\n", changed: false},
		{name: "append line", a: "one\n", b: "one\ntwo\n", changed: true},
		{name: "remove line", a: "one\ntwo\n", b: "one\n", changed: true},
		{name: "replace line", a: "one\ntwo\n", b: "one\nTWO\n", changed: true},
		{name: "from empty", a: "", b: "one\n", changed: true},
		{name: "to empty", a: "one\n", b: "", changed: true},
		{name: "missing trailing newline", a: "one\n", b: "one", changed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Lines(tt.a, tt.b)
			if got := LinesChanged(d); got != tt.changed {
				t.Errorf("LinesChanged() = %v, want %v", got, tt.changed)
			}
			applied, ok := ApplyLines(tt.a, d)
			if !ok {
				t.Fatalf("ApplyLines() did not match source")
			}
			if applied != tt.b {
				t.Errorf("ApplyLines() = %q, want %q", applied, tt.b)
			}
		})
	}
}

func TestKeys_Table(t *testing.T) {
	tests := []struct {
		name string
		a    map[string]interface{}
		b    map[string]interface{}
		want []KeyDelta
	}{
		{
			name: "identical",
			a:    map[string]interface{}{"model": "gpt-4", "temperature": 0.7},
			b:    map[string]interface{}{"model": "gpt-4", "temperature": 0.7},
			want: nil,
		},
		{
			name: "key added",
			a:    map[string]interface{}{"model": "gpt-4"},
			b:    map[string]interface{}{"model": "gpt-4", "topP": 0.9},
			want: []KeyDelta{{Op: KeyAdd, Key: "topP", New: 0.9}},
		},
		{
			name: "key removed",
			a:    map[string]interface{}{"model": "gpt-4", "topP": 0.9},
			b:    map[string]interface{}{"model": "gpt-4"},
			want: []KeyDelta{{Op: KeyRemove, Key: "topP", Old: 0.9}},
		},
		{
			name: "key changed",
			a:    map[string]interface{}{"temperature": 0.7},
			b:    map[string]interface{}{"temperature": 0.2},
			want: []KeyDelta{{Op: KeyChange, Key: "temperature", Old: 0.7, New: 0.2}},
		},
		{
			name: "deterministic key order",
			a:    map[string]interface{}{},
			b:    map[string]interface{}{"b": 2, "a": 1},
			want: []KeyDelta{{Op: KeyAdd, Key: "a", New: 1}, {Op: KeyAdd, Key: "b", New: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keys(tt.a, tt.b)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Keys() = %+v, want %+v", got, tt.want)
			}

			applied := ApplyKeys(tt.a, got)
			if !reflect.DeepEqual(applied, tt.b) {
				t.Errorf("ApplyKeys() = %+v, want %+v", applied, tt.b)
			}

			reverted := ApplyKeys(tt.b, InvertKeys(got))
			if !reflect.DeepEqual(reverted, tt.a) {
				t.Errorf("ApplyKeys(invert) = %+v, want %+v", reverted, tt.a)
			}
		})
	}
}
