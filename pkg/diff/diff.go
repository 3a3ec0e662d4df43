// Package diff computes structured deltas between document field values
// Package diff 计算文档字段值之间的结构化差异
package diff

import (
	"reflect"
	"sort"
	"strings"
)

// Line operations // 行操作类型
const (
	OpEqual  = "eq"
	OpAdd    = "add"
	OpDelete = "del"
)

// Key operations // 键操作类型
const (
	KeyAdd    = "add"
	KeyRemove = "remove"
	KeyChange = "change"
)

// LineChange one line of a line-oriented text delta
// LineChange 行级文本差异中的一行
type LineChange struct {
	Op   string `json:"op"`
	Line string `json:"line"`
}

// KeyDelta one entry of a key-level configuration delta
// KeyDelta 键级配置差异中的一项
type KeyDelta struct {
	Op  string      `json:"op"`
	Key string      `json:"key"`
	Old interface{} `json:"old,omitempty"`
	New interface{} `json:"new,omitempty"`
}

// Lines computes a line-oriented delta from a to b. Equal runs are kept as
// context so the delta can be applied to reproduce b from a. The edit
// script is deterministic and symmetric: Lines(b, a) describes the same
// change set with additions and removals swapped.
// Lines 计算从 a 到 b 的行级差异。相等的行作为上下文保留，
// 以便将差异应用到 a 还原出 b。编辑脚本是确定且对称的：
// Lines(b, a) 描述同一变更集，仅增删互换。
func Lines(a, b string) []LineChange {
	if a == b {
		return nil
	}

	la, lb := splitLines(a), splitLines(b)

	// 相同的前后缀不参与 LCS 计算
	prefix := 0
	for prefix < len(la) && prefix < len(lb) && la[prefix] == lb[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(la)-prefix && suffix < len(lb)-prefix &&
		la[len(la)-1-suffix] == lb[len(lb)-1-suffix] {
		suffix++
	}
	ma, mb := la[prefix:len(la)-suffix], lb[prefix:len(lb)-suffix]

	changes := make([]LineChange, 0, len(la)+len(lb))
	for _, line := range la[:prefix] {
		changes = append(changes, LineChange{Op: OpEqual, Line: line})
	}
	changes = append(changes, lcsChanges(ma, mb)...)
	for _, line := range la[len(la)-suffix:] {
		changes = append(changes, LineChange{Op: OpEqual, Line: line})
	}
	return changes
}

// lcsChanges 基于最长公共子序列生成编辑脚本
// l[i][j] 为 xa[i:] 与 xb[j:] 的 LCS 长度；回溯时的平局按行内容决定，
// 该规则在交换 xa 与 xb 后选出同一条公共子序列，保证两个方向互为逆
func lcsChanges(xa, xb []string) []LineChange {
	n, m := len(xa), len(xb)
	l := make([][]int, n+1)
	for i := range l {
		l[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if xa[i] == xb[j] {
				l[i][j] = l[i+1][j+1] + 1
			} else if l[i+1][j] >= l[i][j+1] {
				l[i][j] = l[i+1][j]
			} else {
				l[i][j] = l[i][j+1]
			}
		}
	}

	var changes []LineChange
	i, j := 0, 0
	for i < n || j < m {
		switch {
		case i < n && j < m && xa[i] == xb[j]:
			changes = append(changes, LineChange{Op: OpEqual, Line: xa[i]})
			i++
			j++
		case j >= m:
			changes = append(changes, LineChange{Op: OpDelete, Line: xa[i]})
			i++
		case i >= n:
			changes = append(changes, LineChange{Op: OpAdd, Line: xb[j]})
			j++
		case l[i+1][j] > l[i][j+1]:
			changes = append(changes, LineChange{Op: OpDelete, Line: xa[i]})
			i++
		case l[i+1][j] < l[i][j+1]:
			changes = append(changes, LineChange{Op: OpAdd, Line: xb[j]})
			j++
		case xa[i] < xb[j]:
			changes = append(changes, LineChange{Op: OpDelete, Line: xa[i]})
			i++
		default:
			changes = append(changes, LineChange{Op: OpAdd, Line: xb[j]})
			j++
		}
	}
	return changes
}

// LinesChanged reports whether the delta contains any non-context line
// LinesChanged 判断差异中是否包含非上下文行
func LinesChanged(changes []LineChange) bool {
	for _, c := range changes {
		if c.Op != OpEqual {
			return true
		}
	}
	return false
}

// ApplyLines replays a delta produced by Lines(a, b) onto a, returning b.
// The second return value is false when the delta does not match a.
// ApplyLines 将 Lines(a, b) 产生的差异重放到 a 上得到 b。
// 当差异与 a 不匹配时第二个返回值为 false。
func ApplyLines(a string, changes []LineChange) (string, bool) {
	if changes == nil {
		return a, true
	}

	src := splitLines(a)
	var out []string
	i := 0
	for _, c := range changes {
		switch c.Op {
		case OpEqual:
			if i >= len(src) || src[i] != c.Line {
				return "", false
			}
			out = append(out, c.Line)
			i++
		case OpDelete:
			if i >= len(src) || src[i] != c.Line {
				return "", false
			}
			i++
		case OpAdd:
			out = append(out, c.Line)
		default:
			return "", false
		}
	}
	if i != len(src) {
		return "", false
	}
	return strings.Join(out, ""), true
}

// InvertLines swaps additions and removals, turning a delta a→b into b→a
// InvertLines 交换增删行，将 a→b 的差异转换为 b→a
func InvertLines(changes []LineChange) []LineChange {
	if changes == nil {
		return nil
	}
	out := make([]LineChange, len(changes))
	for i, c := range changes {
		switch c.Op {
		case OpAdd:
			out[i] = LineChange{Op: OpDelete, Line: c.Line}
		case OpDelete:
			out[i] = LineChange{Op: OpAdd, Line: c.Line}
		default:
			out[i] = c
		}
	}
	return out
}

// Keys computes a key-level delta between two configuration mappings
// Keys 计算两个配置映射之间的键级差异
func Keys(a, b map[string]interface{}) []KeyDelta {
	seen := make(map[string]struct{}, len(a)+len(b))
	var keys []string
	for k := range a {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var deltas []KeyDelta
	for _, k := range keys {
		oldVal, inA := a[k]
		newVal, inB := b[k]
		switch {
		case inA && !inB:
			deltas = append(deltas, KeyDelta{Op: KeyRemove, Key: k, Old: oldVal})
		case !inA && inB:
			deltas = append(deltas, KeyDelta{Op: KeyAdd, Key: k, New: newVal})
		case !reflect.DeepEqual(oldVal, newVal):
			deltas = append(deltas, KeyDelta{Op: KeyChange, Key: k, Old: oldVal, New: newVal})
		}
	}
	return deltas
}

// InvertKeys swaps adds and removes and flips changed values
// InvertKeys 交换增删键并翻转变更值
func InvertKeys(deltas []KeyDelta) []KeyDelta {
	if deltas == nil {
		return nil
	}
	out := make([]KeyDelta, len(deltas))
	for i, d := range deltas {
		switch d.Op {
		case KeyAdd:
			out[i] = KeyDelta{Op: KeyRemove, Key: d.Key, Old: d.New}
		case KeyRemove:
			out[i] = KeyDelta{Op: KeyAdd, Key: d.Key, New: d.Old}
		default:
			out[i] = KeyDelta{Op: KeyChange, Key: d.Key, Old: d.New, New: d.Old}
		}
	}
	return out
}

// ApplyKeys replays a key delta onto mapping a
// ApplyKeys 将键级差异重放到映射 a 上
func ApplyKeys(a map[string]interface{}, deltas []KeyDelta) map[string]interface{} {
	out := make(map[string]interface{}, len(a))
	for k, v := range a {
		out[k] = v
	}
	for _, d := range deltas {
		switch d.Op {
		case KeyAdd, KeyChange:
			out[d.Key] = d.New
		case KeyRemove:
			delete(out, d.Key)
		}
	}
	return out
}

// splitLines keeps each line's trailing newline so that applying a delta
// reproduces the target text byte for byte
// splitLines 保留每行结尾的换行符，使差异应用后能逐字节还原目标文本
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
