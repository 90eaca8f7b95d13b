// Package scene 把页面场景映射为融合策略：主候选源、次候选源与主源占比。
package scene

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// SourceKind 标识候选源类型。
type SourceKind string

const (
	SourceContent       SourceKind = "content"
	SourceCollaborative SourceKind = "collaborative"
)

// Valid 判断是否为已知的候选源类型。
func (k SourceKind) Valid() bool {
	return k == SourceContent || k == SourceCollaborative
}

// 内置场景名。
const (
	Detail   = "detail"
	Cart     = "cart"
	Homepage = "homepage"
)

// Policy 是一个场景的融合策略。
type Policy struct {
	Primary   SourceKind `yaml:"primary" json:"primary"`
	Secondary SourceKind `yaml:"secondary" json:"secondary"`
	Ratio     float64    `yaml:"ratio" json:"ratio"`
}

// Validate 检查策略：两个候选源都已知且不同，Ratio 在 (0, 1]。
func (p Policy) Validate() error {
	if !p.Primary.Valid() || !p.Secondary.Valid() {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			fmt.Sprintf("scene: unknown source kind %q/%q", p.Primary, p.Secondary))
	}
	if p.Primary == p.Secondary {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			fmt.Sprintf("scene: primary and secondary are both %q", p.Primary))
	}
	if !(p.Ratio > 0 && p.Ratio <= 1) {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput,
			fmt.Sprintf("scene: ratio %v out of (0, 1]", p.Ratio))
	}
	return nil
}

// DefaultPolicy 是未知场景使用的中性策略。
var DefaultPolicy = Policy{Primary: SourceCollaborative, Secondary: SourceContent, Ratio: 0.5}

// Table 是场景名到策略的只读映射，构建后不再修改，可被并发读取。
type Table struct {
	policies map[string]Policy
	fallback Policy
}

// DefaultTable 返回内置场景表：
//
//	detail   -> content 主 / collaborative 次 / 0.7
//	cart     -> collaborative 主 / content 次 / 0.7
//	homepage -> collaborative 主 / content 次 / 0.8
//	其他     -> collaborative 主 / content 次 / 0.5
func DefaultTable() *Table {
	return &Table{
		policies: map[string]Policy{
			Detail:   {Primary: SourceContent, Secondary: SourceCollaborative, Ratio: 0.7},
			Cart:     {Primary: SourceCollaborative, Secondary: SourceContent, Ratio: 0.7},
			Homepage: {Primary: SourceCollaborative, Secondary: SourceContent, Ratio: 0.8},
		},
		fallback: DefaultPolicy,
	}
}

// NewTable 在默认表的基础上覆盖/新增场景，任一策略不合法时返回错误。
// 配置中的场景名会转为小写并去掉首尾空白；键 "default" 覆盖未知场景使用的策略。
func NewTable(overrides map[string]Policy) (*Table, error) {
	t := DefaultTable()
	for name, p := range overrides {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("scene %q: %w", name, err)
		}
		key := normalize(name)
		if key == "default" {
			t.fallback = p
			continue
		}
		t.policies[key] = p
	}
	return t, nil
}

// Resolve 返回场景对应的策略，场景名精确匹配（"Cart" 不是 cart）。
// 未知或空场景返回默认策略，第二个返回值为 false。
func (t *Table) Resolve(name string) (Policy, bool) {
	if t == nil {
		t = defaultTable
	}
	p, ok := t.policies[name]
	if !ok {
		return t.fallback, false
	}
	return p, true
}

// Names 返回已配置的场景名（排序）。
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.policies))
	for name := range t.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve 使用内置场景表解析策略。
func Resolve(name string) Policy {
	p, _ := defaultTable.Resolve(name)
	return p
}

var defaultTable = DefaultTable()

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
