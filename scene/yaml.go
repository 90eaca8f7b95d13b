package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File 是场景表的 YAML 结构：
//
//	scenes:
//	  detail:   {primary: content, secondary: collaborative, ratio: 0.7}
//	  search:   {primary: content, secondary: collaborative, ratio: 0.9}
//	  default:  {primary: collaborative, secondary: content, ratio: 0.5}
type File struct {
	Scenes map[string]Policy `yaml:"scenes"`
}

// ParseYAML 解析场景表，未列出的内置场景保持默认值。
func ParseYAML(data []byte) (*Table, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scene yaml: %w", err)
	}
	return NewTable(f.Scenes)
}

// LoadYAML 从文件加载场景表。
func LoadYAML(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	return ParseYAML(data)
}
