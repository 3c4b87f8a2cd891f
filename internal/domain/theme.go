package domain

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
)

// ThemeData 主题，以 Name 作为唯一标识
type ThemeData struct {
	Name        string      `json:"name"`
	Author      string      `json:"author"`
	Description string      `json:"description"`
	Colors      ThemeColors `json:"colors"`
}

// ColorVar 单个 CSS 变量
type ColorVar struct {
	Name  string
	Value string
}

// ThemeColors 保持插入顺序的 CSS 变量表，JSON 形式为对象
type ThemeColors []ColorVar

// Get 读取变量值
func (c ThemeColors) Get(name string) (string, bool) {
	for _, v := range c {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Set 更新已有变量，不存在时追加到末尾
func (c ThemeColors) Set(name, value string) ThemeColors {
	for i := range c {
		if c[i].Name == name {
			c[i].Value = value
			return c
		}
	}
	return append(c, ColorVar{Name: name, Value: value})
}

func (c ThemeColors) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 32*len(c)+2)
	buf = append(buf, '{')
	for i, v := range c {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := sonic.MarshalString(v.Name)
		if err != nil {
			return nil, err
		}
		val, err := sonic.MarshalString(v.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON 按文档顺序读取对象键，非字符串值按其 JSON 文本保存
func (c *ThemeColors) UnmarshalJSON(data []byte) error {
	root, err := sonic.Get(data)
	if err != nil {
		return err
	}
	if err := root.LoadAll(); err != nil {
		return err
	}
	switch root.TypeSafe() {
	case ast.V_NULL:
		*c = nil
		return nil
	case ast.V_OBJECT:
	default:
		return fmt.Errorf("theme colors: expected object")
	}

	it, err := root.Properties()
	if err != nil {
		return err
	}
	out := ThemeColors{}
	var p ast.Pair
	for it.Next(&p) {
		var s string
		if p.Value.TypeSafe() == ast.V_STRING {
			s, err = p.Value.String()
		} else {
			s, err = p.Value.Raw()
		}
		if err != nil {
			return err
		}
		out = out.Set(p.Key, s)
	}
	*c = out
	return nil
}

// ThemeSummary 主题面板中的条目
type ThemeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
	IsCustom    bool   `json:"isCustom"`
}
