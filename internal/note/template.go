package note

import (
	"fmt"
	"strings"
)

// ValidateTemplate 只做结构检查（标签闭合、段配对），不关心取值。
func ValidateTemplate(tpl string) error {
	_, err := renderTemplate(tpl, nil)
	return err
}

// renderTemplate 渲染 mustache 风格的最小模板。
//
// 规则：
// - {{name}} 取值替换（列表以 ", " 连接；布尔输出 true/false）
// - {{#name}}…{{/name}} 条件段：未定义、false、空串、空列表整段抑制
// - 列表的段按元素迭代，段内 {{.}} 绑定当前元素
// - 段标签内不写空格（{{#cast}} 而非 {{# cast }}）
func renderTemplate(tpl string, view map[string]any) (string, error) {
	var b strings.Builder
	if err := render(&b, tpl, view, ""); err != nil {
		return "", err
	}
	return b.String(), nil
}

func render(b *strings.Builder, tpl string, view map[string]any, element string) error {
	for {
		open := strings.Index(tpl, "{{")
		if open < 0 {
			b.WriteString(tpl)
			return nil
		}
		b.WriteString(tpl[:open])
		end := strings.Index(tpl[open:], "}}")
		if end < 0 {
			return fmt.Errorf("模板标签未闭合：%q", tpl[open:])
		}
		tag := strings.TrimSpace(tpl[open+2 : open+end])
		rest := tpl[open+end+2:]

		switch {
		case strings.HasPrefix(tag, "#"):
			name := strings.TrimSpace(tag[1:])
			body, after, err := splitSection(rest, name)
			if err != nil {
				return err
			}
			if err := renderSection(b, name, body, view); err != nil {
				return err
			}
			tpl = after
		case strings.HasPrefix(tag, "/"):
			return fmt.Errorf("多余的结束标签：{{%s}}", tag)
		case tag == ".":
			b.WriteString(element)
			tpl = rest
		default:
			b.WriteString(lookupString(view, tag))
			tpl = rest
		}
	}
}

// splitSection 找到与 {{#name}} 配对的结束标签，允许同名段嵌套。
func splitSection(tpl, name string) (body, rest string, err error) {
	openTag := "{{#" + name + "}}"
	closeTag := "{{/" + name + "}}"
	depth := 1
	i := 0
	for {
		c := strings.Index(tpl[i:], closeTag)
		if c < 0 {
			return "", "", fmt.Errorf("模板段未闭合：{{#%s}}", name)
		}
		o := strings.Index(tpl[i:], openTag)
		if o >= 0 && o < c {
			depth++
			i += o + len(openTag)
			continue
		}
		depth--
		if depth == 0 {
			return tpl[:i+c], tpl[i+c+len(closeTag):], nil
		}
		i += c + len(closeTag)
	}
}

func renderSection(b *strings.Builder, name, body string, view map[string]any) error {
	v, ok := view[name]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case bool:
		if !val {
			return nil
		}
		return render(b, body, view, "")
	case string:
		if val == "" {
			return nil
		}
		return render(b, body, view, val)
	case []string:
		for _, el := range val {
			if err := render(b, body, view, el); err != nil {
				return err
			}
		}
		return nil
	default:
		return render(b, body, view, fmt.Sprint(val))
	}
}

func lookupString(view map[string]any, name string) string {
	v, ok := view[name]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}
