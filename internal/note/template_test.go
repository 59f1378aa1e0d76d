package note

import (
	"testing"
)

func TestRenderTemplate_Substitution(t *testing.T) {
	tpl := "# {{title}} ({{year}})\n状态：{{status}}\n"
	doc, err := Generate(sampleMovie(), sampleInput(), Options{Policy: AllFields(), Template: tpl})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if doc != "# Example Film (2023)\n状态：Watched\n" {
		t.Fatalf("替换结果不正确：%q", doc)
	}
}

func TestRenderTemplate_ListIteration(t *testing.T) {
	tpl := "cast:\n{{#cast}}- {{.}}\n{{/cast}}"
	doc, err := Generate(sampleMovie(), sampleInput(), Options{Policy: AllFields(), Template: tpl})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if doc != "cast:\n- Actor One\n- Actor Two\n" {
		t.Fatalf("迭代结果不正确：%q", doc)
	}
}

func TestRenderTemplate_EmptyListRendersNothing(t *testing.T) {
	in := sampleInput()
	in.Metadata.Genres = []string{}

	tpl := "{{#genres}}- {{.}}\n{{/genres}}"
	doc, err := Generate(sampleMovie(), in, Options{Policy: AllFields(), Template: tpl})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if doc != "" {
		t.Fatalf("空列表的迭代段应渲染为空串：%q", doc)
	}
}

func TestRenderTemplate_ConditionalSuppression(t *testing.T) {
	view := map[string]any{
		"present": "值",
		"flagOn":  true,
		"flagOff": false,
		"empty":   "",
	}

	out, err := renderTemplate("{{#present}}A{{/present}}{{#flagOn}}B{{/flagOn}}{{#flagOff}}C{{/flagOff}}{{#empty}}D{{/empty}}{{#missing}}E{{/missing}}", view)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if out != "AB" {
		t.Fatalf("条件段抑制不正确：%q", out)
	}
}

func TestRenderTemplate_PolicyHidesFromView(t *testing.T) {
	p := AllFields()
	p.Description = false

	tpl := "{{#description}}desc: {{description}}{{/description}}"
	doc, err := Generate(sampleMovie(), sampleInput(), Options{Policy: p, Template: tpl})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if doc != "" {
		t.Fatalf("关闭的类别在模板视图中也应缺席：%q", doc)
	}
}

func TestRenderTemplate_ListSubstitutionJoins(t *testing.T) {
	out, err := renderTemplate("{{genres}}", map[string]any{"genres": []string{"Drama", "Sci-Fi"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if out != "Drama, Sci-Fi" {
		t.Fatalf("列表取值应以逗号连接：%q", out)
	}
}

func TestRenderTemplate_StructureErrors(t *testing.T) {
	if _, err := renderTemplate("{{#cast}}没结束", map[string]any{}); err == nil {
		t.Fatalf("段未闭合应报错")
	}
	if _, err := renderTemplate("{{/cast}}", map[string]any{}); err == nil {
		t.Fatalf("多余结束标签应报错")
	}
	if _, err := renderTemplate("{{title", map[string]any{}); err == nil {
		t.Fatalf("标签未闭合应报错")
	}
}
