package service

import (
	"context"
	"testing"

	"github.com/haierkeys/miknow-notebook-service/internal/dao"
	"github.com/haierkeys/miknow-notebook-service/internal/domain"
	"github.com/haierkeys/miknow-notebook-service/pkg/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlugin_DefaultAndTemplates(t *testing.T) {
	svc := NewPluginService(dao.NewMemoryStore())

	p := svc.Default()
	assert.Equal(t, "New Plugin", p.Name)
	assert.Equal(t, "A custom plugin for MiKnow", p.Description)
	assert.Equal(t, "0.1.0", p.Version)
	assert.Equal(t, domain.PluginUtility, p.Type)

	msg, err := svc.Test(p)
	require.NoError(t, err)
	assert.Equal(t, "Plugin test completed successfully! The plugin appears to be valid.", msg)

	for _, typ := range domain.PluginTypes {
		src, err := svc.Template(typ)
		require.NoError(t, err, typ)
		_, err = svc.Test(domain.PluginData{Code: src})
		assert.NoError(t, err, typ)
	}

	_, err = svc.Template("widget")
	assert.ErrorIs(t, err, code.ErrorPluginInvalidType)
}

func TestPlugin_TestRejects(t *testing.T) {
	svc := NewPluginService(dao.NewMemoryStore())

	_, err := svc.Test(domain.PluginData{Code: "class P { activate() {} }"})
	assert.ErrorIs(t, err, code.ErrorPluginMissingLifecycle)

	_, err = svc.Test(domain.PluginData{Code: "class P { activate() {} deactivate() {}"})
	assert.ErrorIs(t, err, code.ErrorPluginSyntax)

	_, err = svc.Test(domain.PluginData{Code: "activate deactivate function function var var = = = {}"})
	assert.ErrorIs(t, err, code.ErrorPluginSyntax)
}

func TestProbeSyntax(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ok   bool
	}{
		{"empty", "", true},
		{"balanced", "f(a[1], {b: 2})", true},
		{"brace in string", `const s = "}"; const t = '(';`, true},
		{"brace in comments", "// }\n/* ) ] */ f()", true},
		{"template expression", "const s = `${a.map((x) => `${x}`)}`;", true},
		{"escaped quote", `const s = "a\"}";`, true},
		{"regexp literal", "const re = /[)}]+/g; re.test(s);", true},
		{"module", "class P { activate() {} deactivate() {} }\nexport default P;", true},
		{"unclosed", "function f() {", false},
		{"mismatch", "f(]", false},
		{"stray closer", "}", false},
		{"unterminated string", "const s = 'abc\n';", false},
		{"unterminated comment", "/* never closed", false},
		{"unterminated template", "const s = `abc", false},
		{"balanced but invalid", "activate deactivate function function var var = = = {}", false},
		{"missing operand", "const x = (1 + );", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := probeSyntax(tt.src)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPlugin_SaveValidation(t *testing.T) {
	svc := NewPluginService(dao.NewMemoryStore())
	ctx := context.Background()
	base := svc.Default()

	p := base
	p.Name = ""
	assert.ErrorIs(t, svc.Save(ctx, 1, p), code.ErrorPluginNameRequired)

	p = base
	p.Type = "widget"
	assert.ErrorIs(t, svc.Save(ctx, 1, p), code.ErrorPluginInvalidType)

	for _, v := range []string{"1.2", "v1.2.3", "abc", ""} {
		p = base
		p.Version = v
		assert.ErrorIs(t, svc.Save(ctx, 1, p), code.ErrorPluginInvalidVersion, v)
	}
	for _, v := range []string{"1.2.3", "0.1.0-beta.1", "2.0.0+build.5"} {
		p = base
		p.Version = v
		assert.NoError(t, svc.Save(ctx, 1, p), v)
	}

	list, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2.0.0+build.5", list[0].Version)
}

func TestPlugin_DeleteAndExport(t *testing.T) {
	svc := NewPluginService(dao.NewMemoryStore())
	ctx := context.Background()

	p := svc.Default()
	p.Name = "Word Count"
	require.NoError(t, svc.Save(ctx, 1, p))

	got, err := svc.Get(ctx, 1, "Word Count")
	require.NoError(t, err)
	assert.Equal(t, "word-count.json", svc.ExportName(*got))
	out, err := svc.Export(*got)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"name": "Word Count"`)

	require.NoError(t, svc.Delete(ctx, 1, "Word Count"))
	assert.ErrorIs(t, svc.Delete(ctx, 1, "Word Count"), code.ErrorPluginNotFound)
	_, err = svc.Get(ctx, 1, "Word Count")
	assert.ErrorIs(t, err, code.ErrorPluginNotFound)
}

func TestPlugin_Catalog(t *testing.T) {
	svc := NewPluginService(dao.NewMemoryStore())
	ctx := context.Background()

	cat, err := svc.Catalog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cat, 4)
	installed := map[string]bool{}
	for _, p := range cat {
		installed[p.ID] = p.Installed
	}
	assert.Equal(t, map[string]bool{
		"graph-enhancer": false, "citation-helper": false, "markdown-extended": true, "obsidian-sync": false,
	}, installed)

	cat, err = svc.SetInstalled(ctx, 1, "graph-enhancer", true)
	require.NoError(t, err)
	assert.True(t, cat[0].Installed)

	cat, err = svc.SetInstalled(ctx, 1, "markdown-extended", false)
	require.NoError(t, err)
	assert.False(t, cat[2].Installed)
	assert.True(t, cat[0].Installed)

	_, err = svc.SetInstalled(ctx, 1, "nope", true)
	assert.ErrorIs(t, err, code.ErrorPluginNotFound)
}
