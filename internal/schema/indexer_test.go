package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

func testModules() map[string]models.SchemaModule {
	return map[string]models.SchemaModule{
		"SNMPv2-MIB": {
			Name:         "SNMPv2-MIB",
			Organization: "IETF SNMPv3 Working Group",
			Nodes: []models.SchemaNode{
				{Name: "system", OID: "1.3.6.1.2.1.1"},
				{Name: "sysDescr", OID: "1.3.6.1.2.1.1.1"},
				{Name: "sysName", OID: "1.3.6.1.2.1.1.5"},
			},
		},
		"IF-MIB": {
			Name: "IF-MIB",
			Nodes: []models.SchemaNode{
				{Name: "ifDescr", OID: "1.3.6.1.2.1.2.2.1.2"},
			},
			Types: []models.SchemaType{
				{Name: "InterfaceIndex", BaseType: "Integer32"},
			},
		},
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Foo Bar!":    "foo-bar",
		"foo-bar":     "foo-bar",
		"IF-MIB":      "if-mib",
		"SNMPv2_MIB":  "snmpv2-mib",
		"  RFC1213 ":  "rfc1213",
		"ünïcödé (x)": "ncd-x",
		"!!!":         "",
	}
	for in, want := range tests {
		require.Equal(t, want, Sanitize(in), "Sanitize(%q)", in)
	}
}

func TestBuildCreatesModuleNodesWithCollapsedSections(t *testing.T) {
	idx, err := NewIndexer(nil).Build(testModules())
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())
	require.Equal(t, []string{"if-mib", "snmpv2-mib"}, idx.Names())

	// Sorted key order
	require.Len(t, idx.Root.Children, 2)
	mod := idx.Root.Children[1]
	require.Equal(t, "MIB-snmpv2-mib", mod.ID)
	require.Equal(t, "SNMPv2-MIB", mod.Label)
	require.Equal(t, "IETF SNMPv3 Working Group", mod.Metadata.(models.SchemaModule).Organization)

	require.Len(t, mod.Children, 2)
	nodes, types := mod.Children[0], mod.Children[1]
	require.Equal(t, "NODES-snmpv2-mib", nodes.ID)
	require.Equal(t, "TYPES-snmpv2-mib", types.ID)
	for _, section := range mod.Children {
		require.False(t, section.Expanded)
		require.False(t, section.Loaded)
		require.Empty(t, section.Children)
	}
}

func TestSectionsLoadLazily(t *testing.T) {
	idx, err := NewIndexer(nil).Build(testModules())
	require.NoError(t, err)

	mod, err := idx.FocusByName("SNMPv2-MIB")
	require.NoError(t, err)
	nodes := mod.Children[0]

	idx.Expand(nodes)
	require.True(t, nodes.Loaded)
	require.True(t, nodes.Expanded)
	require.Len(t, nodes.Children, 3)
	require.Equal(t, "sysDescr (1.3.6.1.2.1.1.1)", nodes.Children[1].Label)
	require.Equal(t, models.TreeNodeTypeNode, nodes.Children[1].Type)

	// Loading twice keeps the same children
	first := nodes.Children[0]
	idx.Load(nodes)
	require.Same(t, first, nodes.Children[0])

	ifMod, err := idx.FocusByName("if-mib")
	require.NoError(t, err)
	types := ifMod.Children[1]
	idx.Toggle(types)
	require.True(t, types.Expanded)
	require.Equal(t, "InterfaceIndex", types.Children[0].Label)
}

func TestFocusByName(t *testing.T) {
	idx, err := NewIndexer(nil).Build(testModules())
	require.NoError(t, err)

	node, err := idx.FocusByName("if-mib")
	require.NoError(t, err)
	require.Equal(t, "IF-MIB", node.Label)

	id, ok := idx.Anchor("IF-MIB")
	require.True(t, ok)
	require.Equal(t, "MIB-if-mib", id)
}

func TestFocusByNameUnknownReportsNotFound(t *testing.T) {
	idx, err := NewIndexer(nil).Build(testModules())
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err = idx.FocusByName("HOST-RESOURCES-MIB")
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = idx.FocusByName("")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = idx.FocusByName("if-mb")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, []string{"if-mib"}, nf.Suggestions)
	require.Contains(t, err.Error(), "did you mean if-mib")

	empty, err := NewIndexer(nil).Build(nil)
	require.NoError(t, err)
	_, err = empty.FocusByName("IF-MIB")
	require.ErrorIs(t, err, ErrNotFound)
}

func collidingModules() map[string]models.SchemaModule {
	return map[string]models.SchemaModule{
		"a": {Name: "Foo Bar!", Description: "first"},
		"b": {Name: "foo-bar", Description: "second"},
	}
}

func TestCollisionInvokesPolicy(t *testing.T) {
	var seen []Conflict
	policy := ConflictPolicyFunc(func(c Conflict) (Resolution, error) {
		seen = append(seen, c)
		return Resolution{Action: Keep}, nil
	})

	idx, err := NewIndexer(policy).Build(collidingModules())
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Equal(t, "foo-bar", seen[0].Anchor)
	require.Equal(t, "Foo Bar!", seen[0].Existing.Name)
	require.Equal(t, "foo-bar", seen[0].Incoming.Name)
	require.Equal(t, []string{"foo-bar"}, idx.Conflicts)

	// Same input, same decision
	seen = nil
	_, err = NewIndexer(policy).Build(collidingModules())
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Equal(t, "Foo Bar!", seen[0].Existing.Name)
}

func TestBuiltinPolicies(t *testing.T) {
	_, err := NewIndexer(RejectPolicy()).Build(collidingModules())
	require.ErrorIs(t, err, ErrIndexConflict)
	var ce *IndexConflictError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "foo-bar", ce.Anchor)

	idx, err := NewIndexer(KeepFirstPolicy()).Build(collidingModules())
	require.NoError(t, err)
	m, _ := idx.Module("foo-bar")
	require.Equal(t, "first", m.Description)

	idx, err = NewIndexer(OverwritePolicy()).Build(collidingModules())
	require.NoError(t, err)
	m, _ = idx.Module("foo-bar")
	require.Equal(t, "second", m.Description)
	require.Len(t, idx.Root.Children, 1)
	require.Same(t, idx.Root, idx.Root.Children[0].Parent)

	idx, err = NewIndexer(SuffixPolicy()).Build(collidingModules())
	require.NoError(t, err)
	require.Equal(t, []string{"foo-bar", "foo-bar-2"}, idx.Names())
	node, err := idx.FocusByName("foo-bar-2")
	require.NoError(t, err)
	require.Equal(t, "foo-bar", node.Label)
}

func TestRenameToTakenAnchorFails(t *testing.T) {
	policy := ConflictPolicyFunc(func(c Conflict) (Resolution, error) {
		return Resolution{Action: Rename, Anchor: c.Anchor}, nil
	})
	_, err := NewIndexer(policy).Build(collidingModules())
	require.ErrorIs(t, err, ErrIndexConflict)
}

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{"reject", "keep-first", "overwrite", "suffix", "", "SUFFIX"} {
		p, err := PolicyByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, p)
	}
	_, err := PolicyByName("merge")
	require.Error(t, err)
}

func TestResolveOID(t *testing.T) {
	idx, err := NewIndexer(nil).Build(testModules())
	require.NoError(t, err)

	tests := []struct {
		oid  string
		want string
		ok   bool
	}{
		{"1.3.6.1.2.1.1.5.0", "sysName.0", true},
		{".1.3.6.1.2.1.1.1.0", "sysDescr.0", true},
		{"1.3.6.1.2.1.1", "system", true},
		{"1.3.6.1.2.1.1.9.1.2.1", "system.9.1.2.1", true},
		{"1.3.6.1.2.1.2.2.1.2.3", "ifDescr.3", true},
		{"1.3.6.1.4.1.9", "", false},
		{"garbage", "", false},
	}
	for _, tt := range tests {
		got, ok := idx.ResolveOID(tt.oid)
		require.Equal(t, tt.ok, ok, tt.oid)
		require.Equal(t, tt.want, got, tt.oid)
	}

	mod, ok := idx.ModuleOfOID("1.3.6.1.2.1.2.2.1.2.3")
	require.True(t, ok)
	require.Equal(t, "IF-MIB", mod)
}

func TestSearchLoadsSections(t *testing.T) {
	idx, err := NewIndexer(nil).Build(testModules())
	require.NoError(t, err)

	matches := idx.Search("n:sysname")
	require.Len(t, matches, 1)
	require.Equal(t, "NODE-snmpv2-mib-sysName", matches[0].ID)

	matches = idx.Search("m:")
	require.Len(t, matches, 2)
}

type staticFetcher struct {
	data []byte
	err  error
}

func (f staticFetcher) FetchModules(context.Context) ([]byte, error) {
	return f.data, f.err
}

func TestLoadFromFetcher(t *testing.T) {
	data, err := models.EncodeSchemaModules(testModules())
	require.NoError(t, err)

	idx, err := NewIndexer(nil).Load(context.Background(), staticFetcher{data: data})
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())

	_, err = NewIndexer(nil).Load(context.Background(), staticFetcher{err: errors.New("boom")})
	require.ErrorContains(t, err, "boom")

	_, err = NewIndexer(nil).Load(context.Background(), staticFetcher{data: []byte(`{"x":{"Module":{}}}`)})
	require.ErrorIs(t, err, models.ErrValidation)
}
