package mods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		yaml    bool
		want    Manifest
		wantErr bool
	}{
		{
			name: "json",
			data: `{"id":"tools","name":"Better Tools","version":"1.2.0","dependencies":{"core":">=v1.0.0"}}`,
			want: Manifest{ID: "tools", Name: "Better Tools", Version: "1.2.0", Dependencies: map[string]string{"core": ">=v1.0.0"}},
		},
		{
			name: "yaml",
			data: "id: farming\nversion: 0.3.1\nentry: scripts/init.lua\ndependencies:\n  core: ^1.2\n",
			yaml: true,
			want: Manifest{ID: "farming", Version: "0.3.1", Entry: "scripts/init.lua", Dependencies: map[string]string{"core": "^1.2"}},
		},
		{
			name:    "missing id",
			data:    `{"name":"nameless"}`,
			wantErr: true,
		},
		{
			name:    "bad id",
			data:    `{"id":"../escape"}`,
			wantErr: true,
		},
		{
			name:    "bad version",
			data:    `{"id":"x","version":"latest"}`,
			wantErr: true,
		},
		{
			name:    "bad constraint",
			data:    `{"id":"x","dependencies":{"core":">=banana"}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `{"id":`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseManifest([]byte(tt.data), tt.yaml)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidManifest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadManifest(t *testing.T) {
	t.Run("defaults without manifest", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "lonely")
		require.NoError(t, os.Mkdir(dir, 0o755))

		got, found, err := ReadManifest(dir)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, DefaultManifest("lonely"), got)
		assert.Equal(t, "v1.0.0", got.SemVer())
	})

	t.Run("fills missing fields", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "partial")
		require.NoError(t, os.Mkdir(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.json"), []byte(`{"id":"partial_mod"}`), 0o644))

		got, found, err := ReadManifest(dir)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "partial_mod", got.Name)
		assert.Equal(t, DefaultVersion, got.Version)
		assert.Equal(t, DefaultEntry, got.Entry)
	})
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		version    string
		constraint string
		want       bool
	}{
		{"1.0.0", ">=v1.0.0", true},
		{"0.9.9", ">=1.0.0", false},
		{"1.4.2", "^1.2", true},
		{"2.0.0", "^1.2", false},
		{"0.2.5", "^0.2.1", true},
		{"0.3.0", "^0.2.1", false},
		{"1.2.9", "~1.2.0", true},
		{"1.3.0", "~1.2.0", false},
		{"1.4.0", "1.4.0", true},
		{"1.4.1", "=1.4.0", false},
		{"3.0.0", "<2", false},
		{"1.9.0", "<2", true},
		{"5.0.0", "*", true},
		{"garbage", ">=1.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.version+" "+tt.constraint, func(t *testing.T) {
			assert.Equal(t, tt.want, Satisfies(tt.version, tt.constraint))
		})
	}
}

func TestResolveOrder(t *testing.T) {
	mk := func(id string, deps map[string]string) candidate {
		return candidate{manifest: Manifest{ID: id, Version: "1.0.0", Dependencies: deps}, dir: id}
	}
	candidates := []candidate{
		mk("aaa", map[string]string{"zzz": ">=1.0.0"}),
		mk("mmm", nil),
		mk("zzz", nil),
		mk("orphan", map[string]string{"ghost": "*"}),
		mk("grandchild", map[string]string{"orphan": "*"}),
		mk("too_new", map[string]string{"zzz": "^2.0.0"}),
		mk("cycle_a", map[string]string{"cycle_b": "*"}),
		mk("cycle_b", map[string]string{"cycle_a": "*"}),
		mk("uses_plugin", map[string]string{"builtin": ">=0.5.0"}),
	}

	ordered, skips := resolveOrder(candidates, map[string]string{"builtin": "0.5.0"})

	var ids []string
	for _, c := range ordered {
		ids = append(ids, c.manifest.ID)
	}
	assert.Equal(t, []string{"mmm", "uses_plugin", "zzz", "aaa"}, ids)

	reasons := map[string]string{}
	for _, s := range skips {
		reasons[s.id] = s.reason.Error()
	}
	assert.Len(t, reasons, 5)
	assert.Contains(t, reasons["orphan"], "missing dependency ghost")
	assert.Contains(t, reasons["grandchild"], "missing dependency orphan")
	assert.Contains(t, reasons["too_new"], "does not satisfy")
	assert.Equal(t, "dependency cycle", reasons["cycle_a"])
	assert.Equal(t, "dependency cycle", reasons["cycle_b"])
}
