package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Defaults()))
	assert.NoError(t, Validate(Extended()))
	assert.NoError(t, Validate(nil))

	err := Validate([]Rule{
		{Name: "Client", Pattern: "x", Kind: KindText},
		{Name: "", Pattern: "x", Kind: KindText},
		{Name: "Client", Pattern: "y", Kind: KindText},
		{Name: "Date", Pattern: "z", Kind: KindText},
		{Name: "Montant", Pattern: "z", Kind: "money"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 2: name is empty")
	assert.Contains(t, err.Error(), `rule 3: name "Client" already used by rule 1`)
	assert.Contains(t, err.Error(), `rule 4: name "Date" is reserved`)
	assert.Contains(t, err.Error(), `rule 5: unknown type "money"`)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindNumber, ParseKind("number"))
	assert.Equal(t, KindNumber, ParseKind(" Number "))
	assert.Equal(t, KindText, ParseKind("text"))
	assert.Equal(t, KindText, ParseKind(""))
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	rs, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), rs)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "rules.yaml")
	require.NoError(t, Save(path, Extended()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	rs, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Extended(), rs)
}

func TestSave_RejectsInvalidRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	err := Save(path, []Rule{{Name: "Titre", Pattern: "x", Kind: KindText}})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_NormalizesKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := "rules:\n  - name: Montant\n    pattern: '(\\d+)€'\n    type: NUMBER\n  - name: Client\n    pattern: '([A-Z]\\w+)'\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	rs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, Rule{Name: "Montant", Pattern: `(\d+)€`, Kind: KindNumber}, rs[0])
	assert.Equal(t, KindText, rs[1].Kind)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFromSheet(t *testing.T) {
	header := []string{"Type", "Name", "Pattern"}
	rows := [][]string{
		{"number", "Montant", `(\d+)€`},
		{"", "", "ignored"},
		{"text", "Client"},
	}

	rs, err := FromSheet(header, rows)
	require.NoError(t, err)
	assert.Equal(t, []Rule{
		{Name: "Montant", Pattern: `(\d+)€`, Kind: KindNumber},
		{Name: "Client", Pattern: "", Kind: KindText},
	}, rs)

	_, err = FromSheet([]string{"name"}, nil)
	assert.Error(t, err)
}
