package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestValidateFile_Shipped(t *testing.T) {
	files, err := collect([]string{"../../data/characters"})
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		v := &ContentValidator{}
		assert.NoError(t, v.validateFile(f), f)
		assert.Empty(t, v.warnings, f)
	}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		body         string
		wantErr      string
		wantWarnings int
	}{
		{
			name: "valid",
			file: "chief.yaml",
			body: `name: Chief
groups:
  - stages: all
    templates:
      - text: "{nation_name} holds at {loyalty}."
`,
		},
		{
			name:    "bad filename",
			file:    "Chief_Of_Staff.yaml",
			body:    "name: Chief\n",
			wantErr: "kebab-case",
		},
		{
			name:    "wrong extension",
			file:    "chief.json",
			body:    "{}",
			wantErr: ".yaml",
		},
		{
			name:    "unknown field",
			file:    "chief.yaml",
			body:    "name: Chief\nmood: grim\n",
			wantErr: "mood",
		},
		{
			name: "duplicate labels and bad effect",
			file: "chief.yaml",
			body: `name: Chief
groups:
  - stages: [1]
    templates:
      - text: "Act?"
        choices:
          - label: Go
            effects:
              - {kind: double, attribute: money, value: 2}
          - label: Go
`,
			wantErr: "duplicate choice",
		},
		{
			name: "warnings for untracked attributes",
			file: "chief.yaml",
			body: `name: Chief
groups:
  - stages: [1]
    templates:
      - text: "Grain stores at {grain}."
        when: ["grain < 10"]
        choices:
          - label: Ration
            effects:
              - {attribute: grain, value: 5}
`,
			wantWarnings: 3,
		},
		{
			name: "builds fail for when without choices",
			file: "chief.yaml",
			body: `name: Chief
groups:
  - stages: [1]
    templates:
      - text: "Quiet."
        when: ["money < 10"]
`,
			wantErr: "does not build",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.body)
			v := &ContentValidator{}
			err := v.validateFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, v.warnings, tt.wantWarnings)
		})
	}
}

func TestIsValidContentFilename(t *testing.T) {
	assert.True(t, isValidContentFilename("foreign-minister"))
	assert.True(t, isValidContentFilename("x.draft"))
	assert.False(t, isValidContentFilename("Foreign"))
	assert.False(t, isValidContentFilename("foreign_minister"))
	assert.False(t, isValidContentFilename("trailing-"))
}
