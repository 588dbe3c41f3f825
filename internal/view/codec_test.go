package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/ganttguild/internal/schedule"
)

const yamlDoc = `
id: launch
name: Launch
tasks:
  - id: design
    name: Design
    start: 2024-01-01T00:00:00Z
    end: 2024-01-04T00:00:00Z
  - id: build
    name: Build
    start: 2024-01-04T09:00:00+09:00
    end: 2024-01-09T09:00:00+09:00
dependencies:
  - id: d1
    source_id: design
    target_id: build
    type: FS
    lag_days: 1
resources:
  - id: alice
    name: Alice
    type: person
    capacity: 100
assignments:
  - task_id: build
    resource_id: alice
    allocation: 80
`

const tomlDoc = `
id = "launch"
name = "Launch"

[[tasks]]
id = "design"
name = "Design"
start = 2024-01-01T00:00:00Z
end = 2024-01-04T00:00:00Z

[[tasks]]
id = "build"
name = "Build"
start = 2024-01-04T00:00:00Z
end = 2024-01-09T00:00:00Z

[[dependencies]]
id = "d1"
source_id = "design"
target_id = "build"
type = "FS"
lag_days = 1

[[resources]]
id = "alice"
name = "Alice"
type = "person"
capacity = 100

[[assignments]]
task_id = "build"
resource_id = "alice"
allocation = 80
`

func TestDecode_FormatsAgree(t *testing.T) {
	fromYAML, err := Decode([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)
	fromTOML, err := Decode([]byte(tomlDoc), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, fromYAML.Tasks, fromTOML.Tasks)
	assert.Equal(t, fromYAML.Dependencies, fromTOML.Dependencies)
	assert.Equal(t, fromYAML.Resources, fromTOML.Resources)
	assert.Equal(t, fromYAML.Assignments, fromTOML.Assignments)
	assert.Equal(t, jan(4), fromYAML.Tasks[1].Start, "offsets are normalised to UTC")

	set, err := schedule.Load(fromTOML.Data())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	_, err := Decode([]byte("id: x\ntaskz: []\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Decode([]byte("id = \"x\"\ntaskz = []\n"), FormatTOML)
	assert.ErrorContains(t, err, "taskz")

	_, err = Decode([]byte("id: x"), Format("json"))
	assert.Error(t, err)
}

func TestEncode_DecodesBack(t *testing.T) {
	v, err := Decode([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)

	for _, f := range []Format{FormatYAML, FormatTOML} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Encode(v, f)
			require.NoError(t, err)
			back, err := Decode(data, f)
			require.NoError(t, err)
			assert.Equal(t, v.Tasks, back.Tasks)
			assert.Equal(t, v.Dependencies, back.Dependencies)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "plan.yaml", want: FormatYAML},
		{path: "dir/plan.YML", want: FormatYAML},
		{path: "plan.toml", want: FormatTOML},
		{path: "plan.json", wantErr: true},
		{path: "plan", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
