package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBatch_AddAndFirst(t *testing.T) {
	var b CommandBatch
	assert.True(t, b.IsEmpty())
	_, ok := b.First()
	assert.False(t, ok)

	b.Add(OperationCopy, "e1", Payload{FieldRedirect: "/foo"})
	b.Add(OperationDelete, "d1", nil)
	b.Add(OperationCopy, "e2", Payload{FieldRedirect: "/bar"})

	require.Len(t, b.Operations(), 2)
	assert.Equal(t, OperationCopy, b.Operations()[0].Name)
	assert.Equal(t, 3, b.Len())

	first, ok := b.First()
	require.True(t, ok)
	assert.Equal(t, "e1", first.Key)
	assert.Equal(t, "/foo", first.Payload[FieldRedirect])

	op, ok := b.Operation(OperationCopy)
	require.True(t, ok)
	assert.Equal(t, "e2", op.Elements[1].Key)

	del, ok := b.Operation(OperationDelete)
	require.True(t, ok)
	assert.NotNil(t, del.Elements[0].Payload)
}

func TestParseConflictMode(t *testing.T) {
	tests := []struct {
		raw  string
		want ConflictMode
	}{
		{"rename", ConflictModeRename},
		{"REPLACE", ConflictModeReplace},
		{" cancel ", ConflictModeCancel},
		{"", ConflictModeUnset},
		{"1", ConflictModeUnset},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			mode := ParseConflictMode(tt.raw)
			assert.Equal(t, tt.want, mode)
			if tt.want != ConflictModeUnset {
				assert.Equal(t, mode, ParseConflictMode(mode.String()))
			}
		})
	}
}

func TestResultSet_First(t *testing.T) {
	var s ResultSet
	s.Append(OperationUpload, ResultEntry{})
	s.Append(OperationUpload, ResultEntry{FileResult(File{Name: "a.txt"}), FileResult(File{Name: "b.txt"})})

	r, ok := s.First(OperationUpload)
	require.True(t, ok)
	assert.Equal(t, ResultKindFile, r.Kind())
	assert.Equal(t, "a.txt", r.File().Name)

	_, ok = s.First(OperationNewFile)
	assert.False(t, ok)
}

func TestFlatResult_MarshalJSONKeepsOrder(t *testing.T) {
	var r FlatResult
	r.Append(OperationUpload, "1:/a/")
	r.Append(OperationDelete, true)
	r.Append(OperationCopy, map[string]any{"name": "x"})
	r.Append(OperationDelete, false)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"upload":["1:/a/"],"delete":[true,false],"copy":[{"name":"x"}]}`, string(data))

	empty, err := json.Marshal(FlatResult{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

func TestFile_Properties(t *testing.T) {
	f := File{Storage: 1, Identifier: "/docs/a.txt", Name: "a.txt", Extension: "txt"}
	props := f.Properties()

	assert.Equal(t, "1:/docs/a.txt", props["id"])
	assert.Equal(t, "a.txt", props["name"])
	assert.Equal(t, 1, props["storage"])
	assert.Equal(t, "1:/docs/", Folder{Storage: 1, Identifier: "/docs/"}.CombinedIdentifier())
}
