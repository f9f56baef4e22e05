package crud_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/crud"
)

func TestTextDecodesAnyScalar(t *testing.T) {
	var got struct {
		Path   crud.Text `json:"path"`
		Flag   crud.Text `json:"flag"`
		Count  crud.Text `json:"count"`
		Absent crud.Text `json:"absent"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"path":"a\/b á","flag":true,"count":12,"absent":null}`), &got))
	assert.Equal(t, crud.Text("a/b á"), got.Path)
	assert.Equal(t, "Yes", got.Flag.String())
	assert.Equal(t, crud.Text("12"), got.Count)
	assert.Empty(t, got.Absent)
}
