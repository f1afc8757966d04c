package models

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMarshalIncludesGroupName(t *testing.T) {
	chat := Chat{ID: 12, IsGroup: true, Name: sql.NullString{String: "weekend", Valid: true}}

	data, err := json.Marshal(chat)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "weekend", decoded["name"])
	assert.Equal(t, true, decoded["is_group"])
}

func TestChatMarshalOmitsEmptyName(t *testing.T) {
	data, err := json.Marshal(Chat{ID: 3})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "name")
}
