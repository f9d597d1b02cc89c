package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaConstructors(t *testing.T) {
	assert.Equal(t, TypeObject, NewObjectSchema().Type)
	assert.Equal(t, TypeString, NewStringSchema().Type)
	assert.Equal(t, TypeNumber, NewNumberSchema().Type)
	assert.Equal(t, TypeInteger, NewIntegerSchema().Type)
	assert.Equal(t, TypeBoolean, NewBooleanSchema().Type)

	arr := NewArraySchema(NewStringSchema())
	assert.Equal(t, TypeArray, arr.Type)
	require.NotNil(t, arr.Items)
	assert.Equal(t, TypeString, arr.Items.Type)

	enum := NewEnumSchema("a", "b")
	assert.Equal(t, TypeString, enum.Type)
	assert.Equal(t, []any{"a", "b"}, enum.Enum)
}

func TestSchemaBuilders(t *testing.T) {
	s := NewObjectSchema().
		WithTitle("Pet").
		WithDescription("a pet profile").
		AddProperty("name", NewStringSchema().WithMinLength(1).WithMaxLength(10)).
		AddProperty("age", NewIntegerSchema().WithMinimum(0).WithMaximum(30)).
		AddRequired("name").
		WithAdditionalProperties(false)

	assert.Equal(t, "Pet", s.Title)
	assert.True(t, s.HasProperty("name"))
	assert.True(t, s.IsRequired("name"))
	assert.False(t, s.IsRequired("age"))
	require.NotNil(t, s.AdditionalProperties)
	assert.False(t, s.AdditionalProperties.Allowed)
}

func TestSchema_JSONRoundTrip(t *testing.T) {
	s := NewObjectSchema().
		AddProperty("topic", NewEnumSchema("fee", "family", "other")).
		AddProperty("answer", NewStringSchema().WithMinLength(1)).
		AddRequired("topic", "answer").
		WithAdditionalProperties(false)

	data, err := s.ToJSON()
	require.NoError(t, err)

	got, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, s.Required, got.Required)
	assert.Equal(t, s.GetProperty("topic").Enum, got.GetProperty("topic").Enum)
	require.NotNil(t, got.AdditionalProperties)
	assert.False(t, got.AdditionalProperties.Allowed)
}

func TestAdditionalProperties_MarshalJSON(t *testing.T) {
	t.Run("boolean form", func(t *testing.T) {
		s := NewObjectSchema().WithAdditionalProperties(false)
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"additionalProperties":false`)
	})

	t.Run("schema form", func(t *testing.T) {
		s := NewObjectSchema()
		s.AdditionalProperties = &AdditionalProperties{
			Allowed: true,
			Schema:  NewStringSchema(),
		}
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"additionalProperties":{"type":"string"}`)
	})
}

func TestSchema_Clone(t *testing.T) {
	original := NewObjectSchema().
		AddProperty("tags", NewArraySchema(NewStringSchema()).WithMinItems(1)).
		AddRequired("tags")

	clone := original.Clone()
	require.NotNil(t, clone)

	// 修改克隆不影响原件
	clone.Properties["tags"].Items.Type = TypeInteger
	clone.Required = append(clone.Required, "extra")

	assert.Equal(t, TypeString, original.Properties["tags"].Items.Type)
	assert.Equal(t, []string{"tags"}, original.Required)
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte(`{not json`))
	assert.Error(t, err)
}
