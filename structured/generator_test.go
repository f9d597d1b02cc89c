package structured

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaGenerator_BasicTypes(t *testing.T) {
	g := NewSchemaGenerator()

	tests := []struct {
		name     string
		value    any
		wantType SchemaType
	}{
		{"string", "", TypeString},
		{"bool", false, TypeBoolean},
		{"int", 0, TypeInteger},
		{"int64", int64(0), TypeInteger},
		{"uint", uint(0), TypeInteger},
		{"float64", 0.0, TypeNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := g.Generate(reflect.TypeOf(tt.value))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, schema.Type)
		})
	}
}

func TestSchemaGenerator_Struct(t *testing.T) {
	type address struct {
		City string `json:"city" jsonschema:"required"`
		Zip  string `json:"zip" jsonschema:"pattern=^\\d{5}$"`
	}
	type person struct {
		Name    string   `json:"name" jsonschema:"required,minLength=1,maxLength=64"`
		Age     int      `json:"age" jsonschema:"required,minimum=0,maximum=150"`
		Email   string   `json:"email" jsonschema:"format=email"`
		Tags    []string `json:"tags" jsonschema:"minItems=1,maxItems=5"`
		Home    *address `json:"home"`
		private string
		Skipped string   `json:"-"`
	}

	g := NewSchemaGenerator()
	schema, err := g.Generate(reflect.TypeOf(person{}))
	require.NoError(t, err)

	assert.Equal(t, TypeObject, schema.Type)
	assert.Equal(t, []string{"name", "age"}, schema.Required)
	assert.False(t, schema.HasProperty("private"))
	assert.False(t, schema.HasProperty("Skipped"))

	name := schema.GetProperty("name")
	require.NotNil(t, name)
	assert.Equal(t, TypeString, name.Type)
	require.NotNil(t, name.MinLength)
	assert.Equal(t, 1, *name.MinLength)
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, 64, *name.MaxLength)

	age := schema.GetProperty("age")
	require.NotNil(t, age)
	assert.Equal(t, TypeInteger, age.Type)
	require.NotNil(t, age.Minimum)
	assert.Equal(t, float64(0), *age.Minimum)
	require.NotNil(t, age.Maximum)
	assert.Equal(t, float64(150), *age.Maximum)

	email := schema.GetProperty("email")
	require.NotNil(t, email)
	assert.Equal(t, FormatEmail, email.Format)

	tags := schema.GetProperty("tags")
	require.NotNil(t, tags)
	assert.Equal(t, TypeArray, tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, TypeString, tags.Items.Type)
	require.NotNil(t, tags.MinItems)
	assert.Equal(t, 1, *tags.MinItems)

	// 指针字段解引用为目标类型的 Schema
	home := schema.GetProperty("home")
	require.NotNil(t, home)
	assert.Equal(t, TypeObject, home.Type)
	assert.Equal(t, []string{"city"}, home.Required)
	assert.Equal(t, `^\d{5}$`, home.GetProperty("zip").Pattern)
}

func TestSchemaGenerator_EnumTag(t *testing.T) {
	type classified struct {
		Topic string `json:"topic" jsonschema:"required,enum=fee,family,housing,other"`
		Level int    `json:"level" jsonschema:"enum=1,2,3"`
	}

	schema, err := SchemaFor[classified]()
	require.NoError(t, err)

	topic := schema.GetProperty("topic")
	require.NotNil(t, topic)
	assert.Equal(t, []any{"fee", "family", "housing", "other"}, topic.Enum)
	assert.Equal(t, []string{"topic"}, schema.Required)

	// 数值字段的 enum 按字段类型转换
	level := schema.GetProperty("level")
	require.NotNil(t, level)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, level.Enum)
}

func TestSchemaGenerator_EnumFollowedByOption(t *testing.T) {
	type doc struct {
		Kind string `json:"kind" jsonschema:"enum=a,b,c,description=kind of document"`
	}

	schema, err := SchemaFor[doc]()
	require.NoError(t, err)

	kind := schema.GetProperty("kind")
	require.NotNil(t, kind)
	assert.Equal(t, []any{"a", "b", "c"}, kind.Enum)
	assert.Equal(t, "kind of document", kind.Description)
}

func TestSchemaGenerator_Map(t *testing.T) {
	schema, err := SchemaFor[map[string]string]()
	require.NoError(t, err)

	assert.Equal(t, TypeObject, schema.Type)
	require.NotNil(t, schema.AdditionalProperties)
	assert.True(t, schema.AdditionalProperties.Allowed)
	require.NotNil(t, schema.AdditionalProperties.Schema)
	assert.Equal(t, TypeString, schema.AdditionalProperties.Schema.Type)
}

func TestSchemaGenerator_Recursive(t *testing.T) {
	type node struct {
		Value    string  `json:"value"`
		Children []*node `json:"children"`
	}

	schema, err := SchemaFor[node]()
	require.NoError(t, err)

	children := schema.GetProperty("children")
	require.NotNil(t, children)
	assert.Equal(t, TypeArray, children.Type)
	// 递归出现处折叠为对象占位
	require.NotNil(t, children.Items)
	assert.Equal(t, TypeObject, children.Items.Type)
}

func TestSchemaGenerator_DefaultValue(t *testing.T) {
	type cfg struct {
		Retries int    `json:"retries" jsonschema:"default=1"`
		Mode    string `json:"mode" jsonschema:"default=prompt"`
		Strict  bool   `json:"strict" jsonschema:"default=true"`
	}

	schema, err := SchemaFor[cfg]()
	require.NoError(t, err)

	assert.Equal(t, int64(1), schema.GetProperty("retries").Default)
	assert.Equal(t, "prompt", schema.GetProperty("mode").Default)
	assert.Equal(t, true, schema.GetProperty("strict").Default)
}

func TestSchemaGenerator_NilType(t *testing.T) {
	g := NewSchemaGenerator()
	_, err := g.Generate(nil)
	assert.Error(t, err)
}

// 生成的 Schema 要能直接驱动 Validator。
func TestSchemaGenerator_GeneratedSchemaValidates(t *testing.T) {
	type petProfile struct {
		Name  string `json:"name" jsonschema:"required,minLength=1"`
		Breed string `json:"breed" jsonschema:"required,maxLength=4"`
		Toy   string `json:"favorite_toy" jsonschema:"required,maxLength=4"`
	}

	schema, err := SchemaFor[petProfile]()
	require.NoError(t, err)

	v := NewValidator()
	assert.NoError(t, v.Validate([]byte(`{"name":"Rex","breed":"pug","favorite_toy":"ball"}`), schema))

	err = v.Validate([]byte(`{"name":"Rex","breed":"retriever","favorite_toy":"squeaky bone"}`), schema)
	require.Error(t, err)
	ve := err.(*ValidationErrors)
	assert.Len(t, ve.Violations, 2)
}
