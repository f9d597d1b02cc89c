package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator()
	assert.NotNil(t, v)
	assert.NotNil(t, v.formatValidators)
}

func TestValidator_InvalidJSON(t *testing.T) {
	v := NewValidator()
	schema := NewObjectSchema().AddProperty("name", NewStringSchema())

	err := v.Validate([]byte(`{"name": `), schema)
	require.Error(t, err)

	ve, ok := err.(*ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve.Violations, 1, "malformed payload should yield a single payload-level violation")
	assert.Equal(t, ConstraintJSON, ve.Violations[0].Constraint)
	assert.Empty(t, ve.Violations[0].Path)
}

func TestValidator_String(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		data       string
		schema     *Schema
		wantErr    bool
		constraint Constraint
	}{
		{
			name:    "valid string",
			data:    `"hello"`,
			schema:  NewStringSchema(),
			wantErr: false,
		},
		{
			name:       "number instead of string",
			data:       `123`,
			schema:     NewStringSchema(),
			wantErr:    true,
			constraint: ConstraintType,
		},
		{
			name:    "minLength satisfied",
			data:    `"hello"`,
			schema:  NewStringSchema().WithMinLength(3),
			wantErr: false,
		},
		{
			name:       "minLength violated",
			data:       `"hi"`,
			schema:     NewStringSchema().WithMinLength(3),
			wantErr:    true,
			constraint: ConstraintMinLength,
		},
		{
			name:       "maxLength violated",
			data:       `"hello world"`,
			schema:     NewStringSchema().WithMaxLength(5),
			wantErr:    true,
			constraint: ConstraintMaxLength,
		},
		{
			name:    "pattern satisfied",
			data:    `"abc123"`,
			schema:  NewStringSchema().WithPattern(`^[a-z]+\d+$`),
			wantErr: false,
		},
		{
			name:       "pattern violated",
			data:       `"ABC"`,
			schema:     NewStringSchema().WithPattern(`^[a-z]+$`),
			wantErr:    true,
			constraint: ConstraintPattern,
		},
		{
			name:    "email format satisfied",
			data:    `"user@example.com"`,
			schema:  NewStringSchema().WithFormat(FormatEmail),
			wantErr: false,
		},
		{
			name:       "email format violated",
			data:       `"not-an-email"`,
			schema:     NewStringSchema().WithFormat(FormatEmail),
			wantErr:    true,
			constraint: ConstraintFormat,
		},
		{
			name:    "enum satisfied",
			data:    `"red"`,
			schema:  NewEnumSchema("red", "green", "blue"),
			wantErr: false,
		},
		{
			name:       "enum violated",
			data:       `"purple"`,
			schema:     NewEnumSchema("red", "green", "blue"),
			wantErr:    true,
			constraint: ConstraintEnum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.data), tt.schema)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			ve, ok := err.(*ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, ve.Violations)
			assert.Equal(t, tt.constraint, ve.Violations[0].Constraint)
		})
	}
}

func TestValidator_Numeric(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		data       string
		schema     *Schema
		wantErr    bool
		constraint Constraint
	}{
		{name: "valid integer", data: `42`, schema: NewIntegerSchema(), wantErr: false},
		{name: "float is not integer", data: `42.5`, schema: NewIntegerSchema(), wantErr: true, constraint: ConstraintType},
		{name: "float accepted as number", data: `42.5`, schema: NewNumberSchema(), wantErr: false},
		{name: "minimum violated", data: `-1`, schema: NewIntegerSchema().WithMinimum(0), wantErr: true, constraint: ConstraintMinimum},
		{name: "maximum violated", data: `101`, schema: NewIntegerSchema().WithMaximum(100), wantErr: true, constraint: ConstraintMaximum},
		{name: "exclusiveMinimum boundary violated", data: `0`, schema: NewNumberSchema().WithExclusiveMinimum(0), wantErr: true, constraint: ConstraintExclusiveMinimum},
		{name: "exclusiveMaximum boundary violated", data: `10`, schema: NewNumberSchema().WithExclusiveMaximum(10), wantErr: true, constraint: ConstraintExclusiveMaximum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.data), tt.schema)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			ve := err.(*ValidationErrors)
			require.NotEmpty(t, ve.Violations)
			assert.Equal(t, tt.constraint, ve.Violations[0].Constraint)
		})
	}
}

func TestValidator_Object(t *testing.T) {
	v := NewValidator()

	schema := NewObjectSchema().
		AddProperty("name", NewStringSchema().WithMinLength(1)).
		AddProperty("age", NewIntegerSchema().WithMinimum(0)).
		AddRequired("name", "age")

	t.Run("valid object", func(t *testing.T) {
		err := v.Validate([]byte(`{"name":"Alice","age":30}`), schema)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := v.Validate([]byte(`{"name":"Alice"}`), schema)
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, "age", ve.Violations[0].Path)
		assert.Equal(t, ConstraintRequired, ve.Violations[0].Constraint)
	})

	t.Run("null required field", func(t *testing.T) {
		err := v.Validate([]byte(`{"name":"Alice","age":null}`), schema)
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, ConstraintRequired, ve.Violations[0].Constraint)
	})

	t.Run("additional property rejected", func(t *testing.T) {
		closed := NewObjectSchema().
			AddProperty("name", NewStringSchema()).
			WithAdditionalProperties(false)
		err := v.Validate([]byte(`{"name":"x","extra":1}`), closed)
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, "extra", ve.Violations[0].Path)
		assert.Equal(t, ConstraintAdditionalProperties, ve.Violations[0].Constraint)
	})

	t.Run("nested path", func(t *testing.T) {
		nested := NewObjectSchema().
			AddProperty("owner", NewObjectSchema().
				AddProperty("email", NewStringSchema().WithFormat(FormatEmail)))
		err := v.Validate([]byte(`{"owner":{"email":"bad"}}`), nested)
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, "owner.email", ve.Violations[0].Path)
	})
}

func TestValidator_Array(t *testing.T) {
	v := NewValidator()

	t.Run("item path includes index", func(t *testing.T) {
		schema := NewObjectSchema().
			AddProperty("tags", NewArraySchema(NewStringSchema().WithMaxLength(3)))
		err := v.Validate([]byte(`{"tags":["ok","toolong"]}`), schema)
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, "tags[1]", ve.Violations[0].Path)
	})

	t.Run("minItems and maxItems", func(t *testing.T) {
		schema := NewArraySchema(NewIntegerSchema()).WithMinItems(2).WithMaxItems(3)

		err := v.Validate([]byte(`[1]`), schema)
		require.Error(t, err)
		assert.Equal(t, ConstraintMinItems, err.(*ValidationErrors).Violations[0].Constraint)

		err = v.Validate([]byte(`[1,2,3,4]`), schema)
		require.Error(t, err)
		assert.Equal(t, ConstraintMaxItems, err.(*ValidationErrors).Violations[0].Constraint)
	})

	t.Run("uniqueItems", func(t *testing.T) {
		schema := NewArraySchema(NewStringSchema()).WithUniqueItems(true)
		err := v.Validate([]byte(`["a","b","a"]`), schema)
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		require.Len(t, ve.Violations, 1)
		assert.Equal(t, "[2]", ve.Violations[0].Path)
	})
}

// 单次校验必须收集本轮全部违规, 不能在第一条就停。
func TestValidator_CollectsAllViolations(t *testing.T) {
	v := NewValidator()

	schema := NewObjectSchema().
		AddProperty("breed", NewStringSchema().WithMaxLength(4)).
		AddProperty("favorite_toy", NewStringSchema().WithMaxLength(4)).
		AddRequired("breed", "favorite_toy")

	err := v.Validate([]byte(`{"breed":"golden retriever","favorite_toy":"squeaky ball"}`), schema)
	require.Error(t, err)

	ve := err.(*ValidationErrors)
	require.Len(t, ve.Violations, 2, "both overlong fields must be reported in the same pass")

	paths := []string{ve.Violations[0].Path, ve.Violations[1].Path}
	assert.Contains(t, paths, "breed")
	assert.Contains(t, paths, "favorite_toy")
	for _, violation := range ve.Violations {
		assert.Equal(t, ConstraintMaxLength, violation.Constraint)
		assert.NotNil(t, violation.Value)
	}
}

// 同样的输入必须产出同样顺序的违规列表。
func TestValidator_DeterministicOrder(t *testing.T) {
	v := NewValidator()

	schema := NewObjectSchema().
		AddProperty("a", NewIntegerSchema()).
		AddProperty("b", NewIntegerSchema()).
		AddProperty("c", NewIntegerSchema()).
		AddRequired("c", "a")

	data := []byte(`{"a":"x","b":"y"}`)

	first, ok := v.Validate(data, schema).(*ValidationErrors)
	require.True(t, ok)

	for i := 0; i < 10; i++ {
		again := v.Validate(data, schema).(*ValidationErrors)
		require.Equal(t, first.Violations, again.Violations)
	}

	// required 按 Schema 声明顺序, 属性按字典序
	require.Len(t, first.Violations, 3)
	assert.Equal(t, "c", first.Violations[0].Path)
	assert.Equal(t, ConstraintRequired, first.Violations[0].Constraint)
	assert.Equal(t, "a", first.Violations[1].Path)
	assert.Equal(t, "b", first.Violations[2].Path)
}

func TestValidator_CrossFieldRules(t *testing.T) {
	v := NewValidator()
	v.AddRule(Rule{
		Name:    "full_name",
		Message: "name must be at least two characters",
		Check: func(obj map[string]any) bool {
			name, _ := obj["name"].(string)
			return len(name) >= 2
		},
	})

	schema := NewObjectSchema().
		AddProperty("name", NewStringSchema()).
		AddProperty("age", NewIntegerSchema())

	t.Run("rule passes", func(t *testing.T) {
		assert.NoError(t, v.Validate([]byte(`{"name":"Bob","age":30}`), schema))
	})

	t.Run("rule failure appended after structural checks", func(t *testing.T) {
		err := v.Validate([]byte(`{"name":"B","age":"thirty"}`), schema)
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		require.Len(t, ve.Violations, 2)
		assert.Equal(t, ConstraintType, ve.Violations[0].Constraint)
		assert.Equal(t, ConstraintRule, ve.Violations[1].Constraint)
		assert.Contains(t, ve.Violations[1].Message, "full_name")
	})
}

func TestValidator_RegisterFormat(t *testing.T) {
	v := NewValidator()
	v.RegisterFormat("hex-color", func(s string) bool {
		if len(s) != 7 || s[0] != '#' {
			return false
		}
		for _, c := range s[1:] {
			if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
				return false
			}
		}
		return true
	})

	schema := NewStringSchema().WithFormat("hex-color")
	assert.NoError(t, v.Validate([]byte(`"#a1b2c3"`), schema))
	assert.Error(t, v.Validate([]byte(`"red"`), schema))
}

func TestValidator_Formats(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		format StringFormat
		valid  []string
		bad    []string
	}{
		{FormatUUID, []string{"550e8400-e29b-41d4-a716-446655440000"}, []string{"not-a-uuid"}},
		{FormatDate, []string{"2026-08-29"}, []string{"29/08/2026"}},
		{FormatDateTime, []string{"2026-08-29T12:00:00Z"}, []string{"2026-08-29 12:00"}},
		{FormatIPv4, []string{"192.168.1.1"}, []string{"999.1.1.1", "abc"}},
		{FormatURI, []string{"https://example.com/x"}, []string{"example.com"}},
		{FormatHostname, []string{"api.example.com"}, []string{"-bad-.com"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			schema := NewStringSchema().WithFormat(tt.format)
			for _, s := range tt.valid {
				assert.NoError(t, v.Validate([]byte(`"`+s+`"`), schema), s)
			}
			for _, s := range tt.bad {
				assert.Error(t, v.Validate([]byte(`"`+s+`"`), schema), s)
			}
		})
	}
}

func TestParse(t *testing.T) {
	type pet struct {
		Name  string `json:"name"`
		Breed string `json:"breed"`
	}

	schema := NewObjectSchema().
		AddProperty("name", NewStringSchema()).
		AddProperty("breed", NewStringSchema().WithMaxLength(4)).
		AddRequired("name", "breed")

	v := NewValidator()

	t.Run("valid payload", func(t *testing.T) {
		got, violations := Parse[pet]([]byte(`{"name":"Rex","breed":"pug"}`), schema, v)
		require.Empty(t, violations)
		require.NotNil(t, got)
		assert.Equal(t, "Rex", got.Name)
	})

	t.Run("violations with typed value still returned", func(t *testing.T) {
		got, violations := Parse[pet]([]byte(`{"name":"Rex","breed":"beagle"}`), schema, v)
		require.Len(t, violations, 1)
		assert.Equal(t, ConstraintMaxLength, violations[0].Constraint)
		require.NotNil(t, got)
		assert.Equal(t, "beagle", got.Breed)
	})

	t.Run("malformed payload", func(t *testing.T) {
		got, violations := Parse[pet]([]byte(`nonsense{`), schema, v)
		assert.Nil(t, got)
		require.Len(t, violations, 1)
		assert.Equal(t, ConstraintJSON, violations[0].Constraint)
	})
}
