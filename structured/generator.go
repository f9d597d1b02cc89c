package structured

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SchemaGenerator 通过反射从 Go 类型生成 JSON Schema。
// 结构体字段用 "json" 标签决定字段名, 用 "jsonschema" 标签声明约束。
type SchemaGenerator struct {
	// 跟踪正在展开的类型, 防止递归类型无限展开
	visited map[reflect.Type]bool
}

// NewSchemaGenerator 创建一个新的 SchemaGenerator。
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{
		visited: make(map[reflect.Type]bool),
	}
}

// SchemaFor 是常用入口: 直接从类型参数生成 Schema。
func SchemaFor[T any]() (*Schema, error) {
	var zero T
	return NewSchemaGenerator().Generate(reflect.TypeOf(zero))
}

// Generate 从 Go 类型生成 JSON Schema。
// 支持结构体、切片、map、指针和基础类型。
//
// 支持的 jsonschema 标签选项:
//   - required: 标记字段为必填
//   - enum=a,b,c: 枚举值 (数值字段会按字段类型转换)
//   - minimum=0 / maximum=100: 数值范围
//   - minLength=1 / maxLength=100: 字符串长度
//   - pattern=^[a-z]+$: 字符串正则
//   - format=email: 字符串格式 (email、uri、uuid、date-time 等)
//   - minItems=1 / maxItems=10: 数组长度
//   - description=...: 字段描述
//   - default=...: 默认值
func (g *SchemaGenerator) Generate(t reflect.Type) (*Schema, error) {
	// 每次顶层调用重置访问记录
	g.visited = make(map[reflect.Type]bool)
	return g.generate(t)
}

func (g *SchemaGenerator) generate(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot generate schema for nil type")
	}

	if t.Kind() == reflect.Ptr {
		return g.generate(t.Elem())
	}

	// 递归类型返回占位对象
	if g.visited[t] {
		return &Schema{Type: TypeObject}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return NewStringSchema(), nil

	case reflect.Bool:
		return NewBooleanSchema(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewIntegerSchema(), nil

	case reflect.Float32, reflect.Float64:
		return NewNumberSchema(), nil

	case reflect.Slice, reflect.Array:
		elem, err := g.generate(t.Elem())
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return NewArraySchema(elem), nil

	case reflect.Map:
		// map 映射为开放对象, 值类型作为 additionalProperties
		valueSchema, err := g.generate(t.Elem())
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		s := NewObjectSchema()
		s.AdditionalProperties = &AdditionalProperties{Allowed: true, Schema: valueSchema}
		return s, nil

	case reflect.Struct:
		return g.generateStruct(t)

	case reflect.Interface:
		// interface{} 对应任意类型
		return &Schema{}, nil

	default:
		return nil, fmt.Errorf("unsupported type: %s", t.Kind())
	}
}

func (g *SchemaGenerator) generateStruct(t reflect.Type) (*Schema, error) {
	g.visited[t] = true
	defer func() { g.visited[t] = false }()

	schema := NewObjectSchema()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		if name == "-" {
			continue
		}

		fieldSchema, err := g.generate(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		opts := parseTagOptions(field.Tag.Get("jsonschema"))
		if err := applyTagOptions(fieldSchema, opts, field.Type); err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		if _, required := opts["required"]; required {
			schema.Required = append(schema.Required, name)
		}

		schema.Properties[name] = fieldSchema
	}

	return schema, nil
}

// jsonFieldName 从 json 标签中取字段名, 没有标签时用结构体字段名。
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return field.Name
	}
	return name
}

// applyTagOptions 将 jsonschema 标签约束落到 Schema 上。
func applyTagOptions(schema *Schema, opts map[string]string, fieldType reflect.Type) error {
	if desc, ok := opts["description"]; ok {
		schema.Description = desc
	}
	if title, ok := opts["title"]; ok {
		schema.Title = title
	}
	if def, ok := opts["default"]; ok {
		schema.Default = convertTagValue(def, fieldType)
	}

	if enumStr, ok := opts["enum"]; ok {
		values := strings.Split(enumStr, ",")
		schema.Enum = make([]any, 0, len(values))
		for _, v := range values {
			schema.Enum = append(schema.Enum, convertTagValue(strings.TrimSpace(v), fieldType))
		}
	}

	if v, ok := opts["minLength"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid minLength %q", v)
		}
		schema.MinLength = &n
	}
	if v, ok := opts["maxLength"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid maxLength %q", v)
		}
		schema.MaxLength = &n
	}
	if v, ok := opts["pattern"]; ok {
		schema.Pattern = v
	}
	if v, ok := opts["format"]; ok {
		schema.Format = StringFormat(v)
	}

	if v, ok := opts["minimum"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid minimum %q", v)
		}
		schema.Minimum = &f
	}
	if v, ok := opts["maximum"]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid maximum %q", v)
		}
		schema.Maximum = &f
	}

	if v, ok := opts["minItems"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid minItems %q", v)
		}
		schema.MinItems = &n
	}
	if v, ok := opts["maxItems"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid maxItems %q", v)
		}
		schema.MaxItems = &n
	}

	return nil
}

// convertTagValue 按字段类型把标签值转成对应的 Go 值,
// 数值类字段的 enum/default 不应以字符串形式出现在 Schema 里。
func convertTagValue(value string, t reflect.Type) any {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		return value == "true"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return value
}

// schemaTagKeys 是 jsonschema 标签里合法的选项名。
// 拆分标签时用它判断某个逗号是在分隔选项, 还是 enum 值的一部分。
var schemaTagKeys = map[string]bool{
	"required":    true,
	"enum":        true,
	"minimum":     true,
	"maximum":     true,
	"minLength":   true,
	"maxLength":   true,
	"pattern":     true,
	"format":      true,
	"minItems":    true,
	"maxItems":    true,
	"description": true,
	"default":     true,
	"title":       true,
}

// parseTagOptions 把 "required,enum=a,b,c,maxLength=4" 这样的标签解析为选项表。
// enum 的值本身可以包含逗号, 只有后面跟着已知选项名时才视为分隔符。
func parseTagOptions(tag string) map[string]string {
	opts := make(map[string]string)
	if tag == "" {
		return opts
	}

	segments := strings.Split(tag, ",")
	i := 0
	for i < len(segments) {
		seg := strings.TrimSpace(segments[i])
		i++
		if seg == "" {
			continue
		}

		eq := strings.Index(seg, "=")
		if eq < 0 {
			opts[seg] = ""
			continue
		}

		key := seg[:eq]
		value := seg[eq+1:]

		// 吸收后续片段, 直到遇到下一个已知选项
		for i < len(segments) {
			next := strings.TrimSpace(segments[i])
			if schemaTagKeys[next] {
				break
			}
			if nextEq := strings.Index(next, "="); nextEq > 0 && schemaTagKeys[next[:nextEq]] {
				break
			}
			value += "," + segments[i]
			i++
		}

		opts[key] = value
	}

	return opts
}
