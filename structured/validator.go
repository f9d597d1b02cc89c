package structured

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Constraint names a schema constraint as it appears in a Violation.
type Constraint string

const (
	ConstraintJSON                 Constraint = "json" // payload is not well-formed JSON
	ConstraintType                 Constraint = "type"
	ConstraintRequired             Constraint = "required"
	ConstraintEnum                 Constraint = "enum"
	ConstraintConst                Constraint = "const"
	ConstraintMinLength            Constraint = "minLength"
	ConstraintMaxLength            Constraint = "maxLength"
	ConstraintPattern              Constraint = "pattern"
	ConstraintFormat               Constraint = "format"
	ConstraintMinimum              Constraint = "minimum"
	ConstraintMaximum              Constraint = "maximum"
	ConstraintExclusiveMinimum     Constraint = "exclusiveMinimum"
	ConstraintExclusiveMaximum     Constraint = "exclusiveMaximum"
	ConstraintMinItems             Constraint = "minItems"
	ConstraintMaxItems             Constraint = "maxItems"
	ConstraintUniqueItems          Constraint = "uniqueItems"
	ConstraintAdditionalProperties Constraint = "additionalProperties"
	ConstraintRule                 Constraint = "rule" // cross-field rule
)

// Violation describes why one field (or the whole payload) failed to conform.
// Path is empty for payload-level violations such as malformed JSON.
type Violation struct {
	Path       string     `json:"path"`
	Constraint Constraint `json:"constraint"`
	Message    string     `json:"message"`
	Value      any        `json:"value,omitempty"`
}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.Path == "" {
		return fmt.Sprintf("%s: %s", v.Constraint, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Path, v.Constraint, v.Message)
}

// ValidationErrors is the ordered, non-empty violation list for one attempt.
// Every violation found in a single pass is collected; validation never stops
// at the first failure, so a retry prompt can surface all of them at once.
type ValidationErrors struct {
	Violations []Violation `json:"violations"`
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	if len(e.Violations) == 1 {
		return e.Violations[0].Error()
	}
	var msgs []string
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return fmt.Sprintf("validation failed with %d violations: %s", len(e.Violations), strings.Join(msgs, "; "))
}

// Rule is a named cross-field constraint: a predicate over the decoded
// top-level object paired with an error message. Rules are evaluated
// independently after structural checks and their failures appended to the
// violation list.
type Rule struct {
	Name    string
	Message string
	Check   func(obj map[string]any) bool
}

// Validator validates JSON data against a Schema and reports the complete
// violation set per attempt.
type Validator struct {
	formatValidators map[StringFormat]func(string) bool
	rules            []Rule
}

// NewValidator creates a new Validator with built-in format validators.
func NewValidator() *Validator {
	v := &Validator{
		formatValidators: make(map[StringFormat]func(string) bool),
	}
	v.registerBuiltinFormats()
	return v
}

// registerBuiltinFormats registers built-in format validators.
func (v *Validator) registerBuiltinFormats() {
	v.formatValidators[FormatEmail] = func(s string) bool {
		pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
		matched, _ := regexp.MatchString(pattern, s)
		return matched
	}

	v.formatValidators[FormatURI] = func(s string) bool {
		pattern := `^[a-zA-Z][a-zA-Z0-9+.-]*://`
		matched, _ := regexp.MatchString(pattern, s)
		return matched
	}

	v.formatValidators[FormatUUID] = func(s string) bool {
		pattern := `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`
		matched, _ := regexp.MatchString(pattern, s)
		return matched
	}

	v.formatValidators[FormatDateTime] = func(s string) bool {
		pattern := `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(.\d+)?(Z|[+-]\d{2}:\d{2})?$`
		matched, _ := regexp.MatchString(pattern, s)
		return matched
	}

	v.formatValidators[FormatDate] = func(s string) bool {
		pattern := `^\d{4}-\d{2}-\d{2}$`
		matched, _ := regexp.MatchString(pattern, s)
		return matched
	}

	v.formatValidators[FormatTime] = func(s string) bool {
		pattern := `^\d{2}:\d{2}:\d{2}(.\d+)?(Z|[+-]\d{2}:\d{2})?$`
		matched, _ := regexp.MatchString(pattern, s)
		return matched
	}

	v.formatValidators[FormatIPv4] = func(s string) bool {
		pattern := `^(\d{1,3}\.){3}\d{1,3}$`
		matched, _ := regexp.MatchString(pattern, s)
		if !matched {
			return false
		}
		parts := strings.Split(s, ".")
		for _, part := range parts {
			var num int
			fmt.Sscanf(part, "%d", &num)
			if num < 0 || num > 255 {
				return false
			}
		}
		return true
	}

	v.formatValidators[FormatIPv6] = func(s string) bool {
		pattern := `^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$|^::$|^([0-9a-fA-F]{1,4}:)*:([0-9a-fA-F]{1,4}:)*[0-9a-fA-F]{1,4}$`
		matched, _ := regexp.MatchString(pattern, s)
		return matched
	}

	v.formatValidators[FormatHostname] = func(s string) bool {
		pattern := `^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`
		matched, _ := regexp.MatchString(pattern, s)
		return matched && len(s) <= 253
	}
}

// RegisterFormat registers a custom format validator.
func (v *Validator) RegisterFormat(format StringFormat, validator func(string) bool) {
	v.formatValidators[format] = validator
}

// AddRule registers a cross-field rule evaluated against the decoded
// top-level object.
func (v *Validator) AddRule(rule Rule) {
	v.rules = append(v.rules, rule)
}

// Validate validates JSON data against a schema. It returns nil on success,
// or a *ValidationErrors carrying every violation found in this pass.
// A payload that is not well-formed JSON yields a single payload-level
// violation rather than per-field ones.
func (v *Validator) Validate(data []byte, schema *Schema) error {
	if schema == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationErrors{
			Violations: []Violation{{
				Path:       "",
				Constraint: ConstraintJSON,
				Message:    fmt.Sprintf("invalid JSON: %v", err),
			}},
		}
	}

	var violations []Violation
	v.validateValue(value, schema, "", &violations)

	// 跨字段规则只作用于顶层对象
	if obj, ok := value.(map[string]any); ok {
		for _, rule := range v.rules {
			if !rule.Check(obj) {
				violations = append(violations, Violation{
					Path:       "",
					Constraint: ConstraintRule,
					Message:    fmt.Sprintf("%s: %s", rule.Name, rule.Message),
				})
			}
		}
	}

	if len(violations) > 0 {
		return &ValidationErrors{Violations: violations}
	}
	return nil
}

// validateValue validates a value against a schema at the given path.
func (v *Validator) validateValue(value any, schema *Schema, path string, violations *[]Violation) {
	if schema == nil {
		return
	}

	if schema.Const != nil {
		if !v.equalValues(value, schema.Const) {
			*violations = append(*violations, Violation{
				Path:       path,
				Constraint: ConstraintConst,
				Message:    fmt.Sprintf("value must be %v", schema.Const),
				Value:      value,
			})
		}
		return
	}

	if len(schema.Enum) > 0 {
		found := false
		for _, enumVal := range schema.Enum {
			if v.equalValues(value, enumVal) {
				found = true
				break
			}
		}
		if !found {
			*violations = append(*violations, Violation{
				Path:       path,
				Constraint: ConstraintEnum,
				Message:    fmt.Sprintf("value must be one of: %v", schema.Enum),
				Value:      value,
			})
		}
	}

	if schema.Type != "" {
		v.validateType(value, schema, path, violations)
	}
}

// validateType validates a value against its expected type.
func (v *Validator) validateType(value any, schema *Schema, path string, violations *[]Violation) {
	switch schema.Type {
	case TypeString:
		v.validateString(value, schema, path, violations)
	case TypeNumber:
		v.validateNumber(value, schema, path, violations)
	case TypeInteger:
		v.validateInteger(value, schema, path, violations)
	case TypeBoolean:
		v.validateBoolean(value, path, violations)
	case TypeNull:
		v.validateNull(value, path, violations)
	case TypeObject:
		v.validateObject(value, schema, path, violations)
	case TypeArray:
		v.validateArray(value, schema, path, violations)
	}
}

// validateString validates a string value.
func (v *Validator) validateString(value any, schema *Schema, path string, violations *[]Violation) {
	str, ok := value.(string)
	if !ok {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected string, got %T", value),
			Value:      value,
		})
		return
	}

	if schema.MinLength != nil && len(str) < *schema.MinLength {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintMinLength,
			Message:    fmt.Sprintf("string length %d is less than minimum %d", len(str), *schema.MinLength),
			Value:      str,
		})
	}

	if schema.MaxLength != nil && len(str) > *schema.MaxLength {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintMaxLength,
			Message:    fmt.Sprintf("string length %d exceeds maximum %d", len(str), *schema.MaxLength),
			Value:      str,
		})
	}

	if schema.Pattern != "" {
		matched, err := regexp.MatchString(schema.Pattern, str)
		if err != nil {
			*violations = append(*violations, Violation{
				Path:       path,
				Constraint: ConstraintPattern,
				Message:    fmt.Sprintf("invalid pattern %q: %v", schema.Pattern, err),
				Value:      str,
			})
		} else if !matched {
			*violations = append(*violations, Violation{
				Path:       path,
				Constraint: ConstraintPattern,
				Message:    fmt.Sprintf("string does not match pattern %q", schema.Pattern),
				Value:      str,
			})
		}
	}

	if schema.Format != "" {
		if validator, ok := v.formatValidators[schema.Format]; ok {
			if !validator(str) {
				*violations = append(*violations, Violation{
					Path:       path,
					Constraint: ConstraintFormat,
					Message:    fmt.Sprintf("string does not match format %q", schema.Format),
					Value:      str,
				})
			}
		}
	}
}

// validateNumber validates a number value.
func (v *Validator) validateNumber(value any, schema *Schema, path string, violations *[]Violation) {
	num, ok := v.toFloat64(value)
	if !ok {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected number, got %T", value),
			Value:      value,
		})
		return
	}

	v.validateNumericConstraints(num, schema, path, violations)
}

// validateInteger validates an integer value.
func (v *Validator) validateInteger(value any, schema *Schema, path string, violations *[]Violation) {
	num, ok := v.toFloat64(value)
	if !ok {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected integer, got %T", value),
			Value:      value,
		})
		return
	}

	if num != math.Trunc(num) {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected integer, got %v", num),
			Value:      value,
		})
		return
	}

	v.validateNumericConstraints(num, schema, path, violations)
}

// validateNumericConstraints validates numeric constraints.
func (v *Validator) validateNumericConstraints(num float64, schema *Schema, path string, violations *[]Violation) {
	if schema.Minimum != nil && num < *schema.Minimum {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintMinimum,
			Message:    fmt.Sprintf("value %v is less than minimum %v", num, *schema.Minimum),
			Value:      num,
		})
	}

	if schema.Maximum != nil && num > *schema.Maximum {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintMaximum,
			Message:    fmt.Sprintf("value %v exceeds maximum %v", num, *schema.Maximum),
			Value:      num,
		})
	}

	if schema.ExclusiveMinimum != nil && num <= *schema.ExclusiveMinimum {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintExclusiveMinimum,
			Message:    fmt.Sprintf("value %v must be greater than %v", num, *schema.ExclusiveMinimum),
			Value:      num,
		})
	}

	if schema.ExclusiveMaximum != nil && num >= *schema.ExclusiveMaximum {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintExclusiveMaximum,
			Message:    fmt.Sprintf("value %v must be less than %v", num, *schema.ExclusiveMaximum),
			Value:      num,
		})
	}
}

// validateBoolean validates a boolean value.
func (v *Validator) validateBoolean(value any, path string, violations *[]Violation) {
	if _, ok := value.(bool); !ok {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected boolean, got %T", value),
			Value:      value,
		})
	}
}

// validateNull validates a null value.
func (v *Validator) validateNull(value any, path string, violations *[]Violation) {
	if value != nil {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected null, got %T", value),
			Value:      value,
		})
	}
}

// validateObject validates an object value. Required fields are checked in
// the order declared by the schema, then properties in sorted key order, so
// the violation list is deterministic for identical input.
func (v *Validator) validateObject(value any, schema *Schema, path string, violations *[]Violation) {
	obj, ok := value.(map[string]any)
	if !ok {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected object, got %T", value),
			Value:      value,
		})
		return
	}

	for _, req := range schema.Required {
		val, exists := obj[req]
		if !exists {
			*violations = append(*violations, Violation{
				Path:       v.joinPath(path, req),
				Constraint: ConstraintRequired,
				Message:    "required field is missing",
			})
		} else if val == nil {
			*violations = append(*violations, Violation{
				Path:       v.joinPath(path, req),
				Constraint: ConstraintRequired,
				Message:    "required field must not be null",
			})
		}
	}

	propNames := make([]string, 0, len(obj))
	for name := range obj {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, propName := range propNames {
		propValue := obj[propName]
		// null 由 required 检查负责, 不再按属性类型重复报告
		if propValue == nil {
			continue
		}
		propPath := v.joinPath(path, propName)

		if propSchema, ok := schema.Properties[propName]; ok {
			v.validateValue(propValue, propSchema, propPath, violations)
		} else if schema.AdditionalProperties != nil {
			if !schema.AdditionalProperties.Allowed && schema.AdditionalProperties.Schema == nil {
				*violations = append(*violations, Violation{
					Path:       propPath,
					Constraint: ConstraintAdditionalProperties,
					Message:    "additional property not allowed",
					Value:      propValue,
				})
			} else if schema.AdditionalProperties.Schema != nil {
				v.validateValue(propValue, schema.AdditionalProperties.Schema, propPath, violations)
			}
		}
	}
}

// validateArray validates an array value.
func (v *Validator) validateArray(value any, schema *Schema, path string, violations *[]Violation) {
	arr, ok := value.([]any)
	if !ok {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintType,
			Message:    fmt.Sprintf("expected array, got %T", value),
			Value:      value,
		})
		return
	}

	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintMinItems,
			Message:    fmt.Sprintf("array has %d items, minimum is %d", len(arr), *schema.MinItems),
		})
	}

	if schema.MaxItems != nil && len(arr) > *schema.MaxItems {
		*violations = append(*violations, Violation{
			Path:       path,
			Constraint: ConstraintMaxItems,
			Message:    fmt.Sprintf("array has %d items, maximum is %d", len(arr), *schema.MaxItems),
		})
	}

	if schema.UniqueItems != nil && *schema.UniqueItems {
		seen := make(map[string]bool)
		for i, item := range arr {
			key := v.valueKey(item)
			if seen[key] {
				*violations = append(*violations, Violation{
					Path:       fmt.Sprintf("%s[%d]", path, i),
					Constraint: ConstraintUniqueItems,
					Message:    "duplicate item in array with uniqueItems constraint",
					Value:      item,
				})
			}
			seen[key] = true
		}
	}

	if schema.Items != nil {
		for i, item := range arr {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			v.validateValue(item, schema.Items, itemPath, violations)
		}
	}
}

// toFloat64 converts a value to float64.
func (v *Validator) toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// equalValues compares two values for equality.
func (v *Validator) equalValues(a, b any) bool {
	aNum, aIsNum := v.toFloat64(a)
	bNum, bIsNum := v.toFloat64(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}

	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return aStr == bStr
	}

	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return aBool == bBool
	}

	if a == nil && b == nil {
		return true
	}

	// Fall back to JSON serialization for complex types
	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	return string(aJSON) == string(bJSON)
}

// joinPath joins path segments.
func (v *Validator) joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}

// valueKey generates a unique key for a value (for uniqueItems check).
func (v *Validator) valueKey(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

// Parse 将原始文本按 Schema 解析并校验，返回类型化实例或完整违规列表。
// 先做结构校验再反序列化，两步的违规合并在同一个列表中返回。
func Parse[T any](data []byte, schema *Schema, v *Validator) (*T, []Violation) {
	var violations []Violation

	if err := v.Validate(data, schema); err != nil {
		if ve, ok := err.(*ValidationErrors); ok {
			violations = append(violations, ve.Violations...)
		} else {
			violations = append(violations, Violation{
				Constraint: ConstraintJSON,
				Message:    err.Error(),
			})
		}
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		// 结构校验已报过 invalid JSON 时不再重复
		if len(violations) == 0 || violations[0].Constraint != ConstraintJSON {
			violations = append(violations, Violation{
				Constraint: ConstraintJSON,
				Message:    fmt.Sprintf("JSON parse error: %v", err),
			})
		}
		return nil, violations
	}

	if len(violations) > 0 {
		return &value, violations
	}
	return &value, nil
}
