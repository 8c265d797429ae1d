package query

import "github.com/c360/edqs/entity"

// ValueType declares how a key filter interprets the stored value.
type ValueType string

const (
	ValueString   ValueType = "STRING"
	ValueNumeric  ValueType = "NUMERIC"
	ValueBoolean  ValueType = "BOOLEAN"
	ValueDateTime ValueType = "DATE_TIME"
)

// Key names one data key of an entity record.
type Key struct {
	Type entity.KeyType `json:"type"`
	Key  string         `json:"key"`
}

// KeyFilter prunes candidates beyond structural filter resolution: the
// named key's value must satisfy the predicate.
type KeyFilter struct {
	Key       Key       `json:"key"`
	ValueType ValueType `json:"valueType"`
	Predicate Predicate `json:"predicate"`
}

// Predicate is a closed union of the key filter predicate kinds.
type Predicate interface {
	predicateKind() string
}

// StringOperation compares a stored value against a string constant.
type StringOperation string

const (
	StringEqual       StringOperation = "EQUAL"
	StringNotEqual    StringOperation = "NOT_EQUAL"
	StringStartsWith  StringOperation = "STARTS_WITH"
	StringEndsWith    StringOperation = "ENDS_WITH"
	StringContains    StringOperation = "CONTAINS"
	StringNotContains StringOperation = "NOT_CONTAINS"
	StringIn          StringOperation = "IN"
	StringNotIn       StringOperation = "NOT_IN"
)

// NumericOperation compares a stored value against a numeric constant.
type NumericOperation string

const (
	NumericEqual          NumericOperation = "EQUAL"
	NumericNotEqual       NumericOperation = "NOT_EQUAL"
	NumericGreater        NumericOperation = "GREATER"
	NumericLess           NumericOperation = "LESS"
	NumericGreaterOrEqual NumericOperation = "GREATER_OR_EQUAL"
	NumericLessOrEqual    NumericOperation = "LESS_OR_EQUAL"
)

// BooleanOperation compares a stored value against a boolean constant.
type BooleanOperation string

const (
	BooleanEqual    BooleanOperation = "EQUAL"
	BooleanNotEqual BooleanOperation = "NOT_EQUAL"
)

// ComplexOperation combines child predicates.
type ComplexOperation string

const (
	ComplexAnd ComplexOperation = "AND"
	ComplexOr  ComplexOperation = "OR"
)

// StringPredicate matches string values. An empty constant matches
// everything. The constant may carry SQL wildcards (% and _) for the
// substring operations.
type StringPredicate struct {
	Operation  StringOperation `json:"operation"`
	Value      string          `json:"value"`
	IgnoreCase bool            `json:"ignoreCase"`
}

// NumericPredicate matches numeric values. Values that do not parse as
// numbers never match.
type NumericPredicate struct {
	Operation NumericOperation `json:"operation"`
	Value     float64          `json:"value"`
}

// BooleanPredicate matches boolean values.
type BooleanPredicate struct {
	Operation BooleanOperation `json:"operation"`
	Value     bool             `json:"value"`
}

// ComplexPredicate combines children with AND or OR. The children apply
// to the same key value. OR skips children that are string predicates
// with an empty constant.
type ComplexPredicate struct {
	Operation  ComplexOperation `json:"operation"`
	Predicates []Predicate      `json:"predicates"`
}

func (StringPredicate) predicateKind() string  { return PredicateString }
func (NumericPredicate) predicateKind() string { return PredicateNumeric }
func (BooleanPredicate) predicateKind() string { return PredicateBoolean }
func (ComplexPredicate) predicateKind() string { return PredicateComplex }

// Predicate kind discriminators as they appear on the wire.
const (
	PredicateString  = "STRING"
	PredicateNumeric = "NUMERIC"
	PredicateBoolean = "BOOLEAN"
	PredicateComplex = "COMPLEX"
)
