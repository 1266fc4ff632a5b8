package common

import (
	"fmt"
	"time"
)

// Type enumerates the scalar types the engine understands.
type Type int8

const (
	// InvalidType marks an uninitialized Value.
	InvalidType Type = iota
	TinyIntType
	SmallIntType
	IntegerType
	BigIntType
	DoubleType
	DecimalType
	BooleanType
	VarcharType
	TimestampType
)

func (t Type) String() string {
	switch t {
	case TinyIntType:
		return "tinyint"
	case SmallIntType:
		return "smallint"
	case IntegerType:
		return "integer"
	case BigIntType:
		return "bigint"
	case DoubleType:
		return "double"
	case DecimalType:
		return "decimal"
	case BooleanType:
		return "boolean"
	case VarcharType:
		return "varchar"
	case TimestampType:
		return "timestamp"
	}
	return "invalid"
}

// IsIntegral reports whether the type belongs to the integer family.
func (t Type) IsIntegral() bool {
	switch t {
	case TinyIntType, SmallIntType, IntegerType, BigIntType:
		return true
	}
	return false
}

// IsNumeric reports whether the type participates in numeric widening.
func (t Type) IsNumeric() bool {
	return t.IsIntegral() || t == DoubleType || t == DecimalType
}

// ObjectID is a unique identifier for a table or index in the catalog.
type ObjectID uint32

const InvalidObjectID ObjectID = 0

// TransactionID identifies a transaction.
type TransactionID uint64

const InvalidTransactionID TransactionID = 0

// CommitID is the logical commit timestamp assigned at commit time.
type CommitID uint64

const InvalidCommitID CommitID = 0

// RecordID identifies a tuple by its tile group and the row offset inside it.
type RecordID struct {
	Block  int32
	Offset int32
}

// InvalidRecordID is the sentinel RecordID; block indexes start at 0.
var InvalidRecordID = RecordID{Block: -1, Offset: -1}

func (r RecordID) IsNil() bool {
	return r.Block < 0
}

func (r RecordID) String() string {
	return fmt.Sprintf("rid(%d, %d)", r.Block, r.Offset)
}

// ResultType is the outcome of a transaction or statement.
type ResultType int8

const (
	ResultInvalid ResultType = iota
	ResultSuccess
	ResultFailure
	ResultAborted
)

func (r ResultType) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultAborted:
		return "aborted"
	}
	return "invalid"
}

// Value represents a tagged scalar. The zero Value has InvalidType and is
// distinct from a typed NULL, which carries its type with the null flag set.
type Value struct {
	t       Type
	null    bool
	integer int64
	double  float64
	boolean bool
	bytes   []byte
}

func NewTinyIntValue(v int8) Value {
	return Value{t: TinyIntType, integer: int64(v)}
}

func NewSmallIntValue(v int16) Value {
	return Value{t: SmallIntType, integer: int64(v)}
}

func NewIntegerValue(v int32) Value {
	return Value{t: IntegerType, integer: int64(v)}
}

func NewBigIntValue(v int64) Value {
	return Value{t: BigIntType, integer: v}
}

func NewDoubleValue(v float64) Value {
	return Value{t: DoubleType, double: v}
}

func NewDecimalValue(v float64) Value {
	return Value{t: DecimalType, double: v}
}

func NewBooleanValue(v bool) Value {
	return Value{t: BooleanType, boolean: v}
}

func NewVarcharValue(s string) Value {
	return Value{t: VarcharType, bytes: []byte(s)}
}

func NewTimestampValue(ts time.Time) Value {
	return Value{t: TimestampType, integer: ts.UnixMicro()}
}

// NewNullValue returns a typed NULL.
func NewNullValue(t Type) Value {
	return Value{t: t, null: true}
}

func (v Value) Type() Type    { return v.t }
func (v Value) IsNull() bool  { return v.null }
func (v Value) IsNil() bool   { return v.t == InvalidType }
func (v Value) IsTrue() bool  { return v.t == BooleanType && !v.null && v.boolean }
func (v Value) IsFalse() bool { return v.t == BooleanType && !v.null && !v.boolean }

func (v Value) IntValue() int64 {
	Assert(v.t.IsIntegral() || v.t == TimestampType, "IntValue on %s", v.t)
	return v.integer
}

func (v Value) DoubleValue() float64 {
	Assert(v.t == DoubleType || v.t == DecimalType, "DoubleValue on %s", v.t)
	return v.double
}

func (v Value) BoolValue() bool {
	Assert(v.t == BooleanType, "BoolValue on %s", v.t)
	return v.boolean
}

func (v Value) StringValue() string {
	Assert(v.t == VarcharType, "StringValue on %s", v.t)
	return string(v.bytes)
}

func (v Value) String() string {
	if v.null {
		return "NULL"
	}
	switch {
	case v.t.IsIntegral() || v.t == TimestampType:
		return fmt.Sprintf("%d", v.integer)
	case v.t == DoubleType || v.t == DecimalType:
		return fmt.Sprintf("%g", v.double)
	case v.t == BooleanType:
		return fmt.Sprintf("%t", v.boolean)
	case v.t == VarcharType:
		return string(v.bytes)
	}
	return "invalid"
}

// asDouble widens any numeric value to float64 for cross-family comparison.
func (v Value) asDouble() float64 {
	if v.t.IsIntegral() {
		return float64(v.integer)
	}
	return v.double
}

// Comparable reports whether two non-null values can be ordered against each
// other: same type, or both members of the numeric family.
func (v Value) Comparable(o Value) bool {
	if v.t == o.t {
		return true
	}
	return v.t.IsNumeric() && o.t.IsNumeric()
}

// Compare orders two values. Both must be non-null and comparable; callers
// are responsible for NULL handling first.
func (v Value) Compare(o Value) int {
	Assert(!v.null && !o.null, "Compare on NULL value")
	Assert(v.Comparable(o), "Compare between %s and %s", v.t, o.t)

	switch {
	case v.t.IsIntegral() && o.t.IsIntegral():
		return compareInt64(v.integer, o.integer)
	case v.t.IsNumeric():
		return compareFloat64(v.asDouble(), o.asDouble())
	}

	switch v.t {
	case BooleanType:
		return compareBool(v.boolean, o.boolean)
	case VarcharType:
		return compareBytes(v.bytes, o.bytes)
	case TimestampType:
		return compareInt64(v.integer, o.integer)
	}
	panic(fmt.Sprintf("uncomparable type %s", v.t))
}

// Equals implements typed equality. A NULL compares unequal to everything,
// including another NULL.
func (v Value) Equals(o Value) bool {
	if v.null || o.null {
		return false
	}
	if !v.Comparable(o) {
		return false
	}
	return v.Compare(o) == 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

func compareBytes(a, b []byte) int {
	la, lb := len(a), len(b)
	n := la
	if lb < n {
		n = lb
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return compareInt64(int64(la), int64(lb))
}
