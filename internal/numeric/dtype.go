package numeric

// DataType represents runtime type information for element types.
// It is only used for labelling (logs, CLI output, shader selection),
// never for dispatch inside a kernel.
type DataType int

// Supported data types.
const (
	Unknown DataType = iota
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var dataTypeNames = [...]string{
	Unknown: "unknown",
	Int:     "int",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint:    "uint",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	if dt < 0 || int(dt) >= len(dataTypeNames) {
		return "unknown"
	}
	return dataTypeNames[dt]
}

// Size returns the byte size of the data type, or 0 for platform dependent
// and unknown types.
func (dt DataType) Size() int {
	switch dt {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsInteger reports whether sums of this type are exact.
func (dt DataType) IsInteger() bool {
	return dt >= Int && dt <= Uint64
}

// Of infers the DataType of T. Named types report the type of their
// underlying kind only when they are the predeclared type itself.
func Of[T Real]() DataType {
	var zero T
	switch any(zero).(type) {
	case int:
		return Int
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint:
		return Uint
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		return Unknown
	}
}
