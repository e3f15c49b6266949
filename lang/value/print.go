package value

import (
	"strconv"
)

// Format renders v the way ember's `print` statement and the disassembler
// do: nil as "nil", booleans as "true"/"false", numbers without a
// superfluous fractional part, and objects per their variant.
func Format(v Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return strconv.FormatFloat(v.AsNumber(), 'g', -1, 64)
	case v.IsObj():
		return formatObj(v.AsObj())
	default:
		return "<invalid value>"
	}
}

func formatObj(o Obj) string {
	switch obj := o.(type) {
	case *ObjString:
		return obj.Chars
	case *ObjFunction:
		if obj.Name == nil {
			return "<script>"
		}
		return "<fn " + obj.Name.Chars + ">"
	case *ObjNative:
		return "<native fn>"
	case *ObjClosure:
		return formatObj(obj.Function)
	case *ObjUpvalue:
		return "<upvalue>"
	case *ObjClass:
		return obj.Name.Chars
	case *ObjInstance:
		return obj.Class.Name.Chars + " instance"
	case *ObjBoundMethod:
		return formatObj(obj.Method)
	default:
		return "<object>"
	}
}
