package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Functions is the evaluator's built-in function table. Every entry takes
// already-evaluated arguments (numbers, strings, booleans, or a
// [][]interface{} for a range/array argument) and returns a plain value or
// a Go error, which evalFunctionCall turns into ErrValue. IF and IFERROR
// are handled directly by the evaluator instead of living here, since they
// need to evaluate their arguments lazily.
var Functions = map[string]func(args ...interface{}) (interface{}, error){
	"SUM":     fnSum,
	"AVERAGE": fnAverage,
	"MIN":     fnMin,
	"MAX":     fnMax,
	"COUNT":   fnCount,
	"COUNTA":  fnCounta,
	"PRODUCT": fnProduct,

	"ROUND":    fnRound,
	"ROUNDUP":  fnRoundUp,
	"ROUNDDOWN": fnRoundDown,
	"ABS":      fnAbs,
	"SQRT":     fnSqrt,
	"POWER":    fnPower,
	"MOD":      fnMod,
	"INT":      fnInt,
	"SIGN":     fnSign,
	"EXP":      fnExp,
	"LN":       fnLn,
	"LOG":      fnLog,
	"LOG10":    fnLog10,

	"SIN":  fn1(math.Sin),
	"COS":  fn1(math.Cos),
	"TAN":  fn1(math.Tan),
	"SINH": fn1(math.Sinh),
	"COSH": fn1(math.Cosh),
	"TANH": fn1(math.Tanh),

	"CONCATENATE": fnConcatenate,
	"CONCAT":      fnConcatenate,
	"LEN":         fnLen,
	"UPPER":       fnUpper,
	"LOWER":       fnLower,
	"TRIM":        fnTrim,
	"LEFT":        fnLeft,
	"RIGHT":       fnRight,
	"MID":         fnMid,
	"SUBSTITUTE":  fnSubstitute,
	"TEXT":        fnText,

	"AND": fnAnd,
	"OR":  fnOr,
	"NOT": fnNot,

	"ISBLANK":  fnIsBlank,
	"ISERROR":  fnIsError,
	"ISNUMBER": fnIsNumber,
	"ISTEXT":   fnIsText,

	"XLOOKUP":  fnXlookup,
	"XMATCH":   fnXmatch,
	"HSTACK":   fnHstack,
	"VSTACK":   fnVstack,
	"TAKE":     fnTake,
	"DROP":     fnDrop,
	"TEXTSPLIT": fnTextSplit,
	"GEOMEAN":  fnGeoMean,
	"DEC2BIN":  fnDec2Bin,
	"DEC2HEX":  fnDec2Hex,
	"BIN2DEC":  fnBin2Dec,
	"HEX2DEC":  fnHex2Dec,
}

func flattenValues(args ...interface{}) []interface{} {
	var out []interface{}
	var walk func(interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case [][]interface{}:
			for _, row := range t {
				for _, c := range row {
					walk(c)
				}
			}
		case []interface{}:
			for _, c := range t {
				walk(c)
			}
		default:
			out = append(out, v)
		}
	}
	for _, a := range args {
		walk(a)
	}
	return out
}

func flattenNumbers(args ...interface{}) []float64 {
	var nums []float64
	for _, v := range flattenValues(args...) {
		if v == nil {
			continue
		}
		if n, ok := toNumber(v); ok {
			nums = append(nums, n)
		}
	}
	return nums
}

func fnSum(args ...interface{}) (interface{}, error) {
	total := 0.0
	for _, n := range flattenNumbers(args...) {
		total += n
	}
	return total, nil
}

func fnAverage(args ...interface{}) (interface{}, error) {
	nums := flattenNumbers(args...)
	if len(nums) == 0 {
		return nil, fmt.Errorf("AVERAGE requires at least one numeric value")
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums)), nil
}

func fnMin(args ...interface{}) (interface{}, error) {
	nums := flattenNumbers(args...)
	if len(nums) == 0 {
		return 0.0, nil
	}
	min := nums[0]
	for _, n := range nums[1:] {
		if n < min {
			min = n
		}
	}
	return min, nil
}

func fnMax(args ...interface{}) (interface{}, error) {
	nums := flattenNumbers(args...)
	if len(nums) == 0 {
		return 0.0, nil
	}
	max := nums[0]
	for _, n := range nums[1:] {
		if n > max {
			max = n
		}
	}
	return max, nil
}

func fnCount(args ...interface{}) (interface{}, error) {
	count := 0
	for _, v := range flattenValues(args...) {
		if _, ok := v.(float64); ok {
			count++
		}
	}
	return float64(count), nil
}

func fnCounta(args ...interface{}) (interface{}, error) {
	count := 0
	for _, v := range flattenValues(args...) {
		if v != nil && v != "" {
			count++
		}
	}
	return float64(count), nil
}

func fnProduct(args ...interface{}) (interface{}, error) {
	nums := flattenNumbers(args...)
	product := 1.0
	for _, n := range nums {
		product *= n
	}
	return product, nil
}

func requireArgs(args []interface{}, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func fnRound(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ROUND requires 2 arguments")
	}
	num, ok1 := toNumber(args[0])
	digits, ok2 := toNumber(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("ROUND requires numeric arguments")
	}
	mul := math.Pow(10, digits)
	return math.Round(num*mul) / mul, nil
}

func fnRoundUp(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ROUNDUP requires 2 arguments")
	}
	num, _ := toNumber(args[0])
	digits, _ := toNumber(args[1])
	mul := math.Pow(10, digits)
	if num >= 0 {
		return math.Ceil(num*mul) / mul, nil
	}
	return math.Floor(num*mul) / mul, nil
}

func fnRoundDown(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ROUNDDOWN requires 2 arguments")
	}
	num, _ := toNumber(args[0])
	digits, _ := toNumber(args[1])
	mul := math.Pow(10, digits)
	if num >= 0 {
		return math.Floor(num*mul) / mul, nil
	}
	return math.Ceil(num*mul) / mul, nil
}

func fn1(f func(float64) float64) func(args ...interface{}) (interface{}, error) {
	return func(args ...interface{}) (interface{}, error) {
		if err := requireArgs(args, 1); err != nil {
			return nil, err
		}
		n, ok := toNumber(args[0])
		if !ok {
			return nil, fmt.Errorf("expected a numeric argument")
		}
		return f(n), nil
	}
}

func fnAbs(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("ABS requires a numeric argument")
	}
	return math.Abs(n), nil
}

func fnSqrt(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	n, ok := toNumber(args[0])
	if !ok || n < 0 {
		return nil, fmt.Errorf("SQRT requires a non-negative numeric argument")
	}
	return math.Sqrt(n), nil
}

func fnPower(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 2); err != nil {
		return nil, err
	}
	base, ok1 := toNumber(args[0])
	exp, ok2 := toNumber(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("POWER requires numeric arguments")
	}
	return math.Pow(base, exp), nil
}

func fnMod(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 2); err != nil {
		return nil, err
	}
	a, ok1 := toNumber(args[0])
	b, ok2 := toNumber(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("MOD requires numeric arguments")
	}
	if b == 0 {
		return nil, fmt.Errorf("MOD divide by zero")
	}
	return math.Mod(a, b), nil
}

func fnInt(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("INT requires a numeric argument")
	}
	return math.Floor(n), nil
}

func fnSign(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("SIGN requires a numeric argument")
	}
	switch {
	case n > 0:
		return 1.0, nil
	case n < 0:
		return -1.0, nil
	default:
		return 0.0, nil
	}
}

func fnExp(args ...interface{}) (interface{}, error) { return fn1(math.Exp)(args...) }
func fnLn(args ...interface{}) (interface{}, error)  { return fn1(math.Log)(args...) }
func fnLog10(args ...interface{}) (interface{}, error) { return fn1(math.Log10)(args...) }

func fnLog(args ...interface{}) (interface{}, error) {
	if len(args) == 1 {
		return fn1(math.Log10)(args...)
	}
	if err := requireArgs(args, 2); err != nil {
		return nil, err
	}
	n, ok1 := toNumber(args[0])
	base, ok2 := toNumber(args[1])
	if !ok1 || !ok2 || base <= 0 || base == 1 {
		return nil, fmt.Errorf("LOG requires a valid base")
	}
	return math.Log(n) / math.Log(base), nil
}

func fnConcatenate(args ...interface{}) (interface{}, error) {
	var sb strings.Builder
	for _, v := range flattenValues(args...) {
		sb.WriteString(toDisplayString(v))
	}
	return sb.String(), nil
}

func fnLen(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	return float64(len(toDisplayString(args[0]))), nil
}

func fnUpper(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	return strings.ToUpper(toDisplayString(args[0])), nil
}

func fnLower(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	return strings.ToLower(toDisplayString(args[0])), nil
}

func fnTrim(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	fields := strings.Fields(toDisplayString(args[0]))
	return strings.Join(fields, " "), nil
}

func fnLeft(args ...interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("LEFT requires 1 or 2 arguments")
	}
	s := toDisplayString(args[0])
	n := 1
	if len(args) == 2 {
		v, ok := toNumber(args[1])
		if !ok {
			return nil, fmt.Errorf("LEFT requires a numeric count")
		}
		n = int(v)
	}
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return s[:n], nil
}

func fnRight(args ...interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("RIGHT requires 1 or 2 arguments")
	}
	s := toDisplayString(args[0])
	n := 1
	if len(args) == 2 {
		v, ok := toNumber(args[1])
		if !ok {
			return nil, fmt.Errorf("RIGHT requires a numeric count")
		}
		n = int(v)
	}
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return s[len(s)-n:], nil
}

func fnMid(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 3); err != nil {
		return nil, err
	}
	s := toDisplayString(args[0])
	start, ok1 := toNumber(args[1])
	length, ok2 := toNumber(args[2])
	if !ok1 || !ok2 || start < 1 {
		return nil, fmt.Errorf("MID requires a 1-based start and a length")
	}
	si := int(start) - 1
	if si > len(s) {
		return "", nil
	}
	ei := si + int(length)
	if ei > len(s) {
		ei = len(s)
	}
	if ei < si {
		ei = si
	}
	return s[si:ei], nil
}

func fnSubstitute(args ...interface{}) (interface{}, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("SUBSTITUTE requires 3 arguments")
	}
	s := toDisplayString(args[0])
	old := toDisplayString(args[1])
	new := toDisplayString(args[2])
	return strings.ReplaceAll(s, old, new), nil
}

func fnText(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 2); err != nil {
		return nil, err
	}
	n, ok := toNumber(args[0])
	if !ok {
		return toDisplayString(args[0]), nil
	}
	format := toDisplayString(args[1])
	decimals := strings.Count(format, "0") - strings.Count(strings.SplitN(format, ".", 2)[0], "0")
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(n, 'f', decimals, 64), nil
}

func fnAnd(args ...interface{}) (interface{}, error) {
	for _, v := range flattenValues(args...) {
		b, ok := v.(bool)
		if !ok {
			n, numOk := toNumber(v)
			if !numOk {
				return nil, fmt.Errorf("AND requires boolean-coercible arguments")
			}
			b = n != 0
		}
		if !b {
			return false, nil
		}
	}
	return true, nil
}

func fnOr(args ...interface{}) (interface{}, error) {
	for _, v := range flattenValues(args...) {
		b, ok := v.(bool)
		if !ok {
			n, numOk := toNumber(v)
			if !numOk {
				return nil, fmt.Errorf("OR requires boolean-coercible arguments")
			}
			b = n != 0
		}
		if b {
			return true, nil
		}
	}
	return false, nil
}

func fnNot(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	b, ok := args[0].(bool)
	if !ok {
		n, numOk := toNumber(args[0])
		if !numOk {
			return nil, fmt.Errorf("NOT requires a boolean-coercible argument")
		}
		b = n != 0
	}
	return !b, nil
}

func fnIsBlank(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	return args[0] == nil, nil
}

func fnIsError(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(ErrorValue)
	return ok, nil
}

func fnIsNumber(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(float64)
	return ok, nil
}

func fnIsText(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(string)
	return ok, nil
}
