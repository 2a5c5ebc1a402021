package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// fnXlookup implements XLOOKUP(key, lookupRange, returnRange[, ifNotFound]).
// Only exact, single-column lookup is supported — no wildcard or
// approximate-match modes, which is as far as the spreadsheet grid
// virtualization this module layers over needs to go.
func fnXlookup(args ...interface{}) (interface{}, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("XLOOKUP requires at least 3 arguments")
	}
	key := args[0]
	lookup, ok := args[1].([][]interface{})
	if !ok {
		return nil, fmt.Errorf("XLOOKUP lookup range must be a range")
	}
	ret, ok := args[2].([][]interface{})
	if !ok {
		return nil, fmt.Errorf("XLOOKUP return range must be a range")
	}
	for i, row := range lookup {
		if len(row) == 0 {
			continue
		}
		if valuesEqualLoose(row[0], key) {
			if i < len(ret) && len(ret[i]) > 0 {
				return ret[i][0], nil
			}
			return nil, fmt.Errorf("XLOOKUP return range does not cover match")
		}
	}
	if len(args) >= 4 {
		return args[3], nil
	}
	return nil, fmt.Errorf("XLOOKUP found no match")
}

// fnXmatch implements XMATCH(key, lookupRange), returning a 1-based
// position.
func fnXmatch(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("XMATCH requires 2 arguments")
	}
	key := args[0]
	lookup, ok := args[1].([][]interface{})
	if !ok {
		return nil, fmt.Errorf("XMATCH lookup range must be a range")
	}
	for i, row := range lookup {
		if len(row) > 0 && valuesEqualLoose(row[0], key) {
			return float64(i + 1), nil
		}
	}
	return nil, fmt.Errorf("XMATCH found no match")
}

func valuesEqualLoose(a, b interface{}) bool {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return an == bn
		}
	}
	return toDisplayString(a) == toDisplayString(b)
}

func asRange(v interface{}) ([][]interface{}, error) {
	arr, ok := v.([][]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a range argument")
	}
	return arr, nil
}

// fnHstack implements HSTACK, concatenating ranges side by side row by row.
func fnHstack(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("HSTACK requires at least one range")
	}
	arrays := make([][][]interface{}, len(args))
	maxRows := 0
	for i, a := range args {
		arr, err := asRange(a)
		if err != nil {
			return nil, err
		}
		arrays[i] = arr
		if len(arr) > maxRows {
			maxRows = len(arr)
		}
	}
	result := make([][]interface{}, maxRows)
	for r := 0; r < maxRows; r++ {
		var row []interface{}
		for _, arr := range arrays {
			if r < len(arr) {
				row = append(row, arr[r]...)
			}
		}
		result[r] = row
	}
	return result, nil
}

// fnVstack implements VSTACK, concatenating ranges one below the other.
func fnVstack(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("VSTACK requires at least one range")
	}
	var result [][]interface{}
	for _, a := range args {
		arr, err := asRange(a)
		if err != nil {
			return nil, err
		}
		result = append(result, arr...)
	}
	return result, nil
}

// fnTake implements TAKE(range, count): count > 0 takes the first count
// rows, count < 0 takes the last |count| rows.
func fnTake(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 2); err != nil {
		return nil, err
	}
	arr, err := asRange(args[0])
	if err != nil {
		return nil, err
	}
	n, ok := toNumber(args[1])
	if !ok {
		return nil, fmt.Errorf("TAKE requires a numeric count")
	}
	count := int(n)
	if count >= 0 {
		if count > len(arr) {
			count = len(arr)
		}
		return arr[:count], nil
	}
	k := -count
	if k > len(arr) {
		k = len(arr)
	}
	return arr[len(arr)-k:], nil
}

// fnDrop implements DROP(range, count), the complement of TAKE.
func fnDrop(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 2); err != nil {
		return nil, err
	}
	arr, err := asRange(args[0])
	if err != nil {
		return nil, err
	}
	n, ok := toNumber(args[1])
	if !ok {
		return nil, fmt.Errorf("DROP requires a numeric count")
	}
	count := int(n)
	if count >= 0 {
		if count > len(arr) {
			count = len(arr)
		}
		return arr[count:], nil
	}
	k := -count
	if k > len(arr) {
		k = len(arr)
	}
	return arr[:len(arr)-k], nil
}

// fnTextSplit implements TEXTSPLIT(text, colDelimiter[, rowDelimiter]).
func fnTextSplit(args ...interface{}) (interface{}, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("TEXTSPLIT requires 2 or 3 arguments")
	}
	text, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("TEXTSPLIT text must be a string")
	}
	colDelim, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("TEXTSPLIT column delimiter must be a string")
	}
	rowDelim := ""
	if len(args) == 3 {
		rowDelim, _ = args[2].(string)
	}
	var lines []string
	if rowDelim != "" {
		lines = strings.Split(text, rowDelim)
	} else {
		lines = []string{text}
	}
	result := make([][]interface{}, len(lines))
	for i, line := range lines {
		parts := strings.Split(line, colDelim)
		row := make([]interface{}, len(parts))
		for j, p := range parts {
			row[j] = p
		}
		result[i] = row
	}
	return result, nil
}

// fnGeoMean implements GEOMEAN, the nth root of the product of n positive
// values.
func fnGeoMean(args ...interface{}) (interface{}, error) {
	nums := flattenNumbers(args...)
	if len(nums) == 0 {
		return nil, fmt.Errorf("GEOMEAN requires at least one value")
	}
	product := 1.0
	for _, n := range nums {
		if n <= 0 {
			return nil, fmt.Errorf("GEOMEAN requires strictly positive values")
		}
		product *= n
	}
	return math.Pow(product, 1/float64(len(nums))), nil
}

// fnDec2Bin implements DEC2BIN(number[, places]) over Excel's signed
// 10-bit range (-512..511), matching its two's-complement negative
// encoding.
func fnDec2Bin(args ...interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("DEC2BIN requires 1 or 2 arguments")
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("DEC2BIN requires a numeric argument")
	}
	v := int64(n)
	if v < -512 || v > 511 {
		return nil, fmt.Errorf("DEC2BIN number out of range")
	}
	var bin string
	if v < 0 {
		bin = strconv.FormatUint(uint64(1024+v), 2)
	} else {
		bin = strconv.FormatInt(v, 2)
	}
	return padNumberString(bin, args, 1)
}

// fnDec2Hex implements DEC2HEX(number[, places]).
func fnDec2Hex(args ...interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("DEC2HEX requires 1 or 2 arguments")
	}
	n, ok := toNumber(args[0])
	if !ok {
		return nil, fmt.Errorf("DEC2HEX requires a numeric argument")
	}
	v := int64(n)
	hex := strings.ToUpper(strconv.FormatInt(v, 16))
	return padNumberString(hex, args, 1)
}

func padNumberString(s string, args []interface{}, placesArgIndex int) (interface{}, error) {
	if len(args) <= placesArgIndex {
		return s, nil
	}
	places, ok := toNumber(args[placesArgIndex])
	if !ok {
		return nil, fmt.Errorf("places argument must be numeric")
	}
	p := int(places)
	for len(s) < p {
		s = "0" + s
	}
	return s, nil
}

// fnBin2Dec implements BIN2DEC(binary).
func fnBin2Dec(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("BIN2DEC requires a string argument")
	}
	v, err := strconv.ParseInt(s, 2, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid binary number %q", s)
	}
	return float64(v), nil
}

// fnHex2Dec implements HEX2DEC(hex).
func fnHex2Dec(args ...interface{}) (interface{}, error) {
	if err := requireArgs(args, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("HEX2DEC requires a string argument")
	}
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid hex number %q", s)
	}
	return float64(v), nil
}
