package funcs

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/eval"
	"github.com/fhirpath-engine/gofhirpath/pkg/fhirpath/types"
)

func init() {
	// Register string functions
	Register(FuncDef{
		Name:    "startsWith",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnStartsWith,
	})

	Register(FuncDef{
		Name:    "endsWith",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnEndsWith,
	})

	Register(FuncDef{
		Name:    "contains",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnContains,
	})

	Register(FuncDef{
		Name:    "replace",
		MinArgs: 2,
		MaxArgs: 2,
		Fn:      fnReplace,
	})

	Register(FuncDef{
		Name:    "matches",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnMatches,
	})

	Register(FuncDef{
		Name:    "replaceMatches",
		MinArgs: 2,
		MaxArgs: 2,
		Fn:      fnReplaceMatches,
	})

	Register(FuncDef{
		Name:    "indexOf",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnIndexOf,
	})

	Register(FuncDef{
		Name:    "substring",
		MinArgs: 1,
		MaxArgs: 2,
		Fn:      fnSubstring,
	})

	Register(FuncDef{
		Name:    "lower",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnLower,
	})

	Register(FuncDef{
		Name:    "upper",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnUpper,
	})

	Register(FuncDef{
		Name:    "toChars",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnToChars,
	})

	Register(FuncDef{
		Name:    "split",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnSplit,
	})

	Register(FuncDef{
		Name:    "join",
		MinArgs: 0,
		MaxArgs: 1,
		Fn:      fnJoin,
	})

	Register(FuncDef{
		Name:    "trim",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnTrim,
	})

	Register(FuncDef{
		Name:    "length",
		MinArgs: 0,
		MaxArgs: 0,
		Fn:      fnLength,
	})

	Register(FuncDef{
		Name:    "lastIndexOf",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnLastIndexOf,
	})

	Register(FuncDef{
		Name:    "encode",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnEncode,
	})

	Register(FuncDef{
		Name:    "decode",
		MinArgs: 1,
		MaxArgs: 1,
		Fn:      fnDecode,
	})
}

// fnStartsWith returns true if the string starts with the given prefix.
func fnStartsWith(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	prefix, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	return types.Of(types.NewBoolean(strings.HasPrefix(str, prefix))), nil
}

// fnEndsWith returns true if the string ends with the given suffix.
func fnEndsWith(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	suffix, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	return types.Of(types.NewBoolean(strings.HasSuffix(str, suffix))), nil
}

// fnContains returns true if the string contains the given substring.
func fnContains(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	substr, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	return types.Of(types.NewBoolean(strings.Contains(str, substr))), nil
}

// fnReplace replaces all occurrences of pattern with substitution.
func fnReplace(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	pattern, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	substitution, ok := toStringArg(args[1])
	if !ok {
		return types.Empty(), nil
	}

	result := strings.ReplaceAll(str, pattern, substitution)
	return types.Of(types.NewString(result)), nil
}

// fnMatches returns true if the string matches the regex pattern.
// Uses cached regex compilation with ReDoS protection.
func fnMatches(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	pattern, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	// Use regex cache with timeout protection
	matched, err := DefaultRegexCache.MatchWithTimeout(ctx.Context(), pattern, str)
	if err != nil {
		return types.Empty(), err
	}

	return types.Of(types.NewBoolean(matched)), nil
}

// fnReplaceMatches replaces regex matches with substitution.
// Uses cached regex compilation with ReDoS protection.
func fnReplaceMatches(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	pattern, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	substitution, ok := toStringArg(args[1])
	if !ok {
		return types.Empty(), nil
	}

	// Use regex cache with timeout protection
	result, err := DefaultRegexCache.ReplaceWithTimeout(ctx.Context(), pattern, str, substitution)
	if err != nil {
		return types.Empty(), err
	}

	return types.Of(types.NewString(result)), nil
}

// fnIndexOf returns the index of the first occurrence of substring.
func fnIndexOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	substr, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	idx := strings.Index(str, substr)
	return types.Of(types.NewInteger(int64(idx))), nil
}

// fnSubstring returns a substring starting at the given index.
func fnSubstring(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	start, err := toInteger(args[0])
	if err != nil {
		return types.Empty(), err
	}

	if start < 0 || int(start) >= len(str) {
		return types.Empty(), nil
	}

	// Optional length parameter
	if len(args) > 1 {
		length, err := toInteger(args[1])
		if err != nil {
			return types.Empty(), err
		}
		end := int(start + length)
		if end > len(str) {
			end = len(str)
		}
		return types.Of(types.NewString(str[start:end])), nil
	}

	return types.Of(types.NewString(str[start:])), nil
}

// fnLower converts string to lowercase.
func fnLower(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	return types.Of(types.NewString(strings.ToLower(str))), nil
}

// fnUpper converts string to uppercase.
func fnUpper(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	return types.Of(types.NewString(strings.ToUpper(str))), nil
}

// fnToChars converts string to a collection of single characters.
func fnToChars(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	items := make([]types.Value, 0, len(str))
	for _, ch := range str {
		items = append(items, types.NewString(string(ch)))
	}

	return types.FromSlice(items, true), nil
}

// fnSplit splits a string by the given separator.
func fnSplit(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	separator, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	parts := strings.Split(str, separator)
	items := make([]types.Value, 0, len(parts))
	for _, part := range parts {
		items = append(items, types.NewString(part))
	}

	return types.FromSlice(items, true), nil
}

// fnJoin joins a collection of strings with an optional separator.
func fnJoin(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Of(types.NewString("")), nil
	}

	separator := ""
	if len(args) > 0 {
		if sep, ok := toStringArg(args[0]); ok {
			separator = sep
		}
	}

	parts := make([]string, 0, input.Count())
	for _, item := range input.Items {
		if s, ok := item.(types.String); ok {
			parts = append(parts, s.Value())
		} else {
			parts = append(parts, item.String())
		}
	}

	return types.Of(types.NewString(strings.Join(parts, separator))), nil
}

// fnTrim removes leading and trailing whitespace.
func fnTrim(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	return types.Of(types.NewString(strings.TrimSpace(str))), nil
}

// fnLength returns the length of the string.
func fnLength(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	return types.Of(types.NewInteger(int64(len(str)))), nil
}

// fnLastIndexOf returns the index of the last occurrence of substring.
func fnLastIndexOf(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	substr, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	idx := strings.LastIndex(str, substr)
	return types.Of(types.NewInteger(int64(idx))), nil
}

// fnEncode encodes the string using the given algorithm (hex, base64, urlbase64).
func fnEncode(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	algo, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	switch algo {
	case "hex":
		return types.Of(types.NewString(hex.EncodeToString([]byte(str)))), nil
	case "base64":
		return types.Of(types.NewString(base64.StdEncoding.EncodeToString([]byte(str)))), nil
	case "urlbase64":
		return types.Of(types.NewString(base64.URLEncoding.EncodeToString([]byte(str)))), nil
	default:
		return types.Empty(), nil
	}
}

// fnDecode decodes the string using the given algorithm (hex, base64, urlbase64).
func fnDecode(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Empty(), nil
	}

	str, ok := toString(input)
	if !ok {
		return types.Empty(), nil
	}

	algo, ok := toStringArg(args[0])
	if !ok {
		return types.Empty(), nil
	}

	var decoded []byte
	var err error
	switch algo {
	case "hex":
		decoded, err = hex.DecodeString(str)
	case "base64":
		decoded, err = base64.StdEncoding.DecodeString(str)
	case "urlbase64":
		decoded, err = base64.URLEncoding.DecodeString(str)
	default:
		return types.Empty(), nil
	}
	if err != nil {
		return types.Empty(), nil
	}

	return types.Of(types.NewString(string(decoded))), nil
}

// Helper functions

// toString extracts a string from a collection's first element.
func toString(col types.Collection) (string, bool) {
	if col.Empty() {
		return "", false
	}
	if s, ok := col.Items[0].(types.String); ok {
		return s.Value(), true
	}
	return col.Items[0].String(), true
}

// toStringArg extracts a string from an argument.
func toStringArg(arg interface{}) (string, bool) {
	switch v := arg.(type) {
	case types.Collection:
		return toString(v)
	case types.String:
		return v.Value(), true
	case string:
		return v, true
	default:
		return "", false
	}
}
