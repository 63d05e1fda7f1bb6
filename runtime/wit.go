package runtime

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-bridge/errors"
)

// FuncDecl is a function declared in WIT text.
type FuncDecl struct {
	Name    string
	Params  []wit.Type
	Results []wit.Type
	// Fallible is set for result-returning functions. Their core form carries
	// a trailing i32 status after Results.
	Fallible bool
}

// CoreParams maps the parameters onto core value types.
func (d *FuncDecl) CoreParams() ([]api.ValueType, error) {
	return coreTypes(d.Params)
}

// CoreResults maps the results onto core value types, including the
// trailing status of fallible functions.
func (d *FuncDecl) CoreResults() ([]api.ValueType, error) {
	out, err := coreTypes(d.Results)
	if err != nil {
		return nil, err
	}
	if d.Fallible {
		out = append(out, api.ValueTypeI32)
	}
	return out, nil
}

// Interface holds the imports and exports declared in WIT text.
type Interface struct {
	Imports map[string]*FuncDecl
	Exports map[string]*FuncDecl
}

var funcPattern = regexp.MustCompile(`(?:(import|export)\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

// ParseInterface extracts function declarations from WIT text.
// Pattern: [import|export] name: func(params) -> result;
// Declarations without a direction are exports.
func ParseInterface(witText string) (*Interface, error) {
	iface := &Interface{
		Imports: make(map[string]*FuncDecl),
		Exports: make(map[string]*FuncDecl),
	}

	matches := funcPattern.FindAllStringSubmatch(witText, -1)
	for _, match := range matches {
		decl, err := parseFuncDecl(match[2], match[3], match[4])
		if err != nil {
			return nil, err
		}
		if match[1] == "import" {
			iface.Imports[decl.Name] = decl
		} else {
			iface.Exports[decl.Name] = decl
		}
	}

	if len(matches) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in WIT text")
	}

	return iface, nil
}

// ParseFuncDecl parses a single "name: func(params) -> result" declaration.
func ParseFuncDecl(decl string) (*FuncDecl, error) {
	match := funcPattern.FindStringSubmatch(decl)
	if match == nil {
		return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("not a function declaration: %q", decl))
	}
	return parseFuncDecl(match[2], match[3], match[4])
}

func parseFuncDecl(name, paramsStr, resultStr string) (*FuncDecl, error) {
	paramsStr = strings.TrimSpace(paramsStr)
	resultStr = strings.TrimSpace(resultStr)

	decl := &FuncDecl{Name: name}

	if paramsStr != "" {
		for _, p := range splitParams(paramsStr) {
			typStr := p
			if idx := strings.LastIndex(p, ":"); idx != -1 {
				typStr = strings.TrimSpace(p[idx+1:])
			}
			t, err := parseWitType(typStr)
			if err != nil {
				return nil, errors.ParseFailed("param type "+typStr, err)
			}
			decl.Params = append(decl.Params, t)
		}
	}

	if isResultType(resultStr) {
		decl.Fallible = true
		okType, err := resultOkType(resultStr)
		if err != nil {
			return nil, err
		}
		if okType != nil {
			decl.Results = []wit.Type{okType}
		}
		return decl, nil
	}

	if resultStr != "" && resultStr != "()" {
		if strings.HasPrefix(resultStr, "(") && strings.HasSuffix(resultStr, ")") {
			inner := strings.TrimPrefix(strings.TrimSuffix(resultStr, ")"), "(")
			for _, part := range splitParams(inner) {
				t, err := parseWitType(part)
				if err != nil {
					return nil, errors.ParseFailed("result type "+part, err)
				}
				decl.Results = append(decl.Results, t)
			}
		} else {
			t, err := parseWitType(resultStr)
			if err != nil {
				return nil, errors.ParseFailed("result type "+resultStr, err)
			}
			decl.Results = []wit.Type{t}
		}
	}

	return decl, nil
}

func isResultType(s string) bool {
	return s == "result" || strings.HasPrefix(s, "result<")
}

// resultOkType returns the ok type of result<T, E>, or nil for result,
// result<_, E> and result<_>.
func resultOkType(s string) (wit.Type, error) {
	if s == "result" {
		return nil, nil
	}
	if !strings.HasSuffix(s, ">") {
		return nil, errors.InvalidInput(errors.PhaseParse, "malformed result type "+s)
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "result<"), ">")
	parts := splitParams(inner)
	if len(parts) == 0 || parts[0] == "_" {
		return nil, nil
	}
	t, err := parseWitType(parts[0])
	if err != nil {
		return nil, errors.ParseFailed("result ok type "+parts[0], err)
	}
	return t, nil
}

// splitParams splits parameter list, handling nested parens and angle brackets.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

func parseWitType(s string) (wit.Type, error) {
	s = strings.TrimSpace(s)
	return wit.ParseType(s)
}

// coreType maps a WIT primitive onto its single core value type.
func coreType(t wit.Type) (api.ValueType, error) {
	switch t.(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char:
		return api.ValueTypeI32, nil
	case wit.U64, wit.S64:
		return api.ValueTypeI64, nil
	case wit.F32:
		return api.ValueTypeF32, nil
	case wit.F64:
		return api.ValueTypeF64, nil
	}
	return 0, errors.Unsupported(errors.PhaseParse, fmt.Sprintf("WIT type %T has no single core value representation", t))
}

func coreTypes(types []wit.Type) ([]api.ValueType, error) {
	if len(types) == 0 {
		return nil, nil
	}
	out := make([]api.ValueType, len(types))
	for i, t := range types {
		vt, err := coreType(t)
		if err != nil {
			return nil, err
		}
		out[i] = vt
	}
	return out, nil
}

// HostFuncFromWIT declares a host function from a WIT signature such as
// "add: func(a: u32, b: u32) -> u32". A result-returning signature yields a
// fallible function.
func HostFuncFromWIT(signature string, impl func(*HostCall) HostResult) (HostFunc, error) {
	decl, err := ParseFuncDecl(signature)
	if err != nil {
		return HostFunc{}, err
	}
	params, err := decl.CoreParams()
	if err != nil {
		return HostFunc{}, err
	}
	results, err := coreTypes(decl.Results)
	if err != nil {
		return HostFunc{}, err
	}

	contract := ContractPure
	if decl.Fallible {
		contract = ContractFallible
	}
	return HostFunc{
		Name:     decl.Name,
		Params:   params,
		Results:  results,
		Contract: contract,
		Impl:     impl,
	}, nil
}
