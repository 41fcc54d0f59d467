package builtins

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/lumenforge/lumen/values"
)

// registerFormatFunctions wires spec section 4.9's Formatting bullet:
// format(template, args...) with {} placeholders and a format-spec
// mini-language, grounded on the teacher's runtime/string.go sprintf
// family (generalized from PHP's vsprintf conversion letters to this
// spec's {}-placeholder grammar) and on dustin/go-humanize for the
// `,` thousands-separator flag (SPEC_FULL.md section B).
func (r *Registry) registerFormatFunctions() {
	r.def("format", biFormat)
}

// formatSpec is one parsed {...} placeholder body, e.g. "{:>8.2f}".
type formatSpec struct {
	fill     rune
	align    byte // 0, '<', '>', '^'
	sign     bool
	comma    bool
	zeroPad  int
	width    int
	hasWidth bool
	prec     int
	hasPrec  bool
	radix    byte // 0, 'x', 'o', 'b'
}

func biFormat(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) < 1 {
		return values.Value{}, argErr("format", 1, len(args))
	}
	template, err := r.str("format", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	rest := args[1:]
	var out strings.Builder
	argIdx := 0
	i := 0
	for i < len(template) {
		c := template[i]
		if c == '{' {
			if i+1 < len(template) && template[i+1] == '{' {
				out.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return values.Value{}, fmt.Errorf("format: unterminated placeholder")
			}
			body := template[i+1 : i+end]
			if argIdx >= len(rest) {
				return values.Value{}, fmt.Errorf("format: not enough arguments for placeholder %d", argIdx)
			}
			rendered, rerr := renderPlaceholder(r, body, rest[argIdx])
			if rerr != nil {
				return values.Value{}, rerr
			}
			out.WriteString(rendered)
			argIdx++
			i += end + 1
			continue
		}
		if c == '}' && i+1 < len(template) && template[i+1] == '}' {
			out.WriteByte('}')
			i += 2
			continue
		}
		out.WriteByte(c)
		i++
	}
	return values.Str(out.String()), nil
}

func renderPlaceholder(r *Registry, body string, v values.Value) (string, error) {
	if body == "" {
		return values.Display(v, r.Strings), nil
	}
	spec := body
	if strings.HasPrefix(spec, ":") {
		spec = spec[1:]
	}
	fs, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}
	return applyFormatSpec(fs, v, r.Strings)
}

func parseFormatSpec(spec string) (formatSpec, error) {
	fs := formatSpec{}
	i := 0
	// optional fill+align: a fill char followed by one of < > ^, or
	// just < > ^ with default space fill.
	if len(spec) >= 2 {
		r := rune(spec[1])
		if r == '<' || r == '>' || r == '^' {
			fs.fill = rune(spec[0])
			fs.align = byte(r)
			i = 2
		}
	}
	if fs.align == 0 && i < len(spec) {
		switch spec[i] {
		case '<', '>', '^':
			fs.fill = ' '
			fs.align = spec[i]
			i++
		}
	}
	if i < len(spec) && spec[i] == '+' {
		fs.sign = true
		i++
	}
	if i < len(spec) && spec[i] == ',' {
		fs.comma = true
		i++
	}
	if i < len(spec) && spec[i] == '0' {
		i++
		start := i
		for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
			i++
		}
		if i > start {
			n, _ := strconv.Atoi(spec[start:i])
			fs.zeroPad = n
		}
	}
	start := i
	for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
		i++
	}
	if i > start {
		n, _ := strconv.Atoi(spec[start:i])
		fs.width = n
		fs.hasWidth = true
	}
	if i < len(spec) && spec[i] == '.' {
		i++
		start = i
		for i < len(spec) && spec[i] >= '0' && spec[i] <= '9' {
			i++
		}
		n, _ := strconv.Atoi(spec[start:i])
		fs.prec = n
		fs.hasPrec = true
		if i < len(spec) && spec[i] == 'f' {
			i++
		}
	}
	if i < len(spec) {
		switch spec[i] {
		case 'x', 'o', 'b':
			fs.radix = spec[i]
			i++
		}
	}
	if i != len(spec) {
		return fs, fmt.Errorf("format: unrecognized format spec %q", spec)
	}
	return fs, nil
}

func applyFormatSpec(fs formatSpec, v values.Value, t *values.StringTable) (string, error) {
	var body string
	switch {
	case fs.radix != 0:
		n, ok := v.AsInt()
		if !ok {
			return "", fmt.Errorf("format: radix flag #%c requires an Int, got %s", fs.radix, v.TypeName())
		}
		var prefix string
		var s string
		switch fs.radix {
		case 'x':
			prefix, s = "0x", strconv.FormatInt(n, 16)
		case 'o':
			prefix, s = "0o", strconv.FormatInt(n, 8)
		case 'b':
			prefix, s = "0b", strconv.FormatInt(n, 2)
		}
		body = prefix + s
	case fs.hasPrec:
		f, ok := v.AsFloat()
		if !ok {
			if n, iok := v.AsInt(); iok {
				f = float64(n)
			} else {
				return "", fmt.Errorf("format: .Nf precision requires a numeric value, got %s", v.TypeName())
			}
		}
		body = strconv.FormatFloat(f, 'f', fs.prec, 64)
		if fs.sign && f >= 0 {
			body = "+" + body
		}
	default:
		if fs.comma {
			if n, ok := v.AsInt(); ok {
				body = humanize.Comma(n)
			} else if f, ok := v.AsFloat(); ok {
				body = humanize.Commaf(f)
			} else {
				return "", fmt.Errorf("format: , flag requires a numeric value, got %s", v.TypeName())
			}
		} else {
			body = values.Display(v, t)
			if fs.sign {
				if n, ok := v.AsInt(); ok && n >= 0 {
					body = "+" + body
				} else if f, ok := v.AsFloat(); ok && f >= 0 {
					body = "+" + body
				}
			}
		}
	}

	if fs.zeroPad > len(body) {
		pad := fs.zeroPad - len(body)
		neg := strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+")
		if neg {
			body = body[:1] + strings.Repeat("0", pad) + body[1:]
		} else {
			body = strings.Repeat("0", pad) + body
		}
	}

	if fs.hasWidth && fs.width > len(body) {
		pad := fs.width - len(body)
		fill := fs.fill
		if fill == 0 {
			fill = ' '
		}
		switch fs.align {
		case '<':
			body = body + strings.Repeat(string(fill), pad)
		case '^':
			left := pad / 2
			right := pad - left
			body = strings.Repeat(string(fill), left) + body + strings.Repeat(string(fill), right)
		default: // '>' or unset defaults to right-align
			body = strings.Repeat(string(fill), pad) + body
		}
	}
	return body, nil
}
