package chtype

import (
	"strconv"
	"strings"

	"github.com/nativedb/chclient/errs"
)

// Format renders t back to its canonical type string. Format is the
// named inverse of Parse; Format(t) == t.String() always.
func Format(t ServerType) string {
	return t.String()
}

// Parse parses a type string per the grammar in SPEC_FULL §4.3:
// Name | Name(Args), recursive descent, whitespace-insensitive inside
// parameter lists. Format(Parse(s)) == s for every valid s (§8 law 1).
func Parse(s string) (ServerType, error) {
	p := &parser{s: s}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, errs.MalformedFramef("chtype.Parse", "unexpected trailing input at offset %d", p.pos)
	}

	return t, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.s) {
		return 0, false
	}

	return p.s[p.pos], true
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	b, ok := p.peek()
	if !ok || b != c {
		return errs.MalformedFramef("chtype.parser", "expected %q at offset %d", c, p.pos)
	}
	p.pos++

	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *parser) parseIdent() (string, error) {
	p.skipSpace()
	start := p.pos
	if p.pos >= len(p.s) || !isIdentStart(p.s[p.pos]) {
		return "", errs.MalformedFramef("chtype.parser", "expected identifier at offset %d", p.pos)
	}
	p.pos++
	for p.pos < len(p.s) && isIdentCont(p.s[p.pos]) {
		p.pos++
	}

	return p.s[start:p.pos], nil
}

func (p *parser) parseInt() (int, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.s) && p.s[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, errs.MalformedFramef("chtype.parser", "expected integer at offset %d", p.pos)
	}

	n, err := strconv.Atoi(p.s[start:p.pos])
	if err != nil {
		return 0, errs.MalformedFramef("chtype.parser", "invalid integer %q: %v", p.s[start:p.pos], err)
	}

	return n, nil
}

// parseQuoted parses a single-quoted string with \\ and \' escapes.
func (p *parser) parseQuoted() (string, error) {
	if err := p.expect('\''); err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		if p.pos >= len(p.s) {
			return "", errs.MalformedFramef("chtype.parser", "unterminated quoted string")
		}
		c := p.s[p.pos]
		if c == '\'' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' && p.pos+1 < len(p.s) {
			next := p.s[p.pos+1]
			if next == '\\' || next == '\'' {
				b.WriteByte(next)
				p.pos += 2
				continue
			}
		}
		b.WriteByte(c)
		p.pos++
	}
}

func escapeEnumName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '\\' || c == '\'' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// parseType parses one type expression: an identifier, optionally
// followed by a parenthesized argument list whose shape depends on
// the identifier.
func (p *parser) parseType() (ServerType, error) {
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	hasArgs := false
	if b, ok := p.peek(); ok && b == '(' {
		hasArgs = true
	}

	switch name {
	case "FixedString":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "FixedString requires an argument")
		}
		return p.parseFixedString()
	case "Decimal":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Decimal requires arguments")
		}
		return p.parseDecimal()
	case "DateTime":
		if !hasArgs {
			return DateTime{}, nil
		}
		return p.parseDateTime()
	case "DateTime64":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "DateTime64 requires a precision argument")
		}
		return p.parseDateTime64()
	case "Enum8":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Enum8 requires pairs")
		}
		return p.parseEnum(8)
	case "Enum16":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Enum16 requires pairs")
		}
		return p.parseEnum(16)
	case "Array":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Array requires an inner type")
		}
		return p.parseArray()
	case "Tuple":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Tuple requires fields")
		}
		return p.parseTuple()
	case "Map":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Map requires key and value types")
		}
		return p.parseMap()
	case "Nullable":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Nullable requires an inner type")
		}
		return p.parseNullable()
	case "LowCardinality":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "LowCardinality requires an inner type")
		}
		return p.parseLowCardinality()
	case "Variant":
		if !hasArgs {
			return nil, errs.MalformedFramef("chtype.Parse", "Variant requires alternatives")
		}
		return p.parseVariant()
	}

	if hasArgs {
		return nil, errs.MalformedFramef("chtype.Parse", "%s does not take arguments", name)
	}

	t, ok := simpleByName[name]
	if !ok {
		return nil, errs.MalformedFramef("chtype.Parse", "unknown type name %q", name)
	}

	return t, nil
}

func (p *parser) parseFixedString() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	n, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return NewFixedString(n)
}

func (p *parser) parseDecimal() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	precision, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	scale, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return NewDecimal(precision, scale)
}

func (p *parser) parseDateTime() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	tz, err := p.parseQuoted()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return DateTime{TZ: tz}, nil
}

func (p *parser) parseDateTime64() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	precision, err := p.parseInt()
	if err != nil {
		return nil, err
	}

	var tz string
	p.skipSpace()
	if b, ok := p.peek(); ok && b == ',' {
		p.pos++
		tz, err = p.parseQuoted()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return NewDateTime64(precision, tz)
}

func (p *parser) parseEnum(width int) (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	var pairs []EnumPair
	for {
		name, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		code, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, EnumPair{Name: name, Code: int32(code)})

		p.skipSpace()
		b, ok := p.peek()
		if ok && b == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	if width == 8 {
		return NewEnum8(pairs)
	}

	return NewEnum16(pairs)
}

func (p *parser) parseArray() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return Array{Inner: inner}, nil
}

func (p *parser) parseTuple() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	var fields []ServerType
	for {
		f, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)

		p.skipSpace()
		b, ok := p.peek()
		if ok && b == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return Tuple{Fields: fields}, nil
}

func (p *parser) parseMap() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	key, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	value, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return Map{Key: key, Value: value}, nil
}

func (p *parser) parseNullable() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return NewNullable(inner)
}

func (p *parser) parseLowCardinality() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return NewLowCardinality(inner)
}

func (p *parser) parseVariant() (ServerType, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}

	var alts []ServerType
	for {
		a, err := p.parseType()
		if err != nil {
			return nil, err
		}
		alts = append(alts, a)

		p.skipSpace()
		b, ok := p.peek()
		if ok && b == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return Variant{Alts: alts}, nil
}
