package chain

import (
	"fmt"
	"strings"
)

type TypeTagKind uint8

// Variant order matches the ledger's TypeTag enum.
const (
	TagBool TypeTagKind = iota
	TagU8
	TagU64
	TagU128
	TagAddress
	TagSigner
	TagVector
	TagStruct
	TagU16
	TagU32
	TagU256
)

var primitiveTags = map[string]TypeTagKind{
	"bool":    TagBool,
	"u8":      TagU8,
	"u16":     TagU16,
	"u32":     TagU32,
	"u64":     TagU64,
	"u128":    TagU128,
	"u256":    TagU256,
	"address": TagAddress,
	"signer":  TagSigner,
}

type TypeTag struct {
	Kind   TypeTagKind
	Elem   *TypeTag
	Struct *StructTag
}

type StructTag struct {
	Address    string
	Module     string
	Name       string
	TypeParams []TypeTag
}

// ParseTypeTag parses a canonical type string such as
// "0x2::coin::Coin<0x2::sui::SUI>" or "vector<u8>".
func ParseTypeTag(s string) (TypeTag, error) {
	p := &typeParser{src: strings.ReplaceAll(s, " ", "")}
	tag, err := p.parse()
	if err != nil {
		return TypeTag{}, fmt.Errorf("parse type %q: %w", s, err)
	}
	if p.pos != len(p.src) {
		return TypeTag{}, fmt.Errorf("parse type %q: trailing input at %d", s, p.pos)
	}
	return tag, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) parse() (TypeTag, error) {
	ident := p.ident()
	if ident == "" {
		return TypeTag{}, fmt.Errorf("expected type at %d", p.pos)
	}
	if kind, ok := primitiveTags[ident]; ok {
		return TypeTag{Kind: kind}, nil
	}
	if ident == "vector" {
		if !p.consume("<") {
			return TypeTag{}, fmt.Errorf("expected '<' after vector")
		}
		elem, err := p.parse()
		if err != nil {
			return TypeTag{}, err
		}
		if !p.consume(">") {
			return TypeTag{}, fmt.Errorf("expected '>' closing vector")
		}
		return TypeTag{Kind: TagVector, Elem: &elem}, nil
	}

	st := &StructTag{Address: ident}
	if !p.consume("::") {
		return TypeTag{}, fmt.Errorf("expected '::' after address %q", ident)
	}
	if st.Module = p.ident(); st.Module == "" {
		return TypeTag{}, fmt.Errorf("expected module name at %d", p.pos)
	}
	if !p.consume("::") {
		return TypeTag{}, fmt.Errorf("expected '::' after module %q", st.Module)
	}
	if st.Name = p.ident(); st.Name == "" {
		return TypeTag{}, fmt.Errorf("expected struct name at %d", p.pos)
	}
	if p.consume("<") {
		for {
			param, err := p.parse()
			if err != nil {
				return TypeTag{}, err
			}
			st.TypeParams = append(st.TypeParams, param)
			if p.consume(",") {
				continue
			}
			if p.consume(">") {
				break
			}
			return TypeTag{}, fmt.Errorf("expected ',' or '>' at %d", p.pos)
		}
	}
	return TypeTag{Kind: TagStruct, Struct: st}, nil
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) consume(tok string) bool {
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}
