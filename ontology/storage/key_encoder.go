package storage

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"

	"github.com/wbrown/janus-ontology/ontology"
)

// IndexType represents the different index types
type IndexType byte

const (
	SPO IndexType = iota + 1 // Subject-Predicate-Object
	POS                      // Predicate-Object-Subject
	OSP                      // Object-Subject-Predicate
)

// String returns the string representation of the index type
func (i IndexType) String() string {
	switch i {
	case SPO:
		return "SPO"
	case POS:
		return "POS"
	case OSP:
		return "OSP"
	default:
		return fmt.Sprintf("IndexType(%d)", byte(i))
	}
}

// Indices lists every index a triple is written to
var Indices = [...]IndexType{SPO, POS, OSP}

// hashSize is the width of one term component inside a key
const hashSize = sha1.Size

// keySize is index byte plus three term hashes
const keySize = 1 + 3*hashSize

// termHash returns a fixed-size digest of a term. Hashing keeps keys well
// under badger's key size limit however long the literal is, and makes
// every prefix scan an exact match on the bound positions.
func termHash(t ontology.Term) [hashSize]byte {
	return sha1.Sum(appendTerm(nil, t))
}

// order returns the triple components in the index's key order
func order(idx IndexType, t ontology.Triple) [3]ontology.Term {
	switch idx {
	case POS:
		return [3]ontology.Term{t.Predicate, t.Object, t.Subject}
	case OSP:
		return [3]ontology.Term{t.Object, t.Subject, t.Predicate}
	default:
		return [3]ontology.Term{t.Subject, t.Predicate, t.Object}
	}
}

// EncodeKey encodes the full key of a triple in the given index
func EncodeKey(idx IndexType, t ontology.Triple) []byte {
	parts := order(idx, t)
	return EncodePrefix(idx, parts[:]...)
}

// EncodePrefix encodes a key prefix from the leading components of an index
func EncodePrefix(idx IndexType, parts ...ontology.Term) []byte {
	key := make([]byte, 0, keySize)
	key = append(key, byte(idx))
	for _, p := range parts {
		h := termHash(p)
		key = append(key, h[:]...)
	}
	return key
}

// ChooseIndex picks the index and the ordered prefix terms for a lookup.
// nil positions are unbound.
func ChooseIndex(s, p, o ontology.Term) (IndexType, []ontology.Term) {
	switch {
	case s != nil && p != nil && o != nil:
		return SPO, []ontology.Term{s, p, o}
	case s != nil && p != nil:
		return SPO, []ontology.Term{s, p}
	case s != nil && o != nil:
		return OSP, []ontology.Term{o, s}
	case s != nil:
		return SPO, []ontology.Term{s}
	case p != nil && o != nil:
		return POS, []ontology.Term{p, o}
	case p != nil:
		return POS, []ontology.Term{p}
	case o != nil:
		return OSP, []ontology.Term{o}
	default:
		return SPO, nil
	}
}

// appendTerm writes a term as kind byte followed by length-prefixed fields
func appendTerm(buf []byte, t ontology.Term) []byte {
	buf = append(buf, byte(t.Kind()))
	buf = appendString(buf, t.Value())
	if l, ok := t.(ontology.Literal); ok {
		buf = appendString(buf, l.Lang)
		buf = appendString(buf, string(l.Datatype))
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// EncodeTriple serializes a triple for storage as an index value
func EncodeTriple(t ontology.Triple) []byte {
	buf := make([]byte, 0, 64)
	buf = appendTerm(buf, t.Subject)
	buf = appendTerm(buf, t.Predicate)
	buf = appendTerm(buf, t.Object)
	return buf
}

// DecodeTriple is the inverse of EncodeTriple
func DecodeTriple(data []byte) (ontology.Triple, error) {
	d := decoder{data: data}
	s := d.term()
	p := d.term()
	o := d.term()
	if d.err != nil {
		return ontology.Triple{}, d.err
	}
	if len(d.data) != 0 {
		return ontology.Triple{}, fmt.Errorf("decode triple: %d trailing bytes", len(d.data))
	}
	pred, ok := p.(ontology.IRI)
	if !ok {
		return ontology.Triple{}, fmt.Errorf("decode triple: predicate is a %s", p.Kind())
	}
	return ontology.Triple{Subject: s, Predicate: pred, Object: o}, nil
}

type decoder struct {
	data []byte
	err  error
}

func (d *decoder) field() string {
	if d.err != nil {
		return ""
	}
	n, w := binary.Uvarint(d.data)
	if w <= 0 || uint64(len(d.data)-w) < n {
		d.err = fmt.Errorf("decode triple: truncated field")
		return ""
	}
	s := string(d.data[w : w+int(n)])
	d.data = d.data[w+int(n):]
	return s
}

func (d *decoder) term() ontology.Term {
	if d.err != nil {
		return nil
	}
	if len(d.data) == 0 {
		d.err = fmt.Errorf("decode triple: missing term")
		return nil
	}
	kind := ontology.TermKind(d.data[0])
	d.data = d.data[1:]
	switch kind {
	case ontology.KindIRI:
		return ontology.IRI(d.field())
	case ontology.KindBlank:
		return ontology.Blank(d.field())
	case ontology.KindLiteral:
		text := d.field()
		lang := d.field()
		dt := d.field()
		return ontology.Literal{Text: text, Lang: lang, Datatype: ontology.IRI(dt)}
	default:
		d.err = fmt.Errorf("decode triple: unknown term kind %q", byte(kind))
		return nil
	}
}
