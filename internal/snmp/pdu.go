package snmp

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gosnmp/gosnmp"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// TypeName returns the display name of a PDU type
func TypeName(t gosnmp.Asn1BER) string {
	switch t {
	case gosnmp.EndOfContents:
		return "EndOfContents/UnknownType"
	case gosnmp.Boolean:
		return "Boolean"
	case gosnmp.Integer:
		return "Integer"
	case gosnmp.BitString:
		return "BitString"
	case gosnmp.OctetString:
		return "OctetString"
	case gosnmp.Null:
		return "Null"
	case gosnmp.ObjectIdentifier:
		return "ObjectIdentifier"
	case gosnmp.ObjectDescription:
		return "ObjectDescription"
	case gosnmp.IPAddress:
		return "IPAddress"
	case gosnmp.Counter32:
		return "Counter32"
	case gosnmp.Gauge32:
		return "Gauge32"
	case gosnmp.TimeTicks:
		return "TimeTicks"
	case gosnmp.Opaque:
		return "Opaque"
	case gosnmp.NsapAddress:
		return "NsapAddress"
	case gosnmp.Counter64:
		return "Counter64"
	case gosnmp.Uinteger32:
		return "Uinteger32"
	case gosnmp.OpaqueFloat:
		return "OpaqueFloat"
	case gosnmp.OpaqueDouble:
		return "OpaqueDouble"
	case gosnmp.NoSuchObject:
		return "NoSuchObject"
	case gosnmp.NoSuchInstance:
		return "NoSuchInstance"
	case gosnmp.EndOfMibView:
		return "EndOfMibView"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(t))
	}
}

// RenderValue formats a PDU value for the result table
func RenderValue(pdu gosnmp.SnmpPDU) string {
	switch pdu.Type {
	case gosnmp.OctetString, gosnmp.BitString, gosnmp.Opaque, gosnmp.ObjectDescription:
		b, ok := pdu.Value.([]byte)
		if !ok {
			return fmt.Sprint(pdu.Value)
		}
		if printable(b) {
			return string(b)
		}
		return "0x" + strings.ToUpper(hex.EncodeToString(b))
	case gosnmp.ObjectIdentifier, gosnmp.IPAddress:
		s, _ := pdu.Value.(string)
		return strings.TrimPrefix(s, ".")
	case gosnmp.Null, gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.EndOfContents:
		return ""
	case gosnmp.OpaqueFloat, gosnmp.OpaqueDouble:
		return fmt.Sprint(pdu.Value)
	case gosnmp.Boolean:
		return fmt.Sprint(pdu.Value)
	default:
		if pdu.Value == nil {
			return ""
		}
		return gosnmp.ToBigInt(pdu.Value).String()
	}
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// ToRow converts one variable binding into a result row
func ToRow(pdu gosnmp.SnmpPDU, at time.Time) (models.ResultRow, error) {
	return models.NewResultRow(at, pdu.Name, "", TypeName(pdu.Type), RenderValue(pdu))
}

// SetTypes lists the value types accepted by Set, in form order
var SetTypes = []string{
	"OctetString", "Integer", "Counter32", "Gauge32", "TimeTicks", "Uinteger32",
	"Counter64", "ObjectIdentifier", "IPAddress", "OpaqueFloat", "OpaqueDouble", "Null",
}

// ParseSetValue builds a PDU for Set from a type name and its text value
func ParseSetValue(oid, typ, value string) (gosnmp.SnmpPDU, error) {
	pdu := gosnmp.SnmpPDU{Name: oid}

	var err error
	switch typ {
	case "OctetString":
		pdu.Type = gosnmp.OctetString
		pdu.Value = value
	case "Integer":
		pdu.Type = gosnmp.Integer
		pdu.Value, err = strconv.Atoi(strings.TrimSpace(value))
	case "Counter32", "Gauge32", "TimeTicks", "Uinteger32":
		pdu.Type = map[string]gosnmp.Asn1BER{
			"Counter32":  gosnmp.Counter32,
			"Gauge32":    gosnmp.Gauge32,
			"TimeTicks":  gosnmp.TimeTicks,
			"Uinteger32": gosnmp.Uinteger32,
		}[typ]
		var n uint64
		n, err = strconv.ParseUint(strings.TrimSpace(value), 10, 32)
		pdu.Value = uint32(n)
	case "Counter64":
		pdu.Type = gosnmp.Counter64
		pdu.Value, err = strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	case "ObjectIdentifier":
		pdu.Type = gosnmp.ObjectIdentifier
		var norm string
		norm, err = models.NormalizeOID(value)
		pdu.Value = "." + norm
	case "IPAddress":
		pdu.Type = gosnmp.IPAddress
		pdu.Value = strings.TrimSpace(value)
	case "OpaqueFloat":
		pdu.Type = gosnmp.OpaqueFloat
		var f float64
		f, err = strconv.ParseFloat(strings.TrimSpace(value), 32)
		pdu.Value = float32(f)
	case "OpaqueDouble":
		pdu.Type = gosnmp.OpaqueDouble
		pdu.Value, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
	case "Null":
		pdu.Type = gosnmp.Null
	default:
		return gosnmp.SnmpPDU{}, models.NewValidationError("type", fmt.Sprintf("unsupported set type %q", typ))
	}
	if err != nil {
		return gosnmp.SnmpPDU{}, models.NewValidationError("value", fmt.Sprintf("%q is not a valid %s", value, typ))
	}
	return pdu, nil
}
