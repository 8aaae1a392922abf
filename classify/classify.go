// Package classify assigns a document type to a segmented document.
//
// Classification is a pure function of the document's bounding barcode value
// and its concatenated OCR text. Rules are evaluated in table order and the
// first match wins: barcode substring rules take priority over OCR keyword
// rules, so a recognized separator always beats whatever the scanned pages
// happen to say.
package classify

import "strings"

// DocumentType is the closed set of types a split document can carry.
type DocumentType string

const (
	TypeIdentityDocument DocumentType = "identity-document"
	TypeCertificate      DocumentType = "certificate"
	TypeVotingRecord     DocumentType = "voting-record"
	TypePayrollStatement DocumentType = "payroll-statement"
	TypeUtilityStatement DocumentType = "utility-statement"
	TypeBankCertificate  DocumentType = "bank-certificate"
	TypeUnknown          DocumentType = "unknown"
)

// Types lists every assignable type, unknown last.
func Types() []DocumentType {
	return []DocumentType{
		TypeIdentityDocument,
		TypeCertificate,
		TypeVotingRecord,
		TypePayrollStatement,
		TypeUtilityStatement,
		TypeBankCertificate,
		TypeUnknown,
	}
}

// Rule maps barcode substrings and OCR keywords to one document type.
// Table order is significant and preserved exactly as configured.
type Rule struct {
	Type     DocumentType `yaml:"type"`
	Patterns []string     `yaml:"patterns,omitempty"` // matched against the barcode value
	Keywords []string     `yaml:"keywords,omitempty"` // matched against OCR text
}

// DefaultRules returns the built-in rule table for Ecuadorian loan bundles.
// CERT must stay ahead of CUENTA so plain certificates don't fall through
// to bank-certificate.
func DefaultRules() []Rule {
	return []Rule{
		{
			Type:     TypeIdentityDocument,
			Patterns: []string{"CEDULA", "CED"},
			Keywords: []string{"CEDULA", "IDENTIDAD", "REGISTRO CIVIL"},
		},
		{
			Type:     TypeCertificate,
			Patterns: []string{"CERTIFICADO", "CERT"},
			Keywords: []string{"CERTIFICADO", "CERTIFICA"},
		},
		{
			Type:     TypeVotingRecord,
			Patterns: []string{"PAPELETA", "VOTACION"},
			Keywords: []string{"PAPELETA", "VOTACION", "ELECTORAL"},
		},
		{
			Type:     TypePayrollStatement,
			Patterns: []string{"MECANIZADO", "MEC"},
			Keywords: []string{"MECANIZADO", "IESS"},
		},
		{
			Type:     TypeUtilityStatement,
			Patterns: []string{"PLANILLA", "SERVICIOS"},
			Keywords: []string{"PLANILLA", "SERVICIOS", "LUZ", "AGUA"},
		},
		{
			Type:     TypeBankCertificate,
			Patterns: []string{"CUENTA"},
			Keywords: []string{"CUENTA", "BANCARIO", "BANCO"},
		},
	}
}

// Classifier evaluates a fixed rule table.
type Classifier struct {
	rules []Rule
}

// New creates a Classifier. A nil or empty rule set falls back to DefaultRules.
func New(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify resolves a document type from the bounding barcode value (may be
// empty) and the document's concatenated OCR text. Barcode rules are checked
// first across the whole table; only if no barcode rule matches is the OCR
// text consulted.
func (c *Classifier) Classify(barcodeValue, ocrText string) DocumentType {
	if barcodeValue != "" {
		upper := strings.ToUpper(barcodeValue)
		for _, r := range c.rules {
			for _, p := range r.Patterns {
				if p != "" && strings.Contains(upper, strings.ToUpper(p)) {
					return r.Type
				}
			}
		}
	}

	if ocrText != "" {
		upper := strings.ToUpper(ocrText)
		for _, r := range c.rules {
			for _, k := range r.Keywords {
				if k != "" && strings.Contains(upper, strings.ToUpper(k)) {
					return r.Type
				}
			}
		}
	}

	return TypeUnknown
}
