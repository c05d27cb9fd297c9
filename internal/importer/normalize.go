package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"voltshop_back_end/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// milliers séparés par une seule espace ("10 000"), ou chiffres collés ("20000")
	capacityPattern = regexp.MustCompile(`(\d{1,3}(?:[\s\x{00A0}]\d{3})+|\d+)(?:[.,](\d+))?(?:\D|$)`)
	lengthPattern   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	spacePattern    = regexp.MustCompile(`[\s\x{00A0}]+`)
	titleCaser      = cases.Title(language.Ukrainian)
)

// NormalizeCapacity : "10 000 мАг" -> "10000", "" si aucun nombre
func NormalizeCapacity(raw string) string {
	m := capacityPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	number := spacePattern.ReplaceAllString(m[1], "")
	if m[2] != "" {
		number += "." + m[2]
	}
	f, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return ""
	}
	return strconv.Itoa(int(math.Round(f)))
}

// NormalizeCableLength retourne des mètres décimaux, "100 см" -> "1"
func NormalizeCableLength(raw string) string {
	match := lengthPattern.FindString(raw)
	if match == "" {
		return ""
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", "."))
	if err != nil {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "см") || strings.Contains(lower, "cm") {
		d = d.Div(decimal.NewFromInt(100))
	}
	return d.String()
}

// connectorAliases : l'ordre compte, micro/mini avant le USB générique
var connectorAliases = []struct {
	canonical string
	patterns  []string
}{
	{"Type-C", []string{"type-c", "type c", "typec", "usb-c", "usb c", "usb type-c"}},
	{"Lightning", []string{"lightning", "apple"}},
	{"Micro-USB", []string{"micro-usb", "micro usb", "microusb", "micro"}},
	{"Mini-USB", []string{"mini-usb", "mini usb", "miniusb", "mini"}},
	{"USB-A", []string{"usb-a", "usb a", "usb type-a", "usb"}},
}

func normalizeConnector(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	for _, alias := range connectorAliases {
		for _, p := range alias.patterns {
			if strings.Contains(lower, p) {
				return alias.canonical
			}
		}
	}
	return titleCaser.String(lower)
}

// NormalizeConnectors traite chaque valeur d'une liste "USB-A, Type-C" et dédoublonne
func NormalizeConnectors(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' || r == '/' })
	var out []string
	seen := make(map[string]bool)
	for _, part := range parts {
		c := normalizeConnector(part)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return strings.Join(out, ", ")
}

type paramKind int

const (
	paramOther paramKind = iota
	paramCapacity
	paramLength
	paramInput
	paramOutput
)

func classifyParam(name string) paramKind {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(n, "ємність"), strings.Contains(n, "емкость"), strings.Contains(n, "capacity"):
		return paramCapacity
	case strings.Contains(n, "довжина"), strings.Contains(n, "длина"), strings.Contains(n, "length"):
		return paramLength
	case strings.Contains(n, "вхід"), strings.Contains(n, "вхідн"), strings.Contains(n, "вход"), strings.Contains(n, "input"):
		return paramInput
	case strings.Contains(n, "вихід"), strings.Contains(n, "вихідн"), strings.Contains(n, "выход"), strings.Contains(n, "output"),
		strings.Contains(n, "роз'єм"), strings.Contains(n, "разъем"), strings.Contains(n, "connector"):
		return paramOutput
	}
	return paramOther
}

// normalizeCharacteristics range les paramètres du flux sous les clés localisées
func normalizeCharacteristics(params []ymlParam) map[string]string {
	chars := make(map[string]string)
	for _, p := range params {
		name := strings.TrimSpace(p.Name)
		value := strings.TrimSpace(p.Value)
		if name == "" || value == "" {
			continue
		}
		withUnit := value
		if p.Unit != "" {
			withUnit = value + " " + p.Unit
		}
		switch classifyParam(name) {
		case paramCapacity:
			if v := NormalizeCapacity(value); v != "" {
				chars[models.CharCapacity] = v
			}
		case paramLength:
			if v := NormalizeCableLength(withUnit); v != "" {
				chars[models.CharCableLength] = v
			}
		case paramInput:
			if v := NormalizeConnectors(value); v != "" {
				chars[models.CharInputConnector] = v
			}
		case paramOutput:
			if _, set := chars[models.CharOutputConnector]; !set {
				if v := NormalizeConnectors(value); v != "" {
					chars[models.CharOutputConnector] = v
				}
			}
		default:
			chars[name] = withUnit
		}
	}
	return chars
}
