package domain

import "strings"

// LicenseClass is the coarse compatibility category of a normalized
// license identifier.
type LicenseClass string

const (
	ClassPermissive     LicenseClass = "permissive"
	ClassCopyleftStrong LicenseClass = "copyleft_strong"
	ClassCopyleftWeak   LicenseClass = "copyleft_weak"
	ClassUnknown        LicenseClass = "unknown"
)

// LicenseUnknown is the canonical identifier for anything the
// normalizer does not recognize.
const LicenseUnknown = "unknown"

// licenseAliases folds common spellings to canonical SPDX-style ids.
var licenseAliases = map[string]string{
	"apache":             "apache-2.0",
	"apache 2.0":         "apache-2.0",
	"apache license 2.0": "apache-2.0",
	"apache-2":           "apache-2.0",
	"bsd":                "bsd-3-clause",
	"bsd 3-clause":       "bsd-3-clause",
	"bsd 2-clause":       "bsd-2-clause",
	"gplv2":              "gpl-2.0",
	"gplv3":              "gpl-3.0",
	"gpl":                "gpl-3.0",
	"agpl":               "agpl-3.0",
	"agplv3":             "agpl-3.0",
	"lgpl":               "lgpl-3.0",
	"lgplv3":             "lgpl-3.0",
	"lgplv2.1":           "lgpl-2.1",
	"mpl":                "mpl-2.0",
	"epl":                "epl-2.0",
	"cc-by":              "cc-by-4.0",
	"cc0":                "cc0-1.0",
	"public domain":      "unlicense",
}

// licenseClasses maps canonical identifiers to their class. Anything
// absent here classifies as unknown, which the evaluator treats
// conservatively.
var licenseClasses = map[string]LicenseClass{
	"mit":          ClassPermissive,
	"apache-2.0":   ClassPermissive,
	"bsd-2-clause": ClassPermissive,
	"bsd-3-clause": ClassPermissive,
	"isc":          ClassPermissive,
	"unlicense":    ClassPermissive,
	"cc0-1.0":      ClassPermissive,
	"cc-by-4.0":    ClassPermissive,
	"gpl-2.0":      ClassCopyleftStrong,
	"gpl-3.0":      ClassCopyleftStrong,
	"agpl-3.0":     ClassCopyleftStrong,
	"lgpl-2.1":     ClassCopyleftWeak,
	"lgpl-3.0":     ClassCopyleftWeak,
	"mpl-2.0":      ClassCopyleftWeak,
	"epl-2.0":      ClassCopyleftWeak,
}

// NormalizeLicense maps a raw license string to a canonical identifier.
// Case and surrounding whitespace are folded, known aliases are
// rewritten, and anything that still is not a recognized identifier
// normalizes to LicenseUnknown.
func NormalizeLicense(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return LicenseUnknown
	}
	if canonical, ok := licenseAliases[s]; ok {
		return canonical
	}
	if _, ok := licenseClasses[s]; ok {
		return s
	}
	return LicenseUnknown
}

func ClassifyLicense(canonical string) LicenseClass {
	if class, ok := licenseClasses[canonical]; ok {
		return class
	}
	return ClassUnknown
}

// licenseFamily strips the trailing version from a canonical id, so
// gpl-2.0 and gpl-3.0 share the family "gpl". Identifiers without a
// version suffix are their own family.
func licenseFamily(canonical string) string {
	if i := strings.LastIndex(canonical, "-"); i > 0 {
		suffix := canonical[i+1:]
		if suffix != "" && suffix[0] >= '0' && suffix[0] <= '9' {
			return canonical[:i]
		}
	}
	return canonical
}

// EvaluateLicenses reports whether an artifact under the producer
// license may be used by a consumer under the consumer license. Total
// over all inputs: every pair yields true or false, with unknown on
// either side yielding false.
func EvaluateLicenses(producerRaw, consumerRaw string) bool {
	producer := NormalizeLicense(producerRaw)
	consumer := NormalizeLicense(consumerRaw)
	producerClass := ClassifyLicense(producer)
	consumerClass := ClassifyLicense(consumer)

	if producerClass == ClassUnknown || consumerClass == ClassUnknown {
		return false
	}

	switch producerClass {
	case ClassPermissive:
		return true
	case ClassCopyleftStrong:
		return consumerClass == ClassCopyleftStrong && licenseFamily(producer) == licenseFamily(consumer)
	case ClassCopyleftWeak:
		return true
	default:
		return false
	}
}

// LicenseCheck is the full result of a compatibility check. The
// boolean is authoritative; the classifications let callers tell an
// unknown-driven false apart from a genuine incompatibility.
type LicenseCheck struct {
	Compatible      bool         `json:"compatible"`
	ProducerLicense string       `json:"producer_license"`
	ProducerClass   LicenseClass `json:"producer_class"`
	ConsumerLicense string       `json:"consumer_license"`
	ConsumerClass   LicenseClass `json:"consumer_class"`
	// ProducerUnavailable is set when the root's license had to be
	// fetched upstream and the fetch failed; the check then ran with
	// an unknown producer.
	ProducerUnavailable bool `json:"producer_unavailable,omitempty"`
}
