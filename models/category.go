package models

import "strings"

// Category is the condition code a supervisor assigns to an account after
// on-site verification. The set is closed; rules live in categoryRules below.
type Category string

const (
	CategoryOK                   Category = "OK"
	CategoryDefectiveMeter       Category = "DEFECTIVE METER"
	CategoryLineDisconnected     Category = "LINE DISCONNECTED"
	CategoryNoMeterAtSite        Category = "NO METER AT SITE"
	CategoryMeterMisMatch        Category = "METER MIS MATCH"
	CategoryHouseLock            Category = "HOUSE LOCK"
	CategoryMeterChangeNotAdvise Category = "METER CHANGE NOT ADVISE"
	CategoryPDC                  Category = "PDC"
)

// MobileFieldKey is the column key the validator reports when the consumer
// mobile number is missing or malformed.
const MobileFieldKey = "MOBILE_NO"

// CategoryRule describes what a category demands from the surveyor: the
// ordered list of fields to fill and an advisory note telling the back
// office what follow-up the finding implies.
type CategoryRule struct {
	Fields       []string `json:"fields"`
	AdvisoryNote string   `json:"advisoryNote,omitempty"`
}

// Order matters: fields render and validate in this order.
var categoryRules = map[Category]CategoryRule{
	CategoryOK: {
		Fields:       []string{"METER SERIAL NUMBER", "METER IMAGE", "READING", "DEMAND"},
		AdvisoryNote: "BILL REVISION REQUIRED",
	},
	CategoryDefectiveMeter: {
		Fields:       []string{"METER SERIAL NUMBER", "METER IMAGE"},
		AdvisoryNote: "METER REPLACEMENT REQUIRED",
	},
	CategoryLineDisconnected: {
		Fields:       []string{"METER SERIAL NUMBER", "METER IMAGE"},
		AdvisoryNote: "NEED RECONNECTION AFTER PAYMENT",
	},
	CategoryNoMeterAtSite: {
		Fields:       []string{"PREMISES IMAGE"},
		AdvisoryNote: "PD/METER INSTALLATION",
	},
	CategoryMeterMisMatch: {
		Fields:       []string{"METER SERIAL NUMBER", "METER IMAGE", "METER READING", "DEMAND"},
		AdvisoryNote: "NEED METER NUMBER UPDATION",
	},
	// HOUSE LOCK and METER CHANGE NOT ADVISE carry no advisory note.
	CategoryHouseLock: {
		Fields: []string{"PREMISES IMAGE"},
	},
	CategoryMeterChangeNotAdvise: {
		Fields: []string{"METER SERIAL NUMBER", "METER IMAGE", "METER READING", "DEMAND"},
	},
	CategoryPDC: {
		Fields:       []string{"METER IMAGE", "PREMISES IMAGE", "DOCUMENT RELATED TO PDC"},
		AdvisoryNote: "MASTER UPDATION REQUIRED",
	},
}

// Categories returns the closed category set in selector order.
func Categories() []Category {
	return []Category{
		CategoryOK,
		CategoryDefectiveMeter,
		CategoryLineDisconnected,
		CategoryNoMeterAtSite,
		CategoryMeterMisMatch,
		CategoryHouseLock,
		CategoryMeterChangeNotAdvise,
		CategoryPDC,
	}
}

// RulesFor returns the rule for a category, or ok=false for anything
// outside the closed set.
func RulesFor(c Category) (CategoryRule, bool) {
	rule, ok := categoryRules[c]
	return rule, ok
}

// ParseCategory matches raw input against the closed set, tolerating
// surrounding whitespace and lowercase from clients.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := categoryRules[c]
	return c, ok
}

// MobileExempt reports whether the category waives the consumer mobile
// number. HOUSE LOCK is the single exempt category: nobody is home to ask.
func (c Category) MobileExempt() bool {
	return c == CategoryHouseLock
}

// FieldIsAttachment reports whether a required field must be satisfied by a
// captured photo/document rather than typed text.
func FieldIsAttachment(name string) bool {
	upper := strings.ToUpper(name)
	return strings.Contains(upper, "IMAGE") || strings.Contains(upper, "DOCUMENT")
}

// FieldKey normalizes a display field name to its column key form,
// e.g. "METER SERIAL NUMBER" -> "METER_SERIAL_NUMBER".
func FieldKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
