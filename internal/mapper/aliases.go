package mapper

import (
	"sort"
	"strings"
	"unicode"

	"github.com/rbauergh/WIExciseShipperV2XMLFormGen/internal/report"
)

// Entry lists the header aliases for one field.
type Entry struct {
	Field   Field
	Aliases []string
}

type fragment struct {
	tokens []string
	text   string
	field  Field
}

// AliasTable maps normalized header strings to canonical fields. A table is
// immutable once built and safe for concurrent use.
type AliasTable struct {
	entries   []Entry
	exact     map[string]Field
	compact   map[string]Field
	fragments []fragment
}

// exactOnly holds generic aliases that would misfire inside longer headers
// ("Case Count", "Package Type"). They match a whole header or nothing.
var exactOnly = map[string]bool{
	"count":    true,
	"type":     true,
	"size":     true,
	"qty":      true,
	"quantity": true,
	"ml":       true,
	"st":       true,
}

// NewAliasTable builds a table from entries. Entry order matters: when two
// aliases normalize to the same string the earlier one wins, and it breaks
// ties between equally long fragments. Aliases in exactOnly never match as
// fragments. The input is copied.
func NewAliasTable(entries []Entry) *AliasTable {
	t := &AliasTable{
		entries: make([]Entry, 0, len(entries)),
		exact:   make(map[string]Field),
		compact: make(map[string]Field),
	}

	for _, e := range entries {
		aliases := append([]string(nil), e.Aliases...)
		t.entries = append(t.entries, Entry{Field: e.Field, Aliases: aliases})

		for _, alias := range aliases {
			norm := NormalizeHeader(alias)
			if norm == "" {
				continue
			}
			if _, dup := t.exact[norm]; !dup {
				t.exact[norm] = e.Field
			}
			squashed := strings.ReplaceAll(norm, " ", "")
			if _, dup := t.compact[squashed]; !dup {
				t.compact[squashed] = e.Field
			}
			if exactOnly[norm] {
				continue
			}
			t.fragments = append(t.fragments, fragment{
				tokens: strings.Fields(norm),
				text:   norm,
				field:  e.Field,
			})
		}
	}

	// Longest fragment first; table order breaks ties.
	sort.SliceStable(t.fragments, func(i, j int) bool {
		return len(t.fragments[i].text) > len(t.fragments[j].text)
	})
	return t
}

// Entries returns a copy of the table contents.
func (t *AliasTable) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Field: e.Field, Aliases: append([]string(nil), e.Aliases...)}
	}
	return out
}

// Fields returns the fields known to the table in table order.
func (t *AliasTable) Fields() []Field {
	out := make([]Field, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Field
	}
	return out
}

// Has reports whether f is part of the table.
func (t *AliasTable) Has(f Field) bool {
	for _, e := range t.entries {
		if e.Field == f {
			return true
		}
	}
	return false
}

// MatchKind records how a header was resolved.
type MatchKind int

const (
	NoMatch MatchKind = iota
	FragmentMatch
	ExactMatch
)

// Lookup resolves one raw header to a field.
func (t *AliasTable) Lookup(header string) Field {
	f, _ := t.Match(header)
	return f
}

// Match resolves one raw header. An exact alias match is preferred, then a
// match ignoring spaces ("ShipToZip"), then the longest alias whose words
// appear contiguously in the header ("Ship To Street" contains "street").
func (t *AliasTable) Match(header string) (Field, MatchKind) {
	norm := NormalizeHeader(header)
	if norm == "" {
		return Unmapped, NoMatch
	}
	if f, ok := t.exact[norm]; ok {
		return f, ExactMatch
	}
	if f, ok := t.compact[strings.ReplaceAll(norm, " ", "")]; ok {
		return f, ExactMatch
	}

	words := strings.Fields(norm)
	for _, frag := range t.fragments {
		if containsRun(words, frag.tokens) {
			return frag.field, FragmentMatch
		}
	}
	return Unmapped, NoMatch
}

// containsRun reports whether needle appears as a contiguous run in words.
func containsRun(words, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(words) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(words); i++ {
		for j, w := range needle {
			if words[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

// NormalizeHeader trims and lowercases a header, turns punctuation into
// spaces and collapses whitespace. "Weight (lbs)" becomes "weight lbs".
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// =============================================================================
// BUILT-IN TABLES
// =============================================================================

var consigneeEntries = []Entry{
	{ConsigneeName, []string{"Ship To Company", "Ship To Name", "Consignee Name", "Company", "Customer Name", "Recipient", "Name"}},
	{ConsigneeAddressLine1, []string{"Ship To Street", "Ship To Address", "Consignee Address", "Address", "Street", "Street Address", "Address Line 1", "AddressLine1", "Address1"}},
	{ConsigneeAddressLine2, []string{"Ship To Street 2", "Ship To Address 2", "Address Line 2", "AddressLine2", "Address2", "Suite", "Apt"}},
	{ConsigneeCity, []string{"Ship To City", "Consignee City", "City"}},
	{ConsigneeState, []string{"Ship To State", "Consignee State", "State", "ST"}},
	{ConsigneeZIP, []string{"Ship To Zip", "Ship To Postal Code", "Consignee Zip", "Zip", "ZIP", "Zip Code", "ZipCode", "Postal Code"}},
	{TrackingNumber, []string{"Tracking Nos", "Tracking Number", "Tracking #", "Tracking", "TrackingNumber", "Tracking No"}},
	{ShipmentDate, []string{"Order Date", "Shipment Date", "Ship Date", "Date"}},
}

var consignorEntries = []Entry{
	{ConsignorName, []string{"Ship From Company", "Ship From Name", "Consignor Name"}},
	{ConsignorAddressLine1, []string{"Ship From Street", "Ship From Address", "Consignor Address", "Consignor Street"}},
	{ConsignorAddressLine2, []string{"Ship From Street 2", "Ship From Address 2", "Consignor Address 2"}},
	{ConsignorCity, []string{"Ship From City", "Consignor City"}},
	{ConsignorState, []string{"Ship From State", "Consignor State"}},
	{ConsignorZIP, []string{"Ship From Zip", "Consignor Zip"}},
}

var commonCarrierEntries = []Entry{
	{WeightOfBeverages, []string{"LB", "LBS", "Weight", "Weight (lbs)", "Pounds", "Weight Of Beverages"}},
	{BeverageType, []string{"TYPE", "Type", "Beverage Type", "BeverageType", "Beverage"}},
	{BillOfLadingNumber, []string{"Bill Of Lading Number", "Bill Of Lading", "BOL", "BOL Number"}},
	{PermitNumber, []string{"Permit Number", "Consignor Permit", "Permit"}},
}

var fulfillmentHouseEntries = []Entry{
	{BottleCount, []string{"BOTTLE COUNT", "Bottle Count", "BottleCount", "Bottles", "Count", "Qty", "Quantity"}},
	{BottleSizeML, []string{"SIZE", "Size", "Bottle Size", "BottleSize", "ML", "Size (ml)"}},
	{QuantityOfWine, []string{"Quantity Of Wine", "Liters", "Litres", "Quantity (L)", "Volume (L)"}},
}

func concat(groups ...[]Entry) []Entry {
	var out []Entry
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// CommonCarrierAliases returns the built-in table for AB136 imports.
func CommonCarrierAliases() *AliasTable {
	return NewAliasTable(concat(consigneeEntries, commonCarrierEntries, consignorEntries))
}

// FulfillmentHouseAliases returns the built-in table for AB137 imports.
func FulfillmentHouseAliases() *AliasTable {
	return NewAliasTable(concat(consigneeEntries, fulfillmentHouseEntries, consignorEntries))
}

// AliasesFor returns the built-in table for rt, or nil for an unknown type.
func AliasesFor(rt report.ReportType) *AliasTable {
	switch rt {
	case report.CommonCarrier:
		return CommonCarrierAliases()
	case report.FulfillmentHouse:
		return FulfillmentHouseAliases()
	}
	return nil
}
