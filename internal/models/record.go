package models

// Record is the canonical exported TIMEX3 record for one document.
type Record struct {
	Text    string        `json:"text"`
	Timexes []ExportTimex `json:"timexes"`
}

// ExportTimex is one surviving tag in an exported record. The pointer fields
// belong to the extended schema and are omitted by the basic one.
type ExportTimex struct {
	TID              string  `json:"tid"`
	Type             TagType `json:"type"`
	Value            string  `json:"value"`
	ValueFromSurface *string `json:"valueFromSurface,omitempty"`
	Text             string  `json:"text"`
	Freq             string  `json:"freq"`
	Quant            string  `json:"quant"`
	Mod              string  `json:"mod"`
	RangeStart       *bool   `json:"rangeStart,omitempty"`
	RangeEnd         *bool   `json:"rangeEnd,omitempty"`
	Span             Span    `json:"span"`
}
