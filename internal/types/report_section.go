package types

import "sort"

// ReportSection represents one generated subdivision of the compiled report.
// Order defines presentation order and is independent of generation completion order.
type ReportSection struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Order    int    `json:"order"`
	Fallback bool   `json:"fallback,omitempty"` // Content is the fixed fallback text
}

// SortSections sorts sections in place by ascending Order
func SortSections(sections []ReportSection) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
}
