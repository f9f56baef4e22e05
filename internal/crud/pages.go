package crud

import (
	"github.com/denguechat/denguechat-admin/internal/datatable"
	"github.com/denguechat/denguechat-admin/internal/form"
)

// ListPage is the data of pages/crud/list.html.
type ListPage struct {
	Heading   string
	Table     datatable.Table
	NewURL    string
	ExportCSV string
	ExportPDF string
}

// FormPage is the data of pages/crud/form.html.
type FormPage struct {
	Heading   string
	Form      *form.Form
	CancelURL string
}

// Detail is one labelled value of a detail page.
type Detail struct {
	Label string
	Value string
	Link  string
	// Badge renders the value as a status badge.
	Badge bool
}

// Section is a nested table on a detail page.
type Section struct {
	Heading string
	Table   datatable.Table
	NewURL  string
}

// ShowPage is the data of pages/crud/show.html.
type ShowPage struct {
	Heading   string
	Details   []Detail
	Sections  []Section
	BackURL   string
	EditURL   string
	DeleteURL string
}

// PrintPage is the data of pages/crud/print.html, the PDF source.
type PrintPage struct {
	Heading     string
	GeneratedAt string
	Headers     []string
	Rows        [][]string
}
