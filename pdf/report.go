// Package pdf renders the two management reports (clients having
// purchased, sales history) as A4 documents.
package pdf

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ClientRow struct {
	Nom         string
	Telephone   string
	Email       string
	SaleCount   int
	TotalAmount float64
}

type ClientsReportData struct {
	GeneratedAt time.Time
	Clients     []ClientRow
}

type SaleRow struct {
	Number   uint
	Client   string
	Date     time.Time
	Total    float64
	Products string // "name (×qty), ..." summary
}

type SalesReportData struct {
	GeneratedAt time.Time
	LineCount   int64
	Sales       []SaleRow
}

var (
	headerColor = &props.Color{Red: 52, Green: 152, Blue: 219}
	salesColor  = &props.Color{Red: 39, Green: 174, Blue: 96}
	white       = &props.Color{Red: 255, Green: 255, Blue: 255}
	grey        = &props.Color{Red: 120, Green: 120, Blue: 120}
)

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	return maroto.New(cfg)
}

func addTitle(m core.Maroto, title string, generatedAt time.Time) {
	m.AddRow(14, text.NewCol(12, title, props.Text{
		Size:  18,
		Style: fontstyle.Bold,
		Align: align.Center,
	}))
	m.AddRow(8, text.NewCol(12, "Généré le: "+generatedAt.Format("02/01/2006 15:04"), props.Text{
		Size:  10,
		Align: align.Right,
		Color: grey,
	}))
}

func addStatLine(m core.Maroto, label, value string) {
	m.AddRow(7,
		text.NewCol(6, label, props.Text{Size: 11, Style: fontstyle.Bold}),
		text.NewCol(4, value, props.Text{Size: 11, Style: fontstyle.Bold}),
	)
}

// ClientsReport lays out the buyers listing: a stats block followed by
// one row per client (name, phone, email, purchases, amount).
func ClientsReport(data ClientsReportData) ([]byte, error) {
	m := newDocument()
	addTitle(m, "RAPPORT DES CLIENTS", data.GeneratedAt)

	totalSales := 0
	var totalAmount float64
	for _, c := range data.Clients {
		totalSales += c.SaleCount
		totalAmount += c.TotalAmount
	}
	addStatLine(m, "Total de clients ayant acheté:", fmt.Sprintf("%d", len(data.Clients)))
	addStatLine(m, "Nombre total d'achats:", fmt.Sprintf("%d", totalSales))
	addStatLine(m, "Montant total généré:", fmt.Sprintf("%.2f DZD", totalAmount))
	m.AddRow(6)

	m.AddRows(row.New(8).Add(
		text.NewCol(3, "Nom", headerCell()),
		text.NewCol(2, "Téléphone", headerCell()),
		text.NewCol(3, "Email", headerCell()),
		text.NewCol(2, "Nombre d'achats", headerCell()),
		text.NewCol(2, "Montant Total", headerCell()),
	).WithStyle(&props.Cell{BackgroundColor: headerColor}))

	for _, c := range data.Clients {
		m.AddRow(7,
			text.NewCol(3, c.Nom, bodyCell(align.Left)),
			text.NewCol(2, orDash(c.Telephone), bodyCell(align.Center)),
			text.NewCol(3, orDash(c.Email), bodyCell(align.Center)),
			text.NewCol(2, fmt.Sprintf("%d", c.SaleCount), bodyCell(align.Center)),
			text.NewCol(2, fmt.Sprintf("%.2f DZD", c.TotalAmount), bodyCell(align.Center)),
		)
	}

	addFooter(m)
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// SalesReport lays out the sales history with its stats block and the
// fixed column set (number, client, date, amount, products summary).
func SalesReport(data SalesReportData) ([]byte, error) {
	m := newDocument()
	addTitle(m, "RAPPORT DE VENTES", data.GeneratedAt)

	var totalAmount float64
	for _, s := range data.Sales {
		totalAmount += s.Total
	}
	addStatLine(m, "Total de ventes:", fmt.Sprintf("%d", len(data.Sales)))
	addStatLine(m, "Montant total généré:", fmt.Sprintf("%.2f DZD", totalAmount))
	addStatLine(m, "Nombre de lignes vendues:", fmt.Sprintf("%d", data.LineCount))
	m.AddRow(6)

	m.AddRows(row.New(8).Add(
		text.NewCol(1, "N°", headerCell()),
		text.NewCol(3, "Client", headerCell()),
		text.NewCol(2, "Date", headerCell()),
		text.NewCol(2, "Montant", headerCell()),
		text.NewCol(4, "Produits", headerCell()),
	).WithStyle(&props.Cell{BackgroundColor: salesColor}))

	for _, s := range data.Sales {
		m.AddRow(7,
			text.NewCol(1, fmt.Sprintf("#%d", s.Number), bodyCell(align.Left)),
			text.NewCol(3, orDash(s.Client), bodyCell(align.Center)),
			text.NewCol(2, s.Date.Format("02/01/2006"), bodyCell(align.Center)),
			text.NewCol(2, fmt.Sprintf("%.2f DZD", s.Total), bodyCell(align.Center)),
			text.NewCol(4, Truncate(s.Products, 50), bodyCell(align.Left)),
		)
	}

	addFooter(m)
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func addFooter(m core.Maroto) {
	m.AddRow(10)
	m.AddRow(6, text.NewCol(12, "Rapport généré automatiquement par le système de gestion des ventes", props.Text{
		Size:  8,
		Align: align.Center,
		Color: grey,
	}))
}

func headerCell() props.Text {
	return props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Center, Color: white}
}

func bodyCell(a align.Type) props.Text {
	return props.Text{Size: 9, Align: a}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Truncate cuts a products summary at max runes with an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
