package pdf

import (
	"context"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (p *MarotoProvider) RenderInvoice(ctx context.Context, inv InvoiceData) ([]byte, error) {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return nil, ErrEmptyDocument
	}

	m := newDocument()

	m.AddRow(12,
		text.NewCol(8, inv.Company.Name, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "INVOICE", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(24,
		partyCol(6, "", inv.Company),
		col.New(6).Add(
			text.New("Invoice number: "+inv.InvoiceNumber, props.Text{Align: align.Right}),
			text.New("Date of issue: "+inv.IssueDate, props.Text{Top: 5, Align: align.Right}),
			text.New("Date due: "+inv.DueDate, props.Text{Top: 10, Align: align.Right}),
			text.New("Status: "+strings.ToUpper(inv.Status), props.Text{Top: 15, Align: align.Right}),
		),
	)
	m.AddRow(28,
		partyCol(6, "Bill to", inv.BillTo),
		col.New(6).Add(
			text.New("Vehicle", props.Text{Style: fontstyle.Bold}),
			text.New(inv.Vehicle, props.Text{Top: 5}),
			text.New("Terms: "+inv.PaymentTerms, props.Text{Top: 10}),
		),
	)

	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))
	for _, item := range inv.Lines {
		desc := col.New(6).Add(text.New(item.Description, props.Text{Size: 9}))
		height := 8.0
		if item.Detail != "" {
			desc.Add(text.New(item.Detail, props.Text{Size: 8, Top: 4}))
			height = 12
		}
		m.AddRow(height,
			desc,
			text.NewCol(2, item.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))

	m.AddRow(7, totalCols("Subtotal", inv.Subtotal, false)...)
	if inv.Discount != "" {
		m.AddRow(7, totalCols("Discount", "-"+inv.Discount, false)...)
	}
	m.AddRow(7, totalCols(inv.TaxLabel, inv.TaxAmount, false)...)
	m.AddRow(7, totalCols("Total", inv.Total, true)...)
	m.AddRow(7, totalCols("Paid", inv.PaidAmount, false)...)
	m.AddRow(7, totalCols("Balance due", inv.BalanceDue, true)...)

	if inv.Notes != "" {
		m.AddRow(16, col.New(12).Add(
			text.New("Notes", props.Text{Style: fontstyle.Bold, Size: 9, Top: 4}),
			text.New(inv.Notes, props.Text{Size: 9, Top: 9}),
		))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func (p *MarotoProvider) RenderReceipt(ctx context.Context, r ReceiptData) ([]byte, error) {
	if strings.TrimSpace(r.ReceiptNumber) == "" {
		return nil, ErrEmptyDocument
	}

	m := newDocument()

	m.AddRow(12,
		text.NewCol(8, r.Company.Name, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "RECEIPT", props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(24,
		partyCol(6, "", r.Company),
		col.New(6).Add(
			text.New("Receipt number: "+r.ReceiptNumber, props.Text{Align: align.Right}),
			text.New("Invoice number: "+r.InvoiceNumber, props.Text{Top: 5, Align: align.Right}),
			text.New("Date paid: "+r.DatePaid, props.Text{Top: 10, Align: align.Right}),
		),
	)
	m.AddRow(24, partyCol(12, "Received from", r.BillTo))

	m.AddRow(14,
		text.NewCol(12, r.Amount+" paid on "+r.DatePaid, props.Text{Size: 14, Style: fontstyle.Bold, Top: 4}),
	)
	m.AddRow(2, line.NewCol(12))
	m.AddRow(7, totalCols("Method", r.Method, false)...)
	if r.Reference != "" {
		m.AddRow(7, totalCols("Reference", r.Reference, false)...)
	}
	m.AddRow(7, totalCols("Invoice total", r.InvoiceTotal, false)...)
	m.AddRow(7, totalCols("Balance due", r.BalanceDue, true)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func partyCol(size int, title string, party Party) core.Col {
	c := col.New(size)
	top := 0.0
	if title != "" {
		c.Add(text.New(title, props.Text{Style: fontstyle.Bold}))
		top += 5
	}
	c.Add(text.New(party.Name, props.Text{Top: top}))
	for _, l := range party.Lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		top += 4
		c.Add(text.New(l, props.Text{Top: top, Size: 9}))
	}
	for _, contact := range []string{party.Phone, party.Email} {
		if contact == "" {
			continue
		}
		top += 4
		c.Add(text.New(contact, props.Text{Top: top, Size: 9}))
	}
	return c
}

func totalCols(label, value string, bold bool) []core.Col {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	return []core.Col{
		col.New(8),
		text.NewCol(2, label, props.Text{Size: 9, Style: style}),
		text.NewCol(2, value, props.Text{Size: 9, Style: style, Align: align.Right}),
	}
}
