package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReportLine struct {
	Date   string
	Amount string
	Net    string
	Fee    string
}

type ReportData struct {
	ModelName     string
	GeneratedAt   string
	Gross         string
	Net           string
	Fees          string
	DaysWithSales int64

	Lines []ReportLine
}

type Provider interface {
	GenerateSalesReport(ctx context.Context, data ReportData) (io.Reader, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateSalesReport(ctx context.Context, data ReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Sales Report", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(16,
		col.New(8).Add(
			text.New(data.ModelName, props.Text{Size: 12, Style: fontstyle.Bold}),
			text.New("Generated: "+data.GeneratedAt, props.Text{Size: 9, Top: 6}),
		),
		col.New(4),
	)

	// Summary block
	m.AddRow(8,
		text.NewCol(4, "Gross", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Net (80%)", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Fees (20%)", props.Text{Style: fontstyle.Bold, Size: 9}),
	)
	m.AddRow(10,
		text.NewCol(4, data.Gross, props.Text{Size: 11}),
		text.NewCol(4, data.Net, props.Text{Size: 11}),
		text.NewCol(4, data.Fees, props.Text{Size: 11}),
	)

	// Per-sale table
	m.AddRow(10,
		text.NewCol(4, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Net", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Fee", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range data.Lines {
		m.AddRow(8,
			text.NewCol(4, line.Date, props.Text{Size: 9}),
			text.NewCol(3, line.Amount, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, line.Net, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Fee, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
